package types

import "time"

// ScanResult is a single file's outcome: which signatures matched (with
// their first matching excerpt) and which timed out.
type ScanResult struct {
	Path       string
	ReadLength uint64
	Matches    map[int64]string
	Timeouts   map[int64]struct{}
	Timestamp  time.Time
}

// HasMatches reports whether any signature matched this file.
func (r *ScanResult) HasMatches() bool {
	return len(r.Matches) > 0
}

// TimeoutCount returns how many signatures timed out while scanning this file.
func (r *ScanResult) TimeoutCount() int {
	return len(r.Timeouts)
}

// ScanMetrics accumulates per-worker counters. It is owned and mutated
// exclusively by the pool's event loop goroutine; snapshots handed to the
// progress callback are read-only copies.
type ScanMetrics struct {
	Counts   []int64
	Bytes    []int64
	Matches  []int64
	Timeouts []int64
}

// NewScanMetrics allocates per-worker counters for workerCount workers.
func NewScanMetrics(workerCount int) *ScanMetrics {
	return &ScanMetrics{
		Counts:   make([]int64, workerCount),
		Bytes:    make([]int64, workerCount),
		Matches:  make([]int64, workerCount),
		Timeouts: make([]int64, workerCount),
	}
}

// RecordResult folds one worker's ScanResult into the aggregate counters.
// workerIndex is 1-based (locator index 0 never records a result).
func (m *ScanMetrics) RecordResult(workerIndex int, result *ScanResult) {
	i := workerIndex - 1
	m.Counts[i]++
	m.Bytes[i] += int64(result.ReadLength)
	if result.HasMatches() {
		m.Matches[i]++
	}
	m.Timeouts[i] += int64(result.TimeoutCount())
}

func sumInt64(values []int64) int64 {
	var total int64
	for _, v := range values {
		total += v
	}
	return total
}

// TotalCount is the number of files processed across all workers.
func (m *ScanMetrics) TotalCount() int64 { return sumInt64(m.Counts) }

// TotalBytes is the number of content bytes read across all workers.
func (m *ScanMetrics) TotalBytes() int64 { return sumInt64(m.Bytes) }

// TotalMatches is the number of files with at least one match.
func (m *ScanMetrics) TotalMatches() int64 { return sumInt64(m.Matches) }

// TotalTimeouts is the number of signature timeouts across all workers.
func (m *ScanMetrics) TotalTimeouts() int64 { return sumInt64(m.Timeouts) }

// Snapshot returns a copy safe to hand to a progress callback without
// racing the event loop's ongoing mutation of the live metrics.
func (m *ScanMetrics) Snapshot() *ScanMetrics {
	clone := &ScanMetrics{
		Counts:   append([]int64(nil), m.Counts...),
		Bytes:    append([]int64(nil), m.Bytes...),
		Matches:  append([]int64(nil), m.Matches...),
		Timeouts: append([]int64(nil), m.Timeouts...),
	}
	return clone
}

// ScanProgressUpdate is delivered to the progress callback on each tick.
type ScanProgressUpdate struct {
	ElapsedTime time.Duration
	Metrics     *ScanMetrics
}
