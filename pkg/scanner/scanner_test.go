package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Spl0itable/wordfence-cli/pkg/types"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func sigSet(t *testing.T, sigs ...*types.Signature) *types.SignatureSet {
	t.Helper()
	set := types.NewSignatureSet()
	for _, s := range sigs {
		if err := set.Add(s); err != nil {
			t.Fatal(err)
		}
	}
	set.Build()
	return set
}

func TestScan_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	set := sigSet(t, &types.Signature{ID: 1, Pattern: "eval\\("})

	s, err := New(Options{Paths: []string{dir}, Signatures: set, Workers: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var results []*types.ScanResult
	var mu sync.Mutex
	err = s.Scan(context.Background(), func(r *types.ScanResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}, nil, func(metrics *types.ScanMetrics, elapsed time.Duration) {
		if metrics.TotalCount() != 0 {
			t.Errorf("expected count 0, got %d", metrics.TotalCount())
		}
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results from an empty directory, got %d", len(results))
	}
}

func TestScan_SingleMatchingFile(t *testing.T) {
	dir := t.TempDir()
	content := "<?php eval($_GET[x]);"
	writeFile(t, filepath.Join(dir, "a.php"), content)

	set := sigSet(t, &types.Signature{ID: 42, Pattern: `eval\(\$_GET`})
	s, err := New(Options{Paths: []string{dir}, Signatures: set, Workers: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var results []*types.ScanResult
	err = s.Scan(context.Background(), func(r *types.ScanResult) { results = append(results, r) }, nil, func(*types.ScanMetrics, time.Duration) {})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly 1 FILE_PROCESSED, got %d", len(results))
	}
	if results[0].ReadLength != uint64(len(content)) {
		t.Errorf("expected read_length %d, got %d", len(content), results[0].ReadLength)
	}
	excerpt, ok := results[0].Matches[42]
	if !ok {
		t.Fatalf("expected signature 42 to match")
	}
	if excerpt != "eval($_GET" {
		t.Errorf("expected excerpt %q, got %q", "eval($_GET", excerpt)
	}
}

func TestScan_FilterExclusion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.php"), "<?php eval(1); ?>")
	writeFile(t, filepath.Join(dir, "b.png"), "not scanned")

	set := sigSet(t, &types.Signature{ID: 1, Pattern: "eval\\("})
	s, err := New(Options{Paths: []string{dir}, Signatures: set, Workers: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var results []*types.ScanResult
	if err := s.Scan(context.Background(), func(r *types.ScanResult) { results = append(results, r) }, nil, func(*types.ScanMetrics, time.Duration) {}); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(results) != 1 || filepath.Base(results[0].Path) != "a.php" {
		t.Fatalf("expected only a.php processed, got %v", results)
	}
}

func TestScan_MatchAllYieldsEverySignature(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.php"), "eval( base64_decode(")

	set := sigSet(t,
		&types.Signature{ID: 1, Pattern: "eval\\("},
		&types.Signature{ID: 2, Pattern: "base64_decode"},
	)
	s, err := New(Options{Paths: []string{dir}, Signatures: set, Workers: 1, MatchAll: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var results []*types.ScanResult
	if err := s.Scan(context.Background(), func(r *types.ScanResult) { results = append(results, r) }, nil, func(*types.ScanMetrics, time.Duration) {}); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if len(results[0].Matches) != 2 {
		t.Fatalf("expected match_all to find both signatures, got %d", len(results[0].Matches))
	}
}

func TestScan_NonMatchAllStopsAtFirstMatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.php"), "eval( base64_decode(")

	set := sigSet(t,
		&types.Signature{ID: 1, Pattern: "eval\\("},
		&types.Signature{ID: 2, Pattern: "base64_decode"},
	)
	s, err := New(Options{Paths: []string{dir}, Signatures: set, Workers: 1, MatchAll: false})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var results []*types.ScanResult
	if err := s.Scan(context.Background(), func(r *types.ScanResult) { results = append(results, r) }, nil, func(*types.ScanMetrics, time.Duration) {}); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(results) != 1 || len(results[0].Matches) != 1 {
		t.Fatalf("expected exactly 1 match when match_all is false, got %+v", results)
	}
}

func TestScan_TwoRootsFourWorkers(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	for i := 0; i < 100; i++ {
		writeFile(t, filepath.Join(rootA, fmt.Sprintf("a%d.php", i)), "plain content")
		writeFile(t, filepath.Join(rootB, fmt.Sprintf("b%d.php", i)), "plain content")
	}

	set := sigSet(t, &types.Signature{ID: 1, Pattern: "nonexistentpattern"})
	s, err := New(Options{Paths: []string{rootA, rootB}, Signatures: set, Workers: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var mu sync.Mutex
	count := 0
	var finalMetrics *types.ScanMetrics
	err = s.Scan(context.Background(), func(r *types.ScanResult) {
		mu.Lock()
		count++
		mu.Unlock()
	}, nil, func(metrics *types.ScanMetrics, elapsed time.Duration) {
		finalMetrics = metrics
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if count != 200 {
		t.Fatalf("expected 200 processed files, got %d", count)
	}
	if finalMetrics.TotalCount() != 200 {
		t.Fatalf("expected aggregated count 200, got %d", finalMetrics.TotalCount())
	}
	if len(finalMetrics.Counts) != 4 {
		t.Fatalf("expected 4 per-worker counters, got %d", len(finalMetrics.Counts))
	}
}

func TestScan_IOErrorOnOneFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root: permission bits are not enforced")
	}
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.php"), "eval(1)")
	deniedPath := filepath.Join(dir, "b.php")
	writeFile(t, deniedPath, "eval(2)")
	if err := os.Chmod(deniedPath, 0o000); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(deniedPath, 0o644)

	set := sigSet(t, &types.Signature{ID: 1, Pattern: "eval\\("})
	s, err := New(Options{Paths: []string{dir}, Signatures: set, Workers: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var processed int
	var mu sync.Mutex
	err = s.Scan(context.Background(), func(r *types.ScanResult) {
		mu.Lock()
		processed++
		mu.Unlock()
	}, nil, func(metrics *types.ScanMetrics, elapsed time.Duration) {
		if metrics.TotalCount() != 1 {
			t.Errorf("expected aggregated count 1, got %d", metrics.TotalCount())
		}
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected exactly 1 FILE_PROCESSED, got %d", processed)
	}
}

func TestScan_PatternTimeout(t *testing.T) {
	dir := t.TempDir()
	// A classic catastrophic-backtracking pattern paired with a
	// non-matching run of 'a's forces regexp2 to exceed a tiny budget.
	content := fmt.Sprintf("%s!", stringsRepeat("a", 40))
	writeFile(t, filepath.Join(dir, "a.php"), content)

	set := sigSet(t, &types.Signature{ID: 99, Pattern: `(a+)+$`, TimeoutMS: 1})
	s, err := New(Options{Paths: []string{dir}, Signatures: set, Workers: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var results []*types.ScanResult
	var timeoutsReported int64
	err = s.Scan(context.Background(), func(r *types.ScanResult) { results = append(results, r) }, nil, func(metrics *types.ScanMetrics, elapsed time.Duration) {
		timeoutsReported = metrics.TotalTimeouts()
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if _, timedOut := results[0].Timeouts[99]; !timedOut {
		t.Skip("pattern did not overrun the 1ms budget on this machine; timing-dependent")
	}
	if timeoutsReported != 1 {
		t.Errorf("expected aggregated timeout count 1, got %d", timeoutsReported)
	}
}

func stringsRepeat(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}

func TestScan_NoPathsIsConfigurationError(t *testing.T) {
	set := sigSet(t, &types.Signature{ID: 1, Pattern: "x"})
	s, err := New(Options{Signatures: set, Workers: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = s.Scan(context.Background(), func(*types.ScanResult) {}, nil, func(*types.ScanMetrics, time.Duration) {})
	if err == nil {
		t.Fatal("expected a ConfigurationError when no paths are configured")
	}
	if _, ok := err.(*types.ConfigurationError); !ok {
		t.Fatalf("expected *types.ConfigurationError, got %T", err)
	}
}

func TestScan_ProgressCallbackInvoked(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.php"), "plain")

	set := sigSet(t, &types.Signature{ID: 1, Pattern: "nomatch"})
	s, err := New(Options{Paths: []string{dir}, Signatures: set, Workers: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var calls int
	var mu sync.Mutex
	err = s.Scan(context.Background(), func(*types.ScanResult) {}, func(u *types.ScanProgressUpdate) {
		mu.Lock()
		calls++
		mu.Unlock()
	}, func(*types.ScanMetrics, time.Duration) {})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if calls < 1 {
		t.Fatal("expected at least the initial progress callback invocation")
	}
}
