// Package scanner implements the parallel scanning engine of spec.md
// §4.F-I: scan workers, the optional progress monitor, the worker pool /
// event loop, and the Scanner façade that wires them to a locator unit and
// a compiled matcher.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/Spl0itable/wordfence-cli/pkg/filter"
	"github.com/Spl0itable/wordfence-cli/pkg/locate"
	"github.com/Spl0itable/wordfence-cli/pkg/matcher"
	"github.com/Spl0itable/wordfence-cli/pkg/pathsource"
	"github.com/Spl0itable/wordfence-cli/pkg/types"
)

// workQueueSize is spec.md §4.H's bounded locator-output / worker-input
// queue capacity.
const workQueueSize = 10000

// DefaultChunkSize is the default number of bytes read per chunk.
const DefaultChunkSize = 1024 * 1024

// DefaultReadTimeout is the work-queue read timeout liveness safety net of
// spec.md §9's first open question, made configurable as instructed there.
const DefaultReadTimeout = 180 * time.Second

// Options configures one Scanner.Scan call.
type Options struct {
	Paths      []string
	Signatures *types.SignatureSet
	Workers    int
	ChunkSize  int

	// PathSource optionally streams additional root paths (e.g. from
	// standard input) beyond Paths.
	PathSource *pathsource.StreamReader

	// ScannedContentLimit, if nonzero, stops reading a file after this many
	// bytes regardless of its actual size.
	ScannedContentLimit uint64

	FileFilter     *filter.FileFilter
	FollowSymlinks bool
	MatchAll       bool
	RuleTimeout    time.Duration

	// ReadTimeout overrides DefaultReadTimeout.
	ReadTimeout time.Duration

	Logger Logger
}

// ResultCallback receives one ScanResult per processed file.
type ResultCallback func(*types.ScanResult)

// ProgressCallback receives periodic progress snapshots. Supplying one
// starts the progress monitor unit.
type ProgressCallback func(*types.ScanProgressUpdate)

// FinishedCallback is invoked once after the scan completes with the final
// metrics and elapsed time. It is not invoked when Scan returns an error.
type FinishedCallback func(metrics *types.ScanMetrics, elapsed time.Duration)

// Scanner wires together the locator unit, compiled matcher, worker pool,
// and metrics for repeated Scan calls sharing the same Options.
type Scanner struct {
	opts Options
}

// New validates and normalizes opts, returning a Scanner ready to run scans.
func New(opts Options) (*Scanner, error) {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.RuleTimeout <= 0 {
		opts.RuleTimeout = matcher.DefaultRuleTimeout
	}
	if opts.FileFilter == nil {
		f, err := filter.NewFromOptions(filter.Options{})
		if err != nil {
			return nil, err
		}
		opts.FileFilter = f
	}
	if opts.Signatures == nil {
		return nil, fmt.Errorf("scanner: Options.Signatures is required")
	}
	if opts.Logger == nil {
		opts.Logger = NoopLogger{}
	}
	return &Scanner{opts: opts}, nil
}

// DefaultFinishedCallback logs the summary message spec.md §4.I specifies,
// through the Scanner's configured Logger.
func DefaultFinishedCallback(logger Logger) FinishedCallback {
	return func(metrics *types.ScanMetrics, elapsed time.Duration) {
		logger.Log(types.LogInfo,
			"Found %d matching file(s) after processing %d file(s) containing %d byte(s) over %s",
			metrics.TotalMatches(), metrics.TotalCount(), metrics.TotalBytes(), elapsed)
		if timeouts := metrics.TotalTimeouts(); timeouts > 0 {
			logger.Log(types.LogWarn, "%d timeout(s) occurred during scan", timeouts)
		}
	}
}

// Scan runs one complete scan: locating files, matching them against the
// configured signatures, and invoking the supplied callbacks. It follows
// the exact operation order of spec.md §4.I. Cancelling ctx (e.g. from a
// signal handler) stops the scan early: the event loop drains at most one
// more queued event, then every worker is terminated and Scan returns
// ctx.Err().
func (s *Scanner) Scan(ctx context.Context, resultCB ResultCallback, progressCB ProgressCallback, finishedCB FinishedCallback) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if finishedCB == nil {
		finishedCB = DefaultFinishedCallback(s.opts.Logger)
	}

	// 1. Start a timer.
	start := time.Now()

	// 2. Compile the matcher, then construct the locator unit; the event
	//    queue and metrics(worker_count) are owned by the pool and created
	//    in step 5. The locator unit's goroutine starts immediately, so it
	//    begins walking as soon as the first path is added in step 3, while
	//    further paths are still being added and the pool is starting.
	matchOpts := matcher.Options{RuleTimeout: s.opts.RuleTimeout, MatchAll: s.opts.MatchAll}
	compiled, err := matcher.New(s.opts.Signatures, matchOpts)
	if err != nil {
		return err
	}

	// locatorCtx scopes the locator unit independently of the pool's own
	// internal context: it is cancelled explicitly on every abrupt return
	// below (in addition to inheriting cancellation from ctx itself), so the
	// unit's goroutine is always joined instead of leaked, per spec.md
	// §4.H/§5's "terminate all units" requirement.
	locatorCtx, cancelLocator := context.WithCancel(ctx)
	defer cancelLocator()

	workQueue := make(chan locate.WorkItem, workQueueSize)
	unit := locate.NewUnit(locatorCtx, s.opts.FileFilter, s.opts.FollowSymlinks, s.opts.Workers, workQueue)

	// 3. For every configured root path and every entry streamed from the
	//    optional path source, call add_path.
	for _, path := range s.opts.Paths {
		unit.AddPath(path)
	}
	if s.opts.PathSource != nil {
		for {
			entry, ok, readErr := s.opts.PathSource.ReadEntry()
			if readErr != nil {
				cancelLocator()
				<-unit.Done()
				return readErr
			}
			if !ok {
				break
			}
			unit.AddPath(entry)
		}
	}

	// 4. finalize_paths.
	if err := unit.FinalizePaths(); err != nil {
		cancelLocator()
		<-unit.Done()
		return err
	}

	// 5. Enter worker pool scope and call await_results(result_cb).
	p := newPool(ctx, workQueue, s.opts.Workers, compiled, s.opts.ChunkSize, s.opts.ScannedContentLimit, s.opts.ReadTimeout, progressCallbackOrNil(progressCB), s.opts.Logger)
	if err := p.start(); err != nil {
		cancelLocator()
		<-unit.Done()
		return err
	}

	scanErr := p.awaitResults(func(r *types.ScanResult) {
		if resultCB != nil {
			resultCB(r)
		}
	})
	if scanErr != nil {
		cancelLocator()
		<-unit.Done()
		return scanErr
	}
	p.stop()

	<-unit.Done()

	// 6. Stop timer. Call finished_cb(metrics, timer).
	elapsed := time.Since(start)
	finishedCB(p.metrics, elapsed)

	return nil
}

func progressCallbackOrNil(cb ProgressCallback) func(*types.ScanProgressUpdate) {
	if cb == nil {
		return nil
	}
	return func(u *types.ScanProgressUpdate) { cb(u) }
}
