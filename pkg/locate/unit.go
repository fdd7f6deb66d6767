package locate

import (
	"context"

	"github.com/Spl0itable/wordfence-cli/pkg/filter"
	"github.com/Spl0itable/wordfence-cli/pkg/types"
)

// inputQueueSize bounds the locator unit's input path queue, matching the
// teacher/original's small fixed-size input queue (paths are rarely queued
// faster than the walker can start on them).
const inputQueueSize = 10

// Unit is the Locator execution unit of spec.md §4.E: a single long-lived
// goroutine draining a path-input queue, running one FileLocator per input
// path, and streaming discovered paths into the bounded work queue shared
// with the scan workers.
type Unit struct {
	fileFilter     *filter.FileFilter
	followSymlinks bool
	workerCount    int
	workQueue      chan<- WorkItem
	ctx            context.Context

	input     chan string
	pathCount int
	done      chan struct{}
}

// NewUnit constructs a Locator unit and immediately starts its goroutine, so
// it can begin draining paths added via AddPath before the caller has
// finished configuring the rest of the scan (matching spec.md §4.I's
// ordering: the locator unit exists and runs before the worker pool does).
// ctx scopes the unit's lifetime: when it is cancelled, every blocking send
// onto workQueue unblocks and the walk aborts, so the pool can terminate the
// unit along with its workers instead of leaking its goroutine. A nil ctx
// behaves as context.Background().
func NewUnit(ctx context.Context, fileFilter *filter.FileFilter, followSymlinks bool, workerCount int, workQueue chan<- WorkItem) *Unit {
	if ctx == nil {
		ctx = context.Background()
	}
	u := &Unit{
		fileFilter:     fileFilter,
		followSymlinks: followSymlinks,
		workerCount:    workerCount,
		workQueue:      workQueue,
		ctx:            ctx,
		input:          make(chan string, inputQueueSize),
		done:           make(chan struct{}),
	}
	go u.run()
	return u
}

// AddPath enqueues a root path for the locator to walk. Must only be called
// before FinalizePaths. Blocks when the input queue is full.
func (u *Unit) AddPath(path string) {
	u.pathCount++
	u.input <- path
}

// FinalizePaths signals end-of-input. It returns a *types.ConfigurationError
// if no path was ever added. Must be called exactly once.
func (u *Unit) FinalizePaths() error {
	close(u.input)
	if u.pathCount < 1 {
		return &types.ConfigurationError{Reason: "at least one scan path must be specified"}
	}
	return nil
}

// Done is closed once the unit has pushed its sentinels (or its poison value
// followed by sentinels) onto the work queue and exited, or once it has
// observed ctx cancellation and abandoned the walk without pushing further.
func (u *Unit) Done() <-chan struct{} {
	return u.done
}

func (u *Unit) run() {
	defer close(u.done)

	visited := newVisitedSet()
	var fatal error

	emit := func(p string) error {
		select {
		case u.workQueue <- WorkItem{Kind: WorkPath, Path: p}:
			return nil
		case <-u.ctx.Done():
			return u.ctx.Err()
		}
	}

	for path := range u.input {
		if fatal != nil || u.ctx.Err() != nil {
			// Keep draining so a caller still calling AddPath for a later
			// root path never blocks forever on a channel nothing reads.
			continue
		}
		locator := NewFileLocator(u.fileFilter, visited, u.followSymlinks, u.ctx)
		if err := locator.Locate(path, emit); err != nil && u.ctx.Err() == nil {
			fatal = err
		}
	}

	if u.ctx.Err() != nil {
		// The pool is terminating (or the caller's context was cancelled):
		// workers are being torn down and nothing will drain the work
		// queue further. Exit without pushing anything else; blocking here
		// is exactly the goroutine leak cancellation exists to prevent.
		return
	}

	if fatal != nil {
		select {
		case u.workQueue <- WorkItem{Kind: WorkFatal, Err: fatal}:
		case <-u.ctx.Done():
			return
		}
	}

	// Invariant: exactly N sentinels reach the work queue, N = worker
	// count, whether the walk succeeded or aborted with a fatal error. This
	// is a deliberate divergence from the original reference, which emits
	// only the poison value on failure and relies on each worker's read
	// timeout to eventually self-complete.
	for i := 0; i < u.workerCount; i++ {
		select {
		case u.workQueue <- WorkItem{Kind: WorkSentinel}:
		case <-u.ctx.Done():
			return
		}
	}
}
