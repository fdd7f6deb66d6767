package scanner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Spl0itable/wordfence-cli/pkg/locate"
	"github.com/Spl0itable/wordfence-cli/pkg/matcher"
	"github.com/Spl0itable/wordfence-cli/pkg/types"
)

// eventQueueSize is spec.md §4.H's bounded event queue capacity.
const eventQueueSize = 100

// pool is the Worker pool / Event loop of spec.md §4.H: lifecycle owner of
// the scan workers and optional progress monitor, and the single event
// multiplexer reading the event queue.
type pool struct {
	size        int
	workQueue   chan locate.WorkItem
	eventQueue  chan *types.ScanEvent
	status      atomic.Int32
	compiled    *matcher.CompiledMatcher
	metrics     *types.ScanMetrics
	chunkSize   int
	contentCap  uint64
	readTimeout time.Duration
	progressCB  func(*types.ScanProgressUpdate)
	logger      Logger
	startedAt   time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool

	monitor *progressMonitor
}

func newPool(parentCtx context.Context, workQueue chan locate.WorkItem, size int, compiled *matcher.CompiledMatcher, chunkSize int, contentCap uint64, readTimeout time.Duration, progressCB func(*types.ScanProgressUpdate), logger Logger) *pool {
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	if logger == nil {
		logger = NoopLogger{}
	}
	return &pool{
		size:        size,
		workQueue:   workQueue,
		eventQueue:  make(chan *types.ScanEvent, eventQueueSize),
		compiled:    compiled,
		metrics:     types.NewScanMetrics(size),
		chunkSize:   chunkSize,
		contentCap:  contentCap,
		readTimeout: readTimeout,
		progressCB:  progressCB,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// start spawns the progress monitor (if a progress callback was supplied)
// and all scan workers. No unit is created after start returns.
func (p *pool) start() error {
	if p.started {
		return fmt.Errorf("scanner: worker pool already started")
	}
	p.startedAt = time.Now()
	p.status.Store(int32(types.StatusLocatingFiles))

	if p.progressCB != nil {
		p.monitor = newProgressMonitor(&p.status, p.eventQueue, p.ctx)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.monitor.run()
		}()
		p.sendProgressUpdate()
	}

	for i := 1; i <= p.size; i++ {
		w, err := newWorker(i, &p.status, p.workQueue, p.eventQueue, p.compiled, p.chunkSize, p.contentCap, p.readTimeout, p.ctx)
		if err != nil {
			p.terminate()
			return err
		}
		p.wg.Add(1)
		go func(w *worker) {
			defer p.wg.Done()
			w.run()
		}(w)
	}

	p.started = true
	return nil
}

func (p *pool) sendProgressUpdate() {
	if p.progressCB == nil {
		return
	}
	p.progressCB(&types.ScanProgressUpdate{
		ElapsedTime: time.Since(p.startedAt),
		Metrics:     p.metrics.Snapshot(),
	})
}

// stop joins every worker and the monitor. Only called on the normal,
// non-error path, after awaitResults has returned.
func (p *pool) stop() {
	p.cancel()
	p.wg.Wait()
}

// terminate cancels the shared context so every blocked select unblocks
// promptly, then joins. Called on the fatal-error path; joining without
// cancelling first could hang forever on a worker blocked mid-file-read
// selecting on a now-abandoned work queue.
func (p *pool) terminate() {
	p.cancel()
	p.wg.Wait()
}

// awaitResults is the event multiplexer of spec.md §4.H's event table. It
// returns nil once every worker has reported COMPLETED and the terminal
// sentinel has drained, or the first fatal error encountered.
func (p *pool) awaitResults(resultCB func(*types.ScanResult)) error {
	completed := 0
	for {
		var event *types.ScanEvent
		draining := false
		select {
		case <-p.ctx.Done():
			// External cancellation (e.g. the caller's context was cancelled
			// by a signal handler). Drain one more event if already queued,
			// matching spec.md §5's "drains one more event then exits"
			// graceful-stop rule, otherwise terminate immediately.
			select {
			case event = <-p.eventQueue:
				draining = true
			default:
				p.status.Store(int32(types.StatusFailed))
				p.terminate()
				return p.ctx.Err()
			}
		case event = <-p.eventQueue:
		}

		if event == nil {
			p.status.Store(int32(types.StatusComplete))
			return nil
		}

		switch event.Kind {
		case types.EventCompleted:
			if event.WorkerIndex != types.LocatorWorkerIndex {
				p.logger.Log(types.LogDebug, "worker %d completed", event.WorkerIndex)
			} else {
				p.logger.Log(types.LogDebug, "file locator exited")
			}
			completed++
			if completed == p.size {
				p.eventQueue <- nil
			}
		case types.EventFileQueueEmptied:
			p.status.CompareAndSwap(int32(types.StatusLocatingFiles), int32(types.StatusProcessingFiles))
		case types.EventFileProcessed:
			result := event.Result
			if result.TimeoutCount() > 0 {
				p.logger.Log(types.LogWarn, "signatures timed out while processing %s: %d id(s)", result.Path, result.TimeoutCount())
			}
			p.metrics.RecordResult(event.WorkerIndex, result)
			if resultCB != nil {
				resultCB(result)
			}
		case types.EventException:
			p.logger.Log(types.LogError, "exception occurred while processing file: %v", event.Err)
		case types.EventFatalException:
			p.status.Store(int32(types.StatusFailed))
			p.terminate()
			return event.Err
		case types.EventProgressUpdate:
			p.sendProgressUpdate()
		case types.EventLogMessage:
			p.logger.Log(event.LogLevel, "%s", event.LogMessage)
		}

		if draining {
			p.status.Store(int32(types.StatusFailed))
			p.terminate()
			return p.ctx.Err()
		}
	}
}
