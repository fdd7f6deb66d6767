package scanner

import (
	"context"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/Spl0itable/wordfence-cli/pkg/locate"
	"github.com/Spl0itable/wordfence-cli/pkg/matcher"
	"github.com/Spl0itable/wordfence-cli/pkg/types"
)

// worker is the Scan worker execution unit of spec.md §4.F: bound to a pool
// slot with index i >= 1, consuming WorkItems from the shared work queue and
// emitting ScanEvents.
type worker struct {
	index       int
	status      *atomic.Int32
	workQueue   <-chan locate.WorkItem
	eventQueue  chan<- *types.ScanEvent
	compiled    *matcher.CompiledMatcher
	scratch     *matcher.JitScratch
	chunkSize   int
	contentCap  uint64 // 0 means unlimited
	readTimeout time.Duration
	cancelCtx   context.Context
}

func newWorker(index int, status *atomic.Int32, workQueue <-chan locate.WorkItem, eventQueue chan<- *types.ScanEvent, compiled *matcher.CompiledMatcher, chunkSize int, contentCap uint64, readTimeout time.Duration, cancelCtx context.Context) (*worker, error) {
	scratch, err := compiled.NewScratch()
	if err != nil {
		return nil, err
	}
	return &worker{
		index:       index,
		status:      status,
		workQueue:   workQueue,
		eventQueue:  eventQueue,
		compiled:    compiled,
		scratch:     scratch,
		chunkSize:   chunkSize,
		contentCap:  contentCap,
		readTimeout: readTimeout,
		cancelCtx:   cancelCtx,
	}, nil
}

// run is the worker's main loop. It returns once the worker has emitted its
// terminal COMPLETED event, or once Terminate cancels cancelCtx.
func (w *worker) run() {
	timer := time.NewTimer(w.readTimeout)
	defer timer.Stop()
	for {
		select {
		case <-w.cancelCtx.Done():
			return
		case item := <-w.workQueue:
			if !timer.Stop() {
				<-timer.C
			}
			switch item.Kind {
			case locate.WorkSentinel:
				w.emit(types.ScanEvent{Kind: types.EventFileQueueEmptied, WorkerIndex: w.index})
				w.emit(types.ScanEvent{Kind: types.EventCompleted, WorkerIndex: w.index})
				return
			case locate.WorkFatal:
				w.emit(types.ScanEvent{Kind: types.EventFatalException, WorkerIndex: w.index, Err: item.Err})
			case locate.WorkPath:
				w.processFile(item.Path)
			}
			timer.Reset(w.readTimeout)
		case <-timer.C:
			// Liveness safety net: a lost sentinel must not wedge the
			// scan forever. Only self-complete once file discovery has
			// actually finished; otherwise keep waiting.
			if types.Status(w.status.Load()) == types.StatusProcessingFiles {
				w.emit(types.ScanEvent{Kind: types.EventCompleted, WorkerIndex: w.index})
				return
			}
			timer.Reset(w.readTimeout)
		}
	}
}

func (w *worker) emit(event types.ScanEvent) {
	select {
	case w.eventQueue <- &event:
	case <-w.cancelCtx.Done():
	}
}

func (w *worker) processFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		w.emit(types.ScanEvent{Kind: types.EventException, WorkerIndex: w.index, Err: &types.FileIOError{Path: path, Err: err}})
		return
	}
	defer f.Close()

	ctx := w.compiled.NewContext()
	buf := make([]byte, w.chunkSize)
	var totalRead uint64
	first := true

	for {
		toRead := len(buf)
		if w.contentCap > 0 {
			remaining := w.contentCap - totalRead
			if remaining == 0 {
				break
			}
			if uint64(toRead) > remaining {
				toRead = int(remaining)
			}
		}

		n, readErr := f.Read(buf[:toRead])
		if n > 0 {
			totalRead += uint64(n)
			done := ctx.ProcessChunk(buf[:n], first, w.scratch)
			first = false
			if done {
				break
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			w.emit(types.ScanEvent{Kind: types.EventException, WorkerIndex: w.index, Err: &types.FileIOError{Path: path, Err: readErr}})
			return
		}
		if n == 0 {
			break
		}
	}

	result := &types.ScanResult{
		Path:       path,
		ReadLength: totalRead,
		Matches:    ctx.Matches(),
		Timeouts:   ctx.Timeouts(),
		Timestamp:  time.Now(),
	}
	w.emit(types.ScanEvent{Kind: types.EventFileProcessed, WorkerIndex: w.index, Result: result})
}
