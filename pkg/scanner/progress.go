package scanner

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Spl0itable/wordfence-cli/pkg/types"
)

// progressTick is spec.md §4.G's sleep increment between progress events.
const progressTick = 100 * time.Millisecond

// progressMonitor is the optional Progress monitor execution unit: while the
// scan is neither complete nor failed, it sleeps progressTick and pushes a
// payload-less PROGRESS_UPDATE event for the pool's event loop to snapshot.
type progressMonitor struct {
	status     *atomic.Int32
	eventQueue chan<- *types.ScanEvent
	ctx        context.Context
}

func newProgressMonitor(status *atomic.Int32, eventQueue chan<- *types.ScanEvent, ctx context.Context) *progressMonitor {
	return &progressMonitor{status: status, eventQueue: eventQueue, ctx: ctx}
}

func (m *progressMonitor) running() bool {
	s := types.Status(m.status.Load())
	return s != types.StatusComplete && s != types.StatusFailed
}

func (m *progressMonitor) run() {
	timer := time.NewTimer(progressTick)
	defer timer.Stop()
	for m.running() {
		select {
		case <-m.ctx.Done():
			return
		case <-timer.C:
		}
		select {
		case m.eventQueue <- &types.ScanEvent{Kind: types.EventProgressUpdate}:
		case <-m.ctx.Done():
			return
		}
		timer.Reset(progressTick)
	}
}
