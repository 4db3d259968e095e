package orchestrator

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/events"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/i18n"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/logging"
)

// turn owns everything that lives for one question: the turn context, the
// cosmetic status task, the safety timer and the single input release.
// close must run on every exit path.
type turn struct {
	id          string
	ctx         context.Context
	cancel      context.CancelFunc
	started     time.Time
	placeholder Placeholder

	lock   InputLock
	bus    *events.EventBus
	logger *logging.Logger

	safety      *time.Timer
	stopTasks   context.CancelFunc
	tasks       conc.WaitGroup
	releaseOnce sync.Once
	doneOnce    sync.Once
}

func (o *Orchestrator) startTurn(ctx context.Context, strs i18n.Strings) *turn {
	tctx, cancel := context.WithCancel(ctx)
	t := &turn{
		id:      uuid.NewString(),
		ctx:     tctx,
		cancel:  cancel,
		started: time.Now(),
		lock:    o.lock,
		bus:     o.bus,
	}
	t.logger = o.logger.WithTurn(t.id)

	o.lock.Lock()
	t.safety = time.AfterFunc(o.cfg.SafetyTimeout, func() {
		t.logger.Warn("no terminal outcome in time, releasing input", "after", o.cfg.SafetyTimeout)
		t.release(UnlockSafetyTimeout)
	})

	t.placeholder = o.view.NewPlaceholder()
	t.placeholder.ShowLoading(strs.Action(0), strs.Tip(rand.IntN))

	statusCtx, stop := context.WithCancel(tctx)
	t.stopTasks = stop
	interval := o.cfg.StatusInterval
	t.tasks.Go(func() { cycleStatus(statusCtx, t.placeholder, strs, interval) })
	return t
}

// cycleStatus alternates tips and action phrases on the placeholder until
// ctx ends.
func cycleStatus(ctx context.Context, p Placeholder, strs i18n.Strings, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for step := 1; ; step++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if step%2 == 0 {
			p.SetAction(strs.Action(step / 2))
		} else {
			p.SetTip(strs.Tip(rand.IntN))
		}
	}
}

// stopStatus stops the cosmetic task and waits for it, so no status update
// can land after the placeholder is cleared.
func (t *turn) stopStatus() {
	t.stopTasks()
	t.tasks.Wait()
}

func (t *turn) release(reason UnlockReason) {
	t.releaseOnce.Do(func() {
		t.lock.Unlock(reason)
		t.bus.Publish(events.NewInputReleasedEvent(t.id, reason == UnlockSafetyTimeout))
	})
}

func (t *turn) complete(outcome, jobID string) {
	t.doneOnce.Do(func() {
		d := time.Since(t.started)
		t.logger.Info("turn finished", "outcome", outcome, "duration", d.Round(time.Millisecond))
		t.bus.Publish(events.NewTurnCompletedEvent(t.id, outcome, jobID, d))
	})
}

func (t *turn) close() {
	t.stopStatus()
	t.cancel()
	t.safety.Stop()
	t.release(UnlockDone)
}
