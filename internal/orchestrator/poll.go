package orchestrator

import (
	"time"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/events"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/protocol"
)

// PollState is the state of a deferred-job poll.
type PollState int

const (
	PollPolling PollState = iota
	PollComplete
	PollError
	PollTimedOut
	PollCancelled
)

func (s PollState) String() string {
	switch s {
	case PollPolling:
		return "polling"
	case PollComplete:
		return "complete"
	case PollError:
		return "error"
	case PollTimedOut:
		return "timed_out"
	default:
		return "cancelled"
	}
}

// PollJob tracks one deferred answer.
type PollJob struct {
	ID          string
	Attempts    int
	MaxAttempts int
	Interval    time.Duration
}

// poll asks for the job result once per interval until the backend reports
// a terminal status, the attempt budget is spent or the turn is cancelled.
// Failed or non-terminal polls are logged and do not stop the loop.
func (o *Orchestrator) poll(t *turn, job *PollJob) (PollState, *protocol.JobResult, error) {
	log := t.logger.WithJob(job.ID)
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return PollCancelled, nil, t.ctx.Err()
		case <-ticker.C:
		}

		job.Attempts++
		if job.Attempts > job.MaxAttempts {
			log.Warn("job did not finish in time", "attempts", job.MaxAttempts)
			return PollTimedOut, nil, nil
		}

		res, err := o.backend.Result(t.ctx, job.ID)
		if err != nil {
			if t.ctx.Err() != nil {
				return PollCancelled, nil, t.ctx.Err()
			}
			o.bus.Publish(events.NewPollAttemptEvent(t.id, job.ID, job.Attempts, job.MaxAttempts, "", err))
			log.Warn("poll failed", "attempt", job.Attempts, "error", err)
			continue
		}
		o.bus.Publish(events.NewPollAttemptEvent(t.id, job.ID, job.Attempts, job.MaxAttempts, res.Status, nil))

		switch res.Status {
		case protocol.StatusComplete:
			return PollComplete, res, nil
		case protocol.StatusError:
			return PollError, res, nil
		default:
			log.Debug("job not ready", "attempt", job.Attempts, "status", res.Status)
		}
	}
}
