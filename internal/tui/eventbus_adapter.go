package tui

import (
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/events"
)

// EventBusAdapter feeds turn events to the bubbletea loop for the footer.
type EventBusAdapter struct {
	bus    *events.EventBus
	ch     <-chan events.Event
	mu     sync.Mutex
	closed bool
}

// NewEventBusAdapter subscribes to every event on bus.
func NewEventBusAdapter(bus *events.EventBus) *EventBusAdapter {
	return &EventBusAdapter{bus: bus, ch: bus.Subscribe()}
}

// Listen returns a command that yields the next event, or nil once the
// subscription is closed.
func (a *EventBusAdapter) Listen() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-a.ch
		if !ok {
			return nil
		}
		return eventMsg{event: ev}
	}
}

// Close unsubscribes from the bus.
func (a *EventBusAdapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	a.bus.Unsubscribe(a.ch)
}

// describeEvent is the one-line footer text for ev. Empty means keep the
// previous footer.
func describeEvent(ev events.Event) string {
	switch e := ev.(type) {
	case events.TurnStartedEvent:
		if e.Continuation {
			return fmt.Sprintf("asking (%s, next page)", e.Locale)
		}
		return fmt.Sprintf("asking (%s)", e.Locale)
	case events.JobQueuedEvent:
		return "answer queued as job " + shortID(e.JobID)
	case events.PollAttemptEvent:
		if e.Error != "" {
			return fmt.Sprintf("job %s: poll %d/%d failed, retrying", shortID(e.JobID), e.Attempt, e.Max)
		}
		return fmt.Sprintf("job %s: poll %d/%d", shortID(e.JobID), e.Attempt, e.Max)
	case events.TurnCompletedEvent:
		return fmt.Sprintf("%s in %s", e.Outcome, e.Duration.Round(100*time.Millisecond))
	case events.InputReleasedEvent:
		if e.Forced {
			return "input released while the answer is still pending"
		}
	case events.FeedbackSubmittedEvent:
		if e.Error != "" {
			return "feedback failed: " + e.Error
		}
		return "feedback sent " + e.Rating
	case events.LocaleChangedEvent:
		return fmt.Sprintf("language: %s (%s)", e.Locale, e.Source)
	}
	return ""
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
