package events

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for event")
		return nil
	}
}

func TestEventBus_Subscribe(t *testing.T) {
	bus := New(10)
	defer bus.Close()

	ch := bus.Subscribe()
	bus.Publish(NewTurnStartedEvent("turn-1", "부모급여", "ko", false))

	got := receive(t, ch)
	if got.EventType() != TypeTurnStarted {
		t.Errorf("expected %s, got %s", TypeTurnStarted, got.EventType())
	}
	if got.TurnID() != "turn-1" {
		t.Errorf("expected turn-1, got %s", got.TurnID())
	}
}

func TestEventBus_SubscribeByType(t *testing.T) {
	bus := New(10)
	defer bus.Close()

	pollCh := bus.Subscribe(TypePollAttempt)
	allCh := bus.Subscribe()

	bus.Publish(NewJobQueuedEvent("t", "j1"))
	bus.Publish(NewPollAttemptEvent("t", "j1", 1, 120, "pending", nil))

	receive(t, allCh)
	receive(t, allCh)
	if e := receive(t, pollCh); e.EventType() != TypePollAttempt {
		t.Errorf("filtered subscriber got %s", e.EventType())
	}
	select {
	case e := <-pollCh:
		t.Errorf("unexpected extra event %s", e.EventType())
	default:
	}
}

func TestEventBus_DropsOldestWhenFull(t *testing.T) {
	bus := New(2)
	defer bus.Close()
	ch := bus.Subscribe()

	for i := 1; i <= 4; i++ {
		bus.Publish(NewPollAttemptEvent("t", "j1", i, 120, "pending", nil))
	}
	if bus.DroppedCount() != 2 {
		t.Errorf("dropped = %d, want 2", bus.DroppedCount())
	}
	first := receive(t, ch).(PollAttemptEvent)
	if first.Attempt != 3 {
		t.Errorf("oldest kept attempt = %d, want 3", first.Attempt)
	}
}

func TestEventBus_UnsubscribeAndClose(t *testing.T) {
	bus := New(4)
	ch := bus.Subscribe()
	bus.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatal("unsubscribed channel should be closed")
	}

	other := bus.Subscribe()
	bus.Close()
	bus.Close()
	if _, ok := <-other; ok {
		t.Fatal("close should close subscriptions")
	}
	bus.Publish(NewLocaleChangedEvent("en", "test"))

	late := bus.Subscribe()
	if _, ok := <-late; ok {
		t.Fatal("subscribing to a closed bus yields a closed channel")
	}
}

func TestEventBus_NilIsNoop(t *testing.T) {
	var bus *EventBus
	bus.Publish(NewTurnCompletedEvent("t", OutcomeAnswered, "", time.Second))
}

func TestEventBus_ConcurrentPublish(t *testing.T) {
	bus := New(1000)
	defer bus.Close()
	ch := bus.Subscribe()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				bus.Publish(NewPollAttemptEvent("t", "j", j, 50, "", nil))
			}
		}(i)
	}
	wg.Wait()
	if got := len(ch); got != 500 {
		t.Errorf("buffered = %d, want 500", got)
	}
}

func TestEventConstructors(t *testing.T) {
	e := NewPollAttemptEvent("t", "j1", 2, 120, "", errors.New("dial tcp"))
	if e.Error != "dial tcp" || e.Attempt != 2 {
		t.Errorf("poll event = %+v", e)
	}
	f := NewFeedbackSubmittedEvent("j1", "👎", nil)
	if f.Error != "" || f.Rating != "👎" || f.EventType() != TypeFeedbackSubmitted {
		t.Errorf("feedback event = %+v", f)
	}
	c := NewTurnCompletedEvent("t", OutcomeTimedOut, "j1", time.Minute)
	if c.Outcome != OutcomeTimedOut || c.Timestamp().IsZero() {
		t.Errorf("completed event = %+v", c)
	}
}
