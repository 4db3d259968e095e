package events

import "time"

// Turn lifecycle event types.
const (
	TypeTurnStarted       = "turn_started"
	TypeReplyReceived     = "reply_received"
	TypeJobQueued         = "job_queued"
	TypePollAttempt       = "poll_attempt"
	TypeTurnCompleted     = "turn_completed"
	TypeInputReleased     = "input_released"
	TypeFeedbackSubmitted = "feedback_submitted"
	TypeLocaleChanged     = "locale_changed"
)

// Turn outcomes reported by TurnCompletedEvent.
const (
	OutcomeClarify   = "clarify"
	OutcomeAnswered  = "answered"
	OutcomeBackend   = "backend_error"
	OutcomeTimedOut  = "timed_out"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// TurnStartedEvent is emitted when a question is sent.
type TurnStartedEvent struct {
	BaseEvent
	Question     string `json:"question"`
	Locale       string `json:"locale"`
	Continuation bool   `json:"continuation"`
}

func NewTurnStartedEvent(turnID, question, locale string, continuation bool) TurnStartedEvent {
	return TurnStartedEvent{
		BaseEvent:    NewBaseEvent(TypeTurnStarted, turnID),
		Question:     question,
		Locale:       locale,
		Continuation: continuation,
	}
}

// ReplyReceivedEvent carries the dispatch kind of the initial reply.
type ReplyReceivedEvent struct {
	BaseEvent
	Kind string `json:"kind"`
}

func NewReplyReceivedEvent(turnID, kind string) ReplyReceivedEvent {
	return ReplyReceivedEvent{BaseEvent: NewBaseEvent(TypeReplyReceived, turnID), Kind: kind}
}

// JobQueuedEvent is emitted when the backend defers the answer to a job.
type JobQueuedEvent struct {
	BaseEvent
	JobID string `json:"job_id"`
}

func NewJobQueuedEvent(turnID, jobID string) JobQueuedEvent {
	return JobQueuedEvent{BaseEvent: NewBaseEvent(TypeJobQueued, turnID), JobID: jobID}
}

// PollAttemptEvent is emitted after every poll of a deferred job.
type PollAttemptEvent struct {
	BaseEvent
	JobID   string `json:"job_id"`
	Attempt int    `json:"attempt"`
	Max     int    `json:"max"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

func NewPollAttemptEvent(turnID, jobID string, attempt, max int, status string, err error) PollAttemptEvent {
	e := PollAttemptEvent{
		BaseEvent: NewBaseEvent(TypePollAttempt, turnID),
		JobID:     jobID,
		Attempt:   attempt,
		Max:       max,
		Status:    status,
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// TurnCompletedEvent is emitted once per turn with its outcome.
type TurnCompletedEvent struct {
	BaseEvent
	Outcome  string        `json:"outcome"`
	JobID    string        `json:"job_id,omitempty"`
	Duration time.Duration `json:"duration"`
}

func NewTurnCompletedEvent(turnID, outcome, jobID string, d time.Duration) TurnCompletedEvent {
	return TurnCompletedEvent{
		BaseEvent: NewBaseEvent(TypeTurnCompleted, turnID),
		Outcome:   outcome,
		JobID:     jobID,
		Duration:  d,
	}
}

// InputReleasedEvent is emitted when the input lock of a turn is released.
type InputReleasedEvent struct {
	BaseEvent
	Forced bool `json:"forced"`
}

func NewInputReleasedEvent(turnID string, forced bool) InputReleasedEvent {
	return InputReleasedEvent{BaseEvent: NewBaseEvent(TypeInputReleased, turnID), Forced: forced}
}

// FeedbackSubmittedEvent reports a feedback submission attempt.
type FeedbackSubmittedEvent struct {
	BaseEvent
	JobID  string `json:"job_id"`
	Rating string `json:"rating"`
	Error  string `json:"error,omitempty"`
}

func NewFeedbackSubmittedEvent(jobID, rating string, err error) FeedbackSubmittedEvent {
	e := FeedbackSubmittedEvent{BaseEvent: NewBaseEvent(TypeFeedbackSubmitted, ""), JobID: jobID, Rating: rating}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// LocaleChangedEvent is emitted when the UI language changes.
type LocaleChangedEvent struct {
	BaseEvent
	Locale string `json:"locale"`
	Source string `json:"source"`
}

func NewLocaleChangedEvent(locale, source string) LocaleChangedEvent {
	return LocaleChangedEvent{BaseEvent: NewBaseEvent(TypeLocaleChanged, ""), Locale: locale, Source: source}
}
