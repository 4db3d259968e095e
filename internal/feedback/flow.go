// Package feedback implements the rating widget attached under an answer:
// thumbs up submits at once; thumbs down asks for a reason and an optional
// comment before submitting.
package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/conversation"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/core"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/events"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/i18n"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/protocol"
)

// State of a feedback flow.
type State int

const (
	Unrated State = iota
	ReasonSelection
	CommentEntry
	Sending
	Submitted
	Failed
)

func (s State) String() string {
	switch s {
	case Unrated:
		return "unrated"
	case ReasonSelection:
		return "reason_selection"
	case CommentEntry:
		return "comment_entry"
	case Sending:
		return "sending"
	case Submitted:
		return "submitted"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether the flow accepts no further input.
func (s State) Terminal() bool {
	return s == Submitted || s == Failed
}

var (
	// ErrInvalidTransition is returned when an action does not apply to the
	// current state.
	ErrInvalidTransition = core.ErrState(core.CodeInvalidTransition, "feedback action not allowed in current state")
	// ErrCommentTooLong is returned by SetComment for comments over the limit.
	ErrCommentTooLong = core.ErrValidation(core.CodeCommentTooLong, fmt.Sprintf("comment exceeds %d characters", core.MaxCommentLength))
)

// Submitter posts feedback to the backend.
type Submitter interface {
	Feedback(ctx context.Context, req protocol.FeedbackRequest) error
}

// HistorySource provides the conversation turns serialized into negative
// feedback.
type HistorySource interface {
	Recent(n int) []conversation.Turn
}

// Params describe the answer being rated.
type Params struct {
	JobID    string
	Question string
	Answer   string
	Strings  i18n.Feedback
}

// Flow is the feedback state machine of one answer. Methods are safe for
// concurrent use; a UI typically calls them from command goroutines.
type Flow struct {
	mu        sync.Mutex
	params    Params
	submitter Submitter
	history   HistorySource
	bus       *events.EventBus

	state   State
	rating  string
	reason  string
	comment string
	err     error
}

// New creates a flow in the Unrated state. bus may be nil.
func New(sub Submitter, history HistorySource, bus *events.EventBus, p Params) *Flow {
	return &Flow{params: p, submitter: sub, history: history, bus: bus}
}

// JobID returns the job the flow rates.
func (f *Flow) JobID() string {
	return f.params.JobID
}

// Strings returns the localized labels captured when the flow was created.
func (f *Flow) Strings() i18n.Feedback {
	return f.params.Strings
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Reasons returns the reason chip labels.
func (f *Flow) Reasons() []string {
	return append([]string(nil), f.params.Strings.Reasons...)
}

// Selected returns the chosen reason and current comment.
func (f *Flow) Selected() (reason, comment string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reason, f.comment
}

// Err returns the submission error of a Failed flow.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Message is the text to display for the current state.
func (f *Flow) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.params.Strings
	switch f.state {
	case Unrated, ReasonSelection:
		return s.Question
	case CommentEntry:
		return s.InputPlaceholder
	case Sending:
		return s.Sending
	case Submitted:
		if f.rating == core.RatingPositive {
			return s.ThanksGood
		}
		return s.ThanksBad
	case Failed:
		return s.Error
	}
	return ""
}

// Positive submits a thumbs-up immediately.
func (f *Flow) Positive(ctx context.Context) error {
	f.mu.Lock()
	if f.state != Unrated {
		f.mu.Unlock()
		return ErrInvalidTransition
	}
	f.state = Sending
	f.rating = core.RatingPositive
	f.mu.Unlock()

	return f.submit(ctx, protocol.FeedbackRequest{Feedback: core.RatingPositive})
}

// Negative opens reason selection.
func (f *Flow) Negative() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Unrated {
		return ErrInvalidTransition
	}
	f.state = ReasonSelection
	f.rating = core.RatingNegative
	return nil
}

// SelectReason picks reason chip i. Picking again replaces the previous
// reason and discards the comment typed so far.
func (f *Flow) SelectReason(i int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != ReasonSelection && f.state != CommentEntry {
		return ErrInvalidTransition
	}
	reasons := f.params.Strings.Reasons
	if i < 0 || i >= len(reasons) {
		return core.ErrValidation("INVALID_REASON", fmt.Sprintf("reason %d out of range [0,%d)", i, len(reasons)))
	}
	f.reason = reasons[i]
	f.comment = ""
	f.state = CommentEntry
	return nil
}

// SetComment stores the free-text comment.
func (f *Flow) SetComment(comment string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != CommentEntry {
		return ErrInvalidTransition
	}
	if utf8.RuneCountInString(comment) > core.MaxCommentLength {
		return ErrCommentTooLong
	}
	f.comment = comment
	return nil
}

// Send submits the negative rating with reason, comment and recent history.
func (f *Flow) Send(ctx context.Context) error {
	f.mu.Lock()
	if f.state != CommentEntry {
		f.mu.Unlock()
		return ErrInvalidTransition
	}
	f.state = Sending
	reason, comment := f.reason, strings.TrimSpace(f.comment)
	f.mu.Unlock()

	history, err := f.serializeHistory()
	if err != nil {
		f.finish(err)
		return err
	}
	return f.submit(ctx, protocol.FeedbackRequest{
		Feedback:    core.RatingNegative,
		Reason:      reason,
		Comment:     comment,
		ChatHistory: history,
	})
}

func (f *Flow) serializeHistory() (string, error) {
	turns := []conversation.Turn{}
	if f.history != nil {
		turns = f.history.Recent(core.FeedbackHistoryTurns)
	}
	data, err := json.Marshal(turns)
	if err != nil {
		return "", fmt.Errorf("encoding chat history: %w", err)
	}
	return string(data), nil
}

func (f *Flow) submit(ctx context.Context, req protocol.FeedbackRequest) error {
	req.JobID = f.params.JobID
	req.Question = f.params.Question
	req.Answer = f.params.Answer

	err := f.submitter.Feedback(ctx, req)
	f.finish(err)
	f.bus.Publish(events.NewFeedbackSubmittedEvent(req.JobID, req.Feedback, err))
	if err != nil {
		return fmt.Errorf("submitting feedback: %w", err)
	}
	return nil
}

func (f *Flow) finish(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = Failed
		f.err = err
		return
	}
	f.state = Submitted
}

// IsInvalidTransition reports whether err is ErrInvalidTransition.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}
