package orchestrator

import (
	"context"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/feedback"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/i18n"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/protocol"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/render"
)

// Backend is the subset of the protocol client the orchestrator uses.
type Backend interface {
	Chat(ctx context.Context, req protocol.ChatRequest) (*protocol.ChatResponse, error)
	Result(ctx context.Context, jobID string) (*protocol.JobResult, error)
	feedback.Submitter
}

// Placeholder is the loading region of one turn. It shows the skeleton with
// a status phrase and a tip until the renderer replaces it with content.
type Placeholder interface {
	render.Target
	ShowLoading(action, tip string)
	SetAction(action string)
	SetTip(tip string)
}

// OptionPresenter shows the clarification choices. Showing a new set
// replaces the previous one.
type OptionPresenter interface {
	ShowOptions(options []string)
	ClearOptions()
}

// View is the part of the UI a turn writes to.
type View interface {
	OptionPresenter
	AddUserMessage(text string)
	NewPlaceholder() Placeholder
	AttachFeedback(p Placeholder, f *feedback.Flow)
}

// UnlockReason tells the UI why input was released.
type UnlockReason int

const (
	// UnlockDone follows a terminal outcome of the turn.
	UnlockDone UnlockReason = iota
	// UnlockSafetyTimeout is a forced release while the request is still
	// in flight.
	UnlockSafetyTimeout
)

// InputLock disables user input while a turn is in flight.
type InputLock interface {
	Lock()
	Unlock(reason UnlockReason)
}

// LocaleSource yields the locale for the next turn. *i18n.Selector
// implements it.
type LocaleSource interface {
	Locale() i18n.Locale
}
