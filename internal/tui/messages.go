package tui

import (
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/events"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/feedback"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/orchestrator"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/render"
)

// Messages sent by the Bridge on behalf of a turn. id names the placeholder.
type (
	userMessageMsg      struct{ text string }
	placeholderMsg      struct{ id int }
	loadingMsg          struct{ id int; action, tip string }
	actionMsg           struct{ id int; action string }
	tipMsg              struct{ id int; tip string }
	clearMsg            struct{ id int }
	appendTextMsg       struct{ id int; text string }
	appendBlockMsg      struct{ id int; block render.Block }
	opacityMsg          struct{ id int; opacity float64 }
	scrollMsg           struct{}
	optionsMsg          struct{ options []string }
	feedbackAttachedMsg struct {
		id   int
		flow *feedback.Flow
	}
	lockMsg   struct{}
	unlockMsg struct{ reason orchestrator.UnlockReason }
)

// Messages produced by the model's own commands.
type (
	turnDoneMsg     struct{ err error }
	feedbackDoneMsg struct{ err error }
	dotsTickMsg     struct{ gen int }
	eventMsg        struct{ event events.Event }
	statusMsg       struct {
		text  string
		isErr bool
	}
)
