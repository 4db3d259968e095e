// Package orchestrator runs chat turns: it builds the request from the
// conversation state, dispatches on the reply (clarify, final answer or
// deferred job), polls deferred jobs, drives the renderer and attaches
// feedback. One turn is in flight at a time; the UI enforces that through
// InputLock.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/conversation"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/core"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/events"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/feedback"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/i18n"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/logging"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/protocol"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/render"
)

// Config holds the turn timing.
type Config struct {
	PollInterval    time.Duration
	MaxPollAttempts int
	StatusInterval  time.Duration
	SafetyTimeout   time.Duration
}

// DefaultConfig returns the production timing.
func DefaultConfig() Config {
	return Config{
		PollInterval:    core.DefaultPollInterval,
		MaxPollAttempts: core.MaxPollAttempts,
		StatusInterval:  core.DefaultStatusInterval,
		SafetyTimeout:   core.DefaultSafetyTimeout,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.MaxPollAttempts <= 0 {
		c.MaxPollAttempts = def.MaxPollAttempts
	}
	if c.StatusInterval <= 0 {
		c.StatusInterval = def.StatusInterval
	}
	if c.SafetyTimeout <= 0 {
		c.SafetyTimeout = def.SafetyTimeout
	}
	return c
}

// Deps are the collaborators of an Orchestrator. Bus and Logger are
// optional.
type Deps struct {
	Backend  Backend
	View     View
	Lock     InputLock
	Locale   LocaleSource
	Table    *i18n.Table
	Renderer *render.Renderer
	Session  *conversation.Session
	Bus      *events.EventBus
	Logger   *logging.Logger
}

// Orchestrator runs chat turns against a backend.
type Orchestrator struct {
	backend  Backend
	view     View
	lock     InputLock
	locale   LocaleSource
	table    *i18n.Table
	renderer *render.Renderer
	session  *conversation.Session
	bus      *events.EventBus
	logger   *logging.Logger
	cfg      Config
}

// New creates an orchestrator.
func New(deps Deps, cfg Config) *Orchestrator {
	o := &Orchestrator{
		backend:  deps.Backend,
		view:     deps.View,
		lock:     deps.Lock,
		locale:   deps.Locale,
		table:    deps.Table,
		renderer: deps.Renderer,
		session:  deps.Session,
		bus:      deps.Bus,
		logger:   deps.Logger,
		cfg:      cfg.withDefaults(),
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	o.logger = o.logger.WithComponent("orchestrator")
	if o.renderer == nil {
		o.renderer = render.New()
	}
	if o.session == nil {
		o.session = conversation.NewSession(core.MaxHistoryTurns)
	}
	if o.locale == nil {
		o.locale = i18n.NewSelector(i18n.Default)
	}
	return o
}

// Session returns the conversation state owned by the orchestrator.
func (o *Orchestrator) Session() *conversation.Session {
	return o.session
}

// Submit sends typed input. Inputs that ask for more results continue the
// previous result page.
func (o *Orchestrator) Submit(ctx context.Context, input string) error {
	return o.send(ctx, input, true)
}

// SelectOption answers a clarification question with one of its options.
func (o *Orchestrator) SelectOption(ctx context.Context, option string) error {
	return o.send(ctx, option, false)
}

func (o *Orchestrator) send(ctx context.Context, input string, detectContinuation bool) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return core.ErrValidation(core.CodeEmptyQuestion, "question is empty")
	}

	question := input
	if pending, ok := o.session.TakePending(); ok {
		question = pending + " " + input
	}
	o.view.ClearOptions()

	locale := o.locale.Locale()
	strs := o.table.Strings(locale)
	continuation := detectContinuation && IsContinuation(input)

	o.session.AppendTurn(conversation.RoleUser, question)
	o.view.AddUserMessage(input)

	t := o.startTurn(ctx, strs)
	defer t.close()
	t.logger.Debug("turn started", "question", question, "locale", locale, "continuation", continuation)
	o.bus.Publish(events.NewTurnStartedEvent(t.id, question, string(locale), continuation))

	req := protocol.ChatRequest{
		Question:      question + strs.Directive,
		LastResultIDs: []string{},
		ChatHistory:   o.session.History(),
	}
	if continuation {
		page := o.session.Page()
		if page.IDs != nil {
			req.LastResultIDs = page.IDs
		}
		req.ShownCount = page.ShownCount
	}

	resp, err := o.backend.Chat(t.ctx, req)
	if err != nil {
		return o.fail(t, strs, err)
	}
	kind := resp.Kind()
	o.bus.Publish(events.NewReplyReceivedEvent(t.id, kind.String()))

	switch kind {
	case protocol.KindClarify:
		t.stopStatus()
		if err := o.renderer.Render(t.ctx, t.placeholder, resp.Answer); err != nil {
			return o.abort(t, err)
		}
		o.session.SetPending(question)
		o.view.ShowOptions(resp.Options)
		o.session.AppendTurn(conversation.RoleAssistant, resp.Answer)
		t.complete(events.OutcomeClarify, "")
		return nil

	case protocol.KindFinal:
		t.stopStatus()
		outcome := events.OutcomeAnswered
		if resp.Status == protocol.StatusError {
			outcome = events.OutcomeBackend
		}
		return o.deliver(t, strs, question, answer{
			text:    resp.Answer,
			ids:     resp.LastResultIDs,
			total:   resp.TotalFound,
			shown:   resp.ShownCount,
			jobID:   resp.JobID,
			outcome: outcome,
		})

	case protocol.KindAsync:
		return o.awaitJob(t, strs, question, resp.JobID)

	default:
		return o.fail(t, strs, core.ErrProtocol(core.CodeUnknownReply, "reply has neither a known status nor a job id"))
	}
}

type answer struct {
	text    string
	ids     []string
	total   *int
	shown   *int
	jobID   string
	outcome string
}

// deliver renders a terminal answer and records it.
func (o *Orchestrator) deliver(t *turn, strs i18n.Strings, question string, a answer) error {
	if err := o.renderer.Render(t.ctx, t.placeholder, a.text); err != nil {
		return o.abort(t, err)
	}
	o.session.UpdatePage(a.ids, a.total, a.shown)
	o.session.AppendTurn(conversation.RoleAssistant, a.text)
	if a.jobID != "" {
		flow := feedback.New(o.backend, o.session, o.bus, feedback.Params{
			JobID:    a.jobID,
			Question: question,
			Answer:   a.text,
			Strings:  strs.Feedback,
		})
		o.view.AttachFeedback(t.placeholder, flow)
	}
	t.complete(a.outcome, a.jobID)
	return nil
}

func (o *Orchestrator) awaitJob(t *turn, strs i18n.Strings, question, jobID string) error {
	o.bus.Publish(events.NewJobQueuedEvent(t.id, jobID))
	t.logger.Info("answer deferred to job", "job_id", jobID)

	job := &PollJob{ID: jobID, MaxAttempts: o.cfg.MaxPollAttempts, Interval: o.cfg.PollInterval}
	state, res, err := o.poll(t, job)
	t.stopStatus()

	switch state {
	case PollComplete:
		return o.deliver(t, strs, question, answer{
			text:    res.Answer,
			ids:     res.LastResultIDs,
			total:   res.TotalFound,
			shown:   res.ShownCount,
			jobID:   jobID,
			outcome: events.OutcomeAnswered,
		})

	case PollError:
		if err := o.renderer.Render(t.ctx, t.placeholder, strs.ErrorPrefix+res.Message); err != nil {
			return o.abort(t, err)
		}
		t.complete(events.OutcomeBackend, jobID)
		return nil

	case PollTimedOut:
		if err := o.renderer.Render(t.ctx, t.placeholder, strs.Timeout); err != nil {
			return o.abort(t, err)
		}
		t.complete(events.OutcomeTimedOut, jobID)
		return core.ErrTimeout("job " + jobID + " did not finish").WithDetail("attempts", job.Attempts-1)

	default:
		return o.abort(t, err)
	}
}

// fail shows a generic failure in the placeholder and ends the turn.
func (o *Orchestrator) fail(t *turn, strs i18n.Strings, cause error) error {
	if t.ctx.Err() != nil {
		return o.abort(t, t.ctx.Err())
	}
	t.stopStatus()
	t.logger.Error("turn failed", "error", cause)
	if err := o.renderer.Render(t.ctx, t.placeholder, strs.GenericError+failureText(cause)); err != nil {
		return o.abort(t, err)
	}
	t.complete(events.OutcomeFailed, "")
	return cause
}

func (o *Orchestrator) abort(t *turn, err error) error {
	t.complete(events.OutcomeCancelled, "")
	return err
}

func failureText(err error) string {
	var de *core.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
