package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/conversation"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/events"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/feedback"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/i18n"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/protocol"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/render"
)

type fakeBackend struct {
	mu        sync.Mutex
	chat      func(ctx context.Context, req protocol.ChatRequest) (*protocol.ChatResponse, error)
	result    func(ctx context.Context, jobID string, attempt int) (*protocol.JobResult, error)
	requests  []protocol.ChatRequest
	polls     int
	feedbacks []protocol.FeedbackRequest
}

func (b *fakeBackend) Chat(ctx context.Context, req protocol.ChatRequest) (*protocol.ChatResponse, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	fn := b.chat
	b.mu.Unlock()
	return fn(ctx, req)
}

func (b *fakeBackend) Result(ctx context.Context, jobID string) (*protocol.JobResult, error) {
	b.mu.Lock()
	b.polls++
	n := b.polls
	fn := b.result
	b.mu.Unlock()
	return fn(ctx, jobID, n)
}

func (b *fakeBackend) Feedback(_ context.Context, req protocol.FeedbackRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.feedbacks = append(b.feedbacks, req)
	return nil
}

func (b *fakeBackend) lastRequest() protocol.ChatRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[len(b.requests)-1]
}

func (b *fakeBackend) pollCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.polls
}

type fakePlaceholder struct {
	mu       sync.Mutex
	loading  bool
	text     strings.Builder
	blocks   []render.Block
	statuses int
	cleared  int
}

func (p *fakePlaceholder) ShowLoading(string, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = true
}

func (p *fakePlaceholder) SetAction(string) { p.bump() }
func (p *fakePlaceholder) SetTip(string)    { p.bump() }

func (p *fakePlaceholder) bump() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses++
}

func (p *fakePlaceholder) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	p.cleared++
	p.text.Reset()
	p.blocks = nil
}

func (p *fakePlaceholder) AppendText(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.text.WriteString(s)
}

func (p *fakePlaceholder) AppendBlock(b render.Block) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocks = append(p.blocks, b)
}

func (p *fakePlaceholder) SetOpacity(float64) {}
func (p *fakePlaceholder) ScrollToBottom()    {}

func (p *fakePlaceholder) content() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var b strings.Builder
	b.WriteString(p.text.String())
	for _, blk := range p.blocks {
		b.WriteString(blk.Source)
	}
	return b.String()
}

func (p *fakePlaceholder) statusCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statuses
}

type fakeView struct {
	mu           sync.Mutex
	users        []string
	placeholders []*fakePlaceholder
	options      []string
	optionSets   int
	flows        []*feedback.Flow
}

func (v *fakeView) AddUserMessage(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.users = append(v.users, text)
}

func (v *fakeView) NewPlaceholder() Placeholder {
	v.mu.Lock()
	defer v.mu.Unlock()
	p := &fakePlaceholder{}
	v.placeholders = append(v.placeholders, p)
	return p
}

func (v *fakeView) ShowOptions(options []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.options = append([]string(nil), options...)
	v.optionSets++
}

func (v *fakeView) ClearOptions() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.options = nil
}

func (v *fakeView) AttachFeedback(_ Placeholder, f *feedback.Flow) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.flows = append(v.flows, f)
}

func (v *fakeView) last() *fakePlaceholder {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.placeholders[len(v.placeholders)-1]
}

type lockEvent struct {
	locked bool
	reason UnlockReason
	at     time.Time
}

type fakeLock struct {
	mu     sync.Mutex
	events []lockEvent
}

func (l *fakeLock) Lock() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, lockEvent{locked: true, at: time.Now()})
}

func (l *fakeLock) Unlock(r UnlockReason) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, lockEvent{reason: r, at: time.Now()})
}

func (l *fakeLock) snapshot() []lockEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]lockEvent(nil), l.events...)
}

type harness struct {
	orch    *Orchestrator
	backend *fakeBackend
	view    *fakeView
	lock    *fakeLock
	locale  *i18n.Selector
	table   *i18n.Table
	bus     *events.EventBus
}

func fastConfig() Config {
	return Config{
		PollInterval:    2 * time.Millisecond,
		MaxPollAttempts: 120,
		StatusInterval:  time.Hour,
		SafetyTimeout:   time.Hour,
	}
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	table, err := i18n.DefaultTable()
	if err != nil {
		t.Fatal(err)
	}
	h := &harness{
		backend: &fakeBackend{},
		view:    &fakeView{},
		lock:    &fakeLock{},
		locale:  i18n.NewSelector(i18n.KO),
		table:   table,
		bus:     events.New(256),
	}
	t.Cleanup(h.bus.Close)
	h.orch = New(Deps{
		Backend:  h.backend,
		View:     h.view,
		Lock:     h.lock,
		Locale:   h.locale,
		Table:    table,
		Renderer: render.New(render.WithCharDelay(0), render.WithBlockDelay(0), render.WithFadeDelay(0)),
		Session:  conversation.NewSession(2),
		Bus:      h.bus,
	}, cfg)
	return h
}

func intPtr(v int) *int { return &v }
