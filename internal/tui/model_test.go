package tui

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/clip"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/conversation"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/core"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/events"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/feedback"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/i18n"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/orchestrator"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/protocol"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/render"
)

type fakeChat struct {
	mu      sync.Mutex
	session *conversation.Session
	submits []string
	options []string
}

func newFakeChat() *fakeChat {
	return &fakeChat{session: conversation.NewSession(core.MaxHistoryTurns)}
}

func (c *fakeChat) Submit(_ context.Context, input string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submits = append(c.submits, input)
	return nil
}

func (c *fakeChat) SelectOption(_ context.Context, option string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.options = append(c.options, option)
	return nil
}

func (c *fakeChat) Session() *conversation.Session { return c.session }

type fakeCopier struct{ copied []string }

func (c *fakeCopier) Copy(text string) (clip.Result, error) {
	c.copied = append(c.copied, text)
	return clip.Result{Method: clip.MethodNative}, nil
}

type fakeSubmitter struct {
	mu   sync.Mutex
	reqs []protocol.FeedbackRequest
}

func (s *fakeSubmitter) Feedback(_ context.Context, req protocol.FeedbackRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	return nil
}

func newTestModel(t *testing.T) (Model, *fakeChat, *fakeCopier, *i18n.Selector) {
	t.Helper()
	table, err := i18n.DefaultTable()
	if err != nil {
		t.Fatalf("DefaultTable() error = %v", err)
	}
	chat := newFakeChat()
	cp := &fakeCopier{}
	sel := i18n.NewSelector(i18n.KO)
	m := NewModel(Options{Chat: chat, Locale: sel, Table: table, Copier: cp})
	m = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, chat, cp, sel
}

func step(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func typeAndEnter(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.textarea.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func TestModel_StreamedAnswer(t *testing.T) {
	t.Parallel()
	m, _, _, _ := newTestModel(t)

	m = step(t, m,
		userMessageMsg{text: "부산 기저귀 지원"},
		placeholderMsg{id: 1},
		loadingMsg{id: 1, action: "질문 분석 중", tip: "[팁]:\n본문"},
	)
	if v := m.View(); !strings.Contains(v, "질문 분석 중") || !strings.Contains(v, "부산 기저귀 지원") {
		t.Fatalf("loading view missing content:\n%s", v)
	}

	m = step(t, m, actionMsg{id: 1, action: "자료 검색 중"})
	if !strings.Contains(m.View(), "자료 검색 중") {
		t.Error("action update not shown")
	}

	m = step(t, m, clearMsg{id: 1}, opacityMsg{id: 1, opacity: 1})
	for _, r := range "월 9만원" {
		m = step(t, m, appendTextMsg{id: 1, text: string(r)}, scrollMsg{})
	}
	v := m.View()
	if strings.Contains(v, "자료 검색 중") {
		t.Error("loading skeleton still shown after clear")
	}
	if !strings.Contains(v, "월 9만원") {
		t.Errorf("streamed text missing:\n%s", v)
	}
}

func TestModel_CardAnswerSharesAndLocalizes(t *testing.T) {
	t.Parallel()
	m, _, cp, sel := newTestModel(t)
	sel.Set(i18n.EN)

	m = step(t, m,
		placeholderMsg{id: 1},
		opacityMsg{id: 1, opacity: 0},
		clearMsg{id: 1},
		appendBlockMsg{id: 1, block: render.Block{Kind: render.BlockCard, Source: sampleCards}},
	)
	if strings.Contains(m.View(), "기저귀 지원") {
		t.Error("card visible before fade in")
	}
	m = step(t, m, opacityMsg{id: 1, opacity: 0.5})
	if !strings.Contains(m.View(), "기저귀 지원") {
		t.Error("dimmed card should already be drawn mid-fade")
	}
	m = step(t, m, opacityMsg{id: 1, opacity: 1})
	v := m.View()
	for _, want := range []string{"기저귀 지원", "View Details", "/share 1", "/share 2"} {
		if !strings.Contains(v, want) {
			t.Errorf("card view missing %q", want)
		}
	}

	m, cmd := typeAndEnter(t, m, "/share 2")
	if cmd == nil {
		t.Fatal("/share returned no command")
	}
	if msg, ok := cmd().(statusMsg); !ok || msg.isErr {
		t.Errorf("share status = %#v", msg)
	}
	if len(cp.copied) != 1 || cp.copied[0] != "첫만남이용권" {
		t.Errorf("copied = %q", cp.copied)
	}

	m, cmd = typeAndEnter(t, m, "/share 9")
	if cmd != nil || !m.statusErr {
		t.Error("out of range share should set an error status")
	}
}

func TestModel_LockBlocksSubmitAndAnimatesPlaceholder(t *testing.T) {
	t.Parallel()
	m, chat, _, _ := newTestModel(t)
	s, _ := i18n.DefaultTable()
	ko := s.Strings(i18n.KO)

	m = step(t, m, lockMsg{})
	if m.textarea.Placeholder != ko.Loading {
		t.Errorf("placeholder = %q, want %q", m.textarea.Placeholder, ko.Loading)
	}
	m = step(t, m, dotsTickMsg{gen: m.dotsGen})
	if m.textarea.Placeholder != ko.Loading+"." {
		t.Errorf("placeholder after tick = %q", m.textarea.Placeholder)
	}
	m = step(t, m, dotsTickMsg{gen: m.dotsGen - 1})
	if m.textarea.Placeholder != ko.Loading+"." {
		t.Error("stale tick advanced the animation")
	}

	m, cmd := typeAndEnter(t, m, "또 질문")
	if cmd != nil {
		t.Error("submit accepted while locked")
	}
	if m.textarea.Value() != "또 질문" {
		t.Error("typed text dropped while locked")
	}

	m = step(t, m, unlockMsg{reason: orchestrator.UnlockSafetyTimeout})
	if m.textarea.Placeholder != safetyHint {
		t.Errorf("placeholder after forced unlock = %q", m.textarea.Placeholder)
	}

	m, cmd = typeAndEnter(t, m, "또 질문")
	if cmd == nil {
		t.Fatal("submit rejected after unlock")
	}
	if _, ok := cmd().(turnDoneMsg); !ok {
		t.Error("submit command did not report turn completion")
	}
	if len(chat.submits) != 1 || chat.submits[0] != "또 질문" {
		t.Errorf("submits = %q", chat.submits)
	}
	if !m.locked {
		t.Error("model not locked right after submit")
	}

	m = step(t, m, lockMsg{}, unlockMsg{reason: orchestrator.UnlockDone})
	if m.textarea.Placeholder != ko.Placeholder {
		t.Errorf("placeholder after release = %q", m.textarea.Placeholder)
	}
}

func TestModel_PickOptionAndSuggestion(t *testing.T) {
	t.Parallel()
	m, chat, _, _ := newTestModel(t)

	_, cmd := typeAndEnter(t, m, "/pick 1")
	if cmd == nil {
		t.Fatal("/pick on empty conversation should use starter suggestions")
	}
	cmd()
	s, _ := i18n.DefaultTable()
	if len(chat.submits) != 1 || chat.submits[0] != s.Strings(i18n.KO).Suggestions[0] {
		t.Errorf("submits = %q", chat.submits)
	}

	m, _, _, _ = newTestModel(t)
	m.chat = chat
	m = step(t, m, userMessageMsg{text: "기저귀"}, optionsMsg{options: []string{"서울", "부산"}})
	if !strings.Contains(m.View(), "[2] 부산") {
		t.Error("options not shown")
	}
	_, cmd = typeAndEnter(t, m, "/p 2")
	if cmd == nil {
		t.Fatal("/p 2 returned no command")
	}
	cmd()
	if len(chat.options) != 1 || chat.options[0] != "부산" {
		t.Errorf("options sent = %q", chat.options)
	}

	m = step(t, m, optionsMsg{})
	m, cmd = typeAndEnter(t, m, "/pick 1")
	if cmd != nil || !m.statusErr {
		t.Error("/pick without options should fail")
	}
}

func TestModel_NegativeFeedbackFlow(t *testing.T) {
	t.Parallel()
	m, chat, _, _ := newTestModel(t)
	table, _ := i18n.DefaultTable()
	sub := &fakeSubmitter{}
	flow := feedback.New(sub, chat.session, nil, feedback.Params{
		JobID: "j1", Question: "q", Answer: "a", Strings: table.Strings(i18n.KO).Feedback,
	})

	m, cmd := typeAndEnter(t, m, "/up")
	if cmd != nil || !m.statusErr {
		t.Error("rating without an answer should fail")
	}

	m = step(t, m, placeholderMsg{id: 7}, appendTextMsg{id: 7, text: "answer"}, feedbackAttachedMsg{id: 7, flow: flow})
	m, _ = typeAndEnter(t, m, "/down")
	if flow.State() != feedback.ReasonSelection {
		t.Fatalf("state = %v", flow.State())
	}
	if !strings.Contains(m.View(), "/reason 1") {
		t.Error("reasons not listed")
	}

	m, _ = typeAndEnter(t, m, "/reason 2")
	m, cmd = typeAndEnter(t, m, "/send 지역이 틀렸어요")
	if cmd == nil {
		t.Fatal("/send returned no command")
	}
	m = step(t, m, cmd())
	if flow.State() != feedback.Submitted {
		t.Fatalf("state = %v, err = %v", flow.State(), flow.Err())
	}
	if len(sub.reqs) != 1 {
		t.Fatalf("feedback requests = %d", len(sub.reqs))
	}
	req := sub.reqs[0]
	if req.Feedback != core.RatingNegative || req.Comment != "지역이 틀렸어요" || req.Reason != table.Strings(i18n.KO).Feedback.Reasons[1] {
		t.Errorf("request = %+v", req)
	}
	if !strings.Contains(m.View(), table.Strings(i18n.KO).Feedback.ThanksBad) {
		t.Error("thanks message not shown")
	}

	m, cmd = typeAndEnter(t, m, "/up")
	if cmd != nil {
		cmd()
	}
	if len(sub.reqs) != 1 {
		t.Error("a submitted flow accepted another rating")
	}
}

func TestModel_LangCommand(t *testing.T) {
	t.Parallel()
	m, _, _, sel := newTestModel(t)
	bus := events.New(8)
	defer bus.Close()
	ch := bus.Subscribe(events.TypeLocaleChanged)
	m.bus = bus

	m, _ = typeAndEnter(t, m, "/lang zh-CN")
	if sel.Locale() != i18n.ZH {
		t.Fatalf("locale = %v", sel.Locale())
	}
	table, _ := i18n.DefaultTable()
	if m.textarea.Placeholder != table.Strings(i18n.ZH).Placeholder {
		t.Errorf("placeholder = %q", m.textarea.Placeholder)
	}
	select {
	case ev := <-ch:
		if e := ev.(events.LocaleChangedEvent); e.Locale != "zh" || e.Source != "command" {
			t.Errorf("event = %+v", e)
		}
	default:
		t.Error("no locale event published")
	}

	m, _ = typeAndEnter(t, m, "/lang fr")
	if sel.Locale() != i18n.ZH || !m.statusErr {
		t.Error("unsupported language should be rejected")
	}
}

func TestModel_ClearAndCopy(t *testing.T) {
	t.Parallel()
	m, chat, cp, _ := newTestModel(t)
	chat.session.AppendTurn(conversation.RoleUser, "q")
	chat.session.AppendTurn(conversation.RoleAssistant, "**답변**")

	m, cmd := typeAndEnter(t, m, "/copy")
	if cmd == nil {
		t.Fatal("/copy returned no command")
	}
	cmd()
	if len(cp.copied) != 1 || cp.copied[0] != "**답변**" {
		t.Errorf("copied = %q", cp.copied)
	}

	m = step(t, m, userMessageMsg{text: "q"}, optionsMsg{options: []string{"a"}})
	m, _ = typeAndEnter(t, m, "/clear")
	if len(m.entries) != 0 || len(m.options) != 0 {
		t.Error("/clear left entries or options")
	}
	if chat.session.Len() != 0 {
		t.Error("/clear did not reset the session")
	}
}

func TestModel_UnknownCommand(t *testing.T) {
	t.Parallel()
	m, _, _, _ := newTestModel(t)
	m, _ = typeAndEnter(t, m, "/frobnicate")
	if !m.statusErr || !strings.Contains(m.status, "/help") {
		t.Errorf("status = %q", m.status)
	}
	m, _ = typeAndEnter(t, m, "/pick")
	if !strings.Contains(m.status, "usage") {
		t.Errorf("status = %q", m.status)
	}
}

func TestModel_CommandSuggestionsInView(t *testing.T) {
	t.Parallel()
	m, _, _, _ := newTestModel(t)
	m.textarea.SetValue("/sha")
	if !strings.Contains(m.View(), "/share") {
		t.Error("command suggestion not shown")
	}
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	if m.textarea.Value() != "/share " {
		t.Errorf("tab completion = %q", m.textarea.Value())
	}
}

func TestModel_EventFooter(t *testing.T) {
	t.Parallel()
	bus := events.New(8)
	defer bus.Close()
	table, _ := i18n.DefaultTable()
	m := NewModel(Options{Table: table, Bus: bus})
	defer m.Close()
	m = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	bus.Publish(events.NewPollAttemptEvent("t1", "job-123456789", 3, 120, "pending", nil))
	msg := m.adapter.Listen()()
	m = step(t, m, msg)
	if !strings.Contains(m.View(), "job job-1234: poll 3/120") {
		t.Errorf("footer = %q", m.footer)
	}
}
