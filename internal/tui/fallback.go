package tui

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/conversation"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/core"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/events"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/feedback"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/i18n"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/orchestrator"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/render"
)

// PlainView writes the conversation as plain lines. It implements
// orchestrator.View and orchestrator.InputLock for pipes, CI and the
// one-shot ask command.
type PlainView struct {
	mu     sync.Mutex
	w      io.Writer
	width  int
	locale *i18n.Selector
	table  *i18n.Table

	options  []string
	shares   []string
	flow     *feedback.Flow
	locked   bool
	lastByte byte
}

var (
	_ orchestrator.View      = (*PlainView)(nil)
	_ orchestrator.InputLock = (*PlainView)(nil)
)

// NewPlainView creates a plain front end writing to w, wrapping at width
// columns.
func NewPlainView(w io.Writer, locale *i18n.Selector, table *i18n.Table, width int) *PlainView {
	if width <= 0 {
		width = 80
	}
	if locale == nil {
		locale = i18n.NewSelector(i18n.Default)
	}
	if table == nil {
		table, _ = i18n.DefaultTable()
	}
	return &PlainView{w: w, width: width, locale: locale, table: table, lastByte: '\n'}
}

func (v *PlainView) write(s string) {
	if s == "" {
		return
	}
	_, _ = io.WriteString(v.w, s)
	v.lastByte = s[len(s)-1]
}

func (v *PlainView) line(s string) {
	if v.lastByte != '\n' {
		v.write("\n")
	}
	v.write(s + "\n")
}

// wrap breaks s at the view width counting East Asian wide runes as two
// columns.
func (v *PlainView) wrap(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = runewidth.Wrap(l, v.width)
	}
	return strings.Join(lines, "\n")
}

// Flush ends a partially written line.
func (v *PlainView) Flush() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.lastByte != '\n' {
		v.write("\n")
	}
}

func (v *PlainView) AddUserMessage(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.line("> " + v.wrap(text))
}

func (v *PlainView) NewPlaceholder() orchestrator.Placeholder {
	return &plainPlaceholder{v: v}
}

func (v *PlainView) AttachFeedback(_ orchestrator.Placeholder, f *feedback.Flow) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.flow = f
	if f != nil {
		v.line(fmt.Sprintf("%s  /up %s  /down %s", f.Strings().Question, core.RatingPositive, core.RatingNegative))
	}
}

func (v *PlainView) ShowOptions(options []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.options = append([]string(nil), options...)
	for i, o := range options {
		v.line(fmt.Sprintf("  %d) %s", i+1, o))
	}
}

func (v *PlainView) ClearOptions() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.options = nil
}

func (v *PlainView) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.locked = true
}

func (v *PlainView) Unlock(reason orchestrator.UnlockReason) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.locked = false
	if reason == orchestrator.UnlockSafetyTimeout {
		v.line(safetyHint)
	}
}

// Locked reports whether a turn holds the input.
func (v *PlainView) Locked() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.locked
}

// Options returns the clarification choices on display.
func (v *PlainView) Options() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.options...)
}

// Flow returns the feedback flow of the latest rated answer.
func (v *PlainView) Flow() *feedback.Flow {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.flow
}

// Share returns the copy payload of card n, counted from 1.
func (v *PlainView) Share(n int) (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n < 1 || n > len(v.shares) {
		return "", false
	}
	return v.shares[n-1], true
}

// Reset forgets options, cards and the feedback target.
func (v *PlainView) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.options, v.shares, v.flow = nil, nil, nil
}

// Println writes a message line.
func (v *PlainView) Println(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.line(s)
}

type plainPlaceholder struct {
	v *PlainView
}

func (p *plainPlaceholder) ShowLoading(action, tip string) {
	p.v.mu.Lock()
	defer p.v.mu.Unlock()
	p.v.line("… " + action)
	if tip != "" {
		p.v.line(indent(p.v.wrap(tip), "  "))
	}
}

func (p *plainPlaceholder) SetAction(action string) {
	p.v.mu.Lock()
	defer p.v.mu.Unlock()
	p.v.line("… " + action)
}

// SetTip is silent; a line-oriented log would fill with tips.
func (p *plainPlaceholder) SetTip(string) {}

func (p *plainPlaceholder) Clear() {
	p.v.mu.Lock()
	defer p.v.mu.Unlock()
	if p.v.lastByte != '\n' {
		p.v.write("\n")
	}
}

func (p *plainPlaceholder) AppendText(s string) {
	p.v.mu.Lock()
	defer p.v.mu.Unlock()
	p.v.write(s)
}

func (p *plainPlaceholder) AppendBlock(b render.Block) {
	v := p.v
	v.mu.Lock()
	defer v.mu.Unlock()

	if b.Kind != render.BlockCard {
		v.line(v.wrap(strings.TrimRight(b.Source, "\n")))
		return
	}
	l := v.locale.Locale()
	set, err := ParseCards(b.Source, l, v.table.Strings(l).Card)
	if err != nil {
		v.line(v.wrap(b.Source))
		return
	}
	for _, lead := range set.Lead {
		v.line(v.wrap(lead))
	}
	for _, c := range set.Cards {
		v.shares = append(v.shares, c.ShareText)
		v.line(plainCard(c, len(v.shares)))
	}
}

func (p *plainPlaceholder) SetOpacity(float64) {}

func (p *plainPlaceholder) ScrollToBottom() {}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}

// PlainSession interprets lines typed into the plain front end.
type PlainSession struct {
	View     *PlainView
	Chat     Chatter
	Copier   Copier
	Bus      *events.EventBus
	commands *CommandRegistry
}

// NewPlainSession wires a session around view.
func NewPlainSession(view *PlainView, chat Chatter, copier Copier, bus *events.EventBus) *PlainSession {
	return &PlainSession{View: view, Chat: chat, Copier: copier, Bus: bus, commands: NewCommandRegistry()}
}

// Handle processes one input line and blocks until the resulting turn has
// been rendered. quit is true after /quit.
func (s *PlainSession) Handle(ctx context.Context, input string) (quit bool, err error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return false, nil
	}
	defer s.View.Flush()

	if n, convErr := strconv.Atoi(input); convErr == nil {
		if opts := s.View.Options(); n >= 1 && n <= len(opts) {
			return false, s.Chat.SelectOption(ctx, opts[n-1])
		}
	}
	if !strings.HasPrefix(input, "/") {
		return false, s.Chat.Submit(ctx, input)
	}

	cmd, args, ok := s.commands.Parse(input)
	if !ok {
		s.View.Println("unknown command, try /help")
		return false, nil
	}
	if cmd.RequiresArg() && len(args) == 0 {
		s.View.Println("usage: " + cmd.Usage)
		return false, nil
	}

	switch cmd.Name {
	case "help":
		s.View.Println(s.commands.Help())
	case "pick":
		n, _ := strconv.Atoi(args[0])
		opts := s.View.Options()
		if n < 1 || n > len(opts) {
			s.View.Println(fmt.Sprintf("no choice %s", args[0]))
			return false, nil
		}
		return false, s.Chat.SelectOption(ctx, opts[n-1])
	case "up", "down", "reason", "send":
		return false, s.rate(ctx, cmd.Name, args)
	case "copy":
		s.copy(s.lastAnswer())
	case "share":
		n, _ := strconv.Atoi(args[0])
		text, ok := s.View.Share(n)
		if !ok {
			s.View.Println(fmt.Sprintf("no card %s", args[0]))
			return false, nil
		}
		s.copy(text)
	case "lang":
		s.lang(args)
	case "clear":
		s.Chat.Session().Reset()
		s.View.Reset()
	case "quit":
		return true, nil
	}
	return false, nil
}

func (s *PlainSession) rate(ctx context.Context, action string, args []string) error {
	flow := s.View.Flow()
	if flow == nil {
		s.View.Println("no answer to rate yet")
		return nil
	}
	var err error
	switch action {
	case "up":
		err = flow.Positive(ctx)
	case "down":
		if err = flow.Negative(); err == nil {
			for i, r := range flow.Reasons() {
				s.View.Println(fmt.Sprintf("  /reason %d  %s", i+1, r))
			}
		}
	case "reason":
		n, _ := strconv.Atoi(args[0])
		if err = flow.SelectReason(n - 1); err == nil {
			s.View.Println(flow.Message() + "  /send [comment]")
		}
	case "send":
		if comment := strings.Join(args, " "); comment != "" {
			if err = flow.SetComment(comment); err != nil {
				break
			}
		}
		err = flow.Send(ctx)
	}
	if err != nil && !feedback.IsInvalidTransition(err) {
		s.View.Println(flow.Message())
		return err
	}
	if err != nil {
		s.View.Println(feedbackError(err))
		return nil
	}
	if flow.State().Terminal() {
		s.View.Println(flow.Message())
	}
	return nil
}

func (s *PlainSession) lastAnswer() string {
	h := s.Chat.Session().History()
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Role == conversation.RoleAssistant {
			l := s.View.locale.Locale()
			return answerText(h[i].Content, l, s.View.table.Strings(l).Card)
		}
	}
	return ""
}

func (s *PlainSession) copy(text string) {
	if s.Copier == nil {
		s.View.Println("clipboard unavailable")
		return
	}
	res, err := s.Copier.Copy(text)
	if err != nil {
		s.View.Println(err.Error())
		return
	}
	s.View.Println(res.Describe())
}

func (s *PlainSession) lang(args []string) {
	sel := s.View.locale
	if len(args) == 0 {
		for _, l := range i18n.Supported() {
			mark := "  "
			if l == sel.Locale() {
				mark = "* "
			}
			s.View.Println(fmt.Sprintf("%s%s  %s", mark, l, s.View.table.Strings(l).Name))
		}
		return
	}
	l, ok := i18n.ParseLocale(args[0])
	if !ok {
		s.View.Println(fmt.Sprintf("unsupported language %q", args[0]))
		return
	}
	sel.Set(l)
	s.Bus.Publish(events.NewLocaleChangedEvent(string(l), "command"))
	s.View.Println(s.View.table.Strings(l).Name)
}
