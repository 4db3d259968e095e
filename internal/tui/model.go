package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/clip"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/conversation"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/core"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/events"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/feedback"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/i18n"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/logging"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/orchestrator"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/render"
)

// safetyHint replaces the input placeholder after a forced unlock.
const safetyHint = "Timeout. Please try again."

// Chatter runs chat turns. *orchestrator.Orchestrator implements it.
type Chatter interface {
	Submit(ctx context.Context, input string) error
	SelectOption(ctx context.Context, option string) error
	Session() *conversation.Session
}

// Copier puts text on the clipboard. *clip.Copier implements it.
type Copier interface {
	Copy(text string) (clip.Result, error)
}

// Options configure the chat model.
type Options struct {
	Context context.Context
	Chat    Chatter
	Locale  *i18n.Selector
	Table   *i18n.Table
	Copier  Copier
	Bus     *events.EventBus
	Logger  *logging.Logger
	Color   bool
	Version string
}

type partKind int

const (
	partText partKind = iota
	partMarkdown
	partCards
)

// part is one piece of an answer with its rendering cached per width.
type part struct {
	kind      partKind
	text      string
	cards     CardSet
	shareBase int

	cache      string
	cacheWidth int
}

type entryKind int

const (
	entryUser entryKind = iota
	entryAssistant
	entrySystem
)

type entry struct {
	kind    entryKind
	id      int
	text    string
	loading bool
	action  string
	tip     string
	parts   []*part
	opacity float64
	flow    *feedback.Flow
}

// Model is the bubbletea model of the chat screen.
type Model struct {
	ctx      context.Context
	chat     Chatter
	locale   *i18n.Selector
	table    *i18n.Table
	copier   Copier
	bus      *events.EventBus
	adapter  *EventBusAdapter
	logger   *logging.Logger
	commands *CommandRegistry
	md       *markdown
	color    bool
	version  string

	entries  []*entry
	byID     map[int]*entry
	options  []string
	shares   []string
	feedback *entry

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	width    int
	height   int
	ready    bool
	follow   bool

	locked  bool
	hint    string
	dots    int
	dotsGen int

	status    string
	statusErr bool
	footer    string
}

// NewModel creates the chat model.
func NewModel(opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Locale == nil {
		opts.Locale = i18n.NewSelector(i18n.Default)
	}
	if opts.Table == nil {
		opts.Table, _ = i18n.DefaultTable()
	}

	ta := textarea.New()
	ta.Focus()
	ta.Prompt = "› "
	ta.CharLimit = 2000
	ta.SetWidth(80)
	ta.SetHeight(2)
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()
	ta.KeyMap.InsertNewline.SetEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = actionStyle

	m := Model{
		ctx:      opts.Context,
		chat:     opts.Chat,
		locale:   opts.Locale,
		table:    opts.Table,
		copier:   opts.Copier,
		bus:      opts.Bus,
		logger:   opts.Logger.WithComponent("tui"),
		commands: NewCommandRegistry(),
		md:       newMarkdown(76, opts.Color),
		color:    opts.Color,
		version:  opts.Version,
		byID:     make(map[int]*entry),
		textarea: ta,
		spinner:  sp,
		follow:   true,
	}
	if opts.Bus != nil {
		m.adapter = NewEventBusAdapter(opts.Bus)
	}
	m.textarea.Placeholder = m.localeStrings().Placeholder
	return m
}

// Init starts the cursor blink, the spinner and the event listener.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.spinner.Tick}
	if m.adapter != nil {
		cmds = append(cmds, m.adapter.Listen())
	}
	return tea.Batch(cmds...)
}

// Close releases the event subscription.
func (m Model) Close() {
	if m.adapter != nil {
		m.adapter.Close()
	}
}

func (m Model) localeStrings() i18n.Strings {
	if m.table == nil {
		return i18n.Strings{}
	}
	return m.table.Strings(m.locale.Locale())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.follow = m.viewport.AtBottom()
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.anyLoading() {
			m.refresh()
		}
		return m, cmd

	case userMessageMsg:
		m.entries = append(m.entries, &entry{kind: entryUser, text: msg.text})
		m.follow = true
		m.refresh()
		return m, nil

	case placeholderMsg:
		e := &entry{kind: entryAssistant, id: msg.id, opacity: 1}
		m.entries = append(m.entries, e)
		m.byID[msg.id] = e
		m.refresh()
		return m, nil

	case loadingMsg:
		if e := m.byID[msg.id]; e != nil {
			e.loading, e.action, e.tip = true, msg.action, msg.tip
			m.refresh()
		}
		return m, nil

	case actionMsg:
		if e := m.byID[msg.id]; e != nil && e.loading {
			e.action = msg.action
			m.refresh()
		}
		return m, nil

	case tipMsg:
		if e := m.byID[msg.id]; e != nil && e.loading {
			e.tip = msg.tip
			m.refresh()
		}
		return m, nil

	case clearMsg:
		if e := m.byID[msg.id]; e != nil {
			e.loading = false
			e.parts = nil
			m.refresh()
		}
		return m, nil

	case appendTextMsg:
		if e := m.byID[msg.id]; e != nil {
			if n := len(e.parts); n > 0 && e.parts[n-1].kind == partText {
				p := e.parts[n-1]
				p.text += msg.text
				p.cacheWidth = 0
			} else {
				e.parts = append(e.parts, &part{kind: partText, text: msg.text})
			}
			m.refresh()
		}
		return m, nil

	case appendBlockMsg:
		if e := m.byID[msg.id]; e != nil {
			e.parts = append(e.parts, m.blockPart(msg.block))
			m.refresh()
		}
		return m, nil

	case opacityMsg:
		if e := m.byID[msg.id]; e != nil {
			e.opacity = msg.opacity
			m.refresh()
		}
		return m, nil

	case scrollMsg:
		if m.follow {
			m.viewport.GotoBottom()
		}
		return m, nil

	case optionsMsg:
		m.options = msg.options
		m.refresh()
		return m, nil

	case feedbackAttachedMsg:
		if e := m.byID[msg.id]; e != nil {
			e.flow = msg.flow
			m.feedback = e
			m.refresh()
		}
		return m, nil

	case lockMsg:
		m.locked = true
		m.hint = ""
		m.dots = 0
		m.dotsGen++
		m.updatePlaceholder()
		return m, dotsTick(m.dotsGen)

	case unlockMsg:
		m.locked = false
		m.dotsGen++
		if msg.reason == orchestrator.UnlockSafetyTimeout {
			m.hint = safetyHint
		}
		m.updatePlaceholder()
		return m, nil

	case dotsTickMsg:
		if !m.locked || msg.gen != m.dotsGen {
			return m, nil
		}
		m.dots = (m.dots + 1) % 4
		m.updatePlaceholder()
		return m, dotsTick(msg.gen)

	case turnDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.logger.Debug("turn finished with error", "error", msg.err)
		}
		if core.IsCategory(msg.err, core.ErrCatValidation) {
			m.locked = false
			m.updatePlaceholder()
		}
		return m, nil

	case feedbackDoneMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
		}
		m.refresh()
		return m, nil

	case eventMsg:
		if text := describeEvent(msg.event); text != "" {
			m.footer = text
		}
		if _, ok := msg.event.(events.LocaleChangedEvent); ok {
			m.updatePlaceholder()
			m.invalidate()
			m.refresh()
		}
		return m, m.adapter.Listen()

	case statusMsg:
		m.setStatus(msg.text, msg.isErr)
		return m, nil
	}

	return m, nil
}

func dotsTick(gen int) tea.Cmd {
	return tea.Tick(core.PlaceholderDotInterval, func(time.Time) tea.Msg {
		return dotsTickMsg{gen: gen}
	})
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.textarea.SetWidth(width - 2)

	vh := height - 7
	if vh < 3 {
		vh = 3
	}
	if !m.ready {
		m.viewport = viewport.New(width, vh)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vh
	}
	m.md = newMarkdown(m.contentWidth(), m.color)
	m.invalidate()
	m.refresh()
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m Model) contentWidth() int {
	if m.width <= 8 {
		return 76
	}
	return m.width - 4
}

func (m *Model) invalidate() {
	for _, e := range m.entries {
		for _, p := range e.parts {
			p.cacheWidth = 0
		}
	}
}

func (m *Model) updatePlaceholder() {
	s := m.localeStrings()
	switch {
	case m.locked:
		m.textarea.Placeholder = s.Loading + strings.Repeat(".", m.dots)
	case m.hint != "":
		m.textarea.Placeholder = m.hint
	default:
		m.textarea.Placeholder = s.Placeholder
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m Model) anyLoading() bool {
	for _, e := range m.entries {
		if e.loading {
			return true
		}
	}
	return false
}

func (m *Model) blockPart(b render.Block) *part {
	if b.Kind != render.BlockCard {
		return &part{kind: partMarkdown, text: b.Source}
	}
	s := m.localeStrings()
	set, err := ParseCards(b.Source, m.locale.Locale(), s.Card)
	if err != nil || len(set.Cards) == 0 {
		m.logger.Debug("card markup without cards", "error", err)
		return &part{kind: partText, text: strings.Join(set.Lead, "\n")}
	}
	p := &part{kind: partCards, cards: set, shareBase: len(m.shares) + 1}
	for _, c := range set.Cards {
		m.shares = append(m.shares, c.ShareText)
	}
	return p
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "esc":
		m.textarea.Reset()
		m.setStatus("", false)
		return nil
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.follow = m.viewport.AtBottom()
		return cmd
	case "tab":
		if sug := m.commandSuggestions(); len(sug) > 0 {
			m.textarea.SetValue("/" + sug[0] + " ")
			m.textarea.CursorEnd()
		}
		return nil
	case "enter":
		return m.handleEnter()
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return cmd
}

func (m *Model) handleEnter() tea.Cmd {
	value := strings.TrimSpace(m.textarea.Value())
	if value == "" {
		return nil
	}
	if strings.HasPrefix(value, "/") {
		m.textarea.Reset()
		return m.runCommand(value)
	}
	if m.locked {
		return nil
	}
	m.textarea.Reset()
	m.setStatus("", false)
	return m.submit(value, false)
}

// submit starts a turn. The lock is taken here as well so a second Enter
// before the orchestrator's lock message arrives is ignored.
func (m *Model) submit(text string, option bool) tea.Cmd {
	if m.chat == nil {
		return nil
	}
	m.locked = true
	m.hint = ""
	m.follow = true
	chat, ctx := m.chat, m.ctx
	return func() tea.Msg {
		if option {
			return turnDoneMsg{err: chat.SelectOption(ctx, text)}
		}
		return turnDoneMsg{err: chat.Submit(ctx, text)}
	}
}

func (m *Model) runCommand(input string) tea.Cmd {
	cmd, args, ok := m.commands.Parse(input)
	if !ok {
		m.setStatus(fmt.Sprintf("unknown command %s, try /help", strings.Fields(input)[0]), true)
		return nil
	}
	if cmd.RequiresArg() && len(args) == 0 {
		m.setStatus("usage: "+cmd.Usage, true)
		return nil
	}
	m.setStatus("", false)

	switch cmd.Name {
	case "help":
		m.addSystem(m.commands.Help())
	case "pick":
		return m.pick(args[0])
	case "up", "down", "reason", "send":
		return m.rate(cmd.Name, args)
	case "copy":
		return m.copy(m.lastAnswer())
	case "share":
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > len(m.shares) {
			m.setStatus(fmt.Sprintf("no card %s", args[0]), true)
			return nil
		}
		return m.copy(m.shares[n-1])
	case "lang":
		m.switchLocale(args)
	case "clear":
		if m.locked {
			m.setStatus("wait for the current answer", true)
			return nil
		}
		if m.chat != nil {
			m.chat.Session().Reset()
		}
		m.entries = nil
		m.byID = make(map[int]*entry)
		m.options = nil
		m.shares = nil
		m.feedback = nil
		m.hint = ""
		m.updatePlaceholder()
		m.refresh()
	case "quit":
		return tea.Quit
	}
	return nil
}

func (m *Model) addSystem(text string) {
	m.entries = append(m.entries, &entry{kind: entrySystem, text: text})
	m.follow = true
	m.refresh()
	m.viewport.GotoBottom()
}

// pick answers with option n, or with starter suggestion n on an empty
// conversation.
func (m *Model) pick(arg string) tea.Cmd {
	n, err := strconv.Atoi(arg)
	if err != nil {
		m.setStatus("usage: /pick <n>", true)
		return nil
	}
	if m.locked {
		m.setStatus("wait for the current answer", true)
		return nil
	}
	list, option := m.options, true
	if len(list) == 0 && len(m.entries) == 0 {
		list, option = m.localeStrings().Suggestions, false
	}
	if n < 1 || n > len(list) {
		m.setStatus(fmt.Sprintf("no choice %d", n), true)
		return nil
	}
	return m.submit(list[n-1], option)
}

func (m *Model) rate(action string, args []string) tea.Cmd {
	if m.feedback == nil || m.feedback.flow == nil {
		m.setStatus("no answer to rate yet", true)
		return nil
	}
	flow, ctx := m.feedback.flow, m.ctx

	var err error
	switch action {
	case "up":
		return func() tea.Msg { return feedbackDoneMsg{err: flow.Positive(ctx)} }
	case "down":
		err = flow.Negative()
	case "reason":
		n, convErr := strconv.Atoi(args[0])
		if convErr != nil {
			m.setStatus("usage: /reason <n>", true)
			return nil
		}
		err = flow.SelectReason(n - 1)
	case "send":
		if comment := strings.Join(args, " "); comment != "" {
			if err = flow.SetComment(comment); err != nil {
				break
			}
		}
		if flow.State() != feedback.CommentEntry {
			err = feedback.ErrInvalidTransition
			break
		}
		return func() tea.Msg { return feedbackDoneMsg{err: flow.Send(ctx)} }
	}
	if err != nil {
		m.setStatus(feedbackError(err), true)
	}
	m.refresh()
	return nil
}

func feedbackError(err error) string {
	if feedback.IsInvalidTransition(err) {
		return "that rating step is not available now"
	}
	var de *core.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

func (m *Model) copy(text string) tea.Cmd {
	if m.copier == nil {
		m.setStatus("clipboard unavailable", true)
		return nil
	}
	copier := m.copier
	return func() tea.Msg {
		res, err := copier.Copy(text)
		if err != nil {
			return statusMsg{text: err.Error(), isErr: true}
		}
		return statusMsg{text: res.Describe()}
	}
}

// lastAnswer is the latest assistant turn as plain text.
func (m Model) lastAnswer() string {
	if m.chat == nil {
		return ""
	}
	h := m.chat.Session().History()
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Role == conversation.RoleAssistant {
			return answerText(h[i].Content, m.locale.Locale(), m.localeStrings().Card)
		}
	}
	return ""
}

// answerText converts card markup to plain text and leaves Markdown as is.
func answerText(raw string, l i18n.Locale, labels i18n.Card) string {
	if render.Classify(raw) != render.PathFade {
		return raw
	}
	set, err := ParseCards(raw, l, labels)
	if err != nil {
		return raw
	}
	var parts []string
	parts = append(parts, set.Lead...)
	for _, c := range set.Cards {
		text := c.ShareText
		if text == "" {
			text = plainCard(c, 0)
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n")
}

func (m *Model) switchLocale(args []string) {
	if len(args) == 0 {
		var sb strings.Builder
		current := m.locale.Locale()
		for _, l := range i18n.Supported() {
			mark := "  "
			if l == current {
				mark = "* "
			}
			fmt.Fprintf(&sb, "%s%s  %s\n", mark, l, m.table.Strings(l).Name)
		}
		m.addSystem(strings.TrimRight(sb.String(), "\n"))
		return
	}
	l, ok := i18n.ParseLocale(args[0])
	if !ok {
		m.setStatus(fmt.Sprintf("unsupported language %q", args[0]), true)
		return
	}
	m.locale.Set(l)
	m.bus.Publish(events.NewLocaleChangedEvent(string(l), "command"))
	m.updatePlaceholder()
	m.setStatus(m.localeStrings().Name, false)
	m.refresh()
}

func (m Model) commandSuggestions() []string {
	v := m.textarea.Value()
	if !strings.HasPrefix(v, "/") || strings.ContainsAny(v, " \n") {
		return nil
	}
	sug := m.commands.Suggest(v)
	if len(sug) > 5 {
		sug = sug[:5]
	}
	return sug
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderConversation())
}

func (m *Model) renderConversation() string {
	width := m.contentWidth()
	var blocks []string
	for _, e := range m.entries {
		blocks = append(blocks, m.renderEntry(e, width))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderEntry(e *entry, width int) string {
	switch e.kind {
	case entryUser:
		return userLabelStyle.Render("›") + " " + userTextStyle.Width(width-2).Render(e.text)
	case entrySystem:
		return footerStyle.Render(e.text)
	}

	var sb strings.Builder
	sb.WriteString(botLabelStyle.Render("●") + " ")
	if e.loading {
		sb.WriteString(m.spinner.View() + " " + actionStyle.Render(e.action))
		if e.tip != "" {
			sb.WriteString("\n" + tipStyle.Width(width-2).Render(e.tip))
		}
		return sb.String()
	}

	var body []string
	for _, p := range e.parts {
		body = append(body, m.renderPart(p, width))
	}
	content := strings.Join(body, "")
	switch {
	case e.opacity <= 0:
		content = ""
	case e.opacity < 1:
		content = hiddenStyle.Render(content)
	}
	sb.WriteString(content)

	if e.flow != nil && e.opacity > 0 {
		sb.WriteString("\n" + renderFeedback(e.flow))
	}
	return sb.String()
}

func (m *Model) renderPart(p *part, width int) string {
	if p.cacheWidth == width {
		return p.cache
	}
	var out string
	switch p.kind {
	case partText:
		out = lipgloss.NewStyle().Width(width).Render(p.text)
	case partMarkdown:
		out = m.md.Render(p.text)
	case partCards:
		var sb strings.Builder
		for _, lead := range p.cards.Lead {
			sb.WriteString(lipgloss.NewStyle().Width(width).Render(lead) + "\n")
		}
		for i, c := range p.cards.Cards {
			sb.WriteString(renderCard(c, p.shareBase+i, width) + "\n")
		}
		out = strings.TrimRight(sb.String(), "\n")
	}
	p.cache, p.cacheWidth = out, width
	return out
}

func renderFeedback(f *feedback.Flow) string {
	s := f.Strings()
	switch f.State() {
	case feedback.Unrated:
		return feedbackStyle.Render(s.Question + "   /up " + core.RatingPositive + "   /down " + core.RatingNegative)
	case feedback.ReasonSelection:
		var sb strings.Builder
		sb.WriteString(s.Question)
		for i, r := range f.Reasons() {
			fmt.Fprintf(&sb, "\n/reason %d  %s", i+1, r)
		}
		return feedbackStyle.Render(sb.String())
	case feedback.CommentEntry:
		reason, comment := f.Selected()
		line := "✓ " + reason + "\n" + s.InputPlaceholder + "   /send [comment] → " + s.Send
		if comment != "" {
			line += "\n“" + comment + "”"
		}
		return feedbackStyle.Render(line)
	case feedback.Sending:
		return feedbackStyle.Render(s.Sending)
	case feedback.Submitted:
		return feedbackDoneStyle.Render(f.Message())
	case feedback.Failed:
		return feedbackStyle.Render(errorStyle.Render(f.Message()))
	}
	return ""
}

// View renders the screen.
func (m Model) View() string {
	if !m.ready {
		return "\n  " + m.localeStrings().Loading + "..."
	}
	s := m.localeStrings()

	title := "Welfare Chat · " + s.Name
	if m.version != "" {
		title += " · " + m.version
	}

	var chips string
	switch {
	case len(m.commandSuggestions()) > 0:
		var names []string
		for _, n := range m.commandSuggestions() {
			names = append(names, "/"+n)
		}
		chips = suggestStyle.Render(strings.Join(names, "  "))
	case len(m.options) > 0:
		chips = renderChips(m.options, m.width)
	case len(m.entries) == 0 && len(s.Suggestions) > 0:
		chips = renderChips(s.Suggestions, m.width)
	}

	footer := m.footer
	if m.status != "" {
		footer = m.status
	}
	footerLine := footerStyle.Render(footer)
	if m.statusErr {
		footerLine = errorStyle.Render(footer)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render(title),
		m.viewport.View(),
		chips,
		inputBorderStyle.Width(m.width).Render(m.textarea.View()),
		footerLine,
	)
}

func renderChips(items []string, width int) string {
	var out []string
	for i, item := range items {
		out = append(out, suggestStyle.Render(fmt.Sprintf("[%d]", i+1))+" "+item)
	}
	line := strings.Join(out, "   ") + "   " + footerStyle.Render("/pick <n>")
	if width > 0 {
		return lipgloss.NewStyle().Width(width).Render(line)
	}
	return line
}
