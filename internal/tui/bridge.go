package tui

import (
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/feedback"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/orchestrator"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/render"
)

// sender is satisfied by *tea.Program.
type sender interface {
	Send(msg tea.Msg)
}

// Bridge carries orchestrator calls into the bubbletea loop. It implements
// orchestrator.View and orchestrator.InputLock; every call becomes one
// message, so calls from a single goroutine keep their order.
type Bridge struct {
	mu   sync.RWMutex
	out  sender
	next atomic.Int64
}

var (
	_ orchestrator.View      = (*Bridge)(nil)
	_ orchestrator.InputLock = (*Bridge)(nil)
)

// NewBridge returns a bridge that drops messages until Attach is called.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach connects the bridge to a running program.
func (b *Bridge) Attach(s sender) {
	b.mu.Lock()
	b.out = s
	b.mu.Unlock()
}

func (b *Bridge) send(msg tea.Msg) {
	b.mu.RLock()
	out := b.out
	b.mu.RUnlock()
	if out != nil {
		out.Send(msg)
	}
}

func (b *Bridge) AddUserMessage(text string) {
	b.send(userMessageMsg{text: text})
}

func (b *Bridge) NewPlaceholder() orchestrator.Placeholder {
	id := int(b.next.Add(1))
	b.send(placeholderMsg{id: id})
	return &placeholder{id: id, bridge: b}
}

func (b *Bridge) AttachFeedback(p orchestrator.Placeholder, f *feedback.Flow) {
	ph, ok := p.(*placeholder)
	if !ok || f == nil {
		return
	}
	b.send(feedbackAttachedMsg{id: ph.id, flow: f})
}

func (b *Bridge) ShowOptions(options []string) {
	b.send(optionsMsg{options: append([]string(nil), options...)})
}

func (b *Bridge) ClearOptions() {
	b.send(optionsMsg{})
}

func (b *Bridge) Lock() {
	b.send(lockMsg{})
}

func (b *Bridge) Unlock(reason orchestrator.UnlockReason) {
	b.send(unlockMsg{reason: reason})
}

// placeholder is the render target of one assistant turn.
type placeholder struct {
	id     int
	bridge *Bridge
}

func (p *placeholder) ShowLoading(action, tip string) {
	p.bridge.send(loadingMsg{id: p.id, action: action, tip: tip})
}

func (p *placeholder) SetAction(action string) {
	p.bridge.send(actionMsg{id: p.id, action: action})
}

func (p *placeholder) SetTip(tip string) {
	p.bridge.send(tipMsg{id: p.id, tip: tip})
}

func (p *placeholder) Clear() {
	p.bridge.send(clearMsg{id: p.id})
}

func (p *placeholder) AppendText(s string) {
	p.bridge.send(appendTextMsg{id: p.id, text: s})
}

func (p *placeholder) AppendBlock(blk render.Block) {
	p.bridge.send(appendBlockMsg{id: p.id, block: blk})
}

func (p *placeholder) SetOpacity(o float64) {
	p.bridge.send(opacityMsg{id: p.id, opacity: o})
}

func (p *placeholder) ScrollToBottom() {
	p.bridge.send(scrollMsg{})
}
