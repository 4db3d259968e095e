// Package conversation keeps the client-side conversation state: a bounded
// window of recent turns, the question awaiting clarification and the page of
// results the backend most recently returned.
package conversation

import (
	"sync"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/core"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the rolling history, serialized as-is into requests.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ResultPage tracks which backend results have been shown, for continuation
// requests such as "더 보여줘".
type ResultPage struct {
	IDs        []string
	ShownCount int
	TotalFound int
}

// Empty reports whether there is nothing to continue from.
func (p ResultPage) Empty() bool {
	return len(p.IDs) == 0
}

// Session is the conversation state of one chat window. The orchestrator is
// its only writer; readers such as the feedback flow may run concurrently.
type Session struct {
	mu         sync.RWMutex
	turns      []Turn
	limit      int
	pending    string
	hasPending bool
	page       ResultPage
}

// NewSession creates a session keeping at most maxTurns*2 history entries.
func NewSession(maxTurns int) *Session {
	if maxTurns <= 0 {
		maxTurns = core.MaxHistoryTurns
	}
	return &Session{
		limit: maxTurns * 2,
		turns: make([]Turn, 0, maxTurns*2+1),
	}
}

// AppendTurn records a turn, evicting the oldest entries first.
func (s *Session) AppendTurn(role Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, Turn{Role: role, Content: content})
	if over := len(s.turns) - s.limit; over > 0 {
		s.turns = append(s.turns[:0], s.turns[over:]...)
	}
}

// History returns a copy of the retained turns, oldest first. It never
// returns nil so requests serialize an empty list as [].
func (s *Session) History() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Recent returns up to the n most recent turns.
func (s *Session) Recent(n int) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 {
		return []Turn{}
	}
	start := len(s.turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(s.turns)-start)
	copy(out, s.turns[start:])
	return out
}

// Len returns the number of retained turns.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// SetPending stores the question that is waiting for a clarification answer.
func (s *Session) SetPending(question string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = question
	s.hasPending = true
}

// Pending returns the pending question without clearing it.
func (s *Session) Pending() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending, s.hasPending
}

// TakePending returns and clears the pending question.
func (s *Session) TakePending() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.pending, s.hasPending
	s.pending, s.hasPending = "", false
	return q, ok
}

// Page returns a copy of the current result page.
func (s *Session) Page() ResultPage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.page
	p.IDs = append([]string(nil), s.page.IDs...)
	return p
}

// SetPage replaces the result page.
func (s *Session) SetPage(p ResultPage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.IDs = append([]string(nil), p.IDs...)
	s.page = p
}

// UpdatePage replaces the result page from backend fields. A missing or zero
// shown count defaults to min(2, len(ids)); a missing total keeps zero.
func (s *Session) UpdatePage(ids []string, total, shown *int) ResultPage {
	p := ResultPage{IDs: append([]string(nil), ids...)}
	if total != nil {
		p.TotalFound = *total
	}
	if shown != nil && *shown > 0 {
		p.ShownCount = *shown
	} else {
		p.ShownCount = min(core.DefaultShownCount, len(ids))
	}
	s.SetPage(p)
	return p
}

// Reset clears history, pending context and the result page.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = s.turns[:0]
	s.pending, s.hasPending = "", false
	s.page = ResultPage{}
}
