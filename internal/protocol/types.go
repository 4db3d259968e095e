// Package protocol is the HTTP client for the welfare assistant backend:
// POST /chat, GET /get_result/{job_id} and POST /feedback.
package protocol

import "github.com/hugo-lorenzo-mato/welfare-chat/internal/conversation"

// Backend status values.
const (
	StatusClarify  = "clarify"
	StatusComplete = "complete"
	StatusError    = "error"
	StatusPending  = "pending"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Question      string              `json:"question"`
	LastResultIDs []string            `json:"last_result_ids"`
	ShownCount    int                 `json:"shown_count"`
	ChatHistory   []conversation.Turn `json:"chat_history"`
}

// ChatResponse is the reply of POST /chat. Which fields are set depends on
// the reply kind.
type ChatResponse struct {
	Status        string   `json:"status,omitempty"`
	Answer        string   `json:"answer,omitempty"`
	Options       []string `json:"options,omitempty"`
	LastResultIDs []string `json:"last_result_ids,omitempty"`
	TotalFound    *int     `json:"total_found,omitempty"`
	ShownCount    *int     `json:"shown_count,omitempty"`
	JobID         string   `json:"job_id,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// Kind is the dispatch category of a chat reply.
type Kind int

const (
	KindUnknown Kind = iota
	KindClarify
	KindFinal
	KindAsync
)

func (k Kind) String() string {
	switch k {
	case KindClarify:
		return "clarify"
	case KindFinal:
		return "final"
	case KindAsync:
		return "async"
	default:
		return "unknown"
	}
}

// Kind classifies the reply. A job id without a recognized status means the
// answer is being generated in the background.
func (r *ChatResponse) Kind() Kind {
	switch r.Status {
	case StatusClarify:
		return KindClarify
	case StatusComplete, StatusError:
		return KindFinal
	}
	if r.JobID != "" {
		return KindAsync
	}
	return KindUnknown
}

// JobResult is the reply of GET /get_result/{job_id}.
type JobResult struct {
	Status        string   `json:"status"`
	Answer        string   `json:"answer,omitempty"`
	LastResultIDs []string `json:"last_result_ids,omitempty"`
	TotalFound    *int     `json:"total_found,omitempty"`
	ShownCount    *int     `json:"shown_count,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// Terminal reports whether polling can stop.
func (r *JobResult) Terminal() bool {
	return r.Status == StatusComplete || r.Status == StatusError
}

// FeedbackRequest is the body of POST /feedback.
type FeedbackRequest struct {
	JobID       string `json:"job_id"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	Feedback    string `json:"feedback"`
	Comment     string `json:"comment"`
	Reason      string `json:"reason"`
	ChatHistory string `json:"chat_history"`
}
