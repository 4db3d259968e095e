package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/conversation"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/core"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/", WithTimeout(2*time.Second), WithUserAgent("test-agent"))
	require.NoError(t, err)
	return c
}

func TestChatResponse_Kind(t *testing.T) {
	t.Parallel()
	tests := []struct {
		resp ChatResponse
		want Kind
	}{
		{ChatResponse{Status: StatusClarify, Answer: "?", Options: []string{"a"}}, KindClarify},
		{ChatResponse{Status: StatusComplete, Answer: "ok"}, KindFinal},
		{ChatResponse{Status: StatusError, Answer: "bad"}, KindFinal},
		{ChatResponse{Status: StatusComplete, Answer: "ok", JobID: "j"}, KindFinal},
		{ChatResponse{JobID: "j1", Message: "accepted"}, KindAsync},
		{ChatResponse{Status: StatusPending, JobID: "j1"}, KindAsync},
		{ChatResponse{}, KindUnknown},
		{ChatResponse{Status: "weird"}, KindUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.resp.Kind(), "%+v", tt.resp)
	}
}

func TestClient_ChatSendsWireFormat(t *testing.T) {
	t.Parallel()
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"status":"complete","answer":"done","last_result_ids":["a","b"],"total_found":5,"job_id":"j9"}`))
	})

	resp, err := c.Chat(context.Background(), ChatRequest{
		Question:    "부모급여",
		ChatHistory: []conversation.Turn{{Role: conversation.RoleUser, Content: "부모급여"}},
	})
	require.NoError(t, err)
	assert.Equal(t, KindFinal, resp.Kind())
	assert.Equal(t, []string{"a", "b"}, resp.LastResultIDs)
	require.NotNil(t, resp.TotalFound)
	assert.Equal(t, 5, *resp.TotalFound)
	assert.Nil(t, resp.ShownCount)

	assert.Equal(t, "부모급여", got["question"])
	assert.Equal(t, []any{}, got["last_result_ids"], "ids must serialize as an empty list")
	assert.EqualValues(t, 0, got["shown_count"])
	hist := got["chat_history"].([]any)
	assert.Equal(t, map[string]any{"role": "user", "content": "부모급여"}, hist[0])
}

func TestClient_ChatRejectsMalformedReplies(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
		code string
	}{
		{"not json", `<html>`, core.CodeBadPayload},
		{"clarify without options", `{"status":"clarify","answer":"어디?"}`, core.CodeSchemaMismatch},
		{"complete without answer", `{"status":"complete"}`, core.CodeSchemaMismatch},
		{"ids of wrong type", `{"status":"complete","answer":"a","last_result_ids":"x"}`, core.CodeSchemaMismatch},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.Chat(context.Background(), ChatRequest{Question: "q"})
			require.Error(t, err)
			assert.True(t, core.IsCategory(err, core.ErrCatProtocol), "got %v", err)
			assert.True(t, errors.Is(err, &core.DomainError{Category: core.ErrCatProtocol, Code: tt.code}), "got %v", err)
		})
	}
}

func TestClient_NonSuccessStatusIsTransportError(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"detail":"too many"}`, http.StatusTooManyRequests)
	})
	_, err := c.Chat(context.Background(), ChatRequest{Question: "q"})
	require.Error(t, err)
	var de *core.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, core.ErrCatTransport, de.Category)
	assert.Equal(t, core.CodeBadStatus, de.Code)
	assert.Equal(t, http.StatusTooManyRequests, de.Details["status"])
}

func TestClient_TransportFailure(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url)
	require.NoError(t, err)
	_, err = c.Result(context.Background(), "j1")
	assert.True(t, core.IsCategory(err, core.ErrCatTransport))
}

func TestClient_Result(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get_result/j%201", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"status":"pending"}`))
	})
	res, err := c.Result(context.Background(), "j 1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.Status)
	assert.False(t, res.Terminal())
}

func TestClient_FeedbackIgnoresBody(t *testing.T) {
	t.Parallel()
	var got FeedbackRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/feedback", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`not json at all`))
	})
	err := c.Feedback(context.Background(), FeedbackRequest{JobID: "j1", Feedback: core.RatingPositive})
	require.NoError(t, err)
	assert.Equal(t, "j1", got.JobID)
	assert.Equal(t, "👍", got.Feedback)
}

func TestNewClient_InvalidURL(t *testing.T) {
	t.Parallel()
	for _, u := range []string{"", "localhost:8000", "://bad"} {
		_, err := NewClient(u)
		assert.True(t, core.IsCategory(err, core.ErrCatConfig), "url %q: %v", u, err)
	}
}
