package mockbackend

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/testutil"
)

func postChat(t *testing.T, srv *Server, body string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return rec.Body.String()
}

func TestGolden_Wire(t *testing.T) {
	golden := testutil.NewGolden(t, "testdata")

	t.Run("card", func(t *testing.T) {
		golden.AssertString("card_diaper", RenderCards(DefaultCatalog().Get([]string{"p-diaper"})))
	})

	t.Run("clarify", func(t *testing.T) {
		srv := NewServer(inline())
		golden.AssertString("chat_clarify", postChat(t, srv, `{"question":"기저귀","last_result_ids":[]}`))
	})

	t.Run("deferred", func(t *testing.T) {
		srv := NewServer(Config{DeferJobs: true, JobDelay: time.Minute})
		body := postChat(t, srv, `{"question":"부산 기저귀 지원","last_result_ids":[]}`)
		golden.AssertString("chat_deferred", testutil.ScrubUUIDs(body))
	})
}
