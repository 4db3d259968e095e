package orchestrator_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/conversation"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/core"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/events"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/feedback"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/i18n"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/mockbackend"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/orchestrator"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/protocol"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/render"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/tui"
)

func TestEndToEnd_ClarifyJobContinuationFeedback(t *testing.T) {
	store, err := mockbackend.OpenFeedbackStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	srv := mockbackend.NewServer(
		mockbackend.Config{DeferJobs: true, JobDelay: 20 * time.Millisecond},
		mockbackend.WithFeedbackStore(store),
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client, err := protocol.NewClient(ts.URL)
	require.NoError(t, err)
	table, err := i18n.DefaultTable()
	require.NoError(t, err)
	bus := events.New(256)
	t.Cleanup(bus.Close)

	locale := i18n.NewSelector(i18n.KO)
	var out bytes.Buffer
	view := tui.NewPlainView(&out, locale, table, 100)
	orch := orchestrator.New(orchestrator.Deps{
		Backend:  client,
		View:     view,
		Lock:     view,
		Locale:   locale,
		Table:    table,
		Renderer: render.New(render.WithCharDelay(0), render.WithBlockDelay(0), render.WithFadeDelay(0)),
		Session:  conversation.NewSession(core.MaxHistoryTurns),
		Bus:      bus,
	}, orchestrator.Config{
		PollInterval:    5 * time.Millisecond,
		MaxPollAttempts: 120,
		StatusInterval:  time.Hour,
		SafetyTimeout:   time.Minute,
	})
	ctx := context.Background()

	// Too short to search: the backend asks for a region.
	require.NoError(t, orch.Submit(ctx, "기저귀"))
	assert.Equal(t, mockbackend.DefaultCatalog().Regions(), view.Options())
	assert.False(t, view.Locked())

	// The choice is merged with the pending question and answered by a job.
	require.NoError(t, orch.SelectOption(ctx, "부산"))
	assert.Empty(t, view.Options())
	page := orch.Session().Page()
	assert.Equal(t, []string{"p-diaper", "p-formula", "p-busan-diaper"}, page.IDs)
	assert.Equal(t, 2, page.ShownCount)
	assert.Equal(t, 3, page.TotalFound)
	assert.Contains(t, out.String(), "저소득층 기저귀 지원")
	share, ok := view.Share(2)
	require.True(t, ok)
	assert.Contains(t, share, "조제분유 지원")

	flow := view.Flow()
	require.NotNil(t, flow)
	assert.NotEmpty(t, flow.JobID())

	// A continuation pages through the same ids.
	require.NoError(t, orch.Submit(ctx, "더 보여줘"))
	assert.Equal(t, 3, orch.Session().Page().ShownCount)
	assert.Contains(t, out.String(), "부산 다자녀 기저귀 추가 지원")

	require.NoError(t, flow.Positive(ctx))
	assert.Equal(t, feedback.Submitted, flow.State())
	counts, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[core.RatingPositive])
	assert.False(t, view.Locked())
}
