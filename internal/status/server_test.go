package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-easyapply-automation/internal/campaign"
	"go-easyapply-automation/internal/models"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_Healthz(t *testing.T) {
	s := New(models.SiteIndeed, nil, zap.NewNop())
	rec := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestServer_Status(t *testing.T) {
	s := New(models.SiteIndeed, nil, zap.NewNop())
	ctx := context.Background()

	s.Posting(ctx, campaign.Event{RunID: "r1", Site: models.SiteIndeed, Outcome: campaign.OutcomeApplied})
	s.Posting(ctx, campaign.Event{RunID: "r1", Site: models.SiteIndeed, Outcome: campaign.OutcomeFailed, Err: errors.New("apply window: timeout")})

	rec := get(t, s.Handler(), "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.True(t, snap.Running)
	assert.Equal(t, "r1", snap.RunID)
	assert.Equal(t, 1, snap.Tally.Applied)
	assert.Equal(t, 1, snap.Tally.Failed)
	assert.Equal(t, "apply window: timeout", snap.LastError)
	assert.Nil(t, snap.Finished)

	s.Done(ctx, "r1", campaign.Tally{Pages: 2, Applied: 1, Failed: 1, Opportunities: 2}, nil)
	snap = s.Snapshot()
	assert.False(t, snap.Running)
	assert.NotNil(t, snap.Finished)
	assert.Equal(t, 2, snap.Tally.Pages)
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(models.SiteMonster, reg, zap.NewNop())
	ctx := context.Background()

	s.Posting(ctx, campaign.Event{Site: models.SiteMonster, Outcome: campaign.OutcomeApplied})
	s.Posting(ctx, campaign.Event{Site: models.SiteMonster, Outcome: campaign.OutcomeApplied})
	s.Posting(ctx, campaign.Event{Site: models.SiteMonster, Outcome: campaign.OutcomeSaved})
	s.Page(ctx, "r", campaign.Tally{Pages: 1})
	s.Done(ctx, "r", campaign.Tally{Pages: 1}, context.Canceled)

	m := s.metrics
	assert.Equal(t, 2.0, testutil.ToFloat64(m.postings.WithLabelValues("monster", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.postings.WithLabelValues("monster", "saved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pages.WithLabelValues("monster")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("monster", "stopped")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.running))

	rec := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `easyapply_postings_total{outcome="applied",site="monster"} 2`))
}
