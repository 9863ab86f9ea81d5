package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/clubhouse/clubhouse/internal/jobs"
)

type stubPruner struct {
	cutoff  time.Time
	removed int64
	err     error
	calls   int
}

func (s *stubPruner) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	s.calls++
	s.cutoff = before
	return s.removed, s.err
}

func newTestJob(store SessionPruner, registry *prometheus.Registry, now time.Time) *SessionsPruneJob {
	job := NewSessionsPruneJob(store, slog.New(slog.NewTextHandler(io.Discard, nil)), jobmetrics.NewMetrics(registry))
	job.clock = func() time.Time { return now }
	return job
}

func TestSessionsPruneAppliesGrace(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &stubPruner{removed: 4}
	registry := prometheus.NewRegistry()
	job := newTestJob(store, registry, now)

	task, err := NewSessionsPruneTask(30)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, 1, store.calls)
	assert.Equal(t, now.Add(-30*time.Minute), store.cutoff)
	count, err := testutil.GatherAndCount(registry, "clubhouse_sessions_pruned_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSessionsPruneEmptyPayloadUsesNow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &stubPruner{}
	job := newTestJob(store, prometheus.NewRegistry(), now)

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskSessionsPrune, nil)))
	assert.Equal(t, now, store.cutoff)
}

func TestSessionsPruneRejectsMalformedPayload(t *testing.T) {
	store := &stubPruner{}
	job := newTestJob(store, prometheus.NewRegistry(), time.Now())

	err := job.Handle(context.Background(), asynq.NewTask(TaskSessionsPrune, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Zero(t, store.calls)
}

func TestSessionsPruneReportsStoreFailure(t *testing.T) {
	store := &stubPruner{err: errors.New("db down")}
	registry := prometheus.NewRegistry()
	job := newTestJob(store, registry, time.Now())

	err := job.Handle(context.Background(), asynq.NewTask(TaskSessionsPrune, nil))
	assert.EqualError(t, err, "db down")
	count, err := testutil.GatherAndCount(registry, "clubhouse_jobs_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNilJobIsRejected(t *testing.T) {
	var job *SessionsPruneJob
	assert.Error(t, job.Handle(context.Background(), asynq.NewTask(TaskSessionsPrune, nil)))
}

func TestHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(nil, slog.Default()).MountRoutes)

	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))

	assert.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"active":0,"failed":0}`, res.Body.String())
}
