package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/assert/v2"

	"NewsAlerter/internal/metrics"
)

type fakeScheduler struct{ mode, state string }

func (f fakeScheduler) Mode() string  { return f.mode }
func (f fakeScheduler) State() string { return f.state }

type fakeRecipients []int64

func (f fakeRecipients) Recipients() []int64 { return f }

type fakeSeen int

func (f fakeSeen) Len() int { return int(f) }

func TestHealthReportsSchedulerAndCounts(t *testing.T) {
	m := metrics.New()
	s := NewServer("", Deps{
		Metrics:     m,
		Scheduler:   fakeScheduler{mode: "managed", state: "waiting"},
		Subscribers: fakeRecipients{1, 2},
		Seen:        fakeSeen(12),
	})

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, w.Code, http.StatusOK)
	var res HealthResponse
	assert.Equal(t, json.Unmarshal(w.Body.Bytes(), &res), nil)
	assert.Equal(t, res.Status, "ok")
	assert.Equal(t, res.SchedulerMode, "managed")
	assert.Equal(t, res.SchedulerState, "waiting")
	assert.Equal(t, res.Subscribers, 2)
	assert.Equal(t, res.SeenArticles, 12)
}

func TestHealthDegradedAfterFailedCycle(t *testing.T) {
	m := metrics.New()
	m.SetError(errors.New("upstream 503"))
	s := NewServer("", Deps{Metrics: m})

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, w.Code, http.StatusServiceUnavailable)
	var res HealthResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, res.Status, "degraded")
	assert.Equal(t, res.SchedulerMode, "none")
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.AddDuplicates(3)
	s := NewServer("", Deps{Metrics: m})

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, w.Code, http.StatusOK)
	var stats map[string]any
	assert.Equal(t, json.Unmarshal(w.Body.Bytes(), &stats), nil)
	assert.Equal(t, stats["duplicates_seen"], float64(3))
	assert.Equal(t, stats["last_error"], "")
}

func TestStartWithoutAddrIsNoop(t *testing.T) {
	s := NewServer("", Deps{})
	s.Start()
	assert.Equal(t, s.Shutdown(context.Background()), nil)
}
