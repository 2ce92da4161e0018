package metrics

import (
	"sync"
	"time"
)

// Metrics collects alert-cycle counters for the health endpoint.
type Metrics struct {
	mu sync.RWMutex

	CyclesRun        int64
	CyclesFailed     int64
	CyclesSkipped    int64
	ArticlesFetched  int64
	DuplicatesSeen   int64
	AlertsSent       int64
	AlertsFailed     int64
	LastCycleTime    time.Duration
	LastRunTime      time.Time
	LastErrorTime    time.Time
	LastError        string
	IsHealthy        bool
	OnDemandRequests int64
}

// New returns a healthy, zeroed collector.
func New() *Metrics {
	return &Metrics{IsHealthy: true}
}

// RecordCycle stores the outcome of one alert cycle.
func (m *Metrics) RecordCycle(duration time.Duration, fresh, sent, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CyclesRun++
	m.ArticlesFetched += int64(fresh)
	m.AlertsSent += int64(sent)
	m.AlertsFailed += int64(failed)
	m.LastCycleTime = duration
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

// IncrementSkipped counts cycles that ended before fetching.
func (m *Metrics) IncrementSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CyclesSkipped++
}

// AddDuplicates counts articles dropped as already alerted.
func (m *Metrics) AddDuplicates(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesSeen += int64(n)
}

// IncrementOnDemand counts /latest requests.
func (m *Metrics) IncrementOnDemand() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OnDemandRequests++
}

// SetError marks the last cycle as failed.
func (m *Metrics) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CyclesFailed++
	m.LastError = err.Error()
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

// Healthy reports whether the most recent cycle succeeded.
func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

// GetStats returns a JSON-friendly snapshot.
func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"cycles_run":         m.CyclesRun,
		"cycles_failed":      m.CyclesFailed,
		"cycles_skipped":     m.CyclesSkipped,
		"articles_fetched":   m.ArticlesFetched,
		"duplicates_seen":    m.DuplicatesSeen,
		"alerts_sent":        m.AlertsSent,
		"alerts_failed":      m.AlertsFailed,
		"on_demand_requests": m.OnDemandRequests,
		"last_cycle_ms":      m.LastCycleTime.Milliseconds(),
		"last_run_time":      formatTime(m.LastRunTime),
		"last_error_time":    formatTime(m.LastErrorTime),
		"last_error":         m.LastError,
		"is_healthy":         m.IsHealthy,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
