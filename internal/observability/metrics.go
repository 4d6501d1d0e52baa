package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics keeps in-memory request counters for the dev server. Production
// traffic is observed on the server side, so nothing is exported.
type Metrics struct {
	mu        sync.Mutex
	requests  map[string]int64
	totalTime time.Duration
	total     int64
}

// NewMetrics initializes counter storage.
func NewMetrics() *Metrics {
	return &Metrics{requests: make(map[string]int64)}
}

// RecordRequest counts one handled request.
func (m *Metrics) RecordRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := method + " " + path + " " + strconv.Itoa(status)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[key]++
	m.total++
	m.totalTime += duration
}

// Snapshot returns a copy of the counters keyed by "METHOD path status".
func (m *Metrics) Snapshot() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]int64, len(m.requests))
	for key, count := range m.requests {
		out[key] = count
	}
	return out
}

// Totals returns the overall request count and mean handling time.
func (m *Metrics) Totals() (int64, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.total == 0 {
		return 0, 0
	}
	return m.total, m.totalTime / time.Duration(m.total)
}
