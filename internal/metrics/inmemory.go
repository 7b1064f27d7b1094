package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	GoalsCreated         uint64
	GoalsUpdated         uint64
	GoalsDeleted         uint64
	TransactionsApplied  map[string]uint64
	NotificationsEmitted map[string]uint64
	InsightsGenerated    map[string]uint64
	AdviceFallbacks      map[string]uint64
	AdviceDurationCount  uint64
	InsightJobsDropped   uint64
	DashboardBuilds      uint64
	RateLimited          uint64
	AuthFailures         map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	goalsCreated        uint64
	goalsUpdated        uint64
	goalsDeleted        uint64
	adviceDurationCount uint64
	insightJobsDropped  uint64
	dashboardBuilds     uint64
	rateLimited         uint64

	mu       sync.Mutex
	labelled map[string]map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{labelled: make(map[string]map[string]uint64)}
}

func (m *InMemoryRecorder) inc(family, label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.labelled[family] == nil {
		m.labelled[family] = make(map[string]uint64)
	}
	m.labelled[family][label]++
}

func (m *InMemoryRecorder) copyFamily(family string) map[string]uint64 {
	out := make(map[string]uint64, len(m.labelled[family]))
	for k, v := range m.labelled[family] {
		out[k] = v
	}
	return out
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		GoalsCreated:         atomic.LoadUint64(&m.goalsCreated),
		GoalsUpdated:         atomic.LoadUint64(&m.goalsUpdated),
		GoalsDeleted:         atomic.LoadUint64(&m.goalsDeleted),
		TransactionsApplied:  m.copyFamily("transactions"),
		NotificationsEmitted: m.copyFamily("notifications"),
		InsightsGenerated:    m.copyFamily("insights"),
		AdviceFallbacks:      m.copyFamily("fallbacks"),
		AdviceDurationCount:  atomic.LoadUint64(&m.adviceDurationCount),
		InsightJobsDropped:   atomic.LoadUint64(&m.insightJobsDropped),
		DashboardBuilds:      atomic.LoadUint64(&m.dashboardBuilds),
		RateLimited:          atomic.LoadUint64(&m.rateLimited),
		AuthFailures:         m.copyFamily("auth_failures"),
	}
}

// IncGoalCreated increments the goal created counter.
func (m *InMemoryRecorder) IncGoalCreated() {
	atomic.AddUint64(&m.goalsCreated, 1)
}

// IncGoalUpdated increments the goal updated counter.
func (m *InMemoryRecorder) IncGoalUpdated() {
	atomic.AddUint64(&m.goalsUpdated, 1)
}

// IncGoalDeleted increments the goal deleted counter.
func (m *InMemoryRecorder) IncGoalDeleted() {
	atomic.AddUint64(&m.goalsDeleted, 1)
}

// IncTransactionApplied counts applied transactions by type.
func (m *InMemoryRecorder) IncTransactionApplied(txType string) {
	m.inc("transactions", txType)
}

// IncNotificationEmitted counts notifications by type.
func (m *InMemoryRecorder) IncNotificationEmitted(notificationType string) {
	m.inc("notifications", notificationType)
}

// IncInsightGenerated counts insights by source.
func (m *InMemoryRecorder) IncInsightGenerated(source string) {
	m.inc("insights", source)
}

// IncAdviceFallback counts fallbacks keyed "operation/reason".
func (m *InMemoryRecorder) IncAdviceFallback(operation, reason string) {
	m.inc("fallbacks", operation+"/"+reason)
}

// ObserveAdviceDuration counts provider calls.
func (m *InMemoryRecorder) ObserveAdviceDuration(string, time.Duration) {
	atomic.AddUint64(&m.adviceDurationCount, 1)
}

// IncInsightJobDropped counts jobs that ran inline because the queue was full.
func (m *InMemoryRecorder) IncInsightJobDropped() {
	atomic.AddUint64(&m.insightJobsDropped, 1)
}

// ObserveDashboardDuration counts dashboard builds.
func (m *InMemoryRecorder) ObserveDashboardDuration(time.Duration) {
	atomic.AddUint64(&m.dashboardBuilds, 1)
}

// IncRateLimited counts rejected requests.
func (m *InMemoryRecorder) IncRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}

// IncAuthFailure counts authentication failures by reason.
func (m *InMemoryRecorder) IncAuthFailure(reason string) {
	m.inc("auth_failures", reason)
}
