package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncGoalCreated() {}
func (n *NoopRecorder) IncGoalUpdated() {}
func (n *NoopRecorder) IncGoalDeleted() {}
func (n *NoopRecorder) IncTransactionApplied(string) {}
func (n *NoopRecorder) IncNotificationEmitted(string) {}
func (n *NoopRecorder) IncInsightGenerated(string) {}
func (n *NoopRecorder) IncAdviceFallback(string, string) {}
func (n *NoopRecorder) ObserveAdviceDuration(string, time.Duration) {}
func (n *NoopRecorder) IncInsightJobDropped() {}
func (n *NoopRecorder) ObserveDashboardDuration(time.Duration) {}
func (n *NoopRecorder) IncRateLimited() {}
func (n *NoopRecorder) IncAuthFailure(string) {}
