// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations may expose these to Prometheus or keep them for tests.
type Recorder interface {
	// Ledger metrics
	IncGoalCreated()
	IncGoalUpdated()
	IncGoalDeleted()
	IncTransactionApplied(txType string) // txType: "deposit" or "withdrawal"
	IncNotificationEmitted(notificationType string)

	// Advice metrics
	IncInsightGenerated(source string) // source: "provider" or "fallback"
	IncAdviceFallback(operation, reason string)
	ObserveAdviceDuration(operation string, duration time.Duration)
	IncInsightJobDropped()

	// HTTP surface metrics
	ObserveDashboardDuration(duration time.Duration)
	IncRateLimited()
	IncAuthFailure(reason string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
