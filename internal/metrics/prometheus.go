package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "goalfund"

// PrometheusRecorder implements Recorder on a private Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	goalsCreated      prometheus.Counter
	goalsUpdated      prometheus.Counter
	goalsDeleted      prometheus.Counter
	transactions      *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	insights          *prometheus.CounterVec
	adviceFallbacks   *prometheus.CounterVec
	adviceDuration    *prometheus.HistogramVec
	insightJobDropped prometheus.Counter
	dashboardDuration prometheus.Histogram
	rateLimited       prometheus.Counter
	authFailures      *prometheus.CounterVec
}

// NewPrometheus creates a recorder with Go runtime and process collectors
// registered alongside the application metrics.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()

	p := &PrometheusRecorder{
		registry: reg,
		goalsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "goals_created_total", Help: "Goals created.",
		}),
		goalsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "goals_updated_total", Help: "Goals edited.",
		}),
		goalsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "goals_deleted_total", Help: "Goals soft-deleted.",
		}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "transactions_applied_total", Help: "Transactions applied by type.",
		}, []string{"type"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "notifications_emitted_total", Help: "Notifications emitted by type.",
		}, []string{"type"}),
		insights: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "insights_generated_total", Help: "Insights generated by source.",
		}, []string{"source"}),
		adviceFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "advice_fallbacks_total", Help: "Advice requests served by the fallback.",
		}, []string{"operation", "reason"}),
		adviceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "advice_provider_duration_seconds",
			Help:      "Latency of advice provider calls.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 4, 8},
		}, []string{"operation"}),
		insightJobDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "insight_jobs_inline_total", Help: "Insight jobs run inline because the queue was full.",
		}),
		dashboardDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dashboard_build_duration_seconds",
			Help:      "Time to assemble a dashboard.",
			Buckets:   prometheus.DefBuckets,
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rate_limited_requests_total", Help: "Requests rejected by the rate limiter.",
		}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "auth_failures_total", Help: "Authentication failures by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.goalsCreated,
		p.goalsUpdated,
		p.goalsDeleted,
		p.transactions,
		p.notifications,
		p.insights,
		p.adviceFallbacks,
		p.adviceDuration,
		p.insightJobDropped,
		p.dashboardDuration,
		p.rateLimited,
		p.authFailures,
	)

	return p
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusRecorder) IncGoalCreated() { p.goalsCreated.Inc() }
func (p *PrometheusRecorder) IncGoalUpdated() { p.goalsUpdated.Inc() }
func (p *PrometheusRecorder) IncGoalDeleted() { p.goalsDeleted.Inc() }

func (p *PrometheusRecorder) IncTransactionApplied(txType string) {
	p.transactions.WithLabelValues(txType).Inc()
}

func (p *PrometheusRecorder) IncNotificationEmitted(notificationType string) {
	p.notifications.WithLabelValues(notificationType).Inc()
}

func (p *PrometheusRecorder) IncInsightGenerated(source string) {
	p.insights.WithLabelValues(source).Inc()
}

func (p *PrometheusRecorder) IncAdviceFallback(operation, reason string) {
	p.adviceFallbacks.WithLabelValues(operation, reason).Inc()
}

func (p *PrometheusRecorder) ObserveAdviceDuration(operation string, duration time.Duration) {
	p.adviceDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (p *PrometheusRecorder) IncInsightJobDropped() { p.insightJobDropped.Inc() }

func (p *PrometheusRecorder) ObserveDashboardDuration(duration time.Duration) {
	p.dashboardDuration.Observe(duration.Seconds())
}

func (p *PrometheusRecorder) IncRateLimited() { p.rateLimited.Inc() }

func (p *PrometheusRecorder) IncAuthFailure(reason string) {
	p.authFailures.WithLabelValues(reason).Inc()
}
