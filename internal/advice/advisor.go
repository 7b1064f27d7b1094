package advice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goalfund/goalfund/internal/cache"
	"github.com/goalfund/goalfund/internal/metrics"
	"github.com/goalfund/goalfund/internal/model"
)

const (
	// DefaultTimeout bounds a single provider call.
	DefaultTimeout = 8 * time.Second
	// DefaultCacheTTL is how long portfolio advice is reused.
	DefaultCacheTTL = 15 * time.Minute
	// DefaultCacheSize caps the number of cached portfolios.
	DefaultCacheSize = 1024
)

const (
	opInsight   = "insight"
	opPortfolio = "portfolio"
)

// AdvisorOption configures an Advisor.
type AdvisorOption func(*Advisor)

// WithTimeout sets the per-call provider timeout.
func WithTimeout(d time.Duration) AdvisorOption {
	return func(a *Advisor) { a.timeout = d }
}

// WithCache sets the portfolio advice cache size and TTL. A non-positive TTL
// disables caching.
func WithCache(size int, ttl time.Duration) AdvisorOption {
	return func(a *Advisor) {
		if ttl <= 0 {
			a.tips = nil
			return
		}
		a.tips = cache.NewLRU[[]model.FinancialTip](size, ttl)
	}
}

// WithAdvisorMetrics sets the metrics recorder.
func WithAdvisorMetrics(r metrics.Recorder) AdvisorOption {
	return func(a *Advisor) { a.metrics = r }
}

// WithAdvisorLogger sets the logger.
func WithAdvisorLogger(l *slog.Logger) AdvisorOption {
	return func(a *Advisor) { a.logger = l }
}

// Advisor calls a Provider and falls back to deterministic advice on any
// failure. Its methods never return errors.
type Advisor struct {
	provider Provider
	timeout  time.Duration
	tips     *cache.LRU[[]model.FinancialTip]
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewAdvisor wraps p, which may be nil to always use the fallback.
func NewAdvisor(p Provider, opts ...AdvisorOption) *Advisor {
	a := &Advisor{
		provider: p,
		timeout:  DefaultTimeout,
		tips:     cache.NewLRU[[]model.FinancialTip](DefaultCacheSize, DefaultCacheTTL),
		metrics:  metrics.NewNoop(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "advice")
	return a
}

// InsightForGoal returns advice for one goal. Blank provider fields are filled
// from the fallback; an unknown category becomes general.
func (a *Advisor) InsightForGoal(ctx context.Context, goal GoalSnapshot) Suggestion {
	fallback := FallbackInsight(goal)
	if a.provider == nil {
		a.fallback(opInsight, "no_provider", nil)
		return fallback
	}

	got, err := call(ctx, a, opInsight, func(ctx context.Context) (Suggestion, error) {
		return a.provider.GoalInsight(ctx, goal)
	})
	if err != nil {
		a.fallback(opInsight, reason(err), err, "goal_id", goal.GoalID)
		return fallback
	}

	got.Title = strings.TrimSpace(got.Title)
	got.Content = strings.TrimSpace(got.Content)
	got.Category = strings.ToLower(strings.TrimSpace(got.Category))
	if got.Title == "" && got.Content == "" {
		a.fallback(opInsight, "empty", nil, "goal_id", goal.GoalID)
		return fallback
	}

	if got.Title == "" {
		got.Title = fallback.Title
	}
	if got.Content == "" {
		got.Content = fallback.Content
	}
	if got.Category == "" {
		got.Category = fallback.Category
	} else if !model.IsValidAdviceCategory(got.Category) {
		got.Category = model.CategoryGeneral
	}
	got.Source = model.InsightSourceProvider
	return got
}

// AdviceForPortfolio returns exactly TipCount tips. Provider output is
// truncated or padded with the static tips; results are cached per user and
// portfolio state.
func (a *Advisor) AdviceForPortfolio(ctx context.Context, portfolio PortfolioSnapshot) []model.FinancialTip {
	if a.provider == nil {
		a.fallback(opPortfolio, "no_provider", nil)
		return FallbackTips()
	}

	key := fmt.Sprintf("%d:%s", portfolio.UserID, cache.HashKey(portfolio.fingerprint()))
	if a.tips != nil {
		if cached, ok := a.tips.Get(key); ok {
			return cloneTips(cached)
		}
	}

	got, err := call(ctx, a, opPortfolio, func(ctx context.Context) ([]model.FinancialTip, error) {
		return a.provider.PortfolioAdvice(ctx, portfolio)
	})
	if err != nil {
		a.fallback(opPortfolio, reason(err), err, "user_id", portfolio.UserID)
		return FallbackTips()
	}
	if len(got) == 0 {
		a.fallback(opPortfolio, "empty", nil, "user_id", portfolio.UserID)
		return FallbackTips()
	}

	tips := normalizeTips(got)
	if a.tips != nil {
		a.tips.Set(key, cloneTips(tips))
	}
	return tips
}

// normalizeTips truncates or pads to TipCount and repairs blank or unknown
// fields.
func normalizeTips(in []model.FinancialTip) []model.FinancialTip {
	tips := make([]model.FinancialTip, 0, TipCount)
	for _, t := range in {
		if len(tips) == TipCount {
			break
		}
		t.Title = strings.TrimSpace(t.Title)
		t.Content = strings.TrimSpace(t.Content)
		t.Category = strings.ToLower(strings.TrimSpace(t.Category))
		t.Icon = strings.ToLower(strings.TrimSpace(t.Icon))

		if t.Title == "" {
			t.Title = defaultTipTitle
		}
		if t.Content == "" {
			t.Content = defaultTipContent
		}
		if !model.IsValidAdviceCategory(t.Category) {
			t.Category = model.CategoryGeneral
		}
		if !model.IsValidIcon(t.Icon) {
			t.Icon = model.IconSavings
		}
		tips = append(tips, t)
	}

	for i := len(tips); i < TipCount; i++ {
		tips = append(tips, staticTips[i])
	}
	return tips
}

func cloneTips(tips []model.FinancialTip) []model.FinancialTip {
	out := make([]model.FinancialTip, len(tips))
	copy(out, tips)
	return out
}

// errProviderPanic marks a provider call that panicked.
var errProviderPanic = errors.New("provider panic")

type result[T any] struct {
	value T
	err   error
}

// call runs fn under the advisor timeout. It returns as soon as the deadline
// passes even if fn does not.
func call[T any](ctx context.Context, a *Advisor, op string, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	defer func() { a.metrics.ObserveAdviceDuration(op, time.Since(start)) }()

	done := make(chan result[T], 1)
	go func() {
		// Recoverer middleware cannot see this goroutine.
		defer func() {
			if p := recover(); p != nil {
				done <- result[T]{err: fmt.Errorf("%w: %v", errProviderPanic, p)}
			}
		}()
		v, err := fn(ctx)
		done <- result[T]{value: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return r.value, fmt.Errorf("%w: %w", model.ErrProviderUnavailable, r.err)
		}
		return r.value, nil
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %w", model.ErrProviderUnavailable, ctx.Err())
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, errProviderPanic):
		return "panic"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

func (a *Advisor) fallback(op, why string, err error, attrs ...any) {
	a.metrics.IncAdviceFallback(op, why)
	if why == "no_provider" {
		return
	}
	attrs = append(attrs, "operation", op, "reason", why)
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	a.logger.Warn("advice_fallback", attrs...)
}
