package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goalfund/goalfund/internal/advice"
	"github.com/goalfund/goalfund/internal/metrics"
	"github.com/goalfund/goalfund/internal/model"
	"github.com/goalfund/goalfund/internal/store"
)

// RecentTransactions is how many transactions the dashboard shows.
const RecentTransactions = 5

// Service assembles the dashboard payload.
type Service struct {
	store      store.Store
	aggregator *Aggregator
	advisor    *advice.Advisor
	currency   string
	metrics    metrics.Recorder
	logger     *slog.Logger
}

// NewService creates a dashboard Service.
func NewService(s store.Store, aggregator *Aggregator, advisor *advice.Advisor, currency string, logger *slog.Logger, recorder metrics.Recorder) *Service {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Service{
		store:      s,
		aggregator: aggregator,
		advisor:    advisor,
		currency:   currency,
		metrics:    recorder,
		logger:     logger.With("component", "dashboard"),
	}
}

// Build loads the user's dashboard. Reads run concurrently; portfolio advice
// is requested once they are done and never fails the build.
func (s *Service) Build(ctx context.Context, userID int64) (*model.Dashboard, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveDashboardDuration(time.Since(start)) }()

	var d model.Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m, err := s.aggregator.ComputeDashboardMetrics(gctx, userID)
		if err != nil {
			return fmt.Errorf("compute metrics: %w", err)
		}
		d.Metrics = m
		return nil
	})
	g.Go(func() error {
		goals, err := s.store.ListGoalsByUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("list goals: %w", err)
		}
		d.Goals = goals
		return nil
	})
	g.Go(func() error {
		txns, err := s.store.ListTransactionsByUser(gctx, userID, RecentTransactions)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		d.Transactions = txns
		return nil
	})
	g.Go(func() error {
		notes, err := s.store.ListNotificationsByUser(gctx, userID, true)
		if err != nil {
			return fmt.Errorf("list notifications: %w", err)
		}
		d.UnreadNotifications = notes
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.FinancialAdvice = s.advisor.AdviceForPortfolio(ctx, s.portfolio(userID, d.Metrics, d.Goals))

	s.logger.Debug("dashboard_built", "user_id", userID, "goals", len(d.Goals), "duration", time.Since(start))
	return &d, nil
}

// FinancialTips returns portfolio advice for the user.
func (s *Service) FinancialTips(ctx context.Context, userID int64) ([]model.FinancialTip, error) {
	g, gctx := errgroup.WithContext(ctx)

	var m *model.DashboardMetrics
	var goals []*model.Goal
	g.Go(func() error {
		var err error
		m, err = s.aggregator.ComputeDashboardMetrics(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		goals, err = s.store.ListGoalsByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load portfolio: %w", err)
	}

	return s.advisor.AdviceForPortfolio(ctx, s.portfolio(userID, m, goals)), nil
}

func (s *Service) portfolio(userID int64, m *model.DashboardMetrics, goals []*model.Goal) advice.PortfolioSnapshot {
	p := advice.PortfolioSnapshot{
		UserID:           userID,
		Currency:         s.currency,
		Goals:            make([]advice.GoalSnapshot, 0, len(goals)),
		TotalSavings:     m.TotalSavings,
		ActiveGoalsCount: m.ActiveGoalsCount,
		MonthlyBudget:    m.MonthlyBudget,
		BudgetRemaining:  m.BudgetRemaining,
	}
	for _, g := range goals {
		p.Goals = append(p.Goals, advice.SnapshotGoal(g, s.currency))
	}
	return p
}
