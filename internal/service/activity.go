package service

import (
	"context"
	"log/slog"

	"github.com/goalfund/goalfund/internal/advice"
	"github.com/goalfund/goalfund/internal/ledger"
	"github.com/goalfund/goalfund/internal/model"
	"github.com/goalfund/goalfund/internal/store"
)

// TransactionService records and lists transactions.
type TransactionService struct {
	store  store.Store
	engine *ledger.Engine
}

// NewTransactionService creates a TransactionService.
func NewTransactionService(s store.Store, engine *ledger.Engine) *TransactionService {
	return &TransactionService{store: s, engine: engine}
}

// Post applies a transaction for userID. The returned goal is nil for
// goal-less transactions.
func (s *TransactionService) Post(ctx context.Context, userID int64, in ledger.TransactionInput) (*model.Transaction, *model.Goal, error) {
	return s.engine.ApplyTransaction(ctx, userID, in)
}

// List returns the user's newest transactions. limit is clamped to
// [1, MaxTransactionLimit]; zero selects DefaultTransactionLimit.
func (s *TransactionService) List(ctx context.Context, userID int64, limit int) ([]*model.Transaction, error) {
	switch {
	case limit <= 0:
		limit = DefaultTransactionLimit
	case limit > MaxTransactionLimit:
		limit = MaxTransactionLimit
	}
	return s.store.ListTransactionsByUser(ctx, userID, limit)
}

// ListForGoal returns every transaction posted to one of the user's goals.
func (s *TransactionService) ListForGoal(ctx context.Context, userID, goalID int64) ([]*model.Transaction, error) {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(goal.UserID, userID); err != nil {
		return nil, err
	}
	return s.store.ListTransactionsByGoal(ctx, goalID)
}

// NotificationService lists notifications and marks them read.
type NotificationService struct {
	store store.Store
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(s store.Store) *NotificationService {
	return &NotificationService{store: s}
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID int64, unreadOnly bool) ([]*model.Notification, error) {
	return s.store.ListNotificationsByUser(ctx, userID, unreadOnly)
}

// MarkRead flags one of the user's notifications as read. It is idempotent.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id int64) (*model.Notification, error) {
	n, err := s.store.GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(n.UserID, userID); err != nil {
		return nil, err
	}
	if n.Read {
		return n, nil
	}
	if err := s.store.MarkNotificationRead(ctx, id); err != nil {
		return nil, err
	}
	n.Read = true
	return n, nil
}

// InsightService lists, generates and marks insights.
type InsightService struct {
	store     store.Store
	generator InsightGenerator
	currency  string
	logger    *slog.Logger
}

// NewInsightService creates an InsightService.
func NewInsightService(s store.Store, generator InsightGenerator, currency string, logger *slog.Logger) *InsightService {
	return &InsightService{
		store:     s,
		generator: generator,
		currency:  currency,
		logger:    logger.With("component", "insights"),
	}
}

// List returns the user's insights, newest first.
func (s *InsightService) List(ctx context.Context, userID int64) ([]*model.Insight, error) {
	return s.store.ListInsightsByUser(ctx, userID)
}

// ListForGoal returns the insights about one of the user's goals.
func (s *InsightService) ListForGoal(ctx context.Context, userID, goalID int64) ([]*model.Insight, error) {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(goal.UserID, userID); err != nil {
		return nil, err
	}
	return s.store.ListInsightsByGoal(ctx, goalID)
}

// Generate synchronously produces a new insight for one of the user's goals.
// Provider failures yield a fallback insight, not an error.
func (s *InsightService) Generate(ctx context.Context, userID, goalID int64) (*model.Insight, error) {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(goal.UserID, userID); err != nil {
		return nil, err
	}
	return s.generator.Generate(ctx, userID, advice.SnapshotGoal(goal, s.currency))
}

// MarkRead flags one of the user's insights as read. It is idempotent.
func (s *InsightService) MarkRead(ctx context.Context, userID, id int64) (*model.Insight, error) {
	in, err := s.store.GetInsight(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(in.UserID, userID); err != nil {
		return nil, err
	}
	if in.Read {
		return in, nil
	}
	if err := s.store.MarkInsightRead(ctx, id); err != nil {
		return nil, err
	}
	in.Read = true
	return in, nil
}
