package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goalfund/goalfund/internal/advice"
	"github.com/goalfund/goalfund/internal/ledger"
	"github.com/goalfund/goalfund/internal/metrics"
	"github.com/goalfund/goalfund/internal/model"
	"github.com/goalfund/goalfund/internal/store"
)

// GoalPatch is a partial goal update. Nil fields are left unchanged.
// CurrentAmount exists only to be rejected: balances move through
// transactions.
type GoalPatch struct {
	Name          *string
	Description   *string
	Category      *string
	TargetAmount  *decimal.Decimal
	CurrentAmount *decimal.Decimal
	StartDate     *time.Time
	TargetDate    *time.Time
	Status        *model.GoalStatus
	Automated     *bool
}

// GoalService manages a user's goals.
type GoalService struct {
	store    store.Store
	engine   *ledger.Engine
	insights InsightGenerator
	currency string
	metrics  metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewGoalService creates a GoalService.
func NewGoalService(s store.Store, engine *ledger.Engine, insights InsightGenerator, currency string, logger *slog.Logger, recorder metrics.Recorder) *GoalService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &GoalService{
		store:    s,
		engine:   engine,
		insights: insights,
		currency: currency,
		metrics:  recorder,
		logger:   logger.With("component", "goals"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a goal and schedules its first insight.
func (s *GoalService) Create(ctx context.Context, userID int64, in ledger.GoalInput) (*model.Goal, error) {
	goal, err := s.engine.CreateGoal(ctx, userID, in)
	if err != nil {
		return nil, err
	}

	if s.insights != nil {
		s.insights.Enqueue(context.WithoutCancel(ctx), advice.InsightJob{
			UserID: userID,
			Goal:   advice.SnapshotGoal(goal, s.currency),
		})
	}
	return goal, nil
}

// Get returns one of the user's goals.
func (s *GoalService) Get(ctx context.Context, userID, goalID int64) (*model.Goal, error) {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(goal.UserID, userID); err != nil {
		return nil, err
	}
	return goal, nil
}

// List returns the user's live goals in creation order.
func (s *GoalService) List(ctx context.Context, userID int64) ([]*model.Goal, error) {
	return s.store.ListGoalsByUser(ctx, userID)
}

// Update applies patch and re-validates the merged goal.
func (s *GoalService) Update(ctx context.Context, userID, goalID int64, patch GoalPatch) (*model.Goal, error) {
	if patch.CurrentAmount != nil {
		return nil, model.NewValidationError("currentAmount", "cannot be edited directly; post a transaction instead")
	}

	goal, err := s.Get(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	applyPatch(goal, patch)
	goal.UpdatedAt = s.now()
	if err := goal.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.UpdateGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}

	// CurrentAmount may have moved since the read; return the stored row.
	updated, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}

	s.metrics.IncGoalUpdated()
	s.logger.Info("goal_updated", "goal_id", goalID, "user_id", userID)
	return updated, nil
}

// Delete soft-deletes one of the user's goals.
func (s *GoalService) Delete(ctx context.Context, userID, goalID int64) error {
	if _, err := s.Get(ctx, userID, goalID); err != nil {
		return err
	}
	if err := s.store.DeleteGoal(ctx, goalID, s.now()); err != nil {
		return err
	}

	s.metrics.IncGoalDeleted()
	s.logger.Info("goal_deleted", "goal_id", goalID, "user_id", userID)
	return nil
}

func applyPatch(g *model.Goal, p GoalPatch) {
	if p.Name != nil {
		g.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		g.Description = strings.TrimSpace(*p.Description)
	}
	if p.Category != nil {
		g.Category = strings.TrimSpace(*p.Category)
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.StartDate != nil {
		g.StartDate = *p.StartDate
	}
	if p.TargetDate != nil {
		g.TargetDate = *p.TargetDate
	}
	if p.Status != nil {
		g.Status = *p.Status
	}
	if p.Automated != nil {
		g.Automated = *p.Automated
	}
}
