// Package ledger keeps goals, their transactions and the notifications they
// produce consistent with each other.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goalfund/goalfund/internal/metrics"
	"github.com/goalfund/goalfund/internal/model"
	"github.com/goalfund/goalfund/internal/store"
)

// ErrNotGoalOwner is returned when a transaction targets another user's goal.
var ErrNotGoalOwner = fmt.Errorf("goal belongs to another user: %w", model.ErrForbidden)

// OverdraftPolicy decides what happens to withdrawals larger than a goal's
// current amount.
type OverdraftPolicy int

const (
	// OverdraftAllow applies the withdrawal and lets the balance go negative.
	OverdraftAllow OverdraftPolicy = iota
	// OverdraftReject refuses the withdrawal with a validation error.
	OverdraftReject
)

// GoalInput carries the fields a user supplies when creating a goal.
type GoalInput struct {
	Name          string
	Description   string
	Category      string
	TargetAmount  decimal.Decimal
	CurrentAmount *decimal.Decimal
	StartDate     time.Time
	TargetDate    time.Time
	Status        model.GoalStatus
	Automated     bool
}

// TransactionInput carries the fields a user supplies when posting a
// transaction.
type TransactionInput struct {
	GoalID      *int64
	Description string
	Amount      decimal.Decimal
	Type        model.TransactionType
	Category    string
	Account     string
	Date        time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithCurrency sets the ISO code used in notification messages.
func WithCurrency(code string) Option {
	return func(e *Engine) { e.currency = code }
}

// WithOverdraftPolicy sets how oversized withdrawals are handled.
func WithOverdraftPolicy(p OverdraftPolicy) Option {
	return func(e *Engine) { e.overdraft = p }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine applies goal creations and transactions atomically.
type Engine struct {
	store     store.Store
	locks     *goalLocks
	now       func() time.Time
	currency  string
	overdraft OverdraftPolicy
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// New creates an Engine over s.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		locks:    newGoalLocks(),
		now:      func() time.Time { return time.Now().UTC() },
		currency: model.DefaultCurrency,
		metrics:  metrics.NewNoop(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "ledger")
	return e
}

// CreateGoal validates in, persists the goal and its creation notification
// as one unit, and returns the stored goal. A supplied CurrentAmount becomes
// the opening balance without a matching transaction.
func (e *Engine) CreateGoal(ctx context.Context, userID int64, in GoalInput) (*model.Goal, error) {
	now := e.now()

	goal := &model.Goal{
		UserID:        userID,
		Name:          strings.TrimSpace(in.Name),
		Description:   strings.TrimSpace(in.Description),
		Category:      strings.TrimSpace(in.Category),
		TargetAmount:  in.TargetAmount,
		CurrentAmount: decimal.Zero,
		StartDate:     in.StartDate,
		TargetDate:    in.TargetDate,
		Status:        in.Status,
		Automated:     in.Automated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if goal.Status == "" {
		goal.Status = model.GoalStatusInProgress
	}
	if in.CurrentAmount != nil {
		if in.CurrentAmount.IsNegative() {
			return nil, model.NewValidationError("currentAmount", "must not be negative")
		}
		goal.CurrentAmount = *in.CurrentAmount
	}
	if err := goal.Validate(); err != nil {
		return nil, err
	}

	note := &model.Notification{
		UserID:    userID,
		Title:     "New Goal Created",
		Message:   fmt.Sprintf("You've set up a new goal: %s", goal.Name),
		Type:      model.NotificationGoalUpdate,
		CreatedAt: now,
	}

	err := e.store.Atomic(ctx, func(tx store.Tx) error {
		if err := tx.CreateGoal(ctx, goal); err != nil {
			return err
		}
		note.GoalID = &goal.ID
		return tx.CreateNotification(ctx, note)
	})
	if err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}

	e.metrics.IncGoalCreated()
	e.metrics.IncNotificationEmitted(string(note.Type))
	e.logger.Info("goal_created",
		"goal_id", goal.ID,
		"user_id", userID,
		"target_amount", goal.TargetAmount.String(),
	)

	return goal, nil
}

// ApplyTransaction validates in and persists it. When it references a goal,
// the goal's amount and a goal_update notification are written in the same
// unit, serialized against other writes to that goal. The returned goal is
// nil for goal-less transactions.
func (e *Engine) ApplyTransaction(ctx context.Context, userID int64, in TransactionInput) (*model.Transaction, *model.Goal, error) {
	now := e.now()

	txn := &model.Transaction{
		UserID:      userID,
		GoalID:      in.GoalID,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Type:        in.Type,
		Category:    strings.TrimSpace(in.Category),
		Account:     strings.TrimSpace(in.Account),
		Date:        in.Date,
		CreatedAt:   now,
	}
	if err := txn.Validate(); err != nil {
		return nil, nil, err
	}

	if txn.GoalID == nil {
		err := e.store.Atomic(ctx, func(tx store.Tx) error {
			return tx.CreateTransaction(ctx, txn)
		})
		if err != nil {
			return nil, nil, fmt.Errorf("apply transaction: %w", err)
		}
		e.recordApplied(txn, nil)
		return txn, nil, nil
	}

	unlock := e.locks.lock(*txn.GoalID)
	defer unlock()

	var updated *model.Goal
	var note *model.Notification
	err := e.store.Atomic(ctx, func(tx store.Tx) error {
		goal, err := tx.GetGoalForUpdate(ctx, *txn.GoalID)
		if err != nil {
			return err
		}
		if goal.UserID != userID {
			return ErrNotGoalOwner
		}

		next := goal.CurrentAmount.Add(txn.Signed())
		if next.IsNegative() && txn.Type == model.TransactionWithdrawal && e.overdraft == OverdraftReject {
			return model.NewValidationError("amount", "withdrawal exceeds the goal's current amount")
		}
		if next.Abs().GreaterThanOrEqual(model.MaxAmount) {
			return model.NewValidationError("amount", "would move the goal balance out of range")
		}

		if err := tx.CreateTransaction(ctx, txn); err != nil {
			return err
		}
		if err := tx.UpdateGoalAmount(ctx, goal.ID, next, now); err != nil {
			return err
		}

		goal.CurrentAmount = next
		goal.UpdatedAt = now
		updated = goal

		note = &model.Notification{
			UserID:    goal.UserID,
			GoalID:    &goal.ID,
			Title:     "Goal Updated",
			Message:   e.movementMessage(txn, goal),
			Type:      model.NotificationGoalUpdate,
			CreatedAt: now,
		}
		return tx.CreateNotification(ctx, note)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("apply transaction: %w", err)
	}

	e.recordApplied(txn, updated)
	e.metrics.IncNotificationEmitted(string(note.Type))
	return txn, updated, nil
}

func (e *Engine) movementMessage(txn *model.Transaction, goal *model.Goal) string {
	amount := model.FormatMoney(txn.Amount, e.currency)
	if txn.Type == model.TransactionWithdrawal {
		return fmt.Sprintf("%s withdrawn from your %s goal", amount, goal.Name)
	}
	return fmt.Sprintf("%s added to your %s goal", amount, goal.Name)
}

func (e *Engine) recordApplied(txn *model.Transaction, goal *model.Goal) {
	e.metrics.IncTransactionApplied(string(txn.Type))

	attrs := []any{
		"transaction_id", txn.ID,
		"user_id", txn.UserID,
		"type", txn.Type,
		"amount", txn.Amount.String(),
	}
	if goal != nil {
		attrs = append(attrs, "goal_id", goal.ID, "current_amount", goal.CurrentAmount.String())
	}
	e.logger.Info("transaction_applied", attrs...)
}
