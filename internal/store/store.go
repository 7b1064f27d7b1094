// Package store defines the entity store contract shared by every backend.
//
// The store is ownership-agnostic: it persists and returns entities by id and
// leaves access control to its callers.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goalfund/goalfund/internal/model"
)

// Errors returned by every backend. Each wraps a model taxonomy error.
var (
	ErrUserNotFound         = fmt.Errorf("user %w", model.ErrNotFound)
	ErrGoalNotFound         = fmt.Errorf("goal %w", model.ErrNotFound)
	ErrTransactionNotFound  = fmt.Errorf("transaction %w", model.ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", model.ErrNotFound)
	ErrInsightNotFound      = fmt.Errorf("insight %w", model.ErrNotFound)
	ErrUserExists           = model.NewValidationError("username", "username or email already registered")
)

// Users persists accounts. Usernames and emails are unique, case-insensitive.
type Users interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// Goals reads and edits goals. Creation and amount changes go through Tx.
type Goals interface {
	GetGoal(ctx context.Context, id int64) (*model.Goal, error)
	// ListGoalsByUser returns the user's live goals in insertion order.
	ListGoalsByUser(ctx context.Context, userID int64) ([]*model.Goal, error)
	// UpdateGoal writes every mutable field except CurrentAmount.
	UpdateGoal(ctx context.Context, goal *model.Goal) error
	// DeleteGoal soft-deletes the goal; its transactions are kept.
	DeleteGoal(ctx context.Context, id int64, at time.Time) error
	// ListGoalsDueBetween returns live, unfinished goals of every user whose
	// target date falls in [from, to).
	ListGoalsDueBetween(ctx context.Context, from, to time.Time) ([]*model.Goal, error)
}

// Transactions reads the immutable transaction history.
type Transactions interface {
	GetTransaction(ctx context.Context, id int64) (*model.Transaction, error)
	// ListTransactionsByUser returns newest first; limit <= 0 means all.
	ListTransactionsByUser(ctx context.Context, userID int64, limit int) ([]*model.Transaction, error)
	ListTransactionsByGoal(ctx context.Context, goalID int64) ([]*model.Transaction, error)
}

// Notifications reads notifications and flips their read flag.
type Notifications interface {
	GetNotification(ctx context.Context, id int64) (*model.Notification, error)
	// ListNotificationsByUser returns newest first.
	ListNotificationsByUser(ctx context.Context, userID int64, unreadOnly bool) ([]*model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	HasNotificationSince(ctx context.Context, goalID int64, typ model.NotificationType, since time.Time) (bool, error)
}

// Insights reads insights and flips their read flag.
type Insights interface {
	GetInsight(ctx context.Context, id int64) (*model.Insight, error)
	// ListInsightsByUser returns newest first.
	ListInsightsByUser(ctx context.Context, userID int64) ([]*model.Insight, error)
	ListInsightsByGoal(ctx context.Context, goalID int64) ([]*model.Insight, error)
	MarkInsightRead(ctx context.Context, id int64) error
}

// Tx is the write view handed to Atomic. Ids are assigned on create.
type Tx interface {
	// GetGoalForUpdate reads a live goal and holds it until the unit ends.
	GetGoalForUpdate(ctx context.Context, id int64) (*model.Goal, error)
	CreateGoal(ctx context.Context, goal *model.Goal) error
	UpdateGoalAmount(ctx context.Context, id int64, amount decimal.Decimal, updatedAt time.Time) error
	CreateTransaction(ctx context.Context, tx *model.Transaction) error
	CreateNotification(ctx context.Context, n *model.Notification) error
	CreateInsight(ctx context.Context, insight *model.Insight) error
}

// Store is the full entity store.
type Store interface {
	Users
	Goals
	Transactions
	Notifications
	Insights

	// Atomic runs fn as one unit of work. Writes made through tx become
	// visible together when fn returns nil and are discarded otherwise.
	Atomic(ctx context.Context, fn func(tx Tx) error) error

	Ping(ctx context.Context) error
	Close()
}
