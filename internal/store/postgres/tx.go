package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goalfund/goalfund/internal/model"
	"github.com/goalfund/goalfund/internal/store"
)

// pgTx is the store.Tx view over an open database transaction.
type pgTx struct {
	q querier
}

// GetGoalForUpdate row-locks the goal until the transaction ends.
func (t *pgTx) GetGoalForUpdate(ctx context.Context, id int64) (*model.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
	return getGoal(ctx, t.q, query, id)
}

func (t *pgTx) CreateGoal(ctx context.Context, goal *model.Goal) error {
	query := `
		INSERT INTO goals (user_id, name, description, category, target_amount, current_amount,
		                   start_date, target_date, status, automated, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	err := t.q.QueryRow(ctx, query,
		goal.UserID,
		goal.Name,
		goal.Description,
		goal.Category,
		goal.TargetAmount,
		goal.CurrentAmount,
		goal.StartDate,
		goal.TargetDate,
		goal.Status,
		goal.Automated,
		goal.CreatedAt,
		goal.UpdatedAt,
	).Scan(&goal.ID)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

func (t *pgTx) UpdateGoalAmount(ctx context.Context, id int64, amount decimal.Decimal, updatedAt time.Time) error {
	query := `UPDATE goals SET current_amount = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`

	tag, err := t.q.Exec(ctx, query, id, amount, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to set goal amount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrGoalNotFound
	}
	return nil
}

func (t *pgTx) CreateTransaction(ctx context.Context, tx *model.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, goal_id, description, amount, type, category, account, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := t.q.QueryRow(ctx, query,
		tx.UserID,
		tx.GoalID,
		tx.Description,
		tx.Amount,
		tx.Type,
		tx.Category,
		tx.Account,
		tx.Date,
		tx.CreatedAt,
	).Scan(&tx.ID)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (t *pgTx) CreateNotification(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (user_id, goal_id, title, message, type, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := t.q.QueryRow(ctx, query,
		n.UserID,
		n.GoalID,
		n.Title,
		n.Message,
		n.Type,
		n.Read,
		n.CreatedAt,
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (t *pgTx) CreateInsight(ctx context.Context, insight *model.Insight) error {
	query := `
		INSERT INTO insights (user_id, goal_id, title, content, category, source, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := t.q.QueryRow(ctx, query,
		insight.UserID,
		insight.GoalID,
		insight.Title,
		insight.Content,
		insight.Category,
		insight.Source,
		insight.Read,
		insight.CreatedAt,
	).Scan(&insight.ID)
	if err != nil {
		return fmt.Errorf("failed to create insight: %w", err)
	}
	return nil
}
