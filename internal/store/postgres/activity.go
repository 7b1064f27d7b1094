package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/goalfund/goalfund/internal/model"
	"github.com/goalfund/goalfund/internal/store"
)

const (
	transactionColumns  = `id, user_id, goal_id, description, amount, type, category, account, date, created_at`
	notificationColumns = `id, user_id, goal_id, title, message, type, read, created_at`
	insightColumns      = `id, user_id, goal_id, title, content, category, source, read, created_at`
)

// GetTransaction retrieves a transaction by id.
func (s *Store) GetTransaction(ctx context.Context, id int64) (*model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	t, err := scanTransaction(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

// ListTransactionsByUser returns newest first; limit <= 0 means all.
func (s *Store) ListTransactionsByUser(ctx context.Context, userID int64, limit int) ([]*model.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY date DESC, id DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	return s.listTransactions(ctx, query, args...)
}

// ListTransactionsByGoal returns the goal's transactions, newest first.
func (s *Store) ListTransactionsByGoal(ctx context.Context, goalID int64) ([]*model.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE goal_id = $1
		ORDER BY date DESC, id DESC
	`
	return s.listTransactions(ctx, query, goalID)
}

func (s *Store) listTransactions(ctx context.Context, query string, args ...any) ([]*model.Transaction, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]*model.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return out, nil
}

// GetNotification retrieves a notification by id.
func (s *Store) GetNotification(ctx context.Context, id int64) (*model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	n, err := scanNotification(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// ListNotificationsByUser returns the user's notifications, newest first.
func (s *Store) ListNotificationsByUser(ctx context.Context, userID int64, unreadOnly bool) ([]*model.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1 AND ($2 = FALSE OR read = FALSE)
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.pool.Query(ctx, query, userID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*model.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return out, nil
}

// MarkNotificationRead sets the read flag.
func (s *Store) MarkNotificationRead(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotificationNotFound
	}
	return nil
}

// HasNotificationSince reports whether the goal received a notification of
// typ at or after since.
func (s *Store) HasNotificationSince(ctx context.Context, goalID int64, typ model.NotificationType, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE goal_id = $1 AND type = $2 AND created_at >= $3
		)
	`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, goalID, typ, since).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to look up notification: %w", err)
	}
	return exists, nil
}

// GetInsight retrieves an insight by id.
func (s *Store) GetInsight(ctx context.Context, id int64) (*model.Insight, error) {
	query := `SELECT ` + insightColumns + ` FROM insights WHERE id = $1`

	in, err := scanInsight(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrInsightNotFound
		}
		return nil, fmt.Errorf("failed to get insight: %w", err)
	}
	return in, nil
}

// ListInsightsByUser returns the user's insights, newest first.
func (s *Store) ListInsightsByUser(ctx context.Context, userID int64) ([]*model.Insight, error) {
	query := `SELECT ` + insightColumns + ` FROM insights WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	return s.listInsights(ctx, query, userID)
}

// ListInsightsByGoal returns the goal's insights, newest first.
func (s *Store) ListInsightsByGoal(ctx context.Context, goalID int64) ([]*model.Insight, error) {
	query := `SELECT ` + insightColumns + ` FROM insights WHERE goal_id = $1 ORDER BY created_at DESC, id DESC`
	return s.listInsights(ctx, query, goalID)
}

func (s *Store) listInsights(ctx context.Context, query string, arg int64) ([]*model.Insight, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	defer rows.Close()

	out := make([]*model.Insight, 0)
	for rows.Next() {
		in, err := scanInsight(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate insights: %w", err)
	}
	return out, nil
}

// MarkInsightRead sets the read flag.
func (s *Store) MarkInsightRead(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE insights SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark insight read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrInsightNotFound
	}
	return nil
}

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	var t model.Transaction
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.GoalID,
		&t.Description,
		&t.Amount,
		&t.Type,
		&t.Category,
		&t.Account,
		&t.Date,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanNotification(row pgx.Row) (*model.Notification, error) {
	var n model.Notification
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.GoalID,
		&n.Title,
		&n.Message,
		&n.Type,
		&n.Read,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func scanInsight(row pgx.Row) (*model.Insight, error) {
	var in model.Insight
	err := row.Scan(
		&in.ID,
		&in.UserID,
		&in.GoalID,
		&in.Title,
		&in.Content,
		&in.Category,
		&in.Source,
		&in.Read,
		&in.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &in, nil
}
