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

const goalColumns = `id, user_id, name, description, category, target_amount, current_amount,
	start_date, target_date, status, automated, created_at, updated_at, deleted_at`

// GetGoal retrieves a live goal by id.
func (s *Store) GetGoal(ctx context.Context, id int64) (*model.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1 AND deleted_at IS NULL`
	return getGoal(ctx, s.pool, query, id)
}

// ListGoalsByUser returns the user's live goals in insertion order.
func (s *Store) ListGoalsByUser(ctx context.Context, userID int64) ([]*model.Goal, error) {
	query := `
		SELECT ` + goalColumns + `
		FROM goals
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY id
	`
	return s.listGoals(ctx, query, userID)
}

// ListGoalsDueBetween returns unfinished live goals due in [from, to).
func (s *Store) ListGoalsDueBetween(ctx context.Context, from, to time.Time) ([]*model.Goal, error) {
	query := `
		SELECT ` + goalColumns + `
		FROM goals
		WHERE deleted_at IS NULL
		  AND status <> 'completed'
		  AND target_date >= $1 AND target_date < $2
		ORDER BY id
	`
	return s.listGoals(ctx, query, from, to)
}

// UpdateGoal writes every mutable field except current_amount.
func (s *Store) UpdateGoal(ctx context.Context, goal *model.Goal) error {
	query := `
		UPDATE goals
		SET name = $2, description = $3, category = $4, target_amount = $5,
		    start_date = $6, target_date = $7, status = $8, automated = $9, updated_at = $10
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := s.pool.Exec(ctx, query,
		goal.ID,
		goal.Name,
		goal.Description,
		goal.Category,
		goal.TargetAmount,
		goal.StartDate,
		goal.TargetDate,
		goal.Status,
		goal.Automated,
		goal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrGoalNotFound
	}
	return nil
}

// DeleteGoal soft-deletes a live goal.
func (s *Store) DeleteGoal(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE goals SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	tag, err := s.pool.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrGoalNotFound
	}
	return nil
}

func (s *Store) listGoals(ctx context.Context, query string, args ...any) ([]*model.Goal, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	goals := make([]*model.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goals: %w", err)
	}
	return goals, nil
}

func getGoal(ctx context.Context, q querier, query string, id int64) (*model.Goal, error) {
	g, err := scanGoal(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrGoalNotFound
		}
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return g, nil
}

func scanGoal(row pgx.Row) (*model.Goal, error) {
	var g model.Goal
	err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.Name,
		&g.Description,
		&g.Category,
		&g.TargetAmount,
		&g.CurrentAmount,
		&g.StartDate,
		&g.TargetDate,
		&g.Status,
		&g.Automated,
		&g.CreatedAt,
		&g.UpdatedAt,
		&g.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
