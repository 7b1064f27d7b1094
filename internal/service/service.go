// Package service holds the use cases behind the HTTP surface. Every
// operation acts on behalf of an authenticated user and refuses to touch
// entities owned by someone else.
package service

import (
	"context"
	"fmt"

	"github.com/goalfund/goalfund/internal/advice"
	"github.com/goalfund/goalfund/internal/model"
)

// ErrNotOwner is returned when a user acts on another user's entity.
var ErrNotOwner = fmt.Errorf("resource belongs to another user: %w", model.ErrForbidden)

// Transaction listing bounds.
const (
	DefaultTransactionLimit = 10
	MaxTransactionLimit     = 100
)

// InsightGenerator produces goal insights. advice.Worker implements it.
type InsightGenerator interface {
	Enqueue(ctx context.Context, job advice.InsightJob)
	Generate(ctx context.Context, userID int64, goal advice.GoalSnapshot) (*model.Insight, error)
}

func checkOwner(owner, userID int64) error {
	if owner != userID {
		return ErrNotOwner
	}
	return nil
}
