// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// GoalStatus is informational; the ledger never changes it.
type GoalStatus string

const (
	GoalStatusInProgress     GoalStatus = "in_progress"
	GoalStatusOnTrack        GoalStatus = "on_track"
	GoalStatusNeedsAttention GoalStatus = "needs_attention"
	GoalStatusCompleted      GoalStatus = "completed"
)

// IsValid checks if the status is one of the known values.
func (s GoalStatus) IsValid() bool {
	switch s {
	case GoalStatusInProgress, GoalStatusOnTrack, GoalStatusNeedsAttention, GoalStatusCompleted:
		return true
	}
	return false
}

// Field limits for goal text.
const (
	MaxGoalNameLength        = 120
	MaxGoalDescriptionLength = 1000
)

var hundred = decimal.NewFromInt(100)

// Goal is a named savings target owned by one user.
type Goal struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"userId"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Category      string          `json:"category"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	StartDate     time.Time       `json:"startDate"`
	TargetDate    time.Time       `json:"targetDate"`
	Status        GoalStatus      `json:"status"`
	Automated     bool            `json:"automated"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	DeletedAt     *time.Time      `json:"-"`
}

// Progress returns the rounded percentage of the target reached.
// It is not clamped: overdrawn goals report negative progress and
// overfunded goals report more than 100.
func (g *Goal) Progress() int {
	if !g.TargetAmount.IsPositive() {
		return 0
	}
	return int(g.CurrentAmount.Mul(hundred).Div(g.TargetAmount).Round(0).IntPart())
}

// Remaining returns how much is left to reach the target, never below zero.
func (g *Goal) Remaining() decimal.Decimal {
	rem := g.TargetAmount.Sub(g.CurrentAmount)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// IsDeleted reports whether the goal was soft-deleted.
func (g *Goal) IsDeleted() bool {
	return g.DeletedAt != nil
}

// Clone returns a copy that shares no mutable state with g.
func (g *Goal) Clone() *Goal {
	c := *g
	if g.DeletedAt != nil {
		t := *g.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}

// Validate checks the structural rules every stored goal must satisfy.
func (g *Goal) Validate() error {
	name := strings.TrimSpace(g.Name)
	switch {
	case name == "":
		return NewValidationError("name", "is required")
	case len(name) > MaxGoalNameLength:
		return NewValidationError("name", "is too long")
	case len(g.Description) > MaxGoalDescriptionLength:
		return NewValidationError("description", "is too long")
	case strings.TrimSpace(g.Category) == "":
		return NewValidationError("category", "is required")
	case g.StartDate.IsZero():
		return NewValidationError("startDate", "is required")
	case g.TargetDate.IsZero():
		return NewValidationError("targetDate", "is required")
	case !g.StartDate.Before(g.TargetDate):
		return NewValidationError("targetDate", "must be after startDate")
	case !g.Status.IsValid():
		return NewValidationError("status", "must be one of in_progress, on_track, needs_attention, completed")
	}
	if err := ValidateAmount("targetAmount", g.TargetAmount); err != nil {
		return err
	}
	// Overdrawn balances are legal, so only scale and range apply.
	return validateMagnitude("currentAmount", g.CurrentAmount)
}
