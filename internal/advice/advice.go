// Package advice produces short financial guidance for goals and portfolios.
//
// A Provider is an external text generator that may be slow, wrong or down.
// The Advisor wraps it with a timeout and a deterministic fallback so callers
// always receive usable advice.
package advice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goalfund/goalfund/internal/model"
)

// TipCount is the number of portfolio tips every response carries.
const TipCount = 4

// Provider generates advice. Implementations must honor ctx cancellation.
type Provider interface {
	GoalInsight(ctx context.Context, goal GoalSnapshot) (Suggestion, error)
	PortfolioAdvice(ctx context.Context, portfolio PortfolioSnapshot) ([]model.FinancialTip, error)
}

// Suggestion is one piece of goal advice.
type Suggestion struct {
	Title    string
	Content  string
	Category string
	Source   model.InsightSource
}

// GoalSnapshot is the read-only view of a goal handed to a provider.
type GoalSnapshot struct {
	GoalID        int64
	Name          string
	Description   string
	Category      string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Progress      int
	StartDate     time.Time
	TargetDate    time.Time
	Currency      string
}

// SnapshotGoal captures g for advice generation.
func SnapshotGoal(g *model.Goal, currency string) GoalSnapshot {
	return GoalSnapshot{
		GoalID:        g.ID,
		Name:          g.Name,
		Description:   g.Description,
		Category:      g.Category,
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
		Progress:      g.Progress(),
		StartDate:     g.StartDate,
		TargetDate:    g.TargetDate,
		Currency:      currency,
	}
}

// Remaining is the amount still missing to reach the target, never negative.
func (s GoalSnapshot) Remaining() decimal.Decimal {
	r := s.TargetAmount.Sub(s.CurrentAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// PortfolioSnapshot summarizes a user's goals for portfolio advice.
type PortfolioSnapshot struct {
	UserID           int64
	Currency         string
	Goals            []GoalSnapshot
	TotalSavings     decimal.Decimal
	ActiveGoalsCount int
	MonthlyBudget    decimal.Decimal
	BudgetRemaining  decimal.Decimal
}

// fingerprint identifies the advice-relevant state of the portfolio.
func (p PortfolioSnapshot) fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%d|%s|%s",
		p.Currency,
		p.TotalSavings.StringFixed(2),
		p.ActiveGoalsCount,
		p.MonthlyBudget.StringFixed(2),
		p.BudgetRemaining.StringFixed(2),
	)
	for _, g := range p.Goals {
		fmt.Fprintf(&b, "|%d:%s:%s:%s", g.GoalID, g.Name, g.TargetAmount.StringFixed(2), g.CurrentAmount.StringFixed(2))
	}
	return b.String()
}
