// Package dashboard derives summary figures from a user's ledger and
// assembles the home screen payload.
package dashboard

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goalfund/goalfund/internal/model"
	"github.com/goalfund/goalfund/internal/store"
)

// DefaultMonthlyBudget applies when no budget is configured.
var DefaultMonthlyBudget = decimal.NewFromInt(3200)

// Health score inputs.
const (
	healthBase           = 30
	healthProgressWeight = 70
	healthAttentionCost  = 10
	healthNoGoals        = 50
)

// Aggregator computes DashboardMetrics on demand. It holds no state besides
// its configuration.
type Aggregator struct {
	store  store.Store
	budget decimal.Decimal
	now    func() time.Time
}

// NewAggregator creates an Aggregator. A non-positive budget uses
// DefaultMonthlyBudget.
func NewAggregator(s store.Store, monthlyBudget decimal.Decimal) *Aggregator {
	if !monthlyBudget.IsPositive() {
		monthlyBudget = DefaultMonthlyBudget
	}
	return &Aggregator{
		store:  s,
		budget: monthlyBudget,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ComputeDashboardMetrics summarizes the user's live goals and this month's
// transactions.
func (a *Aggregator) ComputeDashboardMetrics(ctx context.Context, userID int64) (*model.DashboardMetrics, error) {
	goals, err := a.store.ListGoalsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	txns, err := a.store.ListTransactionsByUser(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return a.compute(goals, txns), nil
}

func (a *Aggregator) compute(goals []*model.Goal, txns []*model.Transaction) *model.DashboardMetrics {
	m := &model.DashboardMetrics{
		TotalSavings:  decimal.Zero,
		MonthlyBudget: a.budget,
	}

	live := make(map[int64]bool, len(goals))
	for _, g := range goals {
		live[g.ID] = true
		m.TotalSavings = m.TotalSavings.Add(g.CurrentAmount)
		switch g.Status {
		case model.GoalStatusInProgress:
			m.ActiveGoalsCount++
		case model.GoalStatusCompleted:
			m.CompletedGoalsCount++
		}
	}

	monthStart := startOfMonth(a.now())
	spent := decimal.Zero
	net := decimal.Zero
	for _, t := range txns {
		if t.Date.Before(monthStart) {
			continue
		}
		if t.Type == model.TransactionWithdrawal {
			spent = spent.Add(t.Amount)
		}
		if t.GoalID != nil && live[*t.GoalID] {
			net = net.Add(t.Signed())
		}
	}

	m.BudgetRemaining = a.budget.Sub(spent)
	m.SavingsIncrease = fmt.Sprintf("%d%% from last month", savingsIncrease(m.TotalSavings, net))
	m.FinancialHealthScore = healthScore(goals)
	m.FinancialHealthStatus = healthStatus(m.FinancialHealthScore)
	return m
}

// savingsIncrease is this month's net flow as a rounded percentage of the
// balance at month start, or 0 when that balance is not positive.
func savingsIncrease(total, net decimal.Decimal) int64 {
	base := total.Sub(net)
	if !base.IsPositive() {
		return 0
	}
	return net.Div(base).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func healthScore(goals []*model.Goal) int {
	if len(goals) == 0 {
		return healthNoGoals
	}

	sum := 0
	attention := 0
	for _, g := range goals {
		sum += min(max(g.Progress(), 0), 100)
		if g.Status == model.GoalStatusNeedsAttention {
			attention++
		}
	}

	mean := float64(sum) / float64(len(goals))
	score := int(math.Round(healthBase + healthProgressWeight*mean/100))
	score -= healthAttentionCost * attention
	return min(max(score, 0), 100)
}

func healthStatus(score int) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Fair"
	default:
		return "Needs Attention"
	}
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
