package model

import "github.com/shopspring/decimal"

// DashboardMetrics is computed per request and never persisted.
type DashboardMetrics struct {
	TotalSavings          decimal.Decimal `json:"totalSavings"`
	SavingsIncrease       string          `json:"savingsIncrease"`
	ActiveGoalsCount      int             `json:"activeGoalsCount"`
	CompletedGoalsCount   int             `json:"completedGoalsCount"`
	MonthlyBudget         decimal.Decimal `json:"monthlyBudget"`
	BudgetRemaining       decimal.Decimal `json:"budgetRemaining"`
	FinancialHealthScore  int             `json:"financialHealthScore"`
	FinancialHealthStatus string          `json:"financialHealthStatus"`
}

// Dashboard is the aggregate returned to a user's home screen.
type Dashboard struct {
	Metrics             *DashboardMetrics
	Goals               []*Goal
	Transactions        []*Transaction
	UnreadNotifications []*Notification
	FinancialAdvice     []FinancialTip
}
