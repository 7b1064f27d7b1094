package model

import "time"

// InsightSource records whether advice came from the live provider or the
// deterministic fallback.
type InsightSource string

const (
	InsightSourceProvider InsightSource = "provider"
	InsightSourceFallback InsightSource = "fallback"
)

// Advice categories.
const (
	CategorySaving    = "saving"
	CategoryInvesting = "investing"
	CategoryBudgeting = "budgeting"
	CategoryDebt      = "debt"
	CategoryIncome    = "income"
	CategoryGeneral   = "general"
)

// Icons a financial tip may carry.
const (
	IconSavings        = "savings"
	IconAccountBalance = "account_balance"
	IconTrendingUp     = "trending_up"
	IconCreditCard     = "credit_card"
)

// IsValidAdviceCategory reports whether c is a known advice category.
func IsValidAdviceCategory(c string) bool {
	switch c {
	case CategorySaving, CategoryInvesting, CategoryBudgeting, CategoryDebt, CategoryIncome, CategoryGeneral:
		return true
	}
	return false
}

// IsValidIcon reports whether icon is a known tip icon.
func IsValidIcon(icon string) bool {
	switch icon {
	case IconSavings, IconAccountBalance, IconTrendingUp, IconCreditCard:
		return true
	}
	return false
}

// Insight is a short advisory text item for a user, optionally about a goal.
type Insight struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"userId"`
	GoalID    *int64        `json:"goalId"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Category  string        `json:"category"`
	Source    InsightSource `json:"source"`
	Read      bool          `json:"read"`
	CreatedAt time.Time     `json:"createdAt"`
}

// FinancialTip is one item of portfolio-level advice. Never persisted.
type FinancialTip struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
	Icon     string `json:"icon"`
}
