package advice

import (
	"fmt"

	"github.com/goalfund/goalfund/internal/model"
)

// Progress band edges for fallback insights.
const (
	earlyBandEnd  = 30
	middleBandEnd = 60
)

// Defaults for provider tips with blank fields.
const (
	defaultTipTitle   = "Financial Tip"
	defaultTipContent = "Regularly review your financial goals and adjust as needed."
)

var staticTips = [TipCount]model.FinancialTip{
	{
		Title:    "Spending Optimization",
		Content:  "Review your monthly subscriptions and cancel the ones you no longer use. The savings can go straight into your goals.",
		Category: model.CategoryBudgeting,
		Icon:     model.IconSavings,
	},
	{
		Title:    "Interest Rate Alert",
		Content:  "Keep your emergency fund in a high-yield savings account or term deposit so idle cash earns a better rate.",
		Category: model.CategorySaving,
		Icon:     model.IconAccountBalance,
	},
	{
		Title:    "Investment Opportunity",
		Content:  "A small fixed monthly contribution to a diversified index fund can compound into a meaningful sum over ten years.",
		Category: model.CategoryInvesting,
		Icon:     model.IconTrendingUp,
	},
	{
		Title:    "Tax Saving Tips",
		Content:  "Use the tax-advantaged retirement and savings accounts available to you before investing through taxable accounts.",
		Category: model.CategoryGeneral,
		Icon:     model.IconCreditCard,
	},
}

// FallbackTips returns the static portfolio tips in their fixed order.
func FallbackTips() []model.FinancialTip {
	tips := make([]model.FinancialTip, TipCount)
	copy(tips, staticTips[:])
	return tips
}

// FallbackInsight picks goal advice from the goal's progress band alone.
func FallbackInsight(goal GoalSnapshot) Suggestion {
	s := Suggestion{Source: model.InsightSourceFallback}

	switch {
	case goal.Progress < earlyBandEnd:
		s.Title = "Boost your early momentum"
		s.Content = "Consider increasing your monthly contribution by 10% to build momentum toward your goal."
		s.Category = model.CategorySaving
	case goal.Progress < middleBandEnd:
		s.Title = "Stay on track with automation"
		s.Content = "Setting up automatic transfers can help ensure consistent progress toward your goal."
		s.Category = model.CategorySaving
	default:
		s.Title = "Final stretch strategy"
		s.Content = fmt.Sprintf("You're only %s away from your goal! Consider a one-time deposit to finish early.",
			model.FormatMoney(goal.Remaining(), goal.Currency))
		s.Category = model.CategoryGeneral
	}

	return s
}
