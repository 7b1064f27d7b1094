package dto

import "github.com/goalfund/goalfund/internal/model"

// DashboardResponse is the body of GET /api/dashboard.
type DashboardResponse struct {
	Metrics             *model.DashboardMetrics `json:"metrics"`
	Goals               []*GoalResponse         `json:"goals"`
	Transactions        []*model.Transaction    `json:"transactions"`
	UnreadNotifications []*model.Notification   `json:"unreadNotifications"`
	FinancialAdvice     []model.FinancialTip    `json:"financialAdvice"`
}

// ToDashboardResponse converts an assembled dashboard.
func ToDashboardResponse(d *model.Dashboard) *DashboardResponse {
	return &DashboardResponse{
		Metrics:             d.Metrics,
		Goals:               ToGoalResponses(d.Goals),
		Transactions:        Transactions(d.Transactions),
		UnreadNotifications: Notifications(d.UnreadNotifications),
		FinancialAdvice:     nonNil(d.FinancialAdvice),
	}
}
