package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/goalfund/goalfund/internal/ledger"
	"github.com/goalfund/goalfund/internal/model"
	"github.com/goalfund/goalfund/internal/service"
)

// CreateGoalRequest is the body of POST /api/goals.
type CreateGoalRequest struct {
	Name          string           `json:"name"`
	Description   string           `json:"description,omitempty"`
	Category      string           `json:"category"`
	TargetAmount  decimal.Decimal  `json:"targetAmount"`
	CurrentAmount *decimal.Decimal `json:"currentAmount,omitempty"`
	StartDate     string           `json:"startDate"`
	TargetDate    string           `json:"targetDate"`
	Status        string           `json:"status,omitempty"`
	Automated     bool             `json:"automated,omitempty"`
}

// ToInput converts the request into a ledger.GoalInput.
func (r *CreateGoalRequest) ToInput() (ledger.GoalInput, error) {
	start, err := ParseDate("startDate", r.StartDate)
	if err != nil {
		return ledger.GoalInput{}, err
	}
	target, err := ParseDate("targetDate", r.TargetDate)
	if err != nil {
		return ledger.GoalInput{}, err
	}
	return ledger.GoalInput{
		Name:          r.Name,
		Description:   r.Description,
		Category:      r.Category,
		TargetAmount:  r.TargetAmount,
		CurrentAmount: r.CurrentAmount,
		StartDate:     start,
		TargetDate:    target,
		Status:        model.GoalStatus(r.Status),
		Automated:     r.Automated,
	}, nil
}

// UpdateGoalRequest is the body of PATCH /api/goals/{id}. Absent fields are
// left unchanged.
type UpdateGoalRequest struct {
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Category      *string          `json:"category,omitempty"`
	TargetAmount  *decimal.Decimal `json:"targetAmount,omitempty"`
	CurrentAmount *decimal.Decimal `json:"currentAmount,omitempty"`
	StartDate     *string          `json:"startDate,omitempty"`
	TargetDate    *string          `json:"targetDate,omitempty"`
	Status        *string          `json:"status,omitempty"`
	Automated     *bool            `json:"automated,omitempty"`
}

// ToPatch converts the request into a service.GoalPatch.
func (r *UpdateGoalRequest) ToPatch() (service.GoalPatch, error) {
	p := service.GoalPatch{
		Name:          r.Name,
		Description:   r.Description,
		Category:      r.Category,
		TargetAmount:  r.TargetAmount,
		CurrentAmount: r.CurrentAmount,
		Automated:     r.Automated,
	}
	if r.Status != nil {
		status := model.GoalStatus(*r.Status)
		p.Status = &status
	}
	for _, d := range []struct {
		field string
		in    *string
		out   **time.Time
	}{
		{"startDate", r.StartDate, &p.StartDate},
		{"targetDate", r.TargetDate, &p.TargetDate},
	} {
		if d.in == nil {
			continue
		}
		t, err := ParseDate(d.field, *d.in)
		if err != nil {
			return service.GoalPatch{}, err
		}
		*d.out = &t
	}
	return p, nil
}

// GoalResponse is a goal plus its derived progress.
type GoalResponse struct {
	ID            int64            `json:"id"`
	UserID        int64            `json:"userId"`
	Name          string           `json:"name"`
	Description   string           `json:"description,omitempty"`
	Category      string           `json:"category"`
	TargetAmount  decimal.Decimal  `json:"targetAmount"`
	CurrentAmount decimal.Decimal  `json:"currentAmount"`
	Progress      int              `json:"progress"`
	StartDate     time.Time        `json:"startDate"`
	TargetDate    time.Time        `json:"targetDate"`
	Status        model.GoalStatus `json:"status"`
	Automated     bool             `json:"automated"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// ToGoalResponse converts a Goal model to a GoalResponse DTO.
func ToGoalResponse(g *model.Goal) *GoalResponse {
	return &GoalResponse{
		ID:            g.ID,
		UserID:        g.UserID,
		Name:          g.Name,
		Description:   g.Description,
		Category:      g.Category,
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
		Progress:      g.Progress(),
		StartDate:     g.StartDate,
		TargetDate:    g.TargetDate,
		Status:        g.Status,
		Automated:     g.Automated,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}

// ToGoalResponses converts a slice of goals, never returning nil.
func ToGoalResponses(goals []*model.Goal) []*GoalResponse {
	out := make([]*GoalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, ToGoalResponse(g))
	}
	return out
}
