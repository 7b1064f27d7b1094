package dto

import (
	"github.com/shopspring/decimal"

	"github.com/goalfund/goalfund/internal/ledger"
	"github.com/goalfund/goalfund/internal/model"
)

// CreateTransactionRequest is the body of POST /api/transactions.
type CreateTransactionRequest struct {
	GoalID      *int64          `json:"goalId,omitempty"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Account     string          `json:"account"`
	Date        string          `json:"date"`
}

// ToInput converts the request into a ledger.TransactionInput.
func (r *CreateTransactionRequest) ToInput() (ledger.TransactionInput, error) {
	date, err := ParseDate("date", r.Date)
	if err != nil {
		return ledger.TransactionInput{}, err
	}
	return ledger.TransactionInput{
		GoalID:      r.GoalID,
		Description: r.Description,
		Amount:      r.Amount,
		Type:        model.TransactionType(r.Type),
		Category:    r.Category,
		Account:     r.Account,
		Date:        date,
	}, nil
}

// TipResponse is a financial tip with a display position.
type TipResponse struct {
	ID int `json:"id"`
	model.FinancialTip
}

// TipsResponse is the body of GET /api/financial-tips.
type TipsResponse struct {
	Tips []TipResponse `json:"tips"`
}

// ToTipsResponse numbers tips from 1.
func ToTipsResponse(tips []model.FinancialTip) *TipsResponse {
	out := make([]TipResponse, 0, len(tips))
	for i, t := range tips {
		out = append(out, TipResponse{ID: i + 1, FinancialTip: t})
	}
	return &TipsResponse{Tips: out}
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Transactions returns s ready for encoding.
func Transactions(s []*model.Transaction) []*model.Transaction { return nonNil(s) }

// Notifications returns s ready for encoding.
func Notifications(s []*model.Notification) []*model.Notification { return nonNil(s) }

// Insights returns s ready for encoding.
func Insights(s []*model.Insight) []*model.Insight { return nonNil(s) }
