package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a monetary movement.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

// IsValid checks if the transaction type is valid.
func (t TransactionType) IsValid() bool {
	return t == TransactionDeposit || t == TransactionWithdrawal
}

// Transaction is an immutable monetary movement, optionally tied to a goal.
type Transaction struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"userId"`
	GoalID      *int64          `json:"goalId"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Account     string          `json:"account"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Signed returns the amount with the sign of its direction.
func (t *Transaction) Signed() decimal.Decimal {
	if t.Type == TransactionWithdrawal {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Validate checks required fields and the amount/type constraints.
func (t *Transaction) Validate() error {
	if err := ValidateAmount("amount", t.Amount); err != nil {
		return err
	}
	switch {
	case !t.Type.IsValid():
		return NewValidationError("type", "must be deposit or withdrawal")
	case strings.TrimSpace(t.Description) == "":
		return NewValidationError("description", "is required")
	case strings.TrimSpace(t.Category) == "":
		return NewValidationError("category", "is required")
	case strings.TrimSpace(t.Account) == "":
		return NewValidationError("account", "is required")
	case t.Date.IsZero():
		return NewValidationError("date", "is required")
	}
	return nil
}
