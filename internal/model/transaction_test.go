package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransaction_Signed(t *testing.T) {
	t.Parallel()

	dep := &Transaction{Amount: decimal.NewFromInt(40), Type: TransactionDeposit}
	wd := &Transaction{Amount: decimal.NewFromInt(40), Type: TransactionWithdrawal}

	if !dep.Signed().Equal(decimal.NewFromInt(40)) {
		t.Errorf("deposit Signed() = %s, want 40", dep.Signed())
	}
	if !wd.Signed().Equal(decimal.NewFromInt(-40)) {
		t.Errorf("withdrawal Signed() = %s, want -40", wd.Signed())
	}
}

func TestTransaction_Validate(t *testing.T) {
	t.Parallel()

	valid := func() *Transaction {
		return &Transaction{
			Description: "Salary",
			Amount:      decimal.NewFromInt(100),
			Type:        TransactionDeposit,
			Category:    "income",
			Account:     "checking",
			Date:        time.Now(),
		}
	}

	tests := []struct {
		name      string
		mutate    func(tx *Transaction)
		wantField string
	}{
		{"valid", func(tx *Transaction) {}, ""},
		{"zero amount", func(tx *Transaction) { tx.Amount = decimal.Zero }, "amount"},
		{"negative amount", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-1) }, "amount"},
		{"sub-cent amount", func(tx *Transaction) { tx.Amount = decimal.RequireFromString("0.001") }, "amount"},
		{"amount at ceiling", func(tx *Transaction) { tx.Amount = decimal.New(1, 12) }, "amount"},
		{"amount far beyond ceiling", func(tx *Transaction) { tx.Amount = decimal.New(1, 17) }, "amount"},
		{"largest amount", func(tx *Transaction) { tx.Amount = decimal.RequireFromString("999999999999.99") }, ""},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, "type"},
		{"missing description", func(tx *Transaction) { tx.Description = "" }, "description"},
		{"missing category", func(tx *Transaction) { tx.Category = "" }, "category"},
		{"missing account", func(tx *Transaction) { tx.Account = " " }, "account"},
		{"missing date", func(tx *Transaction) { tx.Date = time.Time{} }, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tx := valid()
			tt.mutate(tx)

			err := tx.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tt.wantField {
				t.Fatalf("Validate() error = %v, want field %q", err, tt.wantField)
			}
		})
	}
}

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"1000", "USD", "$1,000.00"},
		{"0.5", "USD", "$0.50"},
		{"12.345", "USD", "$12.35"},
		{"20", "NOPE", "$20.00"},
	}

	for _, tt := range tests {
		got := FormatMoney(decimal.RequireFromString(tt.amount), tt.currency)
		if got != tt.want {
			t.Errorf("FormatMoney(%s, %s) = %q, want %q", tt.amount, tt.currency, got, tt.want)
		}
	}
}

func TestSession_IsExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := &Session{ExpiresAt: now.Add(time.Minute)}
	if s.IsExpired(now) {
		t.Error("session should not be expired yet")
	}
	if !s.IsExpired(now.Add(time.Minute)) {
		t.Error("session should be expired at ExpiresAt")
	}
}
