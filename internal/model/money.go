package model

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no display currency is configured.
const DefaultCurrency = "USD"

// AmountScale is the number of fractional digits an amount may carry.
const AmountScale = 2

// MaxAmount is the exclusive upper bound on any stored amount or balance,
// matching the NUMERIC(14, 2) columns.
var MaxAmount = decimal.New(1, 12)

// ValidateAmount checks that amount is positive, has at most AmountScale
// fractional digits and stays below MaxAmount.
func ValidateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return NewValidationError(field, "must be greater than zero")
	}
	return validateMagnitude(field, amount)
}

// validateMagnitude applies the scale and range rules to a signed amount.
func validateMagnitude(field string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return NewValidationError(field, "must have at most 2 decimal places")
	}
	if amount.Abs().GreaterThanOrEqual(MaxAmount) {
		return NewValidationError(field, "must be less than 1000000000000")
	}
	return nil
}

func init() {
	// Amounts travel as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// FormatMoney renders amount in the given ISO currency, e.g. "$1,000.00".
// Unknown currency codes fall back to DefaultCurrency.
func FormatMoney(amount decimal.Decimal, currency string) string {
	if money.GetCurrency(currency) == nil {
		currency = DefaultCurrency
	}
	cur := money.New(0, currency).Currency()
	minor := amount.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}
