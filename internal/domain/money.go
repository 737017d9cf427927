package domain

import "github.com/shopspring/decimal"

// MoneyScale is the number of fractional digits a stored amount keeps.
// Balances and amounts are persisted as NUMERIC(20,4).
const MoneyScale = 4

// moneyLimit is the smallest magnitude that no longer fits 16 integer digits
var moneyLimit = decimal.New(1, 20-MoneyScale)

// IsRepresentable reports whether amount can be stored without rounding or overflow
func IsRepresentable(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(MoneyScale)) && amount.Abs().LessThan(moneyLimit)
}
