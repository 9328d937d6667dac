package utils

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatCurrency renders amount with its currency symbol, keeping the sign in front ("-$160.00").
// Unknown currency codes fall back to a plain two-decimal rendering with the code appended.
func FormatCurrency(amount float64, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return fmt.Sprintf("%.2f %s", amount, currency)
	}
	factor := decimal.New(1, int32(cur.Fraction))
	minor := decimal.NewFromFloat(amount).Mul(factor).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

// FormatPercent renders a percentage with two decimals ("12.34%").
func FormatPercent(value float64) string {
	return fmt.Sprintf("%.2f%%", value)
}
