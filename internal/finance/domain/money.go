package domain

import (
	"strings"

	"github.com/sebuszqo/FinanceTracker/internal/finance/errors"
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits stored for every amount.
const MoneyScale = 2

// maxMoney is the first magnitude a NUMERIC(18,2) column cannot hold.
var maxMoney = decimal.New(1, 18-MoneyScale)

// ParseAmount parses a transaction or budget amount. Amounts are never negative;
// the sign of a movement comes from its TransactionType.
func ParseAmount(raw string) (decimal.Decimal, error) {
	amount, err := ParseBalance(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if amount.IsNegative() {
		return decimal.Zero, errors.ErrInvalidAmount
	}
	return amount, nil
}

// ParseBalance parses an opening balance, which may be negative.
func ParseBalance(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, errors.ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.ErrInvalidAmount
	}
	amount = RoundMoney(amount)
	if amount.Abs().GreaterThanOrEqual(maxMoney) {
		return decimal.Zero, errors.ErrInvalidAmount
	}
	return amount, nil
}

func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}
