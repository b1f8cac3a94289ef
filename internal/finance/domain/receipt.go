package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptDraft is the pre-filled transaction produced from a receipt image.
// It is never persisted directly.
type ReceiptDraft struct {
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description"`
	MerchantName string          `json:"merchant_name"`
	Category     string          `json:"category"`
}

// MonthlyStats aggregates one user's activity over a calendar month.
type MonthlyStats struct {
	Month            time.Time                  `json:"month"`
	TotalIncome      decimal.Decimal            `json:"total_income"`
	TotalExpenses    decimal.Decimal            `json:"total_expenses"`
	ByCategory       map[string]decimal.Decimal `json:"by_category"`
	TransactionCount int                        `json:"transaction_count"`
}

func (s *MonthlyStats) Net() decimal.Decimal {
	return s.TotalIncome.Sub(s.TotalExpenses)
}

// BuildMonthlyStats folds transactions into per-month totals.
func BuildMonthlyStats(month time.Time, transactions []Transaction) *MonthlyStats {
	stats := &MonthlyStats{
		Month:         month,
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		ByCategory:    map[string]decimal.Decimal{},
	}
	for _, t := range transactions {
		stats.TransactionCount++
		if t.Type == TransactionTypeIncome {
			stats.TotalIncome = stats.TotalIncome.Add(t.Amount)
			continue
		}
		stats.TotalExpenses = stats.TotalExpenses.Add(t.Amount)
		stats.ByCategory[t.Category] = stats.ByCategory[t.Category].Add(t.Amount)
	}
	return stats
}
