package application

import (
	"context"

	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	"github.com/shopspring/decimal"
)

// RequestGate admits or rejects a caller before a rate-limited operation.
// It returns nil, a *errors.RateLimitedError or errors.ErrDenied.
type RequestGate interface {
	Allow(ctx context.Context, userID string, units int) error
}

// ReceiptInterpreter turns a receipt image into a transaction draft.
type ReceiptInterpreter interface {
	Interpret(ctx context.Context, image []byte, mimeType string) (*domain.ReceiptDraft, error)
}

// CacheInvalidator is told which views went stale after a mutation. It must
// not block and has no way to fail the caller.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, paths ...string)
}

type Recipient struct {
	UserID string
	Email  string
	Name   string
}

// UserDirectory resolves who to notify for scheduled jobs.
type UserDirectory interface {
	Recipient(ctx context.Context, userID string) (*Recipient, error)
	Recipients(ctx context.Context) ([]Recipient, error)
}

type BudgetAlert struct {
	AccountName    string
	BudgetAmount   decimal.Decimal
	TotalExpenses  decimal.Decimal
	PercentageUsed decimal.Decimal
}

type MonthlyReport struct {
	Stats    *domain.MonthlyStats
	Insights []string
}

type Notifier interface {
	SendBudgetAlert(ctx context.Context, to Recipient, alert BudgetAlert) error
	SendMonthlyReport(ctx context.Context, to Recipient, report MonthlyReport) error
}

// InsightWriter produces short advice for a monthly report.
type InsightWriter interface {
	MonthlyInsights(ctx context.Context, stats *domain.MonthlyStats) ([]string, error)
}

func dashboardPath() string {
	return "/dashboard"
}

func accountPath(accountID string) string {
	return "/account/" + accountID
}
