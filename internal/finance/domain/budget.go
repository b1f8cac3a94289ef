package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Budget struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	LastAlertSent *time.Time      `json:"last_alert_sent,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AlertSentIn reports whether an alert was already sent in t's calendar month.
func (b *Budget) AlertSentIn(t time.Time) bool {
	if b.LastAlertSent == nil {
		return false
	}
	sent := b.LastAlertSent.In(t.Location())
	return sent.Year() == t.Year() && sent.Month() == t.Month()
}

type BudgetStatus struct {
	Budget          *Budget         `json:"budget"`
	CurrentExpenses decimal.Decimal `json:"current_expenses"`
}

type BudgetRepository interface {
	FindByUser(ctx context.Context, userID string) (*Budget, error)
	Upsert(ctx context.Context, budget *Budget) error
	ListAll(ctx context.Context) ([]Budget, error)
	MarkAlertSent(ctx context.Context, budgetID string, at time.Time) error
}
