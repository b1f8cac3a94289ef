package domain

import (
	"context"
	"time"

	"github.com/sebuszqo/FinanceTracker/internal/finance/errors"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

const maxDescriptionLength = 200

type Transaction struct {
	ID                string            `json:"id"`
	UserID            string            `json:"user_id"`
	AccountID         string            `json:"account_id"`
	Type              TransactionType   `json:"type"`
	Amount            decimal.Decimal   `json:"amount"`
	Date              time.Time         `json:"date"`
	Category          string            `json:"category"`
	Description       string            `json:"description"`
	IsRecurring       bool              `json:"is_recurring"`
	RecurringInterval RecurringInterval `json:"recurring_interval,omitempty"`
	NextRecurringDate *time.Time        `json:"next_recurring_date,omitempty"`
	LastProcessed     *time.Time        `json:"last_processed,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

func (t *Transaction) Validate() error {
	if t.AccountID == "" {
		return errors.ErrMissingAccount
	}
	if !t.Type.IsValid() {
		return errors.ErrInvalidTransactionType
	}
	if t.Amount.IsNegative() {
		return errors.ErrInvalidAmount
	}
	if len(t.Description) > maxDescriptionLength {
		return errors.ErrDescriptionTooLong
	}
	if t.IsRecurring && !t.RecurringInterval.IsValid() {
		return errors.ErrInvalidRecurringInterval
	}
	return nil
}

// SignedAmount is the effect of the transaction on its account balance.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeIncome {
		return t.Amount
	}
	return t.Amount.Neg()
}

// IsDue reports whether a recurring transaction should be materialised at now.
func (t *Transaction) IsDue(now time.Time) bool {
	return t.IsRecurring && t.NextRecurringDate != nil && !t.NextRecurringDate.After(now)
}

// TransactionRepository persists transactions. Like AccountRepository it joins
// the unit of work carried by ctx.
type TransactionRepository interface {
	Create(ctx context.Context, transaction *Transaction) error
	FindByIDForUpdate(ctx context.Context, transactionID string) (*Transaction, error)
	// FindByIDsForUpdate returns only the rows owned by userID.
	FindByIDsForUpdate(ctx context.Context, userID string, ids []string) ([]Transaction, error)
	DeleteByIDs(ctx context.Context, userID string, ids []string) (int64, error)
	ListByAccount(ctx context.Context, userID, accountID string) ([]Transaction, error)
	ListByUser(ctx context.Context, userID string) ([]Transaction, error)
	ListInRange(ctx context.Context, userID string, from, to time.Time) ([]Transaction, error)
	// SumExpenses totals EXPENSE amounts for the account with from <= date < to.
	SumExpenses(ctx context.Context, userID, accountID string, from, to time.Time) (decimal.Decimal, error)
	FindDueRecurring(ctx context.Context, now time.Time) ([]Transaction, error)
	UpdateRecurrence(ctx context.Context, transactionID string, next, processedAt time.Time) error
}

// TxManager runs fn as one all-or-nothing unit. Repositories called with the
// ctx passed to fn take part in the unit.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
