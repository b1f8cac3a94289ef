package domain

import (
	"context"
	"time"

	"github.com/sebuszqo/FinanceTracker/internal/finance/errors"
	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeCurrent AccountType = "CURRENT"
	AccountTypeSavings AccountType = "SAVINGS"
)

func (t AccountType) IsValid() bool {
	return t == AccountTypeCurrent || t == AccountTypeSavings
}

type Account struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	IsDefault bool            `json:"is_default"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (a *Account) Validate() error {
	if a.Name == "" {
		return errors.ErrMissingAccountName
	}
	if !a.Type.IsValid() {
		return errors.ErrInvalidAccountType
	}
	return nil
}

// AccountSummary is an account together with the number of transactions booked on it.
type AccountSummary struct {
	Account
	TransactionCount int `json:"transaction_count"`
}

// AccountRepository persists accounts. Every method participates in the
// transaction carried by ctx when called inside TxManager.WithinTx.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	FindByID(ctx context.Context, userID, accountID string) (*Account, error)
	// FindByIDForUpdate locks the account row until the surrounding unit ends.
	FindByIDForUpdate(ctx context.Context, userID, accountID string) (*Account, error)
	FindDefault(ctx context.Context, userID string) (*Account, error)
	ListByUser(ctx context.Context, userID string) ([]AccountSummary, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	// LockOwner serialises default-flag changes for one user.
	LockOwner(ctx context.Context, userID string) error
	ClearDefault(ctx context.Context, userID string) error
	MarkDefault(ctx context.Context, userID, accountID string) error
	// AdjustBalance adds delta to the stored balance in place.
	AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) error
}
