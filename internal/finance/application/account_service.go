package application

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
)

type CreateAccountInput struct {
	Name      string             `json:"name"`
	Type      domain.AccountType `json:"type"`
	Balance   string             `json:"balance"`
	IsDefault bool               `json:"is_default"`
}

type AccountDetails struct {
	domain.Account
	Transactions     []domain.Transaction `json:"transactions"`
	TransactionCount int                  `json:"transaction_count"`
}

type AccountService interface {
	CreateAccount(ctx context.Context, userID string, input CreateAccountInput) (*domain.Account, error)
	ListAccounts(ctx context.Context, userID string) ([]domain.AccountSummary, error)
	GetAccountWithTransactions(ctx context.Context, userID, accountID string) (*AccountDetails, error)
	SetDefaultAccount(ctx context.Context, userID, accountID string) (*domain.Account, error)
}

type accountService struct {
	txm          domain.TxManager
	accounts     domain.AccountRepository
	transactions domain.TransactionRepository
	invalidator  CacheInvalidator
}

func NewAccountService(txm domain.TxManager, accounts domain.AccountRepository, transactions domain.TransactionRepository, invalidator CacheInvalidator) AccountService {
	return &accountService{
		txm:          txm,
		accounts:     accounts,
		transactions: transactions,
		invalidator:  invalidator,
	}
}

// CreateAccount stores a new account. The user's first account is always the
// default one; a later account asking to be default takes the flag over.
func (s *accountService) CreateAccount(ctx context.Context, userID string, input CreateAccountInput) (*domain.Account, error) {
	balance, err := domain.ParseBalance(input.Balance)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		ID:      uuid.NewString(),
		UserID:  userID,
		Name:    strings.TrimSpace(input.Name),
		Type:    domain.AccountType(strings.ToUpper(string(input.Type))),
		Balance: balance,
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}

	err = s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.accounts.LockOwner(ctx, userID); err != nil {
			return err
		}
		count, err := s.accounts.CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		account.IsDefault = count == 0 || input.IsDefault
		if account.IsDefault {
			if err := s.accounts.ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		return s.accounts.Create(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID).Str("account_id", account.ID).Bool("default", account.IsDefault).Msg("account created")
	s.invalidator.Invalidate(ctx, dashboardPath())
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, userID string) ([]domain.AccountSummary, error) {
	return s.accounts.ListByUser(ctx, userID)
}

func (s *accountService) GetAccountWithTransactions(ctx context.Context, userID, accountID string) (*AccountDetails, error) {
	account, err := s.accounts.FindByID(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	transactions, err := s.transactions.ListByAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	return &AccountDetails{
		Account:          *account,
		Transactions:     transactions,
		TransactionCount: len(transactions),
	}, nil
}

// SetDefaultAccount clears the flag on every other account of the user and
// sets it on accountID in one unit.
func (s *accountService) SetDefaultAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	var account *domain.Account
	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.accounts.LockOwner(ctx, userID); err != nil {
			return err
		}
		found, err := s.accounts.FindByIDForUpdate(ctx, userID, accountID)
		if err != nil {
			return err
		}
		if err := s.accounts.ClearDefault(ctx, userID); err != nil {
			return err
		}
		if err := s.accounts.MarkDefault(ctx, userID, accountID); err != nil {
			return err
		}
		found.IsDefault = true
		account = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidator.Invalidate(ctx, dashboardPath(), accountPath(accountID))
	return account, nil
}
