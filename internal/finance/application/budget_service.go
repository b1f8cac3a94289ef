package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FinanceTracker/internal/finance/errors"
	"github.com/shopspring/decimal"
)

type BudgetService interface {
	GetCurrentBudget(ctx context.Context, userID, accountID string) (*domain.BudgetStatus, error)
	UpdateBudget(ctx context.Context, userID, amount string) (*domain.Budget, error)
}

type budgetService struct {
	budgets      domain.BudgetRepository
	accounts     domain.AccountRepository
	transactions domain.TransactionRepository
	invalidator  CacheInvalidator
	now          func() time.Time
}

func NewBudgetService(budgets domain.BudgetRepository, accounts domain.AccountRepository, transactions domain.TransactionRepository, invalidator CacheInvalidator) BudgetService {
	return &budgetService{
		budgets:      budgets,
		accounts:     accounts,
		transactions: transactions,
		invalidator:  invalidator,
		now:          time.Now,
	}
}

// GetCurrentBudget returns the user's budget (nil when none is set) and the
// EXPENSE total of the account for the current calendar month. Without an
// account ID the user's default account is used.
func (s *budgetService) GetCurrentBudget(ctx context.Context, userID, accountID string) (*domain.BudgetStatus, error) {
	budget, err := s.budgets.FindByUser(ctx, userID)
	if err != nil && !errors.Is(err, financeErrors.ErrBudgetNotFound) {
		return nil, err
	}

	status := &domain.BudgetStatus{Budget: budget, CurrentExpenses: decimal.Zero}

	if accountID == "" {
		account, err := s.accounts.FindDefault(ctx, userID)
		if err != nil {
			if errors.Is(err, financeErrors.ErrAccountNotFound) {
				return status, nil
			}
			return nil, err
		}
		accountID = account.ID
	}

	start, end := domain.MonthBounds(s.now())
	expenses, err := s.transactions.SumExpenses(ctx, userID, accountID, start, end)
	if err != nil {
		return nil, err
	}
	status.CurrentExpenses = expenses
	return status, nil
}

func (s *budgetService) UpdateBudget(ctx context.Context, userID, amount string) (*domain.Budget, error) {
	parsed, err := domain.ParseAmount(amount)
	if err != nil {
		return nil, err
	}

	budget := &domain.Budget{
		ID:     uuid.NewString(),
		UserID: userID,
		Amount: parsed,
	}
	if err := s.budgets.Upsert(ctx, budget); err != nil {
		return nil, err
	}

	s.invalidator.Invalidate(ctx, dashboardPath())
	return budget, nil
}
