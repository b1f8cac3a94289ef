package interfaces

import (
	"context"

	"github.com/sebuszqo/FinanceTracker/internal/finance/application"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
)

type MockAccountService struct {
	createErr   error
	created     *application.CreateAccountInput
	accounts    []domain.AccountSummary
	details     *application.AccountDetails
	findErr     error
	defaultedID string
}

func (m *MockAccountService) CreateAccount(_ context.Context, userID string, input application.CreateAccountInput) (*domain.Account, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = &input
	return &domain.Account{ID: "acc-1", UserID: userID, Name: input.Name, Type: input.Type, IsDefault: true}, nil
}

func (m *MockAccountService) ListAccounts(context.Context, string) ([]domain.AccountSummary, error) {
	return m.accounts, nil
}

func (m *MockAccountService) GetAccountWithTransactions(_ context.Context, _, accountID string) (*application.AccountDetails, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.details.ID = accountID
	return m.details, nil
}

func (m *MockAccountService) SetDefaultAccount(_ context.Context, userID, accountID string) (*domain.Account, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.defaultedID = accountID
	return &domain.Account{ID: accountID, UserID: userID, IsDefault: true}, nil
}

type MockTransactionService struct {
	createErr    error
	created      *application.CreateTransactionInput
	transactions []domain.Transaction
	bulkResult   application.BulkDeleteResult
	bulkIDs      []string
	draft        *domain.ReceiptDraft
	scanErr      error
	scannedMime  string
	scannedBytes int
}

func (m *MockTransactionService) CreateTransaction(_ context.Context, userID string, input application.CreateTransactionInput) (*domain.Transaction, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = &input
	return &domain.Transaction{ID: "tx-1", UserID: userID, AccountID: input.AccountID, Type: input.Type}, nil
}

func (m *MockTransactionService) BulkDeleteTransactions(_ context.Context, _ string, ids []string) application.BulkDeleteResult {
	m.bulkIDs = ids
	return m.bulkResult
}

func (m *MockTransactionService) ListTransactions(context.Context, string) ([]domain.Transaction, error) {
	return m.transactions, nil
}

func (m *MockTransactionService) ScanReceipt(_ context.Context, _ string, image []byte, mimeType string) (*domain.ReceiptDraft, error) {
	m.scannedMime = mimeType
	m.scannedBytes = len(image)
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	return m.draft, nil
}

type MockBudgetService struct {
	status        *domain.BudgetStatus
	getErr        error
	seenAccountID string
	updateErr     error
	updatedAmount string
}

func (m *MockBudgetService) GetCurrentBudget(_ context.Context, _, accountID string) (*domain.BudgetStatus, error) {
	m.seenAccountID = accountID
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.status, nil
}

func (m *MockBudgetService) UpdateBudget(_ context.Context, userID, amount string) (*domain.Budget, error) {
	m.updatedAmount = amount
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &domain.Budget{ID: "budget-1", UserID: userID}, nil
}
