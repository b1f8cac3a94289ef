package application

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FinanceTracker/internal/finance/errors"
	"github.com/shopspring/decimal"
)

type CreateTransactionInput struct {
	AccountID         string                   `json:"account_id"`
	Type              domain.TransactionType   `json:"type"`
	Amount            string                   `json:"amount"`
	Date              time.Time                `json:"date"`
	Category          string                   `json:"category"`
	Description       string                   `json:"description"`
	IsRecurring       bool                     `json:"is_recurring"`
	RecurringInterval domain.RecurringInterval `json:"recurring_interval"`
}

// BulkDeleteResult reports the outcome of a bulk delete. IDs that do not
// exist or belong to another user are listed in Excluded.
type BulkDeleteResult struct {
	Success  bool     `json:"success"`
	Deleted  int      `json:"deleted"`
	Excluded []string `json:"excluded"`
	Error    string   `json:"error,omitempty"`
	Err      error    `json:"-"`
}

type TransactionService interface {
	CreateTransaction(ctx context.Context, userID string, input CreateTransactionInput) (*domain.Transaction, error)
	BulkDeleteTransactions(ctx context.Context, userID string, ids []string) BulkDeleteResult
	ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error)
	ScanReceipt(ctx context.Context, userID string, image []byte, mimeType string) (*domain.ReceiptDraft, error)
}

type transactionService struct {
	txm          domain.TxManager
	accounts     domain.AccountRepository
	transactions domain.TransactionRepository
	gate         RequestGate
	interpreter  ReceiptInterpreter
	invalidator  CacheInvalidator
	now          func() time.Time
}

func NewTransactionService(
	txm domain.TxManager,
	accounts domain.AccountRepository,
	transactions domain.TransactionRepository,
	gate RequestGate,
	interpreter ReceiptInterpreter,
	invalidator CacheInvalidator,
) TransactionService {
	return &transactionService{
		txm:          txm,
		accounts:     accounts,
		transactions: transactions,
		gate:         gate,
		interpreter:  interpreter,
		invalidator:  invalidator,
		now:          time.Now,
	}
}

func (s *transactionService) buildTransaction(userID string, input CreateTransactionInput) (*domain.Transaction, error) {
	amount, err := domain.ParseAmount(input.Amount)
	if err != nil {
		return nil, err
	}

	transactionType := domain.TransactionType(strings.ToUpper(string(input.Type)))
	date := input.Date
	if date.IsZero() {
		date = s.now()
	}

	transaction := &domain.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		AccountID:   input.AccountID,
		Type:        transactionType,
		Amount:      amount,
		Date:        date,
		Category:    domain.NormalizeCategory(transactionType, input.Category),
		Description: strings.TrimSpace(input.Description),
		IsRecurring: input.IsRecurring,
	}
	if input.IsRecurring {
		transaction.RecurringInterval = domain.RecurringInterval(strings.ToUpper(string(input.RecurringInterval)))
	}
	if err := transaction.Validate(); err != nil {
		return nil, err
	}
	if transaction.IsRecurring {
		next := domain.NextOccurrence(date, transaction.RecurringInterval)
		transaction.NextRecurringDate = &next
	}
	return transaction, nil
}

// CreateTransaction records a transaction and applies its signed amount to
// the account balance in the same unit.
func (s *transactionService) CreateTransaction(ctx context.Context, userID string, input CreateTransactionInput) (*domain.Transaction, error) {
	if err := s.gate.Allow(ctx, userID, 1); err != nil {
		var rateLimited *financeErrors.RateLimitedError
		if errors.As(err, &rateLimited) {
			log.Warn().Str("code", "RATE_LIMIT_EXCEEDED").Str("user_id", userID).
				Int("remaining", rateLimited.Remaining).Dur("reset", rateLimited.Reset).Msg("transaction rejected")
		}
		return nil, err
	}

	transaction, err := s.buildTransaction(userID, input)
	if err != nil {
		return nil, err
	}

	err = s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.accounts.FindByIDForUpdate(ctx, userID, transaction.AccountID); err != nil {
			return err
		}
		if err := s.transactions.Create(ctx, transaction); err != nil {
			return err
		}
		return s.accounts.AdjustBalance(ctx, transaction.AccountID, transaction.SignedAmount())
	})
	if err != nil {
		return nil, err
	}

	s.invalidator.Invalidate(ctx, dashboardPath(), accountPath(transaction.AccountID))
	return transaction, nil
}

// BulkDeleteTransactions removes the caller's transactions among ids and
// reverses their effect on every affected account in one unit.
func (s *transactionService) BulkDeleteTransactions(ctx context.Context, userID string, ids []string) BulkDeleteResult {
	ids, requested := uniqueIDs(ids)
	if len(ids) == 0 {
		return BulkDeleteResult{Excluded: []string{}, Error: financeErrors.ErrNoTransactionIDs.Error(), Err: financeErrors.ErrNoTransactionIDs}
	}

	var (
		deleted  int
		excluded []string
		touched  []string
	)
	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		owned, err := s.transactions.FindByIDsForUpdate(ctx, userID, ids)
		if err != nil {
			return err
		}

		ownedIDs := make([]string, 0, len(owned))
		found := make(map[string]bool, len(owned))
		deltas := map[string]decimal.Decimal{}
		for _, t := range owned {
			ownedIDs = append(ownedIDs, t.ID)
			found[t.ID] = true
			deltas[t.AccountID] = deltas[t.AccountID].Sub(t.SignedAmount())
		}
		excluded = make([]string, 0)
		for _, id := range ids {
			if !found[id] {
				excluded = append(excluded, requested[id])
			}
		}
		if len(ownedIDs) == 0 {
			return nil
		}

		n, err := s.transactions.DeleteByIDs(ctx, userID, ownedIDs)
		if err != nil {
			return err
		}
		deleted = int(n)

		touched = make([]string, 0, len(deltas))
		for accountID := range deltas {
			touched = append(touched, accountID)
		}
		sort.Strings(touched)
		for _, accountID := range touched {
			if err := s.accounts.AdjustBalance(ctx, accountID, deltas[accountID]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Int("requested", len(ids)).Msg("bulk delete failed")
		return BulkDeleteResult{Excluded: []string{}, Error: err.Error(), Err: err}
	}

	if len(excluded) > 0 {
		log.Info().Str("user_id", userID).Strs("excluded", excluded).Msg("bulk delete skipped transactions not owned by caller")
	}

	paths := []string{dashboardPath()}
	for _, accountID := range touched {
		paths = append(paths, accountPath(accountID))
	}
	s.invalidator.Invalidate(ctx, paths...)

	return BulkDeleteResult{Success: true, Deleted: deleted, Excluded: excluded}
}

func (s *transactionService) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return s.transactions.ListByUser(ctx, userID)
}

// ScanReceipt is gated like CreateTransaction; the draft is returned to the
// caller and never stored.
func (s *transactionService) ScanReceipt(ctx context.Context, userID string, image []byte, mimeType string) (*domain.ReceiptDraft, error) {
	if err := s.gate.Allow(ctx, userID, 1); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, financeErrors.NewValidationError("Receipt image is required")
	}
	draft, err := s.interpreter.Interpret(ctx, image, mimeType)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("receipt scan failed")
		return nil, err
	}
	draft.Category = domain.NormalizeCategory(domain.TransactionTypeExpense, draft.Category)
	return draft, nil
}

// uniqueIDs returns the distinct ids with UUIDs in canonical form, and the
// first form the caller used for each of them.
func uniqueIDs(ids []string) ([]string, map[string]string) {
	requested := make(map[string]string, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id := raw
		if parsed, err := uuid.Parse(raw); err == nil {
			id = parsed.String()
		}
		if _, ok := requested[id]; ok {
			continue
		}
		requested[id] = raw
		out = append(out, id)
	}
	return out, requested
}
