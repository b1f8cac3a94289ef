package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
)

const recurringSuffix = " (Recurring)"

type RecurringRunResult struct {
	Due       int `json:"due"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// RecurringProcessor materialises due occurrences of recurring transactions.
type RecurringProcessor struct {
	txm          domain.TxManager
	accounts     domain.AccountRepository
	transactions domain.TransactionRepository
	invalidator  CacheInvalidator
}

func NewRecurringProcessor(txm domain.TxManager, accounts domain.AccountRepository, transactions domain.TransactionRepository, invalidator CacheInvalidator) *RecurringProcessor {
	return &RecurringProcessor{
		txm:          txm,
		accounts:     accounts,
		transactions: transactions,
		invalidator:  invalidator,
	}
}

// ProcessDue materialises one occurrence for every source whose next date is
// at or before now. Failures are logged per source and do not stop the run.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (RecurringRunResult, error) {
	due, err := p.transactions.FindDueRecurring(ctx, now)
	if err != nil {
		return RecurringRunResult{}, err
	}

	result := RecurringRunResult{Due: len(due)}
	for _, source := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		created, err := p.materialize(ctx, source.ID, now)
		switch {
		case err != nil:
			result.Failed++
			log.Error().Err(err).Str("transaction_id", source.ID).Msg("failed to process recurring transaction")
		case created == nil:
			result.Skipped++
		default:
			result.Processed++
			p.invalidator.Invalidate(ctx, dashboardPath(), accountPath(created.AccountID))
		}
	}

	log.Info().Int("due", result.Due).Int("processed", result.Processed).
		Int("skipped", result.Skipped).Int("failed", result.Failed).Msg("recurring transactions run finished")
	return result, nil
}

// materialize re-reads the source under lock so that a concurrent or repeated
// run that already advanced it becomes a no-op. It returns nil when nothing
// was created.
func (p *RecurringProcessor) materialize(ctx context.Context, sourceID string, now time.Time) (*domain.Transaction, error) {
	var created *domain.Transaction
	err := p.txm.WithinTx(ctx, func(ctx context.Context) error {
		source, err := p.transactions.FindByIDForUpdate(ctx, sourceID)
		if err != nil {
			return err
		}
		if !source.IsDue(now) {
			return nil
		}

		dueDate := *source.NextRecurringDate
		next := domain.NextOccurrence(dueDate, source.RecurringInterval)
		if !next.After(dueDate) {
			log.Warn().Str("transaction_id", source.ID).Str("interval", string(source.RecurringInterval)).
				Msg("recurring transaction has an unknown interval, skipping")
			return nil
		}

		occurrence := &domain.Transaction{
			ID:          uuid.NewString(),
			UserID:      source.UserID,
			AccountID:   source.AccountID,
			Type:        source.Type,
			Amount:      source.Amount,
			Date:        dueDate,
			Category:    source.Category,
			Description: source.Description + recurringSuffix,
		}
		if err := p.transactions.Create(ctx, occurrence); err != nil {
			return err
		}
		if err := p.accounts.AdjustBalance(ctx, occurrence.AccountID, occurrence.SignedAmount()); err != nil {
			return err
		}
		if err := p.transactions.UpdateRecurrence(ctx, source.ID, next, now); err != nil {
			return err
		}
		created = occurrence
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
