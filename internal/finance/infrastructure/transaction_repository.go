package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FinanceTracker/internal/finance/errors"
	"github.com/shopspring/decimal"
)

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `id, user_id, account_id, type, amount, date, category, description,
	is_recurring, recurring_interval, next_recurring_date, last_processed, created_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (domain.Transaction, error) {
	var (
		t             domain.Transaction
		interval      sql.NullString
		nextRecurring sql.NullTime
		lastProcessed sql.NullTime
	)
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &t.Type, &t.Amount, &t.Date, &t.Category, &t.Description,
		&t.IsRecurring, &interval, &nextRecurring, &lastProcessed, &t.CreatedAt)
	if err != nil {
		return t, err
	}
	if interval.Valid {
		t.RecurringInterval = domain.RecurringInterval(interval.String)
	}
	if nextRecurring.Valid {
		next := nextRecurring.Time
		t.NextRecurringDate = &next
	}
	if lastProcessed.Valid {
		processed := lastProcessed.Time
		t.LastProcessed = &processed
	}
	return t, nil
}

func (r *transactionRepository) queryMany(ctx context.Context, op, query string, args ...interface{}) ([]domain.Transaction, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, financeErrors.NewStorageError(op, err)
	}
	defer rows.Close()

	transactions := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, financeErrors.NewStorageError(op, err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, financeErrors.NewStorageError(op, err)
	}
	return transactions, nil
}

func nullableInterval(t *domain.Transaction) sql.NullString {
	if t.RecurringInterval == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(t.RecurringInterval), Valid: true}
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (r *transactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, account_id, type, amount, date, category, description,
			is_recurring, recurring_interval, next_recurring_date, last_processed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING created_at`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		t.ID, t.UserID, t.AccountID, t.Type, t.Amount, t.Date, t.Category, t.Description,
		t.IsRecurring, nullableInterval(t), nullableTime(t.NextRecurringDate), nullableTime(t.LastProcessed),
	).Scan(&t.CreatedAt)
	if err != nil {
		return financeErrors.NewStorageError("insert transaction", err)
	}
	return nil
}

func (r *transactionRepository) FindByIDForUpdate(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	if !isUUID(transactionID) {
		return nil, financeErrors.ErrTransactionNotFound
	}
	row := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, transactionID)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, financeErrors.ErrTransactionNotFound
		}
		return nil, financeErrors.NewStorageError("find transaction", err)
	}
	return &t, nil
}

func (r *transactionRepository) FindByIDsForUpdate(ctx context.Context, userID string, ids []string) ([]domain.Transaction, error) {
	return r.queryMany(ctx, "find transactions",
		`SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = $1 AND id = ANY($2::text[]::uuid[])
		ORDER BY id
		FOR UPDATE`, userID, uuidsOnly(ids))
}

func (r *transactionRepository) DeleteByIDs(ctx context.Context, userID string, ids []string) (int64, error) {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM transactions WHERE user_id = $1 AND id = ANY($2::text[]::uuid[])`, userID, uuidsOnly(ids))
	if err != nil {
		return 0, financeErrors.NewStorageError("delete transactions", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, financeErrors.NewStorageError("delete transactions", err)
	}
	return affected, nil
}

func (r *transactionRepository) ListByAccount(ctx context.Context, userID, accountID string) ([]domain.Transaction, error) {
	return r.queryMany(ctx, "list account transactions",
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1 AND account_id = $2 ORDER BY date DESC`,
		userID, accountID)
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return r.queryMany(ctx, "list transactions",
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1 ORDER BY date DESC`, userID)
}

func (r *transactionRepository) ListInRange(ctx context.Context, userID string, from, to time.Time) ([]domain.Transaction, error) {
	return r.queryMany(ctx, "list transactions in range",
		`SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = $1 AND date >= $2 AND date < $3
		ORDER BY date DESC`, userID, from, to)
}

func (r *transactionRepository) SumExpenses(ctx context.Context, userID, accountID string, from, to time.Time) (decimal.Decimal, error) {
	if !isUUID(accountID) {
		return decimal.Zero, nil
	}
	var total decimal.Decimal
	err := conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1 AND account_id = $2 AND type = 'EXPENSE' AND date >= $3 AND date < $4`,
		userID, accountID, from, to,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, financeErrors.NewStorageError("sum expenses", err)
	}
	return total, nil
}

func (r *transactionRepository) FindDueRecurring(ctx context.Context, now time.Time) ([]domain.Transaction, error) {
	return r.queryMany(ctx, "find due recurring transactions",
		`SELECT `+transactionColumns+` FROM transactions
		WHERE is_recurring AND next_recurring_date IS NOT NULL AND next_recurring_date <= $1
		ORDER BY next_recurring_date`, now)
}

func (r *transactionRepository) UpdateRecurrence(ctx context.Context, transactionID string, next, processedAt time.Time) error {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE transactions SET next_recurring_date = $1, last_processed = $2, updated_at = NOW() WHERE id = $3`,
		next, processedAt, transactionID)
	if err != nil {
		return financeErrors.NewStorageError("update recurrence", err)
	}
	return expectOneRow(result, "update recurrence", financeErrors.ErrTransactionNotFound)
}

func uuidsOnly(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if parsed, err := uuid.Parse(id); err == nil {
			out = append(out, parsed.String())
		}
	}
	return out
}
