package infrastructure

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FinanceTracker/internal/finance/errors"
	"github.com/shopspring/decimal"
)

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) domain.AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, user_id, name, type, balance, is_default, created_at, updated_at`

func scanAccount(row interface{ Scan(...interface{}) error }, account *domain.Account) error {
	return row.Scan(&account.ID, &account.UserID, &account.Name, &account.Type, &account.Balance,
		&account.IsDefault, &account.CreatedAt, &account.UpdatedAt)
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, user_id, name, type, balance, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		account.ID, account.UserID, account.Name, account.Type, account.Balance, account.IsDefault,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return financeErrors.NewStorageError("insert account", err)
	}
	return nil
}

func (r *accountRepository) FindByID(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND user_id = $2`, userID, accountID)
}

func (r *accountRepository) FindByIDForUpdate(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND user_id = $2 FOR UPDATE`, userID, accountID)
}

func (r *accountRepository) findOne(ctx context.Context, query, userID, accountID string) (*domain.Account, error) {
	if !isUUID(accountID) {
		return nil, financeErrors.ErrAccountNotFound
	}
	var account domain.Account
	err := scanAccount(conn(ctx, r.db).QueryRowContext(ctx, query, accountID, userID), &account)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, financeErrors.ErrAccountNotFound
		}
		return nil, financeErrors.NewStorageError("find account", err)
	}
	return &account, nil
}

func (r *accountRepository) FindDefault(ctx context.Context, userID string) (*domain.Account, error) {
	var account domain.Account
	row := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 AND is_default`, userID)
	if err := scanAccount(row, &account); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, financeErrors.ErrAccountNotFound
		}
		return nil, financeErrors.NewStorageError("find default account", err)
	}
	return &account, nil
}

func (r *accountRepository) ListByUser(ctx context.Context, userID string) ([]domain.AccountSummary, error) {
	query := `
		SELECT a.id, a.user_id, a.name, a.type, a.balance, a.is_default, a.created_at, a.updated_at, COUNT(t.id)
		FROM accounts a
		LEFT JOIN transactions t ON t.account_id = a.id
		WHERE a.user_id = $1
		GROUP BY a.id
		ORDER BY a.created_at DESC`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, financeErrors.NewStorageError("list accounts", err)
	}
	defer rows.Close()

	accounts := []domain.AccountSummary{}
	for rows.Next() {
		var a domain.AccountSummary
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance, &a.IsDefault,
			&a.CreatedAt, &a.UpdatedAt, &a.TransactionCount); err != nil {
			return nil, financeErrors.NewStorageError("scan account", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, financeErrors.NewStorageError("list accounts", err)
	}
	return accounts, nil
}

func (r *accountRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, financeErrors.NewStorageError("count accounts", err)
	}
	return count, nil
}

func (r *accountRepository) LockOwner(ctx context.Context, userID string) error {
	var id string
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR NO KEY UPDATE`, userID).Scan(&id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return financeErrors.NewStorageError("lock account owner", err)
	}
	return nil
}

func (r *accountRepository) ClearDefault(ctx context.Context, userID string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE accounts SET is_default = FALSE, updated_at = NOW() WHERE user_id = $1 AND is_default`, userID)
	if err != nil {
		return financeErrors.NewStorageError("clear default account", err)
	}
	return nil
}

func (r *accountRepository) MarkDefault(ctx context.Context, userID, accountID string) error {
	if !isUUID(accountID) {
		return financeErrors.ErrAccountNotFound
	}
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE accounts SET is_default = TRUE, updated_at = NOW() WHERE id = $1 AND user_id = $2`, accountID, userID)
	if err != nil {
		return financeErrors.NewStorageError("mark default account", err)
	}
	return expectOneRow(result, "mark default account", financeErrors.ErrAccountNotFound)
}

func (r *accountRepository) AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE accounts SET balance = balance + $1, updated_at = NOW() WHERE id = $2`, delta, accountID)
	if err != nil {
		return financeErrors.NewStorageError("adjust balance", err)
	}
	return expectOneRow(result, "adjust balance", financeErrors.ErrAccountNotFound)
}

func expectOneRow(result sql.Result, op string, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return financeErrors.NewStorageError(op, err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
