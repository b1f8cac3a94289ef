package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FinanceTracker/internal/finance/errors"
)

type budgetRepository struct {
	db *sql.DB
}

func NewBudgetRepository(db *sql.DB) domain.BudgetRepository {
	return &budgetRepository{db: db}
}

func scanBudget(row interface{ Scan(...interface{}) error }) (domain.Budget, error) {
	var (
		b         domain.Budget
		lastAlert sql.NullTime
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.Amount, &lastAlert, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return b, err
	}
	if lastAlert.Valid {
		sent := lastAlert.Time
		b.LastAlertSent = &sent
	}
	return b, nil
}

func (r *budgetRepository) FindByUser(ctx context.Context, userID string) (*domain.Budget, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, user_id, amount, last_alert_sent, created_at, updated_at FROM budgets WHERE user_id = $1`, userID)
	b, err := scanBudget(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, financeErrors.ErrBudgetNotFound
		}
		return nil, financeErrors.NewStorageError("find budget", err)
	}
	return &b, nil
}

func (r *budgetRepository) Upsert(ctx context.Context, budget *domain.Budget) error {
	query := `
		INSERT INTO budgets (id, user_id, amount, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET amount = EXCLUDED.amount, updated_at = NOW()
		RETURNING id, user_id, amount, last_alert_sent, created_at, updated_at`
	row := conn(ctx, r.db).QueryRowContext(ctx, query, budget.ID, budget.UserID, budget.Amount)
	stored, err := scanBudget(row)
	if err != nil {
		return financeErrors.NewStorageError("upsert budget", err)
	}
	*budget = stored
	return nil
}

func (r *budgetRepository) ListAll(ctx context.Context) ([]domain.Budget, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT id, user_id, amount, last_alert_sent, created_at, updated_at FROM budgets ORDER BY created_at`)
	if err != nil {
		return nil, financeErrors.NewStorageError("list budgets", err)
	}
	defer rows.Close()

	budgets := []domain.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, financeErrors.NewStorageError("scan budget", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, financeErrors.NewStorageError("list budgets", err)
	}
	return budgets, nil
}

func (r *budgetRepository) MarkAlertSent(ctx context.Context, budgetID string, at time.Time) error {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE budgets SET last_alert_sent = $1, updated_at = NOW() WHERE id = $2`, at, budgetID)
	if err != nil {
		return financeErrors.NewStorageError("mark budget alert", err)
	}
	return expectOneRow(result, "mark budget alert", financeErrors.ErrBudgetNotFound)
}
