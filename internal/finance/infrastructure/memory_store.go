package infrastructure

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FinanceTracker/internal/finance/errors"
	"github.com/shopspring/decimal"
)

type memoryTxKey struct{}

// MemoryStore keeps accounts, transactions and budgets in maps. WithinTx holds
// a single mutex for the whole unit and restores a snapshot when fn fails, so
// it gives the same all-or-nothing behaviour as PostgresStore. Used by tests.
type MemoryStore struct {
	mu           sync.Mutex
	accounts     map[string]domain.Account
	transactions map[string]domain.Transaction
	budgets      map[string]domain.Budget
	failures     map[string]error
	seq          int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:     map[string]domain.Account{},
		transactions: map[string]domain.Transaction{},
		budgets:      map[string]domain.Budget{},
		failures:     map[string]error{},
	}
}

func (s *MemoryStore) Accounts() domain.AccountRepository         { return &memoryAccounts{s} }
func (s *MemoryStore) Transactions() domain.TransactionRepository { return &memoryTransactions{s} }
func (s *MemoryStore) Budgets() domain.BudgetRepository           { return &memoryBudgets{s} }

// FailOn makes the next call to op return err. Op names are "<repo>.<Method>",
// for example "accounts.AdjustBalance".
func (s *MemoryStore) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inMemoryTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, transactions, budgets := s.snapshot()
	if err := fn(context.WithValue(ctx, memoryTxKey{}, true)); err != nil {
		s.accounts, s.transactions, s.budgets = accounts, transactions, budgets
		return err
	}
	return nil
}

// Seed helpers write directly, bypassing failure injection.

func (s *MemoryStore) SeedAccount(account domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Unix(s.seq, 0).UTC()
	}
	s.accounts[account.ID] = account
}

func (s *MemoryStore) SeedTransaction(t domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[t.ID] = t
}

func (s *MemoryStore) SeedBudget(b domain.Budget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[b.UserID] = b
}

// Account returns a copy of the stored account, or false.
func (s *MemoryStore) Account(id string) (domain.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	return a, ok
}

func (s *MemoryStore) TransactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transactions)
}

func inMemoryTx(ctx context.Context) bool {
	v, _ := ctx.Value(memoryTxKey{}).(bool)
	return v
}

// acquire locks the store unless ctx already runs inside WithinTx.
func (s *MemoryStore) acquire(ctx context.Context) func() {
	if inMemoryTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) fail(op string) error {
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}

func (s *MemoryStore) snapshot() (map[string]domain.Account, map[string]domain.Transaction, map[string]domain.Budget) {
	accounts := make(map[string]domain.Account, len(s.accounts))
	for k, v := range s.accounts {
		accounts[k] = v
	}
	transactions := make(map[string]domain.Transaction, len(s.transactions))
	for k, v := range s.transactions {
		transactions[k] = v
	}
	budgets := make(map[string]domain.Budget, len(s.budgets))
	for k, v := range s.budgets {
		budgets[k] = v
	}
	return accounts, transactions, budgets
}

type memoryAccounts struct{ s *MemoryStore }

func (r *memoryAccounts) Create(ctx context.Context, account *domain.Account) error {
	defer r.s.acquire(ctx)()
	if err := r.s.fail("accounts.Create"); err != nil {
		return err
	}
	r.s.seq++
	account.CreatedAt = time.Unix(r.s.seq, 0).UTC()
	account.UpdatedAt = account.CreatedAt
	r.s.accounts[account.ID] = *account
	return nil
}

func (r *memoryAccounts) FindByID(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	defer r.s.acquire(ctx)()
	if err := r.s.fail("accounts.FindByID"); err != nil {
		return nil, err
	}
	a, ok := r.s.accounts[accountID]
	if !ok || a.UserID != userID {
		return nil, financeErrors.ErrAccountNotFound
	}
	return &a, nil
}

func (r *memoryAccounts) FindByIDForUpdate(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	return r.FindByID(ctx, userID, accountID)
}

func (r *memoryAccounts) FindDefault(ctx context.Context, userID string) (*domain.Account, error) {
	defer r.s.acquire(ctx)()
	for _, a := range r.s.accounts {
		if a.UserID == userID && a.IsDefault {
			return &a, nil
		}
	}
	return nil, financeErrors.ErrAccountNotFound
}

func (r *memoryAccounts) ListByUser(ctx context.Context, userID string) ([]domain.AccountSummary, error) {
	defer r.s.acquire(ctx)()
	out := []domain.AccountSummary{}
	for _, a := range r.s.accounts {
		if a.UserID != userID {
			continue
		}
		summary := domain.AccountSummary{Account: a}
		for _, t := range r.s.transactions {
			if t.AccountID == a.ID {
				summary.TransactionCount++
			}
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryAccounts) CountByUser(ctx context.Context, userID string) (int, error) {
	defer r.s.acquire(ctx)()
	count := 0
	for _, a := range r.s.accounts {
		if a.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *memoryAccounts) LockOwner(ctx context.Context, userID string) error {
	return nil
}

func (r *memoryAccounts) ClearDefault(ctx context.Context, userID string) error {
	defer r.s.acquire(ctx)()
	if err := r.s.fail("accounts.ClearDefault"); err != nil {
		return err
	}
	for id, a := range r.s.accounts {
		if a.UserID == userID && a.IsDefault {
			a.IsDefault = false
			r.s.accounts[id] = a
		}
	}
	return nil
}

func (r *memoryAccounts) MarkDefault(ctx context.Context, userID, accountID string) error {
	defer r.s.acquire(ctx)()
	if err := r.s.fail("accounts.MarkDefault"); err != nil {
		return err
	}
	a, ok := r.s.accounts[accountID]
	if !ok || a.UserID != userID {
		return financeErrors.ErrAccountNotFound
	}
	a.IsDefault = true
	r.s.accounts[accountID] = a
	return nil
}

func (r *memoryAccounts) AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) error {
	defer r.s.acquire(ctx)()
	if err := r.s.fail("accounts.AdjustBalance"); err != nil {
		return err
	}
	a, ok := r.s.accounts[accountID]
	if !ok {
		return financeErrors.ErrAccountNotFound
	}
	a.Balance = a.Balance.Add(delta)
	r.s.accounts[accountID] = a
	return nil
}

type memoryTransactions struct{ s *MemoryStore }

func (r *memoryTransactions) Create(ctx context.Context, t *domain.Transaction) error {
	defer r.s.acquire(ctx)()
	if err := r.s.fail("transactions.Create"); err != nil {
		return err
	}
	r.s.seq++
	t.CreatedAt = time.Unix(r.s.seq, 0).UTC()
	r.s.transactions[t.ID] = *t
	return nil
}

func (r *memoryTransactions) FindByIDForUpdate(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	defer r.s.acquire(ctx)()
	t, ok := r.s.transactions[transactionID]
	if !ok {
		return nil, financeErrors.ErrTransactionNotFound
	}
	return &t, nil
}

func (r *memoryTransactions) FindByIDsForUpdate(ctx context.Context, userID string, ids []string) ([]domain.Transaction, error) {
	defer r.s.acquire(ctx)()
	if err := r.s.fail("transactions.FindByIDsForUpdate"); err != nil {
		return nil, err
	}
	out := []domain.Transaction{}
	seen := map[string]bool{}
	for _, id := range ids {
		t, ok := r.s.transactions[id]
		if !ok || t.UserID != userID || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, t)
	}
	return out, nil
}

func (r *memoryTransactions) DeleteByIDs(ctx context.Context, userID string, ids []string) (int64, error) {
	defer r.s.acquire(ctx)()
	if err := r.s.fail("transactions.DeleteByIDs"); err != nil {
		return 0, err
	}
	var deleted int64
	for _, id := range ids {
		if t, ok := r.s.transactions[id]; ok && t.UserID == userID {
			delete(r.s.transactions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memoryTransactions) filter(keep func(domain.Transaction) bool) []domain.Transaction {
	out := []domain.Transaction{}
	for _, t := range r.s.transactions {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func (r *memoryTransactions) ListByAccount(ctx context.Context, userID, accountID string) ([]domain.Transaction, error) {
	defer r.s.acquire(ctx)()
	return r.filter(func(t domain.Transaction) bool {
		return t.UserID == userID && t.AccountID == accountID
	}), nil
}

func (r *memoryTransactions) ListByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	defer r.s.acquire(ctx)()
	return r.filter(func(t domain.Transaction) bool { return t.UserID == userID }), nil
}

func (r *memoryTransactions) ListInRange(ctx context.Context, userID string, from, to time.Time) ([]domain.Transaction, error) {
	defer r.s.acquire(ctx)()
	return r.filter(func(t domain.Transaction) bool {
		return t.UserID == userID && !t.Date.Before(from) && t.Date.Before(to)
	}), nil
}

func (r *memoryTransactions) SumExpenses(ctx context.Context, userID, accountID string, from, to time.Time) (decimal.Decimal, error) {
	defer r.s.acquire(ctx)()
	if err := r.s.fail("transactions.SumExpenses"); err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, t := range r.s.transactions {
		if t.UserID == userID && t.AccountID == accountID && t.Type == domain.TransactionTypeExpense &&
			!t.Date.Before(from) && t.Date.Before(to) {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

func (r *memoryTransactions) FindDueRecurring(ctx context.Context, now time.Time) ([]domain.Transaction, error) {
	defer r.s.acquire(ctx)()
	out := []domain.Transaction{}
	for _, t := range r.s.transactions {
		if t.IsDue(now) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextRecurringDate.Before(*out[j].NextRecurringDate) })
	return out, nil
}

func (r *memoryTransactions) UpdateRecurrence(ctx context.Context, transactionID string, next, processedAt time.Time) error {
	defer r.s.acquire(ctx)()
	if err := r.s.fail("transactions.UpdateRecurrence"); err != nil {
		return err
	}
	t, ok := r.s.transactions[transactionID]
	if !ok {
		return financeErrors.ErrTransactionNotFound
	}
	t.NextRecurringDate = &next
	t.LastProcessed = &processedAt
	r.s.transactions[transactionID] = t
	return nil
}

type memoryBudgets struct{ s *MemoryStore }

func (r *memoryBudgets) FindByUser(ctx context.Context, userID string) (*domain.Budget, error) {
	defer r.s.acquire(ctx)()
	b, ok := r.s.budgets[userID]
	if !ok {
		return nil, financeErrors.ErrBudgetNotFound
	}
	return &b, nil
}

func (r *memoryBudgets) Upsert(ctx context.Context, budget *domain.Budget) error {
	defer r.s.acquire(ctx)()
	if err := r.s.fail("budgets.Upsert"); err != nil {
		return err
	}
	if existing, ok := r.s.budgets[budget.UserID]; ok {
		existing.Amount = budget.Amount
		r.s.budgets[budget.UserID] = existing
		*budget = existing
		return nil
	}
	r.s.budgets[budget.UserID] = *budget
	return nil
}

func (r *memoryBudgets) ListAll(ctx context.Context) ([]domain.Budget, error) {
	defer r.s.acquire(ctx)()
	out := []domain.Budget{}
	for _, b := range r.s.budgets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *memoryBudgets) MarkAlertSent(ctx context.Context, budgetID string, at time.Time) error {
	defer r.s.acquire(ctx)()
	if err := r.s.fail("budgets.MarkAlertSent"); err != nil {
		return err
	}
	for userID, b := range r.s.budgets {
		if b.ID == budgetID {
			b.LastAlertSent = &at
			r.s.budgets[userID] = b
			return nil
		}
	}
	return financeErrors.ErrBudgetNotFound
}
