package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	"github.com/sebuszqo/FinanceTracker/internal/finance/infrastructure"
	"github.com/shopspring/decimal"
)

const (
	userA = "user-a"
	userB = "user-b"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeGate struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (g *fakeGate) Allow(ctx context.Context, userID string, units int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.err
}

type recordingInvalidator struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, paths...)
}

func (r *recordingInvalidator) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

type stubInterpreter struct {
	draft *domain.ReceiptDraft
	err   error
}

func (s *stubInterpreter) Interpret(ctx context.Context, image []byte, mimeType string) (*domain.ReceiptDraft, error) {
	return s.draft, s.err
}

type fakeDirectory struct {
	recipients []Recipient
}

func (d *fakeDirectory) Recipient(ctx context.Context, userID string) (*Recipient, error) {
	for _, r := range d.recipients {
		if r.UserID == userID {
			return &r, nil
		}
	}
	return nil, errors.New("user not found")
}

func (d *fakeDirectory) Recipients(ctx context.Context) ([]Recipient, error) {
	return d.recipients, nil
}

type fakeNotifier struct {
	mu          sync.Mutex
	alerts      map[string][]BudgetAlert
	reports     map[string][]MonthlyReport
	failReports map[string]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		alerts:      map[string][]BudgetAlert{},
		reports:     map[string][]MonthlyReport{},
		failReports: map[string]bool{},
	}
}

func (n *fakeNotifier) SendBudgetAlert(ctx context.Context, to Recipient, alert BudgetAlert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts[to.UserID] = append(n.alerts[to.UserID], alert)
	return nil
}

func (n *fakeNotifier) SendMonthlyReport(ctx context.Context, to Recipient, report MonthlyReport) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failReports[to.UserID] {
		return errors.New("smtp unavailable")
	}
	n.reports[to.UserID] = append(n.reports[to.UserID], report)
	return nil
}

type stubInsights struct {
	insights []string
	err      error
}

func (s *stubInsights) MonthlyInsights(ctx context.Context, stats *domain.MonthlyStats) ([]string, error) {
	return s.insights, s.err
}

type fixture struct {
	store       *infrastructure.MemoryStore
	gate        *fakeGate
	invalidator *recordingInvalidator
	interpreter *stubInterpreter
	accounts    AccountService
	txs         *transactionService
	budgets     *budgetService
	recurring   *RecurringProcessor
}

func newFixture() *fixture {
	store := infrastructure.NewMemoryStore()
	gate := &fakeGate{}
	invalidator := &recordingInvalidator{}
	interpreter := &stubInterpreter{}

	return &fixture{
		store:       store,
		gate:        gate,
		invalidator: invalidator,
		interpreter: interpreter,
		accounts:    NewAccountService(store, store.Accounts(), store.Transactions(), invalidator),
		txs:         NewTransactionService(store, store.Accounts(), store.Transactions(), gate, interpreter, invalidator).(*transactionService),
		budgets:     NewBudgetService(store.Budgets(), store.Accounts(), store.Transactions(), invalidator).(*budgetService),
		recurring:   NewRecurringProcessor(store, store.Accounts(), store.Transactions(), invalidator),
	}
}

func (f *fixture) seedAccount(id, userID, balance string, isDefault bool) {
	f.store.SeedAccount(domain.Account{
		ID:        id,
		UserID:    userID,
		Name:      id,
		Type:      domain.AccountTypeCurrent,
		Balance:   dec(balance),
		IsDefault: isDefault,
	})
}

func (f *fixture) balance(accountID string) decimal.Decimal {
	account, ok := f.store.Account(accountID)
	if !ok {
		return decimal.Zero
	}
	return account.Balance
}

func (f *fixture) fixClock(now time.Time) {
	clock := func() time.Time { return now }
	f.txs.now = clock
	f.budgets.now = clock
}
