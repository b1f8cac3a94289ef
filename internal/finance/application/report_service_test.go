package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportFixture(insights InsightWriter) (*fixture, *fakeNotifier, *ReportService) {
	f := newFixture()
	notifier := newFakeNotifier()
	directory := &fakeDirectory{recipients: []Recipient{
		{UserID: userA, Email: "a@example.com", Name: "Ann"},
		{UserID: userB, Email: "b@example.com", Name: "Ben"},
	}}
	reports := NewReportService(f.store.Budgets(), f.store.Accounts(), f.store.Transactions(), directory, notifier, insights)
	return f, notifier, reports
}

func TestCheckBudgetAlerts_SendsOncePerMonth(t *testing.T) {
	f, notifier, reports := newReportFixture(nil)
	ctx := context.Background()
	f.seedAccount("acc-1", userA, "0", true)
	f.store.SeedBudget(domain.Budget{ID: "b-1", UserID: userA, Amount: dec("100")})
	seedExpense(f, "t-1", "acc-1", "85", time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC))

	now := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	sent, err := reports.CheckBudgetAlerts(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, notifier.alerts[userA], 1)
	alert := notifier.alerts[userA][0]
	assert.Equal(t, "acc-1", alert.AccountName)
	assert.True(t, alert.PercentageUsed.Equal(dec("85")))

	sent, err = reports.CheckBudgetAlerts(ctx, now.Add(6*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Len(t, notifier.alerts[userA], 1)

	seedExpense(f, "t-2", "acc-1", "90", time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC))
	sent, err = reports.CheckBudgetAlerts(ctx, time.Date(2025, time.April, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestCheckBudgetAlerts_BelowThresholdOrNoDefault(t *testing.T) {
	f, notifier, reports := newReportFixture(nil)
	f.seedAccount("acc-1", userA, "0", true)
	f.store.SeedBudget(domain.Budget{ID: "b-1", UserID: userA, Amount: dec("100")})
	f.store.SeedBudget(domain.Budget{ID: "b-2", UserID: userB, Amount: dec("100")})
	seedExpense(f, "t-1", "acc-1", "79.99", time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC))

	sent, err := reports.CheckBudgetAlerts(context.Background(), time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Empty(t, notifier.alerts)
}

func TestSendMonthlyReports_UsesPreviousMonth(t *testing.T) {
	f, notifier, reports := newReportFixture(&stubInsights{insights: []string{"Spend less on takeaway."}})
	f.seedAccount("acc-1", userA, "0", true)
	seedExpense(f, "t-1", "acc-1", "20", time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC))
	seedExpense(f, "t-2", "acc-1", "30", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	f.store.SeedTransaction(domain.Transaction{
		ID: "t-3", UserID: userA, AccountID: "acc-1", Type: domain.TransactionTypeIncome,
		Amount: dec("200"), Date: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), Category: "salary",
	})

	sent, err := reports.SendMonthlyReports(context.Background(), time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	require.Len(t, notifier.reports[userA], 1)
	report := notifier.reports[userA][0]
	assert.True(t, report.Stats.TotalExpenses.Equal(dec("20")))
	assert.True(t, report.Stats.TotalIncome.Equal(dec("200")))
	assert.Equal(t, 2, report.Stats.TransactionCount)
	assert.Equal(t, []string{"Spend less on takeaway."}, report.Insights)

	require.Len(t, notifier.reports[userB], 1)
	assert.Equal(t, 0, notifier.reports[userB][0].Stats.TransactionCount)
}

func TestSendMonthlyReports_FallbackInsightsAndPartialFailure(t *testing.T) {
	_, notifier, reports := newReportFixture(&stubInsights{err: errors.New("quota exceeded")})
	notifier.failReports[userB] = true

	sent, err := reports.SendMonthlyReports(context.Background(), time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, notifier.reports[userA], 1)
	assert.Equal(t, fallbackInsights, notifier.reports[userA][0].Insights)
}
