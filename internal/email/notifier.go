package emailService

import (
	"context"
	"sort"

	"github.com/sebuszqo/FinanceTracker/internal/finance/application"
)

type BudgetAlertData struct {
	UserName       string
	AccountName    string
	BudgetAmount   string
	TotalExpenses  string
	Remaining      string
	PercentageUsed string
}

func (d BudgetAlertData) TemplateFileName() string {
	return templateBudgetAlert
}

func (d BudgetAlertData) Subject() string {
	return subjectBudgetAlert + " for " + d.AccountName
}

type CategoryLine struct {
	Name   string
	Amount string
}

type MonthlyReportData struct {
	UserName         string
	Month            string
	TotalIncome      string
	TotalExpenses    string
	Net              string
	TransactionCount int
	Categories       []CategoryLine
	Insights         []string
}

func (d MonthlyReportData) TemplateFileName() string {
	return templateMonthly
}

func (d MonthlyReportData) Subject() string {
	return subjectMonthlyReport + " - " + d.Month
}

// FinanceNotifier renders finance notifications as templated email. It
// implements application.Notifier.
type FinanceNotifier struct {
	sender EmailSender
}

func NewFinanceNotifier(sender EmailSender) *FinanceNotifier {
	return &FinanceNotifier{sender: sender}
}

func (n *FinanceNotifier) SendBudgetAlert(ctx context.Context, to application.Recipient, alert application.BudgetAlert) error {
	return n.sender.QueueEmail(ctx, to.Email, BudgetAlertData{
		UserName:       displayName(to),
		AccountName:    alert.AccountName,
		BudgetAmount:   alert.BudgetAmount.StringFixed(2),
		TotalExpenses:  alert.TotalExpenses.StringFixed(2),
		Remaining:      alert.BudgetAmount.Sub(alert.TotalExpenses).StringFixed(2),
		PercentageUsed: alert.PercentageUsed.StringFixed(1),
	})
}

func (n *FinanceNotifier) SendMonthlyReport(ctx context.Context, to application.Recipient, report application.MonthlyReport) error {
	stats := report.Stats

	names := make([]string, 0, len(stats.ByCategory))
	for name := range stats.ByCategory {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := stats.ByCategory[names[i]], stats.ByCategory[names[j]]
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return names[i] < names[j]
	})

	categories := make([]CategoryLine, 0, len(names))
	for _, name := range names {
		categories = append(categories, CategoryLine{Name: name, Amount: stats.ByCategory[name].StringFixed(2)})
	}

	return n.sender.QueueEmail(ctx, to.Email, MonthlyReportData{
		UserName:         displayName(to),
		Month:            stats.Month.Format("January 2006"),
		TotalIncome:      stats.TotalIncome.StringFixed(2),
		TotalExpenses:    stats.TotalExpenses.StringFixed(2),
		Net:              stats.Net().StringFixed(2),
		TransactionCount: stats.TransactionCount,
		Categories:       categories,
		Insights:         report.Insights,
	})
}

func displayName(to application.Recipient) string {
	if to.Name != "" {
		return to.Name
	}
	return to.Email
}
