package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sebuszqo/FinanceTracker/internal/finance/application"
)

const (
	JobRecurringTransactions = "recurring-transactions"
	JobBudgetAlerts          = "budget-alerts"
	JobMonthlyReports        = "monthly-reports"
)

type Schedules struct {
	Recurring    string
	BudgetAlerts string
	Reports      string
}

// FinanceJobs wires the background finance work to its schedules. A nil
// reports service leaves out the jobs that send email.
func FinanceJobs(schedules Schedules, recurring *application.RecurringProcessor, reports *application.ReportService) []Job {
	jobs := []Job{{
		Name:     JobRecurringTransactions,
		Schedule: schedules.Recurring,
		Run: func(ctx context.Context, now time.Time) error {
			_, err := recurring.ProcessDue(ctx, now)
			return err
		},
	}}
	if reports == nil {
		log.Info().Msg("email is not configured, budget alerts and monthly reports are disabled")
		return jobs
	}

	return append(jobs,
		Job{
			Name:     JobBudgetAlerts,
			Schedule: schedules.BudgetAlerts,
			Run: func(ctx context.Context, now time.Time) error {
				_, err := reports.CheckBudgetAlerts(ctx, now)
				return err
			},
		},
		Job{
			Name:     JobMonthlyReports,
			Schedule: schedules.Reports,
			Run: func(ctx context.Context, now time.Time) error {
				_, err := reports.SendMonthlyReports(ctx, now)
				return err
			},
		},
	)
}
