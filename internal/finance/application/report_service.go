package application

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FinanceTracker/internal/finance/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	budgetAlertThreshold = 80
	reportConcurrency    = 4
)

var fallbackInsights = []string{
	"Your highest expense category this month might need attention.",
	"Consider setting up a budget for better financial management.",
	"Track your recurring expenses to identify potential savings.",
}

// ReportService runs the budget alert and monthly report jobs.
type ReportService struct {
	budgets      domain.BudgetRepository
	accounts     domain.AccountRepository
	transactions domain.TransactionRepository
	users        UserDirectory
	notifier     Notifier
	insights     InsightWriter
}

func NewReportService(
	budgets domain.BudgetRepository,
	accounts domain.AccountRepository,
	transactions domain.TransactionRepository,
	users UserDirectory,
	notifier Notifier,
	insights InsightWriter,
) *ReportService {
	return &ReportService{
		budgets:      budgets,
		accounts:     accounts,
		transactions: transactions,
		users:        users,
		notifier:     notifier,
		insights:     insights,
	}
}

// CheckBudgetAlerts emails every user whose default account has used at least
// 80% of the monthly budget, at most once per calendar month. It returns the
// number of alerts sent.
func (s *ReportService) CheckBudgetAlerts(ctx context.Context, now time.Time) (int, error) {
	budgets, err := s.budgets.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, budget := range budgets {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		ok, err := s.checkBudget(ctx, budget, now)
		if err != nil {
			log.Error().Err(err).Str("user_id", budget.UserID).Msg("budget alert check failed")
			continue
		}
		if ok {
			sent++
		}
	}
	log.Info().Int("budgets", len(budgets)).Int("alerts", sent).Msg("budget alert run finished")
	return sent, nil
}

func (s *ReportService) checkBudget(ctx context.Context, budget domain.Budget, now time.Time) (bool, error) {
	if !budget.Amount.IsPositive() || budget.AlertSentIn(now) {
		return false, nil
	}

	account, err := s.accounts.FindDefault(ctx, budget.UserID)
	if err != nil {
		if errors.Is(err, financeErrors.ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}

	start, end := domain.MonthBounds(now)
	spent, err := s.transactions.SumExpenses(ctx, budget.UserID, account.ID, start, end)
	if err != nil {
		return false, err
	}

	used := spent.Div(budget.Amount).Mul(decimal.NewFromInt(100))
	if used.LessThan(decimal.NewFromInt(budgetAlertThreshold)) {
		return false, nil
	}

	recipient, err := s.users.Recipient(ctx, budget.UserID)
	if err != nil {
		return false, err
	}
	alert := BudgetAlert{
		AccountName:    account.Name,
		BudgetAmount:   budget.Amount,
		TotalExpenses:  spent,
		PercentageUsed: used.Round(1),
	}
	if err := s.notifier.SendBudgetAlert(ctx, *recipient, alert); err != nil {
		return false, err
	}
	if err := s.budgets.MarkAlertSent(ctx, budget.ID, now); err != nil {
		return false, err
	}
	return true, nil
}

// SendMonthlyReports builds last month's statistics for every user and mails
// them. Users are processed concurrently; one failure does not stop the rest.
func (s *ReportService) SendMonthlyReports(ctx context.Context, now time.Time) (int, error) {
	recipients, err := s.users.Recipients(ctx)
	if err != nil {
		return 0, err
	}

	start, end := domain.PreviousMonthBounds(now)
	var sent atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reportConcurrency)
	for _, recipient := range recipients {
		recipient := recipient
		g.Go(func() error {
			if err := s.sendMonthlyReport(gctx, recipient, start, end); err != nil {
				log.Error().Err(err).Str("user_id", recipient.UserID).Msg("monthly report failed")
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(sent.Load()), err
	}

	log.Info().Int("users", len(recipients)).Int64("sent", sent.Load()).Msg("monthly report run finished")
	return int(sent.Load()), ctx.Err()
}

func (s *ReportService) sendMonthlyReport(ctx context.Context, recipient Recipient, start, end time.Time) error {
	transactions, err := s.transactions.ListInRange(ctx, recipient.UserID, start, end)
	if err != nil {
		return err
	}
	stats := domain.BuildMonthlyStats(start, transactions)

	insights := fallbackInsights
	if s.insights != nil {
		generated, err := s.insights.MonthlyInsights(ctx, stats)
		if err != nil {
			log.Warn().Err(err).Str("user_id", recipient.UserID).Msg("falling back to default insights")
		} else if len(generated) > 0 {
			insights = generated
		}
	}

	return s.notifier.SendMonthlyReport(ctx, recipient, MonthlyReport{Stats: stats, Insights: insights})
}
