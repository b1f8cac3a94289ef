package main

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sebuszqo/FinanceTracker/internal/auth"
	"github.com/sebuszqo/FinanceTracker/internal/config"
	emailService "github.com/sebuszqo/FinanceTracker/internal/email"
	"github.com/sebuszqo/FinanceTracker/internal/finance/application"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	"github.com/sebuszqo/FinanceTracker/internal/finance/infrastructure"
	"github.com/sebuszqo/FinanceTracker/internal/gate"
	"github.com/sebuszqo/FinanceTracker/internal/invalidation"
	"github.com/sebuszqo/FinanceTracker/internal/receipt"
	"github.com/sebuszqo/FinanceTracker/internal/scheduler"
	"github.com/sebuszqo/FinanceTracker/internal/user"
)

// financeStore is the persistence the finance services run on.
type financeStore struct {
	txm          domain.TxManager
	accounts     domain.AccountRepository
	transactions domain.TransactionRepository
	budgets      domain.BudgetRepository
}

func postgresStore(db *sql.DB) financeStore {
	return financeStore{
		txm:          infrastructure.NewPostgresStore(db),
		accounts:     infrastructure.NewAccountRepository(db),
		transactions: infrastructure.NewTransactionRepository(db),
		budgets:      infrastructure.NewBudgetRepository(db),
	}
}

type components struct {
	userService  user.Service
	authService  auth.Service
	accounts     application.AccountService
	transactions application.TransactionService
	budgets      application.BudgetService
	recurring    *application.RecurringProcessor
	reports      *application.ReportService
	invalidator  *invalidation.Invalidator
	limiter      *gate.Limiter
	mailer       *emailService.EmailService
}

func buildComponents(cfg *config.Config, store financeStore, userService user.Service) (*components, error) {
	jwtManager, err := auth.NewJWTManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	publisher, err := newPublisher(cfg)
	if err != nil {
		return nil, err
	}
	invalidator := invalidation.NewInvalidator(publisher, 0)

	limiter := gate.NewLimiter(gate.Config{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		Burst:             cfg.RateLimitBurst,
		DeniedUsers:       cfg.DeniedUsers,
	})

	var (
		interpreter application.ReceiptInterpreter = receipt.Disabled{}
		insights    application.InsightWriter
	)
	if cfg.AIEnabled() {
		client := receipt.NewClient(receipt.Config{
			BaseURL: cfg.AIBaseURL,
			APIKey:  cfg.AIAPIKey,
			Model:   cfg.AIModel,
		})
		interpreter = client
		insights = client
	} else {
		log.Warn().Msg("AI_API_KEY is not set, receipt scanning is disabled and reports use default insights")
	}

	c := &components{
		userService: userService,
		authService: auth.NewAuthService(userService, jwtManager),
		accounts:    application.NewAccountService(store.txm, store.accounts, store.transactions, invalidator),
		transactions: application.NewTransactionService(
			store.txm, store.accounts, store.transactions, limiter, interpreter, invalidator,
		),
		budgets:     application.NewBudgetService(store.budgets, store.accounts, store.transactions, invalidator),
		recurring:   application.NewRecurringProcessor(store.txm, store.accounts, store.transactions, invalidator),
		invalidator: invalidator,
		limiter:     limiter,
	}

	if cfg.EmailEnabled() {
		mailer, err := emailService.NewEmailService(emailService.Config{
			From:     cfg.EmailAddress,
			Password: cfg.EmailPassword,
			SMTPHost: cfg.SMTPHost,
			SMTPPort: cfg.SMTPPort,
		})
		if err != nil {
			limiter.Stop()
			return nil, fmt.Errorf("could not start email service: %w", err)
		}
		c.mailer = mailer
		c.reports = application.NewReportService(
			store.budgets, store.accounts, store.transactions,
			user.NewDirectory(userService), emailService.NewFinanceNotifier(mailer), insights,
		)
	}

	return c, nil
}

func newPublisher(cfg *config.Config) (invalidation.Publisher, error) {
	if !cfg.AMQPEnabled() {
		log.Info().Msg("AMQP_URL is not set, cache invalidations are only logged")
		return invalidation.LogPublisher{}, nil
	}
	publisher, err := invalidation.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		return nil, fmt.Errorf("could not connect to message broker: %w", err)
	}
	return publisher, nil
}

func (c *components) jobs(cfg *config.Config) []scheduler.Job {
	return scheduler.FinanceJobs(scheduler.Schedules{
		Recurring:    cfg.RecurringSchedule,
		BudgetAlerts: cfg.AlertSchedule,
		Reports:      cfg.ReportSchedule,
	}, c.recurring, c.reports)
}

// close releases everything except the invalidator, which stops with the
// context passed to its Run.
func (c *components) close() {
	c.limiter.Stop()
	if c.mailer != nil {
		c.mailer.Close()
	}
}
