package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	database "github.com/sebuszqo/FinanceTracker/db"
	"github.com/sebuszqo/FinanceTracker/internal/scheduler"
	"github.com/sebuszqo/FinanceTracker/internal/user"
	"github.com/spf13/cobra"
)

const jobTimeout = 10 * time.Minute

var runJobCmd = &cobra.Command{
	Use:   "run-job <name>",
	Short: "Run one background job now and exit",
	Long: fmt.Sprintf(`Run one background job immediately, for use from an external trigger.

Jobs: %s`, strings.Join([]string{
		scheduler.JobRecurringTransactions, scheduler.JobBudgetAlerts, scheduler.JobMonthlyReports,
	}, ", ")),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return logFatal(err, "invalid configuration")
		}

		ctx := commandContext(cmd)
		dbService, err := database.NewDBService(ctx, cfg.DatabaseURL)
		if err != nil {
			return logFatal(err, "could not initialize database")
		}
		defer dbService.Close()

		c, err := buildComponents(cfg, postgresStore(dbService.DB), user.NewUserService(user.NewUserRepository(dbService.DB)))
		if err != nil {
			return logFatal(err, "could not build services")
		}
		defer c.close()

		runCtx, stopInvalidator := context.WithCancel(context.Background())
		go c.invalidator.Run(runCtx)
		defer func() {
			stopInvalidator()
			c.invalidator.Wait()
		}()

		s := scheduler.New(jobTimeout, c.jobs(cfg)...)
		if err := s.RunJob(ctx, args[0]); err != nil {
			return logFatal(err, "job failed")
		}
		return nil
	},
}
