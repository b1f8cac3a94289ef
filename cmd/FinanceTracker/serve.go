package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	database "github.com/sebuszqo/FinanceTracker/db"
	"github.com/sebuszqo/FinanceTracker/internal/scheduler"
	"github.com/sebuszqo/FinanceTracker/internal/user"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the background job scheduler",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return logFatal(err, "missing configuration, update to start server")
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	server := NewServer(c, dbService.Health, cfg.CORSAllowedOrigins)
	server.RegisterRoutes()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	jobs := scheduler.New(jobTimeout, c.jobs(cfg)...)

	// Stopped only after the HTTP server has drained.
	invalidatorCtx, stopInvalidator := context.WithCancel(context.Background())
	go c.invalidator.Run(invalidatorCtx)
	defer func() {
		stopInvalidator()
		c.invalidator.Wait()
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := jobs.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		<-jobs.Stop().Done()
		log.Info().Msg("scheduler stopped")
		return nil
	})

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return logFatal(err, "server stopped with error")
	}
	log.Info().Msg("server stopped")
	return nil
}
