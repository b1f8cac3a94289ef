package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sebuszqo/FinanceTracker/internal/auth"
	"github.com/sebuszqo/FinanceTracker/internal/finance/interfaces"
	"github.com/sebuszqo/FinanceTracker/internal/logger"
	"github.com/sebuszqo/FinanceTracker/internal/user"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string, errors ...[]string) {
	payload := map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	}

	if len(errors) > 0 && len(errors[0]) > 0 {
		payload["errors"] = errors[0]
	}

	respondJSON(w, status, payload)
}

type Server struct {
	router             chi.Router
	authService        auth.Service
	authHandler        *auth.Handler
	userHandler        *user.Handler
	accountHandler     *interfaces.AccountHandler
	transactionHandler *interfaces.TransactionHandler
	budgetHandler      *interfaces.BudgetHandler
	categoryHandler    *interfaces.CategoryHandler
	health             func(ctx context.Context) map[string]string
	allowedOrigins     []string
}

func NewServer(c *components, health func(ctx context.Context) map[string]string, allowedOrigins []string) *Server {
	return &Server{
		router:             chi.NewRouter(),
		authService:        c.authService,
		authHandler:        auth.NewHandler(c.authService, respondJSON, respondError),
		userHandler:        user.NewHandler(c.userService, respondJSON, respondError),
		accountHandler:     interfaces.NewAccountHandler(c.accounts, respondJSON, respondError),
		transactionHandler: interfaces.NewTransactionHandler(c.transactions, respondJSON, respondError),
		budgetHandler:      interfaces.NewBudgetHandler(c.budgets, respondJSON, respondError),
		categoryHandler:    interfaces.NewCategoryHandler(respondJSON, respondError),
		health:             health,
		allowedOrigins:     allowedOrigins,
	}
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	respondError(w, http.StatusNotFound, "Path not found")
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ready"}
	if s.health != nil {
		status = s.health(ctx)
	}
	if status["status"] == "down" {
		respondJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (s *Server) RegisterRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.NotFound(notFoundHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", s.userHandler.HandleRegister)
		r.Post("/auth/login", s.authHandler.HandleLogin)
		r.Get("/ready", s.handleReady)

		r.Route("/protected", func(r chi.Router) {
			r.Use(s.authService.JWTAccessTokenMiddleware())

			r.Get("/profile", s.userHandler.HandleGetUserProfile)
			r.Get("/categories", s.categoryHandler.GetCategories)

			r.Route("/accounts", func(r chi.Router) {
				r.Post("/", s.accountHandler.CreateAccount)
				r.Get("/", s.accountHandler.ListAccounts)
				r.Get("/{accountID}", s.accountHandler.GetAccount)
				r.Put("/{accountID}/default", s.accountHandler.SetDefaultAccount)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Post("/", s.transactionHandler.CreateTransaction)
				r.Get("/", s.transactionHandler.ListTransactions)
				r.Post("/bulk-delete", s.transactionHandler.BulkDeleteTransactions)
				r.Post("/scan-receipt", s.transactionHandler.ScanReceipt)
			})

			r.Get("/budget", s.budgetHandler.GetCurrentBudget)
			r.Put("/budget", s.budgetHandler.UpdateBudget)
		})
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
