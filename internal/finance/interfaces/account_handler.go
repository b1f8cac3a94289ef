package interfaces

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sebuszqo/FinanceTracker/internal/finance/application"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
)

type AccountHandler struct {
	responder
	service application.AccountService
}

func NewAccountHandler(
	service application.AccountService,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *AccountHandler {
	if service == nil {
		panic("Service must not be nil")
	}
	return &AccountHandler{
		responder: newResponder(respondJSON, respondError),
		service:   service,
	}
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req struct {
		Name      string             `json:"name"`
		Type      domain.AccountType `json:"type"`
		Balance   amountField        `json:"balance"`
		IsDefault bool               `json:"is_default"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := h.service.CreateAccount(r.Context(), userID, application.CreateAccountInput{
		Name:      req.Name,
		Type:      req.Type,
		Balance:   string(req.Balance),
		IsDefault: req.IsDefault,
	})
	if err != nil {
		h.serviceError(w, r, err, "Failed to create account")
		return
	}

	h.success(w, http.StatusCreated, "Account successfully created.", account)
}

func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	accounts, err := h.service.ListAccounts(r.Context(), userID)
	if err != nil {
		h.serviceError(w, r, err, "Failed to retrieve accounts")
		return
	}

	h.success(w, http.StatusOK, "Accounts retrieved successfully.", accounts)
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	details, err := h.service.GetAccountWithTransactions(r.Context(), userID, chi.URLParam(r, "accountID"))
	if err != nil {
		h.serviceError(w, r, err, "Failed to retrieve account")
		return
	}

	h.success(w, http.StatusOK, "Account retrieved successfully.", details)
}

func (h *AccountHandler) SetDefaultAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	account, err := h.service.SetDefaultAccount(r.Context(), userID, chi.URLParam(r, "accountID"))
	if err != nil {
		h.serviceError(w, r, err, "Failed to update default account")
		return
	}

	h.success(w, http.StatusOK, "Default account updated.", account)
}
