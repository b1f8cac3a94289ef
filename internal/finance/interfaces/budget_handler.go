package interfaces

import (
	"encoding/json"
	"net/http"

	"github.com/sebuszqo/FinanceTracker/internal/finance/application"
)

type BudgetHandler struct {
	responder
	service application.BudgetService
}

func NewBudgetHandler(
	service application.BudgetService,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *BudgetHandler {
	if service == nil {
		panic("Service must not be nil")
	}
	return &BudgetHandler{
		responder: newResponder(respondJSON, respondError),
		service:   service,
	}
}

func (h *BudgetHandler) GetCurrentBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	status, err := h.service.GetCurrentBudget(r.Context(), userID, r.URL.Query().Get("account_id"))
	if err != nil {
		h.serviceError(w, r, err, "Failed to retrieve budget")
		return
	}

	h.success(w, http.StatusOK, "Budget retrieved successfully.", status)
}

func (h *BudgetHandler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req struct {
		Amount amountField `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	budget, err := h.service.UpdateBudget(r.Context(), userID, string(req.Amount))
	if err != nil {
		h.serviceError(w, r, err, "Failed to update budget")
		return
	}

	h.success(w, http.StatusOK, "Budget updated.", budget)
}
