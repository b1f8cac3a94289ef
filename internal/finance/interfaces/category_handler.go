package interfaces

import (
	"net/http"

	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
)

type CategoryHandler struct {
	responder
}

func NewCategoryHandler(
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *CategoryHandler {
	return &CategoryHandler{responder: newResponder(respondJSON, respondError)}
}

func (h *CategoryHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories := map[string][]string{}
	switch r.URL.Query().Get("type") {
	case "":
		categories["income"] = domain.IncomeCategoryNames()
		categories["expense"] = domain.ExpenseCategoryNames()
	case "income":
		categories["income"] = domain.IncomeCategoryNames()
	case "expense":
		categories["expense"] = domain.ExpenseCategoryNames()
	default:
		h.respondError(w, http.StatusBadRequest, "Invalid category type")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "success",
		"message":    "Categories retrieved successfully.",
		"categories": categories,
	})
}
