package interfaces

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FinanceTracker/internal/finance/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestGetCurrentBudget(t *testing.T) {
	mockService := &MockBudgetService{status: &domain.BudgetStatus{
		Budget:          &domain.Budget{ID: "b1", Amount: decimal.NewFromInt(500)},
		CurrentExpenses: decimal.RequireFromString("120.50"),
	}}
	handler := NewBudgetHandler(mockService, respondJSON, respondError)

	w := httptest.NewRecorder()
	handler.GetCurrentBudget(w, newRequest(http.MethodGet, "/budget?account_id=acc-3", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acc-3", mockService.seenAccountID)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "120.5", data["current_expenses"])
}

func TestGetCurrentBudget_NoBudget(t *testing.T) {
	mockService := &MockBudgetService{status: &domain.BudgetStatus{CurrentExpenses: decimal.Zero}}
	handler := NewBudgetHandler(mockService, respondJSON, respondError)

	w := httptest.NewRecorder()
	handler.GetCurrentBudget(w, newRequest(http.MethodGet, "/budget", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", mockService.seenAccountID)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Nil(t, data["budget"])
}

func TestUpdateBudget(t *testing.T) {
	mockService := &MockBudgetService{}
	handler := NewBudgetHandler(mockService, respondJSON, respondError)

	w := httptest.NewRecorder()
	handler.UpdateBudget(w, jsonRequest(http.MethodPut, "/budget", `{"amount":750.25}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "750.25", mockService.updatedAmount)
}

func TestUpdateBudget_InvalidAmount(t *testing.T) {
	handler := NewBudgetHandler(&MockBudgetService{updateErr: financeErrors.ErrInvalidAmount}, respondJSON, respondError)

	w := httptest.NewRecorder()
	handler.UpdateBudget(w, jsonRequest(http.MethodPut, "/budget", `{"amount":"-5"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, financeErrors.ErrInvalidAmount.Error(), decodeResponse(t, w)["message"])
}
