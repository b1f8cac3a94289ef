package interfaces

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/sebuszqo/FinanceTracker/internal/finance/application"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FinanceTracker/internal/finance/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTransaction_Created(t *testing.T) {
	mockService := &MockTransactionService{}
	handler := NewTransactionHandler(mockService, respondJSON, respondError)

	w := httptest.NewRecorder()
	handler.CreateTransaction(w, jsonRequest(http.MethodPost, "/transactions", `{
		"account_id": "acc-1",
		"type": "EXPENSE",
		"amount": "30.00",
		"date": "2025-01-31",
		"category": "food",
		"is_recurring": true,
		"recurring_interval": "MONTHLY"
	}`))

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, mockService.created)
	assert.Equal(t, "30.00", mockService.created.Amount)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), mockService.created.Date)
	assert.Equal(t, domain.IntervalMonthly, mockService.created.RecurringInterval)
}

func TestCreateTransaction_InvalidDate(t *testing.T) {
	handler := NewTransactionHandler(&MockTransactionService{}, respondJSON, respondError)

	w := httptest.NewRecorder()
	handler.CreateTransaction(w, jsonRequest(http.MethodPost, "/transactions", `{"amount":"1","date":"31/01/2025"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Date must be RFC3339 or YYYY-MM-DD", decodeResponse(t, w)["message"])
}

func TestCreateTransaction_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid amount", financeErrors.ErrInvalidAmount, http.StatusBadRequest},
		{"foreign account", financeErrors.ErrAccountNotFound, http.StatusNotFound},
		{"denied", financeErrors.ErrDenied, http.StatusForbidden},
		{"storage", financeErrors.NewStorageError("adjust balance", assert.AnError), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewTransactionHandler(&MockTransactionService{createErr: tc.err}, respondJSON, respondError)
			w := httptest.NewRecorder()
			handler.CreateTransaction(w, jsonRequest(http.MethodPost, "/transactions", `{"account_id":"acc-1","amount":"1"}`))
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestCreateTransaction_RateLimited(t *testing.T) {
	mockService := &MockTransactionService{createErr: financeErrors.NewRateLimitedError(0, 1500*time.Millisecond)}
	handler := NewTransactionHandler(mockService, respondJSON, respondError)

	w := httptest.NewRecorder()
	handler.CreateTransaction(w, jsonRequest(http.MethodPost, "/transactions", `{"account_id":"acc-1","amount":1}`))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestListTransactions(t *testing.T) {
	mockService := &MockTransactionService{transactions: []domain.Transaction{
		{ID: "t1", Amount: decimal.RequireFromString("10.10")},
	}}
	handler := NewTransactionHandler(mockService, respondJSON, respondError)

	w := httptest.NewRecorder()
	handler.ListTransactions(w, newRequest(http.MethodGet, "/transactions", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "10.1", data[0].(map[string]interface{})["amount"])
}

func TestBulkDeleteTransactions(t *testing.T) {
	mockService := &MockTransactionService{bulkResult: application.BulkDeleteResult{
		Success: true, Deleted: 1, Excluded: []string{"foreign"},
	}}
	handler := NewTransactionHandler(mockService, respondJSON, respondError)

	w := httptest.NewRecorder()
	handler.BulkDeleteTransactions(w, jsonRequest(http.MethodPost, "/transactions/bulk-delete",
		`{"transaction_ids":["mine","foreign"]}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"mine", "foreign"}, mockService.bulkIDs)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["deleted"])
	assert.Equal(t, []interface{}{"foreign"}, data["excluded"])
}

func TestBulkDeleteTransactions_Failure(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"no ids", financeErrors.ErrNoTransactionIDs, http.StatusBadRequest},
		{"storage", financeErrors.NewStorageError("delete transactions", assert.AnError), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &MockTransactionService{bulkResult: application.BulkDeleteResult{Err: tc.err, Error: tc.err.Error()}}
			handler := NewTransactionHandler(mockService, respondJSON, respondError)
			w := httptest.NewRecorder()
			handler.BulkDeleteTransactions(w, jsonRequest(http.MethodPost, "/transactions/bulk-delete", `{"transaction_ids":[]}`))
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func receiptRequest(t *testing.T, contentType string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="receipt"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := newRequest(http.MethodPost, "/transactions/scan-receipt", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestScanReceipt(t *testing.T) {
	mockService := &MockTransactionService{draft: &domain.ReceiptDraft{
		Amount:       decimal.RequireFromString("12.34"),
		MerchantName: "Corner Shop",
		Category:     "groceries",
	}}
	handler := NewTransactionHandler(mockService, respondJSON, respondError)

	w := httptest.NewRecorder()
	handler.ScanReceipt(w, receiptRequest(t, "image/jpeg", []byte("jpeg-bytes")))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", mockService.scannedMime)
	assert.Equal(t, len("jpeg-bytes"), mockService.scannedBytes)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Corner Shop", data["merchant_name"])
}

func TestScanReceipt_DetectsContentType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	mockService := &MockTransactionService{draft: &domain.ReceiptDraft{}}
	handler := NewTransactionHandler(mockService, respondJSON, respondError)

	w := httptest.NewRecorder()
	handler.ScanReceipt(w, receiptRequest(t, "", png))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", mockService.scannedMime)
}

func TestScanReceipt_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		content     []byte
		scanErr     error
		status      int
	}{
		{"not an image", "text/plain", []byte("hello"), nil, http.StatusBadRequest},
		{"unrecognized", "image/png", []byte("png"), financeErrors.ErrUnrecognizedReceipt, http.StatusUnprocessableEntity},
		{"malformed", "image/png", []byte("png"), financeErrors.ErrMalformedResponse, http.StatusBadGateway},
		{"rate limited", "image/png", []byte("png"), financeErrors.NewRateLimitedError(0, 30*time.Second), http.StatusTooManyRequests},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewTransactionHandler(&MockTransactionService{scanErr: tc.scanErr}, respondJSON, respondError)
			w := httptest.NewRecorder()
			handler.ScanReceipt(w, receiptRequest(t, tc.contentType, tc.content))
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestScanReceipt_MissingFile(t *testing.T) {
	handler := NewTransactionHandler(&MockTransactionService{}, respondJSON, respondError)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("note", "no file"))
	require.NoError(t, writer.Close())
	req := newRequest(http.MethodPost, "/transactions/scan-receipt", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	handler.ScanReceipt(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Receipt image is required", decodeResponse(t, w)["message"])
}
