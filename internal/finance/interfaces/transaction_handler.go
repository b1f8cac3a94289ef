package interfaces

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sebuszqo/FinanceTracker/internal/finance/application"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FinanceTracker/internal/finance/errors"
)

const (
	maxReceiptSize   = 5 << 20
	receiptFormField = "file"
)

type TransactionHandler struct {
	responder
	service application.TransactionService
}

func NewTransactionHandler(
	service application.TransactionService,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *TransactionHandler {
	if service == nil {
		panic("Service must not be nil")
	}
	return &TransactionHandler{
		responder: newResponder(respondJSON, respondError),
		service:   service,
	}
}

type createTransactionRequest struct {
	AccountID         string                   `json:"account_id"`
	Type              domain.TransactionType   `json:"type"`
	Amount            amountField              `json:"amount"`
	Date              dateField                `json:"date"`
	Category          string                   `json:"category"`
	Description       string                   `json:"description"`
	IsRecurring       bool                     `json:"is_recurring"`
	RecurringInterval domain.RecurringInterval `json:"recurring_interval"`
}

func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if financeErrors.IsValidationError(err) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	transaction, err := h.service.CreateTransaction(r.Context(), userID, application.CreateTransactionInput{
		AccountID:         req.AccountID,
		Type:              req.Type,
		Amount:            string(req.Amount),
		Date:              time.Time(req.Date),
		Category:          req.Category,
		Description:       req.Description,
		IsRecurring:       req.IsRecurring,
		RecurringInterval: req.RecurringInterval,
	})
	if err != nil {
		h.serviceError(w, r, err, "Failed to create transaction")
		return
	}

	h.success(w, http.StatusCreated, "Transaction successfully created.", transaction)
}

func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	transactions, err := h.service.ListTransactions(r.Context(), userID)
	if err != nil {
		h.serviceError(w, r, err, "Failed to retrieve transactions")
		return
	}

	h.success(w, http.StatusOK, "Transactions retrieved successfully.", transactions)
}

func (h *TransactionHandler) BulkDeleteTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req struct {
		TransactionIDs []string `json:"transaction_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result := h.service.BulkDeleteTransactions(r.Context(), userID, req.TransactionIDs)
	if !result.Success {
		h.serviceError(w, r, result.Err, "Failed to delete transactions")
		return
	}

	h.success(w, http.StatusOK, "Transactions deleted.", result)
}

// ScanReceipt reads a receipt image from the multipart field "file" and
// returns the interpreted draft without storing anything.
func (h *TransactionHandler) ScanReceipt(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxReceiptSize+1<<20)
	if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(w, http.StatusRequestEntityTooLarge, "Receipt image is too large")
			return
		}
		h.respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(receiptFormField)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Receipt image is required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxReceiptSize+1))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Could not read receipt image")
		return
	}
	if len(image) > maxReceiptSize {
		h.respondError(w, http.StatusRequestEntityTooLarge, "Receipt image is too large")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		h.respondError(w, http.StatusBadRequest, "Receipt must be an image")
		return
	}

	draft, err := h.service.ScanReceipt(r.Context(), userID, image, mimeType)
	if err != nil {
		h.serviceError(w, r, err, "Failed to scan receipt")
		return
	}

	h.success(w, http.StatusOK, "Receipt scanned successfully.", draft)
}
