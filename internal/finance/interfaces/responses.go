package interfaces

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sebuszqo/FinanceTracker/internal/auth/session"
	financeErrors "github.com/sebuszqo/FinanceTracker/internal/finance/errors"
)

type respondJSONFunc func(w http.ResponseWriter, status int, payload interface{})

type respondErrorFunc func(w http.ResponseWriter, status int, message string, errors ...[]string)

// responder is embedded by every finance handler.
type responder struct {
	respondJSON  respondJSONFunc
	respondError respondErrorFunc
}

func newResponder(respondJSON respondJSONFunc, respondError respondErrorFunc) responder {
	if respondJSON == nil || respondError == nil {
		panic("Response functions must not be nil")
	}
	return responder{respondJSON: respondJSON, respondError: respondError}
}

func (h responder) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := session.UserID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, financeErrors.ErrUnauthenticated.Error())
	}
	return userID, ok
}

func (h responder) success(w http.ResponseWriter, status int, message string, data interface{}) {
	h.respondJSON(w, status, map[string]interface{}{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

// serviceError maps a finance error onto its HTTP status. fallback is the
// message shown for storage and unexpected failures.
func (h responder) serviceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var (
		validationErrors *financeErrors.ValidationErrors
		rateLimited      *financeErrors.RateLimitedError
	)
	switch {
	case errors.As(err, &validationErrors):
		h.respondError(w, http.StatusBadRequest, "Validation errors occurred", validationErrors.Messages())
	case financeErrors.IsValidationError(err):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, financeErrors.ErrUnauthenticated):
		h.respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, financeErrors.ErrAccountNotFound),
		errors.Is(err, financeErrors.ErrTransactionNotFound),
		errors.Is(err, financeErrors.ErrBudgetNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, financeErrors.ErrDenied):
		h.respondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &rateLimited):
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(rateLimited.Reset)))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(rateLimited.Remaining))
		h.respondError(w, http.StatusTooManyRequests, financeErrors.ErrRateLimited.Error())
	case errors.Is(err, financeErrors.ErrUnrecognizedReceipt):
		h.respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, financeErrors.ErrMalformedResponse):
		log.Ctx(r.Context()).Warn().Err(err).Msg("receipt interpreter returned a malformed response")
		h.respondError(w, http.StatusBadGateway, financeErrors.ErrMalformedResponse.Error())
	default:
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(fallback)
		h.respondError(w, http.StatusInternalServerError, fallback)
	}
}

func retryAfterSeconds(reset time.Duration) int {
	seconds := int(math.Ceil(reset.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}

// amountField accepts an amount written either as a JSON number or a string,
// keeping its exact decimal text.
type amountField string

func (a *amountField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return financeErrors.ErrInvalidAmount
	}
	*a = amountField(n.String())
	return nil
}

// dateField accepts RFC3339 timestamps and plain YYYY-MM-DD dates.
type dateField time.Time

func (d *dateField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = dateField(time.Time{})
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			*d = dateField(t)
			return nil
		}
	}
	return financeErrors.NewValidationError("Date must be RFC3339 or YYYY-MM-DD")
}
