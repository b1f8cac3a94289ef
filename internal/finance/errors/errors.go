package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	return errors.As(err, &validationError)
}

func NewIndexedValidationError(index int, msg string) error {
	return &ValidationError{Msg: fmt.Sprintf("Validation error at item %d: %s", index, msg)}
}

type ValidationErrors struct {
	Errors []error
}

func (ve *ValidationErrors) Error() string {
	errorMessages := make([]string, len(ve.Errors))
	for i, err := range ve.Errors {
		errorMessages[i] = err.Error()
	}
	return fmt.Sprintf("multiple validation errors: %s", strings.Join(errorMessages, "; "))
}

func (ve *ValidationErrors) Add(err error) {
	ve.Errors = append(ve.Errors, err)
}

func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// Messages flattens the collected errors for the "errors" field of an error response.
func (ve *ValidationErrors) Messages() []string {
	out := make([]string, len(ve.Errors))
	for i, err := range ve.Errors {
		out[i] = err.Error()
	}
	return out
}

func IsValidationErrors(err error) bool {
	var validationErrors *ValidationErrors
	return errors.As(err, &validationErrors)
}

var (
	ErrInvalidAmount            = NewValidationError("Amount must be a non-negative number")
	ErrInvalidTransactionType   = NewValidationError("Type must be 'INCOME' or 'EXPENSE'")
	ErrInvalidAccountType       = NewValidationError("Account type must be 'CURRENT' or 'SAVINGS'")
	ErrInvalidRecurringInterval = NewValidationError("Recurring interval must be one of DAILY, WEEKLY, MONTHLY, YEARLY")
	ErrMissingAccountName       = NewValidationError("Account name is required")
	ErrMissingAccount           = NewValidationError("Account ID is required")
	ErrDescriptionTooLong       = NewValidationError("Description must be of length less than 200")
	ErrNoTransactionIDs         = NewValidationError("At least one transaction ID is required")
)

var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrBudgetNotFound      = errors.New("budget not found")
	ErrRateLimited         = errors.New("too many requests")
	ErrDenied              = errors.New("request denied")
	ErrUnrecognizedReceipt = errors.New("receipt could not be recognized")
	ErrMalformedResponse   = errors.New("malformed response from receipt interpreter")
	ErrStorageFailure      = errors.New("storage failure")
)

// RateLimitedError carries the gate's quota state back to the caller.
type RateLimitedError struct {
	Remaining int
	Reset     time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s: %d remaining, retry in %s", ErrRateLimited.Error(), e.Remaining, e.Reset.Round(time.Second))
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

func NewRateLimitedError(remaining int, reset time.Duration) error {
	return &RateLimitedError{Remaining: remaining, Reset: reset}
}

// StorageError wraps a persistence failure with the operation that produced it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorageFailure.Error(), e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageFailure
}

func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
