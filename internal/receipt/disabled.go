package receipt

import (
	"context"
	"fmt"

	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FinanceTracker/internal/finance/errors"
)

// Disabled stands in for the Client when no AI key is configured.
type Disabled struct{}

func (Disabled) Interpret(context.Context, []byte, string) (*domain.ReceiptDraft, error) {
	return nil, fmt.Errorf("%w: receipt scanning is not configured", financeErrors.ErrDenied)
}
