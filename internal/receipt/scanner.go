package receipt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FinanceTracker/internal/finance/errors"
	"github.com/shopspring/decimal"
)

var receiptPrompt = fmt.Sprintf(`Analyze this receipt image and extract the following information in JSON format:
- Total amount (just the number)
- Date (in ISO format)
- Description or items purchased (brief summary)
- Merchant/store name
- Suggested category (one of: %s)

Only respond with valid JSON in this exact format:
{"amount": number, "date": "ISO date string", "description": "string", "merchantName": "string", "category": "string"}

If it is not a receipt, return an empty object`, strings.Join(domain.ExpenseCategoryNames(), ","))

type receiptResponse struct {
	Amount       json.RawMessage `json:"amount"`
	Date         string          `json:"date"`
	Description  string          `json:"description"`
	MerchantName string          `json:"merchantName"`
	Category     string          `json:"category"`
}

var receiptDateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// Interpret sends the image to the model and decodes the draft it returns.
// An empty object means the image is not a receipt.
func (c *Client) Interpret(ctx context.Context, image []byte, mimeType string) (*domain.ReceiptDraft, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURI := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)

	text, err := c.complete(ctx, []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURI, Detail: openai.ImageURLDetailAuto}},
		{Type: openai.ChatMessagePartTypeText, Text: receiptPrompt},
	})
	if err != nil {
		return nil, fmt.Errorf("receipt model request: %w", err)
	}

	return c.parseReceipt(text)
}

func (c *Client) parseReceipt(text string) (*domain.ReceiptDraft, error) {
	cleaned := stripCodeFences(text)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		log.Error().Err(err).Str("raw_text", cleaned).Msg("failed to decode receipt response")
		return nil, fmt.Errorf("%w: %v", financeErrors.ErrMalformedResponse, err)
	}
	if len(fields) == 0 {
		return nil, financeErrors.ErrUnrecognizedReceipt
	}

	var resp receiptResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", financeErrors.ErrMalformedResponse, err)
	}

	amount, err := decimal.NewFromString(strings.Trim(string(resp.Amount), `"`))
	if err != nil {
		return nil, fmt.Errorf("%w: amount %s", financeErrors.ErrMalformedResponse, resp.Amount)
	}

	return &domain.ReceiptDraft{
		Amount:       domain.RoundMoney(amount.Abs()),
		Date:         c.parseDate(resp.Date),
		Description:  resp.Description,
		MerchantName: resp.MerchantName,
		Category:     resp.Category,
	}, nil
}

// parseDate falls back to the current time when the model's date is unusable.
func (c *Client) parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range receiptDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return c.now()
}
