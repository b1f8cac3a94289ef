package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FinanceTracker/internal/finance/errors"
)

const maxInsights = 3

// MonthlyInsights asks the model for short, practical observations about a
// month of activity.
func (c *Client) MonthlyInsights(ctx context.Context, stats *domain.MonthlyStats) ([]string, error) {
	text, err := c.complete(ctx, []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: insightsPrompt(stats)},
	})
	if err != nil {
		return nil, fmt.Errorf("insights model request: %w", err)
	}

	var insights []string
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &insights); err != nil {
		return nil, fmt.Errorf("%w: %v", financeErrors.ErrMalformedResponse, err)
	}

	out := make([]string, 0, maxInsights)
	for _, insight := range insights {
		if insight = strings.TrimSpace(insight); insight != "" {
			out = append(out, insight)
		}
		if len(out) == maxInsights {
			break
		}
	}
	return out, nil
}

func insightsPrompt(stats *domain.MonthlyStats) string {
	categories := make([]string, 0, len(stats.ByCategory))
	for name := range stats.ByCategory {
		categories = append(categories, name)
	}
	sort.Strings(categories)

	var breakdown strings.Builder
	for _, name := range categories {
		fmt.Fprintf(&breakdown, "%s: $%s, ", name, stats.ByCategory[name].StringFixed(2))
	}

	return fmt.Sprintf(`Analyze this financial data and provide 3 concise, actionable insights.
Focus on spending patterns and practical advice. Keep it friendly and conversational.

Financial Data for %s:
- Total Income: $%s
- Total Expenses: $%s
- Net Income: $%s
- Expense Categories: %s

Format the response as a JSON array of strings, like this:
["insight 1", "insight 2", "insight 3"]`,
		stats.Month.Format("January 2006"),
		stats.TotalIncome.StringFixed(2),
		stats.TotalExpenses.StringFixed(2),
		stats.Net().StringFixed(2),
		strings.TrimSuffix(breakdown.String(), ", "),
	)
}
