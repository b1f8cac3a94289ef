package receipt

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultConcurrency = 4
)

// completer is the part of *openai.Client used here.
type completer interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	Concurrency int
}

// Client talks to an OpenAI-compatible chat completion endpoint. It
// implements application.ReceiptInterpreter and application.InsightWriter.
type Client struct {
	api     completer
	model   string
	timeout time.Duration
	sem     chan struct{}
	now     func() time.Time
}

func NewClient(config Config) *Client {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}
	return newClient(openai.NewClientWithConfig(clientConfig), config)
}

func newClient(api completer, config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.Concurrency <= 0 {
		config.Concurrency = defaultConcurrency
	}
	return &Client{
		api:     api,
		model:   config.Model,
		timeout: config.Timeout,
		sem:     make(chan struct{}, config.Concurrency),
		now:     time.Now,
	}
}

// complete sends one user message and returns the text of the first choice.
// At most Concurrency calls are in flight at once.
func (c *Client) complete(ctx context.Context, parts []openai.ChatMessagePart) (string, error) {
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{{
			Role:         openai.ChatMessageRoleUser,
			MultiContent: parts,
		}},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

var codeFence = regexp.MustCompile("```(?:json)?\\n?")

// stripCodeFences removes markdown fences the model wraps JSON in.
func stripCodeFences(text string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(text, ""))
}
