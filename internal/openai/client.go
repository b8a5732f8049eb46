// Package openai provides the chat-completion client used for yes/no invoice
// classification
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"invoiceprobe/internal/classify"
	"invoiceprobe/internal/config"
	"invoiceprobe/internal/models"
	"invoiceprobe/internal/prompts"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

const (
	classifyMaxTokens   = 10
	classifyTemperature = 0.1
)

// Client wraps the go-openai client for a single model
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewClient creates a client from configuration. A missing key fails before
// any request is made.
func NewClient(cfg *config.Config, logger zerolog.Logger) (*Client, error) {
	if err := cfg.RequireOpenAIKey(); err != nil {
		return nil, err
	}

	clientConfig := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.OpenAIBaseURL, "/")
	}

	model := cfg.OpenAIModel
	if model == "" {
		model = openai.GPT4oMini
	}

	logger.Debug().Str("model", model).Str("base_url", clientConfig.BaseURL).Msg("OpenAI client configured")

	return &Client{
		api:     openai.NewClientWithConfig(clientConfig),
		model:   model,
		timeout: cfg.Timeout(),
		logger:  logger,
	}, nil
}

// Model returns the chat model in use
func (c *Client) Model() string {
	return c.model
}

// TestConnection verifies the key by listing models
func (c *Client) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("failed to connect to OpenAI: %w", err)
	}

	c.logger.Info().Msg("OpenAI connection test successful")
	return nil
}

// CreateChatCompletion generates a chat completion and returns the first choice
func (c *Client) CreateChatCompletion(ctx context.Context, messages []openai.ChatCompletionMessage, maxTokens int, temperature float32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ClassifyInvoice asks whether sample is an invoice and maps the answer to a
// boolean. Call failures are reported in the Result, never returned.
func (c *Client) ClassifyInvoice(ctx context.Context, sample models.EmailSample) models.Result {
	start := time.Now()

	answer, err := c.CreateChatCompletion(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: prompts.YesNoSystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: prompts.YesNo(sample)},
	}, classifyMaxTokens, classifyTemperature)

	if err != nil {
		result := models.Failed(models.ProviderOpenAI, c.model, sample.Name, err, errorDetails(err))
		result.Duration = time.Since(start)
		c.logger.Error().Err(err).Str("sample", sample.Name).Msg("OpenAI classification failed")
		return result
	}

	isInvoice := classify.ParseYesNo(answer)
	return models.Result{
		Success:   true,
		Provider:  models.ProviderOpenAI,
		Model:     c.model,
		Sample:    sample.Name,
		RawText:   answer,
		IsInvoice: &isInvoice,
		Duration:  time.Since(start),
	}
}

func errorDetails(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("status %d, type %s", apiErr.HTTPStatusCode, apiErr.Type)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Sprintf("status %d", reqErr.HTTPStatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return ""
}
