// Package gemini calls the Generative Language API, trying the stable v1
// endpoint first and falling back to v1beta only when v1 fails.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"invoiceprobe/internal/config"

	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-1.5-flash"

	maxErrorBody = 4096
	listPageSize = 1000
)

// DefaultVersions is the order API versions are attempted in
var DefaultVersions = []string{"v1", "v1beta"}

// ErrNoCandidates is returned when a response carries no usable text
var ErrNoCandidates = errors.New("no candidates returned from gemini API")

// Client calls generateContent and models.list
type Client struct {
	apiKey          string
	model           string
	baseURL         string
	versions        []string
	httpClient      *http.Client
	logger          zerolog.Logger
	temperature     float32
	maxOutputTokens int
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing)
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// WithVersions overrides the API version fallback order
func WithVersions(versions ...string) Option {
	return func(c *Client) {
		if len(versions) > 0 {
			c.versions = versions
		}
	}
}

// WithLogger attaches a logger for attempt and fallback messages
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithGenerationConfig sets temperature and maxOutputTokens
func WithGenerationConfig(temperature float32, maxOutputTokens int) Option {
	return func(c *Client) {
		c.temperature = temperature
		c.maxOutputTokens = maxOutputTokens
	}
}

// NewClient creates a Gemini client. An empty key fails before anything is sent.
func NewClient(apiKey, model string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY: %w", config.ErrMissingAPIKey)
	}
	if model == "" {
		model = DefaultModel
	}

	c := &Client{
		apiKey:          apiKey,
		model:           model,
		baseURL:         DefaultBaseURL,
		versions:        DefaultVersions,
		httpClient:      &http.Client{Timeout: 60 * time.Second},
		logger:          zerolog.Nop(),
		temperature:     0,
		maxOutputTokens: 20,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Attempt records one API version tried for a call
type Attempt struct {
	Version string
	Err     error
}

// Response is the text of the first candidate and the version that produced it
type Response struct {
	Text       string
	APIVersion string
	Attempts   []Attempt
}

// GenerateContent sends a single-turn prompt, falling back across API versions
func (c *Client) GenerateContent(ctx context.Context, prompt string) (*Response, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     c.temperature,
			MaxOutputTokens: c.maxOutputTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var text string
	attempts, version, err := c.withFallback(ctx, "generateContent", func(ctx context.Context, version string) error {
		endpoint := fmt.Sprintf("%s/%s/models/%s:generateContent?%s", c.baseURL, version, url.PathEscape(c.model), c.keyQuery())

		var result generateResponse
		if err := c.do(ctx, http.MethodPost, endpoint, body, &result); err != nil {
			return err
		}
		t, err := firstCandidateText(result)
		if err != nil {
			return err
		}
		text = t
		return nil
	})

	return &Response{Text: text, APIVersion: version, Attempts: attempts}, err
}

// ModelInfo is an entry returned by models.list
type ModelInfo struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
}

// SupportsGenerateContent reports whether the model can be used by GenerateContent
func (m ModelInfo) SupportsGenerateContent() bool {
	for _, method := range m.SupportedGenerationMethods {
		if method == "generateContent" {
			return true
		}
	}
	return false
}

// ListModels lists the models visible to the key and the version that answered
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, string, error) {
	var list []ModelInfo
	_, version, err := c.withFallback(ctx, "listModels", func(ctx context.Context, version string) error {
		var page []ModelInfo
		pageToken := ""
		for {
			query := url.Values{"key": {c.apiKey}, "pageSize": {strconv.Itoa(listPageSize)}}
			if pageToken != "" {
				query.Set("pageToken", pageToken)
			}
			endpoint := fmt.Sprintf("%s/%s/models?%s", c.baseURL, version, query.Encode())

			var result struct {
				Models        []ModelInfo `json:"models"`
				NextPageToken string      `json:"nextPageToken"`
			}
			if err := c.do(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
				return err
			}
			page = append(page, result.Models...)
			if result.NextPageToken == "" || result.NextPageToken == pageToken {
				break
			}
			pageToken = result.NextPageToken
		}
		list = page
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return list, version, nil
}

// withFallback runs call once per version in order and stops at the first success
func (c *Client) withFallback(ctx context.Context, op string, call func(ctx context.Context, version string) error) ([]Attempt, string, error) {
	var attempts []Attempt
	var errs []error

	for i, version := range c.versions {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		c.logger.Debug().Str("op", op).Str("api_version", version).Str("model", c.model).Msg("Calling Gemini")
		err := call(ctx, version)
		attempts = append(attempts, Attempt{Version: version, Err: err})
		if err == nil {
			if i > 0 {
				c.logger.Info().Str("op", op).Str("api_version", version).Msg("Gemini fallback succeeded")
			}
			return attempts, version, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", version, err))
		if i < len(c.versions)-1 {
			c.logger.Warn().Err(err).Str("op", op).Str("api_version", version).
				Str("next_version", c.versions[i+1]).Msg("Gemini call failed, trying fallback version")
		}
	}

	return attempts, "", fmt.Errorf("all gemini API versions failed: %w", errors.Join(errs...))
}

func (c *Client) keyQuery() string {
	return url.Values{"key": {c.apiKey}}.Encode()
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", c.redact(err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", c.redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("gemini API returned status code %d: %s", resp.StatusCode, strings.TrimSpace(string(respBytes)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// redact keeps the API key out of transport errors, which embed the request URL
func (c *Client) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, url.QueryEscape(c.apiKey), "REDACTED")
	}
	return err
}

func firstCandidateText(result generateResponse) (string, error) {
	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", result.PromptFeedback.BlockReason)
	}
	if len(result.Candidates) == 0 {
		return "", ErrNoCandidates
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrNoCandidates
	}
	return text, nil
}
