package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"invoiceprobe/internal/config"
	"invoiceprobe/internal/fixtures"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeOpenAI(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		handler(w, r)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &calls
}

func answer(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:    "chatcmpl-test",
			Model: "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{Index: 0, Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
			},
		})
	}
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	cfg := &config.Config{OpenAIKey: "sk-test", OpenAIModel: "gpt-4o-mini", OpenAIBaseURL: server.URL + "/v1", HTTPTimeout: 5}
	client, err := NewClient(cfg, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestNewClient_MissingKey(t *testing.T) {
	client, err := NewClient(&config.Config{}, zerolog.Nop())
	assert.Nil(t, client)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrMissingAPIKey))
}

func TestNewClient_DefaultModel(t *testing.T) {
	client, err := NewClient(&config.Config{OpenAIKey: "sk-test"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, openai.GPT4oMini, client.Model())
}

func TestClassifyInvoice(t *testing.T) {
	c, ok := fixtures.Find("hosting-invoice")
	require.True(t, ok)

	tests := []struct {
		name     string
		answer   string
		expected bool
	}{
		{"plain yes", "Yes", true},
		{"upper case yes", "YES.", true},
		{"yes in sentence", "Yes, it is an invoice.", true},
		{"plain no", "No", false},
		{"no in sentence", "No - this is a newsletter.", false},
		{"empty answer", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, calls := newFakeOpenAI(t, answer(tt.answer))
			client := newTestClient(t, server)

			result := client.ClassifyInvoice(context.Background(), c.Sample)

			assert.True(t, result.Success)
			assert.Equal(t, "openai", result.Provider)
			assert.Equal(t, "gpt-4o-mini", result.Model)
			assert.Equal(t, c.Sample.Name, result.Sample)
			require.NotNil(t, result.IsInvoice)
			assert.Equal(t, tt.expected, *result.IsInvoice)
			assert.Nil(t, result.Confidence)
			assert.Equal(t, int32(1), atomic.LoadInt32(calls))
		})
	}
}

func TestClassifyInvoice_RequestShape(t *testing.T) {
	var got openai.ChatCompletionRequest
	server, _ := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		answer("no")(w, r)
	})
	client := newTestClient(t, server)

	c, _ := fixtures.Find("lunch-invite")
	client.ClassifyInvoice(context.Background(), c.Sample)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, classifyMaxTokens, got.MaxTokens)
	assert.InDelta(t, classifyTemperature, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, got.Messages[1].Role)
	assert.Contains(t, got.Messages[1].Content, "Lunch on Friday?")
}

func TestClassifyInvoice_APIError(t *testing.T) {
	server, _ := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`))
	})
	client := newTestClient(t, server)

	c, _ := fixtures.Find("hosting-invoice")
	result := client.ClassifyInvoice(context.Background(), c.Sample)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Incorrect API key provided")
	assert.Equal(t, "status 401, type invalid_request_error", result.Details)
	assert.Nil(t, result.IsInvoice)
}

func TestClassifyInvoice_NoChoices(t *testing.T) {
	server, _ := newFakeOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	})
	client := newTestClient(t, server)

	c, _ := fixtures.Find("hosting-invoice")
	result := client.ClassifyInvoice(context.Background(), c.Sample)

	assert.False(t, result.Success)
	assert.Equal(t, "no response from OpenAI", result.Error)
}
