package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"invoiceprobe/internal/config"

	"github.com/stretchr/testify/assert"
)

const modelsBody = `{"models":[
	{"name":"models/gemini-1.5-flash","displayName":"Gemini 1.5 Flash","supportedGenerationMethods":["generateContent","countTokens"]},
	{"name":"models/text-embedding-004","displayName":"Text Embedding 004","supportedGenerationMethods":["embedContent"]}
]}`

func newServer(t *testing.T, paths *[]string) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*paths = append(*paths, r.Method+" "+r.URL.Path)
		if r.URL.Path != "/v1beta/models" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(modelsBody))
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T, key, model, baseURL string) *config.Config {
	return &config.Config{LogDir: t.TempDir(), LogLevel: "error", GeminiKey: key, GeminiModel: model, GeminiBaseURL: baseURL, HTTPTimeout: 5}
}

func TestRun_ListsViaFallback(t *testing.T) {
	var paths []string
	server := newServer(t, &paths)

	var out bytes.Buffer
	code := run(context.Background(), testConfig(t, "key", "gemini-1.5-flash", server.URL), false, &out)

	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"GET /v1/models", "GET /v1beta/models"}, paths)
	assert.Contains(t, out.String(), "Models available via v1beta:")
	assert.Contains(t, out.String(), "gemini-1.5-flash")
	assert.NotContains(t, out.String(), "text-embedding-004")
}

func TestRun_AllAndUnknownModel(t *testing.T) {
	var paths []string
	server := newServer(t, &paths)

	var out bytes.Buffer
	code := run(context.Background(), testConfig(t, "key", "gemini-9-ultra", server.URL), true, &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "text-embedding-004")
}

func TestRun_MissingKey(t *testing.T) {
	var paths []string
	server := newServer(t, &paths)

	code := run(context.Background(), testConfig(t, "", "gemini-1.5-flash", server.URL), false, &bytes.Buffer{})

	assert.Equal(t, 1, code)
	assert.Empty(t, paths)
}

func TestRun_ModelOnLaterPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageToken") == "" {
			_, _ = w.Write([]byte(`{"models":[{"name":"models/gemini-1.0-pro","supportedGenerationMethods":["generateContent"]}],"nextPageToken":"next"}`))
			return
		}
		_, _ = w.Write([]byte(modelsBody))
	}))
	defer server.Close()

	var out bytes.Buffer
	code := run(context.Background(), testConfig(t, "key", "gemini-1.5-flash", server.URL), false, &out)

	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "Models available via v1:")
	assert.Contains(t, out.String(), "gemini-1.0-pro")
	assert.Contains(t, out.String(), "gemini-1.5-flash")
}
