package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"invoiceprobe/internal/config"

	"github.com/stretchr/testify/assert"
)

func testConfig(t *testing.T, key, baseURL string) *config.Config {
	return &config.Config{
		LogDir:        t.TempDir(),
		LogLevel:      "error",
		OpenAIKey:     key,
		OpenAIModel:   "gpt-test",
		OpenAIBaseURL: baseURL,
		HTTPTimeout:   5,
	}
}

// fakeOpenAI answers "Yes." when the subject starts with Invoice or Bill
func fakeOpenAI(t *testing.T, hits *int32) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Path == "/v1/models" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
			return
		}

		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		answer := "No."
		user := strings.ToLower(req.Messages[len(req.Messages)-1].Content)
		if strings.Contains(user, "subject: invoice") || strings.Contains(user, "subject: bill") {
			answer = "Yes."
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"choices": []map[string]interface{}{{"index": 0, "message": map[string]string{"role": "assistant", "content": answer}}},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRun_MissingKeyMakesNoRequest(t *testing.T) {
	var hits int32
	server := fakeOpenAI(t, &hits)

	var out bytes.Buffer
	code := run(context.Background(), testConfig(t, " ", server.URL+"/v1"), options{ping: true}, &out)

	assert.Equal(t, 1, code)
	assert.Zero(t, atomic.LoadInt32(&hits))
	assert.Empty(t, out.String())
}

func TestRun_ClassifiesFixturesAndEML(t *testing.T) {
	var hits int32
	server := fakeOpenAI(t, &hits)

	var out bytes.Buffer
	opts := options{ping: true, emlPath: filepath.Join("..", "..", "internal", "emails", "testdata", "invoice.eml")}
	code := run(context.Background(), testConfig(t, "sk-test", server.URL+"/v1"), opts, &out)

	assert.Equal(t, int32(1+4+1), atomic.LoadInt32(&hits))
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "4 passed, 0 failed, 0 errors (5 total)")
	assert.Contains(t, out.String(), "isInvoice=false, expected false")
	assert.Contains(t, out.String(), "INFO ")
}

func TestRun_APIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	var out bytes.Buffer
	code := run(context.Background(), testConfig(t, "sk-bad", server.URL+"/v1"), options{}, &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "0 passed, 0 failed, 4 errors (4 total)")
}

func TestRun_MissingEMLPathFailsRun(t *testing.T) {
	var hits int32
	server := fakeOpenAI(t, &hits)

	var out bytes.Buffer
	opts := options{emlPath: filepath.Join(t.TempDir(), "missing.eml")}
	code := run(context.Background(), testConfig(t, "sk-test", server.URL+"/v1"), opts, &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "4 passed, 0 failed, 1 errors (5 total)")
}
