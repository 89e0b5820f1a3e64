package ner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsforge-io/ticketwash/internal/config"
)

func TestResolveOllama(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	d, err := Resolve(context.Background(), &config.Config{
		NERProvider:   "ollama",
		NERModel:      "llama3.2",
		OllamaBaseURL: srv.URL,
	})
	require.NoError(t, err)
	assert.Equal(t, "ollama", d.Name())
}

func TestResolveOpenAICompatible(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/models" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"object":"list","data":[]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	d, err := Resolve(context.Background(), &config.Config{
		NERProvider:   "openai",
		NERModel:      "gpt-4o-mini",
		OpenAIBaseURL: srv.URL,
		OpenAIAPIKey:  "test-key",
	})
	require.NoError(t, err)
	assert.Equal(t, "openai", d.Name())
}

func TestResolveUnknownProvider(t *testing.T) {
	_, err := Resolve(context.Background(), &config.Config{NERProvider: "presidio"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown ner_provider")
}

func TestResolveUnavailableDetectorIsFatal(t *testing.T) {
	_, err := Resolve(context.Background(), &config.Config{
		NERProvider:   "ollama",
		OllamaBaseURL: "http://127.0.0.1:1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDetectorUnavailable)
}
