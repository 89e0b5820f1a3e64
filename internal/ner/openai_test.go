package ner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockOpenAI(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-test",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": ` + reply + `}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIDetect(t *testing.T) {
	srv := mockOpenAI(t, `"[{\"text\":\"Bob Lee\",\"category\":\"PERSON\"}]"`)
	d := NewOpenAIDetectorWithBaseURL("test-key", srv.URL, "gpt-4o-mini")

	dets, err := d.Detect(context.Background(), "Bob Lee opened a ticket")
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, Detection{Text: "Bob Lee", Category: Person}, dets[0])
}

func TestOpenAIDetectEmptyReply(t *testing.T) {
	srv := mockOpenAI(t, `"[]"`)
	d := NewOpenAIDetectorWithBaseURL("test-key", srv.URL, "gpt-4o-mini")

	dets, err := d.Detect(context.Background(), "no entities at all")
	require.NoError(t, err)
	assert.Empty(t, dets)
}
