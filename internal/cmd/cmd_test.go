package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// mockDetectorServer mimics the Ollama API surface the detector needs.
func mockDetectorServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[]}`))
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":{"content":` + reply + `}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ticketwash")
	assert.Contains(t, out, "commit:")
}

func TestSanitizeCommand(t *testing.T) {
	srv := mockDetectorServer(t, `"[{\"text\":\"Jane Smith\",\"category\":\"PERSON\"}]"`)
	t.Setenv("TICKETWASH_OLLAMA_BASE_URL", srv.URL)
	t.Setenv("TICKETWASH_DATA_DIR", t.TempDir())

	dir := t.TempDir()
	input := filepath.Join(dir, "ticket.json")
	output := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(input, []byte(
		`{"ticket":{"subject":"Jane Smith reports 10.0.0.1 down","requester":{"name":"Jane Smith","email":"jane@corp.com"}}}`,
	), 0o600))

	_, err := executeCommand(t, "sanitize", input, output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	ticket := doc["ticket"].(map[string]any)
	assert.Equal(t, "Person_1 reports Device IP 1 down", ticket["subject"])
	assert.Equal(t, "Person_1", ticket["requester"].(map[string]any)["name"])
	assert.Equal(t, "[EMAIL]", ticket["requester"].(map[string]any)["email"])
}

func TestSanitizeCommandInvalidJSON(t *testing.T) {
	srv := mockDetectorServer(t, `"[]"`)
	t.Setenv("TICKETWASH_OLLAMA_BASE_URL", srv.URL)
	t.Setenv("TICKETWASH_DATA_DIR", t.TempDir())

	dir := t.TempDir()
	input := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(input, []byte("{broken"), 0o600))

	_, err := executeCommand(t, "sanitize", input, filepath.Join(dir, "out.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestSanitizeCommandDetectorUnavailable(t *testing.T) {
	t.Setenv("TICKETWASH_OLLAMA_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("TICKETWASH_DATA_DIR", t.TempDir())

	dir := t.TempDir()
	input := filepath.Join(dir, "ticket.json")
	require.NoError(t, os.WriteFile(input, []byte(`{}`), 0o600))

	_, err := executeCommand(t, "sanitize", input, filepath.Join(dir, "out.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entity detector")
}

func TestDoctorCommandDetectorDown(t *testing.T) {
	t.Setenv("TICKETWASH_OLLAMA_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("TICKETWASH_DATA_DIR", t.TempDir())

	out, err := executeCommand(t, "doctor")
	require.Error(t, err)
	assert.Contains(t, out, "UNAVAILABLE")
}

func TestDoctorCommandHealthy(t *testing.T) {
	srv := mockDetectorServer(t, `"[]"`)
	t.Setenv("TICKETWASH_OLLAMA_BASE_URL", srv.URL)
	t.Setenv("TICKETWASH_DATA_DIR", t.TempDir())

	out, err := executeCommand(t, "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "ollama reachable")
	assert.Contains(t, out, "ok")
}

func TestReportCommandEmpty(t *testing.T) {
	t.Setenv("TICKETWASH_DATA_DIR", t.TempDir())

	out, err := executeCommand(t, "report")
	require.NoError(t, err)
	assert.Contains(t, out, "no sanitization runs recorded")
}
