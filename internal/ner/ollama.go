package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	washotel "github.com/opsforge-io/ticketwash/internal/otel"
)

var tracer = washotel.Tracer("github.com/opsforge-io/ticketwash/internal/ner")

// OllamaDetector runs entity extraction against a local Ollama instance.
type OllamaDetector struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaDetector creates an Ollama-backed detector. An empty baseURL
// defaults to http://localhost:11434.
func NewOllamaDetector(baseURL, model string) *OllamaDetector {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaDetector{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{},
	}
}

// Name returns the provider identifier.
func (d *OllamaDetector) Name() string {
	return "ollama"
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Detect sends a chat request to Ollama and parses the reply into
// detections.
func (d *OllamaDetector) Detect(ctx context.Context, text string) ([]Detection, error) {
	ctx, span := tracer.Start(ctx, "ner.detect",
		trace.WithAttributes(
			attribute.String("ner.provider", "ollama"),
			attribute.String("ner.model", d.model),
		))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, TimeoutDetect)
	defer cancel()

	apiReq := ollamaRequest{
		Model: d.model,
		Messages: []ollamaMessage{
			{Role: "system", Content: extractionPrompt},
			{Role: "user", Content: text},
		},
		Stream: false,
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshalling ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", d.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("ollama api call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama api call: status %d", resp.StatusCode)
	}

	var apiResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decoding ollama response: %w", err)
	}

	dets, err := parseDetections(apiResp.Message.Content)
	if err != nil {
		return nil, fmt.Errorf("parsing ollama detections: %w", err)
	}
	span.SetAttributes(attribute.Int("ner.detection_count", len(dets)))
	return dets, nil
}

// Ping checks the Ollama instance is reachable.
func (d *OllamaDetector) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", d.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("creating ollama ping: %w", err)
	}
	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: ollama returned status %d", ErrDetectorUnavailable, resp.StatusCode)
	}
	return nil
}
