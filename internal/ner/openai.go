package ner

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OpenAIDetector runs entity extraction against an OpenAI-compatible
// chat completions endpoint.
type OpenAIDetector struct {
	client *openai.Client
	model  string
}

// NewOpenAIDetector creates a detector using the hosted OpenAI API.
func NewOpenAIDetector(apiKey, model string) *OpenAIDetector {
	return &OpenAIDetector{client: openai.NewClient(apiKey), model: model}
}

// NewOpenAIDetectorWithBaseURL creates a detector against a custom
// OpenAI-compatible endpoint (e.g. a mock server in tests, or a local
// inference gateway). baseURL is scheme+host; /v1 is appended.
func NewOpenAIDetectorWithBaseURL(apiKey, baseURL, model string) *OpenAIDetector {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL + "/v1"
	return &OpenAIDetector{client: openai.NewClientWithConfig(config), model: model}
}

// Name returns the provider identifier.
func (d *OpenAIDetector) Name() string {
	return "openai"
}

// Detect sends a chat completion request and parses the reply into
// detections.
func (d *OpenAIDetector) Detect(ctx context.Context, text string) ([]Detection, error) {
	ctx, span := tracer.Start(ctx, "ner.detect",
		trace.WithAttributes(
			attribute.String("ner.provider", "openai"),
			attribute.String("ner.model", d.model),
		))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, TimeoutDetect)
	defer cancel()

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("openai api call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai api call: no choices returned")
	}

	dets, err := parseDetections(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("parsing openai detections: %w", err)
	}
	span.SetAttributes(attribute.Int("ner.detection_count", len(dets)))
	return dets, nil
}

// Ping lists models as a reachability and credentials check.
func (d *OpenAIDetector) Ping(ctx context.Context) error {
	if _, err := d.client.ListModels(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}
	return nil
}
