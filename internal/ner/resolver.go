package ner

import (
	"context"
	"fmt"

	"github.com/opsforge-io/ticketwash/internal/config"
)

// Resolve builds the detector named by cfg and probes it. A failed probe
// is returned as an ErrDetectorUnavailable-wrapped error; callers must
// not proceed with sanitization when Resolve fails.
func Resolve(ctx context.Context, cfg *config.Config) (Detector, error) {
	var d Detector
	switch cfg.NERProvider {
	case "ollama", "":
		d = NewOllamaDetector(cfg.OllamaBaseURL, cfg.NERModel)
	case "openai":
		if cfg.OpenAIBaseURL != "" {
			d = NewOpenAIDetectorWithBaseURL(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.NERModel)
		} else {
			d = NewOpenAIDetector(cfg.OpenAIAPIKey, cfg.NERModel)
		}
	default:
		return nil, fmt.Errorf("unknown ner_provider %q (want ollama or openai)", cfg.NERProvider)
	}

	if err := d.Ping(ctx); err != nil {
		return nil, fmt.Errorf("probing %s detector: %w", d.Name(), err)
	}
	return d, nil
}
