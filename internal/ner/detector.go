// Package ner defines the named-entity detection boundary of the pipeline.
//
// The sanitizer core only needs one narrow capability: given a text
// value, return the substrings that look like people, organizations, and
// places. Everything behind that contract (local Ollama model, an
// OpenAI-compatible endpoint, a deterministic fake in tests) is
// interchangeable. Detection quality bounds redaction quality; the
// pipeline never second-guesses the detector beyond its allow-list and
// category filters.
package ner

import (
	"context"
	"errors"
	"time"
)

// TimeoutDetect bounds a single detection call. The pipeline itself has
// no suspension points, so this is the only place a run can block.
const TimeoutDetect = 60 * time.Second

// ErrDetectorUnavailable is returned by a failed startup probe. The
// caller must treat it as fatal: running with silent, absent entity
// detection would let names through unredacted.
var ErrDetectorUnavailable = errors.New("entity detector not available")

// Category labels a detection. Values follow the OntoNotes scheme used
// by common NER models (PERSON, ORG, GPE, LOC, DATE, ...).
type Category string

// Categories the sanitizer acts on. Detections with any other label are
// ignored by the pipeline.
const (
	Person Category = "PERSON"
	Org    Category = "ORG"
	GPE    Category = "GPE"
	Loc    Category = "LOC"
)

// Actionable reports whether the category is one the pipeline redacts.
func (c Category) Actionable() bool {
	switch c {
	case Person, Org, GPE, Loc:
		return true
	}
	return false
}

// Detection is one entity found in a text value. Text is the exact
// matched substring; the pipeline substitutes by literal match, so no
// position is carried.
type Detection struct {
	Text     string   `json:"text"`
	Category Category `json:"category"`
}

// Detector is the entity-detection capability injected into the
// pipeline. Implementations must be safe for sequential reuse across
// documents; concurrent use is only required of implementations that
// document it.
type Detector interface {
	// Name returns the provider identifier (e.g. "ollama", "openai").
	Name() string
	// Detect returns all entities found in text. An empty result is not
	// an error.
	Detect(ctx context.Context, text string) ([]Detection, error)
	// Ping verifies the detector is reachable and ready. Called once at
	// startup; failure is fatal.
	Ping(ctx context.Context) error
}
