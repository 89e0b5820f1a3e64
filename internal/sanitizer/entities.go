package sanitizer

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/opsforge-io/ticketwash/internal/allowlist"
	"github.com/opsforge-io/ticketwash/internal/ner"
)

// Pseudonymizer is the free-text stage: it runs the entity detector over
// a field and replaces people, organizations, and places with
// placeholders. PERSON and ORG go through the document mapper so the
// same name reads as the same pseudonym everywhere in the ticket; GPE
// and LOC collapse to fixed labels with no identity tracking.
type Pseudonymizer struct {
	detector ner.Detector
	vendors  *allowlist.List
}

// NewPseudonymizer creates the entity stage.
func NewPseudonymizer(detector ner.Detector, vendors *allowlist.List) *Pseudonymizer {
	return &Pseudonymizer{detector: detector, vendors: vendors}
}

// replacement pairs a detected span with its placeholder.
type replacement struct {
	span        string
	placeholder string
}

// Sanitize pseudonymizes entity mentions in text using the given
// document mapper. A detector failure on one field is a per-field
// anomaly, not a run abort: it is logged and the text is returned
// unchanged as best-effort output.
func (p *Pseudonymizer) Sanitize(ctx context.Context, text string, mapper *Mapper) string {
	if text == "" {
		return text
	}

	ctx, span := tracer.Start(ctx, "sanitizer.pseudonymize")
	defer span.End()

	detections, err := p.detector.Detect(ctx, text)
	if err != nil {
		span.RecordError(err)
		log.Warn().Err(err).Msg("entity detection failed for field, leaving text as-is")
		return text
	}

	var repls []replacement
	seen := make(map[string]bool, len(detections))
	for _, d := range detections {
		if !d.Category.Actionable() || seen[d.Text] {
			continue
		}
		if p.vendors.ContainsVendorMention(d.Text) {
			continue
		}
		seen[d.Text] = true

		switch d.Category {
		case ner.Person:
			repls = append(repls, replacement{d.Text, mapper.Placeholder(d.Text, CategoryPerson)})
		case ner.Org:
			repls = append(repls, replacement{d.Text, mapper.Placeholder(d.Text, CategoryOrg)})
		case ner.GPE:
			repls = append(repls, replacement{d.Text, "[GPE]"})
		case ner.Loc:
			repls = append(repls, replacement{d.Text, "[LOC]"})
		}
	}

	// Longest span first so "Jane Smith" is substituted before a separate
	// "Jane" detection can mangle it. Equal lengths keep detection order
	// (SliceStable); the detector does not promise that order means
	// anything, only that it is deterministic.
	sort.SliceStable(repls, func(i, j int) bool {
		return len(repls[i].span) > len(repls[j].span)
	})

	// Substitution is by literal text match, not position: every
	// occurrence of the span in the field is replaced under the same
	// mapping.
	for _, r := range repls {
		text = strings.ReplaceAll(text, r.span, r.placeholder)
	}

	span.SetAttributes(
		attribute.Int("ner.detection_count", len(detections)),
		attribute.Int("ner.replaced_count", len(repls)),
	)
	return text
}
