// Package sanitizer strips personally identifiable and
// network-identifying information from support-ticket documents.
//
// Sanitization runs in two stages over every free-text field: an ordered
// structural pass (emails, phones, IPs, URLs, signatures) followed by a
// named-entity pass (people, organizations, places). Identifiers map to
// stable per-document placeholders, so the same person or address reads
// as the same pseudonym throughout one ticket, and nothing carries over
// to the next ticket.
package sanitizer

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/opsforge-io/ticketwash/internal/allowlist"
	"github.com/opsforge-io/ticketwash/internal/ner"
	washotel "github.com/opsforge-io/ticketwash/internal/otel"
)

var tracer = washotel.Tracer("github.com/opsforge-io/ticketwash/internal/sanitizer")

// ErrMalformedDocument marks a document whose present fields do not have
// the expected types. Absent fields are never an error; a string where a
// mapping belongs is.
var ErrMalformedDocument = errors.New("malformed document")

// Document is a decoded ticket record: nested key-value mappings and
// ordered lists, as produced by encoding/json into interface values. The
// transport bytes are the caller's concern.
type Document = map[string]any

// Stats summarizes what one sanitization run replaced, for logging and
// the audit trail.
type Stats struct {
	Fields        int `json:"fields"`   // free-text fields processed
	Comments      int `json:"comments"` // comment entries processed
	Subnets       int `json:"subnets"`  // distinct identifiers mapped
	DeviceIPs     int `json:"device_ips"`
	Persons       int `json:"persons"`
	Organizations int `json:"organizations"`
}

// Sanitizer drives the two-stage pipeline over whole documents. It holds
// only read-only state (allow-list, detector) and is safe for concurrent
// Sanitize calls; each call owns a fresh Mapper.
type Sanitizer struct {
	vendors  *allowlist.List
	detector ner.Detector
}

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// WithVendorList overrides the default vendor allow-list.
func WithVendorList(l *allowlist.List) Option {
	return func(s *Sanitizer) { s.vendors = l }
}

// New creates a Sanitizer with the given entity detector. The detector
// must already be probed (ner.Resolve); New does not verify availability.
func New(detector ner.Detector, opts ...Option) *Sanitizer {
	s := &Sanitizer{
		vendors:  allowlist.Default(),
		detector: detector,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sanitize returns a sanitized copy of doc. The input document is never
// modified: the walker works on an independent deep copy, so callers may
// keep using the original. Mapping state is created fresh for this call
// and discarded with it.
func (s *Sanitizer) Sanitize(ctx context.Context, doc Document) (Document, Stats, error) {
	ctx, span := tracer.Start(ctx, "sanitizer.sanitize")
	defer span.End()

	mapper := NewMapper()
	patterns := NewPatternSanitizer(s.vendors, mapper)
	entities := NewPseudonymizer(s.detector, s.vendors)
	w := &walker{mapper: mapper, patterns: patterns, entities: entities}

	out := deepCopy(doc).(Document)
	if err := w.walk(ctx, out); err != nil {
		span.RecordError(err)
		return nil, Stats{}, err
	}

	stats := w.stats
	stats.Subnets, stats.DeviceIPs, stats.Persons, stats.Organizations = mapper.Counts()
	span.SetAttributes(
		attribute.Int("sanitize.fields", stats.Fields),
		attribute.Int("sanitize.persons", stats.Persons),
		attribute.Int("sanitize.organizations", stats.Organizations),
	)
	return out, stats, nil
}

// walker carries the per-run pipeline state through the document tree.
type walker struct {
	mapper   *Mapper
	patterns *PatternSanitizer
	entities *Pseudonymizer
	stats    Stats
}

// walk sanitizes doc in place. doc is already an independent copy.
func (w *walker) walk(ctx context.Context, doc Document) error {
	if raw, ok := doc["ticket"]; ok {
		ticket, ok := raw.(Document)
		if !ok {
			return fmt.Errorf("%w: ticket is %T, want object", ErrMalformedDocument, raw)
		}
		if err := w.textField(ctx, ticket, "subject"); err != nil {
			return err
		}
		if err := w.textField(ctx, ticket, "description"); err != nil {
			return err
		}
		if err := w.identity(ticket, "requester"); err != nil {
			return err
		}
		if err := w.identity(ticket, "assignee"); err != nil {
			return err
		}
	}

	if raw, ok := doc["comments"]; ok {
		block, ok := raw.(Document)
		if !ok {
			return fmt.Errorf("%w: comments is %T, want object", ErrMalformedDocument, raw)
		}
		rawList, ok := block["comments"]
		if !ok {
			return nil
		}
		list, ok := rawList.([]any)
		if !ok {
			return fmt.Errorf("%w: comments.comments is %T, want list", ErrMalformedDocument, rawList)
		}
		for _, item := range list {
			comment, ok := item.(Document)
			if !ok {
				// Non-mapping entries pass through untouched.
				continue
			}
			if err := w.textField(ctx, comment, "body"); err != nil {
				return err
			}
			w.stats.Comments++
			if err := w.identity(comment, "author"); err != nil {
				return err
			}
		}
	}

	return nil
}

// textField runs the full pipeline (patterns, then entities) over a
// free-text field, replacing it in place. Absent keys are skipped.
func (w *walker) textField(ctx context.Context, parent Document, key string) error {
	raw, ok := parent[key]
	if !ok {
		return nil
	}
	text, ok := raw.(string)
	if !ok {
		return fmt.Errorf("%w: %s is %T, want string", ErrMalformedDocument, key, raw)
	}

	text = w.patterns.Sanitize(text)
	text = w.entities.Sanitize(ctx, text, w.mapper)
	parent[key] = text
	w.stats.Fields++
	return nil
}

// identity pseudonymizes a requester/assignee/author block. The name is
// a bare value at a known position, so it maps straight through the
// person category without a detector round-trip; the email is replaced
// wholesale regardless of format.
func (w *walker) identity(parent Document, key string) error {
	raw, ok := parent[key]
	if !ok {
		return nil
	}
	who, ok := raw.(Document)
	if !ok {
		return fmt.Errorf("%w: %s is %T, want object", ErrMalformedDocument, key, raw)
	}

	if rawName, ok := who["name"]; ok {
		name, ok := rawName.(string)
		if !ok {
			return fmt.Errorf("%w: %s.name is %T, want string", ErrMalformedDocument, key, rawName)
		}
		who["name"] = w.mapper.Placeholder(name, CategoryPerson)
	}
	if _, ok := who["email"]; ok {
		who["email"] = "[EMAIL]"
	}
	return nil
}

// deepCopy clones a decoded JSON tree. Every mapping and list is copied,
// so mutations on the clone can never reach structures shared with the
// caller's document.
func deepCopy(v any) any {
	switch val := v.(type) {
	case Document:
		out := make(Document, len(val))
		for k, item := range val {
			out[k] = deepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return v
	}
}
