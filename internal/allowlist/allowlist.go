// Package allowlist holds the vendor/product names exempted from
// redaction. A ticket about "the Meraki switch at HQ" must keep the word
// Meraki, so both pipeline stages consult this list before replacing a
// match. The list is read-only after construction and safe to share
// across concurrent sanitization runs.
package allowlist

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/opsforge-io/ticketwash/patterns"
)

// vendorFile is the YAML shape of both the embedded defaults and
// operator-supplied vendor list files.
type vendorFile struct {
	Vendors []string `yaml:"vendors"`
}

// List is a set of vendor names matched as case-insensitive substrings.
type List struct {
	names []string // lowercased, deduplicated
}

// Default returns the built-in vendor list parsed from the embedded
// vendors.yaml. The embedded file is expected to always parse; a broken
// build asset is a programmer error, hence the panic.
func Default() *List {
	l, err := parse(patterns.VendorsYAML())
	if err != nil {
		panic(fmt.Sprintf("allowlist: parsing embedded vendors.yaml: %v", err))
	}
	return l
}

// Load returns the union of the embedded defaults and the vendor list at
// path. An empty path means defaults only. A missing or unreadable file
// is recoverable: it logs a warning and falls back to the defaults.
func Load(path string) *List {
	defaults := Default()
	if path == "" {
		return defaults
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("could not load vendor list, using defaults")
		return defaults
	}
	extra, err := parse(data)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("could not parse vendor list, using defaults")
		return defaults
	}
	return defaults.union(extra)
}

func parse(data []byte) (*List, error) {
	var vf vendorFile
	if err := yaml.Unmarshal(data, &vf); err != nil {
		return nil, fmt.Errorf("parsing vendor YAML: %w", err)
	}
	l := &List{}
	seen := make(map[string]bool, len(vf.Vendors))
	for _, v := range vf.Vendors {
		name := strings.ToLower(strings.TrimSpace(v))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		l.names = append(l.names, name)
	}
	return l, nil
}

func (l *List) union(other *List) *List {
	merged := &List{names: append([]string(nil), l.names...)}
	seen := make(map[string]bool, len(l.names))
	for _, n := range l.names {
		seen[n] = true
	}
	for _, n := range other.names {
		if !seen[n] {
			seen[n] = true
			merged.names = append(merged.names, n)
		}
	}
	return merged
}

// ContainsVendorMention reports whether any allow-listed name occurs as a
// case-insensitive substring of text.
func (l *List) ContainsVendorMention(text string) bool {
	lower := strings.ToLower(text)
	for _, name := range l.names {
		if strings.Contains(lower, name) {
			return true
		}
	}
	return false
}

// Len returns the number of distinct names in the list.
func (l *List) Len() int { return len(l.names) }
