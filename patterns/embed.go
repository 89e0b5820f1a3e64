// Package patterns provides embedded default data files for the sanitizer.
// vendors.yaml holds the built-in vendor allow-list that ships with the
// binary; operator-supplied lists are unioned on top of it at load time.
package patterns

import _ "embed"

//go:embed vendors.yaml
var vendorsYAML []byte

// VendorsYAML returns the embedded default vendor allow-list definitions.
func VendorsYAML() []byte { return vendorsYAML }
