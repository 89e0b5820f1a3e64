package sanitizer

import (
	"regexp"

	"github.com/opsforge-io/ticketwash/internal/allowlist"
)

// ipOctet matches 0-255 with no leading-zero exemption; 999 and friends
// never match.
const ipOctet = `(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)`

// Compiled matchers for the structural pass. Kept package-level so every
// PatternSanitizer shares one compilation.
var (
	reEmail = regexp.MustCompile(`\b[\w._%+-]+@[\w.-]+\.[A-Za-z]{2,}\b`)

	// Optional country code, then either US/Canada 3-3-4 grouping or a
	// generic international 2-4/2-4/2-4 digit grouping.
	rePhone = regexp.MustCompile(`\b(?:(?:\+\d{1,2}[\s.-]?)?(?:\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}|\d{2,4}[\s.-]?\d{2,4}[\s.-]?\d{2,4}))\b`)

	reSupportURL = regexp.MustCompile(`https?://support\.auvik\.com/[^\s]+`)
	reEntityURL  = regexp.MustCompile(`https?://my\.auvik\.com/[^#]*#entity/(\d+)(?:[^\s]*)?`)

	reSubnet   = regexp.MustCompile(`\b` + ipOctet + `(?:\.` + ipOctet + `){3}/\d{1,2}\b`)
	reDeviceIP = regexp.MustCompile(`\b` + ipOctet + `(?:\.` + ipOctet + `){3}\b`)

	reURL = regexp.MustCompile(`https?://[\w.-]+(?::\d+)?(?:/[^\s]*)?`)

	// A line that is only a closing salutation, optionally followed by a
	// capitalized name. Best-effort: sign-offs that do not fit this shape
	// survive, which is an accepted miss, not an error.
	reSignature = regexp.MustCompile(`(?im)(?:^|\n)[\s]*(?:best regards|sincerely|thanks|thank you|regards|cheers|\bBR\b)[\s,]*(?:[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)?.*$`)
)

// patternRule is one (matcher, policy) pair of the structural pass. The
// policy receives the full match and returns its replacement; returning
// the match unchanged is an explicit preserve.
type patternRule struct {
	name  string
	re    *regexp.Regexp
	apply func(ps *PatternSanitizer, match string) string
}

// patternRules run in declaration order, and the order is load-bearing:
// CIDR must consume a block before the bare-IP rule can fragment it, the
// catch-all URL rule must run after the trusted-URL rules, and signature
// stripping runs last so earlier rules still see sign-off lines.
var patternRules = []patternRule{
	{
		name: "email",
		re:   reEmail,
		apply: func(ps *PatternSanitizer, match string) string {
			return "[EMAIL]"
		},
	},
	{
		name: "phone",
		re:   rePhone,
		apply: func(ps *PatternSanitizer, match string) string {
			return "[PHONE]"
		},
	},
	{
		name: "support_url",
		re:   reSupportURL,
		apply: func(ps *PatternSanitizer, match string) string {
			return match // trusted support portal, preserved verbatim
		},
	},
	{
		name: "entity_url",
		re:   reEntityURL,
		apply: func(ps *PatternSanitizer, match string) string {
			sub := reEntityURL.FindStringSubmatch(match)
			return "Entity " + sub[1]
		},
	},
	{
		name: "subnet",
		re:   reSubnet,
		apply: func(ps *PatternSanitizer, match string) string {
			return ps.mapper.Placeholder(match, CategorySubnet)
		},
	},
	{
		name: "device_ip",
		re:   reDeviceIP,
		apply: func(ps *PatternSanitizer, match string) string {
			return ps.mapper.Placeholder(match, CategoryDeviceIP)
		},
	},
	{
		name: "url",
		re:   reURL,
		apply: func(ps *PatternSanitizer, match string) string {
			// Trusted support URLs were preserved by an earlier rule and
			// must not be consumed again here.
			if reSupportURL.MatchString(match) {
				return match
			}
			if ps.vendors.ContainsVendorMention(match) {
				return match
			}
			return "[URL]"
		},
	},
	{
		name: "signature",
		re:   reSignature,
		apply: func(ps *PatternSanitizer, match string) string {
			return ""
		},
	},
}

// PatternSanitizer applies the ordered structural substitutions to one
// text value. It consults the vendor allow-list for URL preservation and
// routes network identifiers through the document's mapper.
type PatternSanitizer struct {
	vendors *allowlist.List
	mapper  *Mapper
}

// NewPatternSanitizer creates the structural stage bound to one
// document's mapper.
func NewPatternSanitizer(vendors *allowlist.List, mapper *Mapper) *PatternSanitizer {
	return &PatternSanitizer{vendors: vendors, mapper: mapper}
}

// Sanitize runs every rule, in order, over text.
func (ps *PatternSanitizer) Sanitize(text string) string {
	if text == "" {
		return text
	}
	for _, r := range patternRules {
		rule := r
		text = rule.re.ReplaceAllStringFunc(text, func(match string) string {
			return rule.apply(ps, match)
		})
	}
	return text
}
