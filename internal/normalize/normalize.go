// Package normalize provides the value-cleaning rules applied to raw CSV
// fields before any mapping lookup. Cleaning is idempotent: applying a rule
// to its own output is a no-op.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Kind selects the cleaning profile for a field.
type Kind string

const (
	KindDefault    Kind = "default"
	KindBroker     Kind = "broker"
	KindCarrier    Kind = "carrier"
	KindPolicyType Kind = "policy_type"
)

var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	parentheticRe  = regexp.MustCompile(`\s*\([^)]*\)`)
	edgeTrimRe     = regexp.MustCompile(`^[\s\-_.]+|[\s\-_.]+$`)
	nonColumnRe    = regexp.MustCompile(`[^a-z0-9_]`)
	abbreviationRe = map[*regexp.Regexp]string{}
)

// Corporate suffixes stripped case-insensitively from the end of carrier and
// policy-type values. Ordered longest-first so compound suffixes win.
var corporateSuffixes = []string{
	"Insurance Company",
	"Insurance Co",
	"Insurance",
	"Ins Co",
	"Ins.",
	"Inc.",
	"Inc",
	"Corporation",
	"Corp.",
	"Limited",
	"Ltd.",
	"Ltd",
	"LLC",
	"Company",
	"Co.",
}

// Carrier abbreviations expanded as whole words, case-insensitively.
var carrierAbbreviations = map[string]string{
	"Natl": "National",
	"Intl": "International",
	"Amer": "American",
	"Gen":  "General",
	"Corp": "Corporation",
	"Ins":  "Insurance",
}

func init() {
	for abbr, full := range carrierAbbreviations {
		re := regexp.MustCompile(`(?i)\b` + abbr + `\b`)
		abbreviationRe[re] = full
	}
}

// Clean normalizes a raw field value for mapping lookup according to the
// cleaning profile of the given kind. Empty input always yields "".
func Clean(raw string, kind Kind) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}

	// Broker names keep their identity for exact lookups: whitespace
	// normalization and capitalization only.
	if kind == KindBroker {
		return capitalizeWords(value)
	}

	value = collapseWhitespace(value)

	// Keep the left-hand segment of slash- or comma-delimited values.
	if i := strings.IndexAny(value, "/,"); i >= 0 {
		value = value[:i]
	}

	value = parentheticRe.ReplaceAllString(value, "")
	value = stripCorporateSuffixes(value)
	value = edgeTrimRe.ReplaceAllString(value, "")
	value = strings.ReplaceAll(value, "&", "and")
	value = strings.ReplaceAll(value, "+", "and")
	value = capitalizeWords(value)

	if kind == KindCarrier {
		value = strings.TrimPrefix(value, "The ")
		value = expandCarrierAbbreviations(value)
		// Expansion can reintroduce a suffix ("Acme Ins" -> "Acme
		// Insurance"), so strip once more to stay idempotent.
		value = stripCorporateSuffixes(value)
	}

	return strings.TrimSpace(value)
}

// stripCorporateSuffixes removes trailing corporate designations until none
// remain.
func stripCorporateSuffixes(value string) string {
	for {
		stripped := false
		for _, suffix := range corporateSuffixes {
			// The suffix must be a whole trailing word, not the tail
			// of a longer one.
			if len(value) > len(suffix)+1 &&
				value[len(value)-len(suffix)-1] == ' ' &&
				strings.EqualFold(value[len(value)-len(suffix):], suffix) {
				value = strings.TrimSpace(value[:len(value)-len(suffix)])
				stripped = true
				break
			}
		}
		if !stripped {
			return value
		}
	}
}

func expandCarrierAbbreviations(value string) string {
	for re, full := range abbreviationRe {
		value = re.ReplaceAllString(value, full)
	}
	return value
}

func collapseWhitespace(value string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(value), " ")
}

// capitalizeWords upper-cases the first letter of each whitespace-separated
// word and lower-cases the rest.
func capitalizeWords(value string) string {
	words := strings.Fields(value)
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// CleanPolicyNumber strips control and invisible characters (including
// zero-width spaces) and surrounding whitespace from a raw policy number.
// An empty result is valid; the caller treats it as missing.
func CleanPolicyNumber(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// NormalizeColumnName lowercases a CSV header and replaces anything that is
// not a letter, digit or underscore with an underscore, so header variations
// can be matched against the column-alias table.
func NormalizeColumnName(col string) string {
	return nonColumnRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(col)), "_")
}
