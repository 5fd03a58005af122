// Package location implements canonical location handling: normalizing raw
// user-supplied location strings, generating bounded search variants, and
// validating codes against a warehouse's structural template.
package location

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kestrelwms/slotwatch/internal/model"
)

// numericWidth is the zero-padding width applied to aisle/rack/position
// segments so that "1-2-3-A" and "01-02-03-A" canonicalize identically.
const numericWidth = 2

var (
	userPrefixRe = regexp.MustCompile(`^USER[-_][A-Z0-9]+[-_]`)
	separatorRe  = regexp.MustCompile(`[\s_./\\-]+`)
	numericRe    = regexp.MustCompile(`^[0-9]+$`)
	numAlphaRe   = regexp.MustCompile(`^([0-9]+)([A-Z]+)$`)
	alphaNumRe   = regexp.MustCompile(`^([A-Z]+)([0-9]+)$`)
)

// specialTokens maps recognized special-area spellings to their canonical
// token. Special tokens pass through canonicalization untouched aside from
// numeric padding of any trailing counter.
var specialTokens = map[string]string{
	"RECV":      "RECV",
	"RECEIVING": "RECV",
	"STAGE":     "STAGE",
	"STAGING":   "STAGE",
	"DOCK":      "DOCK",
	"AISLE":     "AISLE",
}

// Canonicalize parses a raw location string into its canonical normal form:
// user prefixes stripped, segments split on any separator, numeric segments
// zero-padded, letters uppercased, recognized special-area tokens preserved.
// Empty or whitespace input canonicalizes to the missing-location sentinel,
// never to a valid code. Canonicalize is idempotent.
func Canonicalize(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return model.MissingLocation
	}

	s = userPrefixRe.ReplaceAllString(s, "")

	tokens := splitTokens(s)
	if len(tokens) == 0 {
		return model.MissingLocation
	}

	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, normalizeToken(tok))
	}

	return strings.Join(out, "-")
}

// splitTokens breaks a location string into segments, further splitting
// glued segments like "12A" or "RECV3" into their numeric and alphabetic
// parts.
func splitTokens(s string) []string {
	parts := separatorRe.Split(s, -1)
	tokens := make([]string, 0, len(parts)+2)
	for _, part := range parts {
		if part == "" {
			continue
		}
		if m := numAlphaRe.FindStringSubmatch(part); m != nil {
			tokens = append(tokens, m[1], m[2])
			continue
		}
		if m := alphaNumRe.FindStringSubmatch(part); m != nil {
			tokens = append(tokens, m[1], m[2])
			continue
		}
		tokens = append(tokens, part)
	}
	return tokens
}

// normalizeToken pads numeric tokens and maps special-area aliases.
func normalizeToken(tok string) string {
	if canonical, ok := specialTokens[tok]; ok {
		return canonical
	}
	if numericRe.MatchString(tok) {
		return padNumeric(tok)
	}
	return tok
}

// padNumeric zero-pads a numeric segment to the canonical width. Segments
// too long to be grid coordinates are passed through unchanged.
func padNumeric(tok string) string {
	if len(tok) > 9 {
		return tok
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return tok
	}
	return fmt.Sprintf("%0*d", numericWidth, n)
}

// Variants generates the bounded set of equivalent spellings for a canonical
// code, used when matching snapshot locations against template catalogs. The
// set is deliberately small: correctness rests on canonicalization being
// right, not on brute-force enumeration.
func Variants(code string) []string {
	if code == "" || code == model.MissingLocation {
		return nil
	}

	tokens := strings.Split(code, "-")
	unpadded := make([]string, len(tokens))
	for i, tok := range tokens {
		if numericRe.MatchString(tok) {
			unpadded[i] = strings.TrimLeft(tok, "0")
			if unpadded[i] == "" {
				unpadded[i] = "0"
			}
		} else {
			unpadded[i] = tok
		}
	}

	candidates := []string{
		code,
		strings.Join(unpadded, "-"),
		strings.Join(tokens, ""),
		strings.Join(unpadded, ""),
		strings.Join(tokens, "_"),
	}

	const maxVariants = 6
	seen := make(map[string]struct{}, len(candidates))
	variants := make([]string, 0, len(candidates))
	for _, v := range candidates {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		variants = append(variants, v)
		if len(variants) == maxVariants {
			break
		}
	}
	return variants
}

// FormatInfo is the diagnostic result of CheckFormat.
type FormatInfo struct {
	Format    string
	Parseable bool
}

// Recognized format names.
const (
	FormatMissing     = "missing"
	FormatStructural  = "structural"
	FormatSpecialArea = "special-area"
	FormatFreeform    = "freeform"
)

// CheckFormat classifies the shape of a raw location string. It is
// diagnostic only and never fails.
func CheckFormat(raw string) FormatInfo {
	code := Canonicalize(raw)
	if code == model.MissingLocation {
		return FormatInfo{Format: FormatMissing, Parseable: false}
	}

	tokens := strings.Split(code, "-")
	if _, ok := specialTokens[tokens[0]]; ok {
		return FormatInfo{Format: FormatSpecialArea, Parseable: true}
	}
	if isStructural(tokens) {
		return FormatInfo{Format: FormatStructural, Parseable: true}
	}
	return FormatInfo{Format: FormatFreeform, Parseable: false}
}

// isStructural reports whether tokens have the aisle-rack-position-level
// grid shape.
func isStructural(tokens []string) bool {
	if len(tokens) != 4 {
		return false
	}
	for i := 0; i < 3; i++ {
		if !numericRe.MatchString(tokens[i]) {
			return false
		}
	}
	level := tokens[3]
	return len(level) == 1 && level[0] >= 'A' && level[0] <= 'Z'
}
