// Package normalize canonicalizes owner names and plot identifiers so
// that superficial formatting differences between the cadastral (GIS)
// dataset and the transcribed register records do not depress
// similarity scores.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// honorifics holds the leading title tokens stripped from owner names.
// Jamabandi transcriptions prefix owners with these inconsistently,
// the digitized survey attributes usually omit them.
var honorifics = []string{
	"shri", "smt", "mr", "mrs", "ms", "dr", "prof", "sh",
	"श्री", "श्रीमती",
}

// identifier separators that vary between recording systems
const idSeparators = "-/\\."

// devanagari block bounds (U+0900 .. U+097F)
const (
	devanagariLo = 0x0900
	devanagariHi = 0x097F
)

// Name canonicalizes an owner name for fuzzy comparison. It trims,
// applies Unicode NFC normalization, lower-cases, strips at most one
// leading honorific token, removes characters that are neither
// alphanumeric, whitespace, nor Devanagari, and collapses whitespace
// runs to a single space. Empty input yields an empty string.
func Name(raw string) string {
	if raw == "" {
		return ""
	}

	s := norm.NFC.String(strings.TrimSpace(raw))
	s = strings.ToLower(s)

	// Strip one leading honorific when followed by a space. A bare
	// honorific with nothing after it is kept as the name itself.
	for _, h := range honorifics {
		if strings.HasPrefix(s, h+" ") {
			s = s[len(h)+1:]
			break
		}
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) ||
			(r >= devanagariLo && r <= devanagariHi) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Identifier canonicalizes a plot identifier. Separators (- / \ .)
// and whitespace act as token boundaries, tokens consisting only of
// digits lose their leading zeros, and the tokens are concatenated
// without separators. Plot identifiers recorded across two independent
// systems frequently differ only in separator style or zero-padding
// ("P-007" vs "p7"); both sides normalize to the same string here.
func Identifier(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(idSeparators, r) {
			return ' '
		}
		return r
	}, s)

	parts := strings.Fields(s)
	for i, p := range parts {
		if isAllDigits(p) {
			p = strings.TrimLeft(p, "0")
			if p == "" {
				p = "0"
			}
			parts[i] = p
		}
	}

	return strings.Join(parts, "")
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
