// Package plate canonicalizes spoken license plates before validation.
package plate

import (
	"strings"
	"unicode"
)

// Normalizer turns a raw plate string into its canonical compact form.
type Normalizer interface {
	Normalize(raw string) string
}

// Compact removes separators, maps Thai digits to ASCII and upper-cases Latin
// letters, so "ab-12 34" becomes "AB1234" and "กข ๑๒๓๔" becomes "กข1234".
type Compact struct{}

func (Compact) Normalize(raw string) string {
	var sb strings.Builder
	sb.Grow(len(raw))
	for _, r := range raw {
		switch {
		case unicode.IsSpace(r), r == '-', r == '.', r == '_':
			continue
		case r >= '๐' && r <= '๙':
			sb.WriteRune('0' + (r - '๐'))
		case r >= 'a' && r <= 'z':
			sb.WriteRune(unicode.ToUpper(r))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Func adapts a plain function to Normalizer.
type Func func(raw string) string

func (f Func) Normalize(raw string) string {
	return f(raw)
}
