// Package phone canonicalizes raw phone strings into comparable +E.164-like
// keys and detects duplicate contacts within a chapter.
package phone

import (
	"strings"

	appErrors "github.com/trailblaize/outreach-backend/internal/errors"
)

// ErrInvalidPhone is returned for input that cannot be normalized.
var ErrInvalidPhone = appErrors.NewValidation("invalid phone number")

// fieldDelimiters are the separators people use when cramming two numbers
// into one spreadsheet cell.
const fieldDelimiters = ",;/|"

// Digits strips everything but 0-9 from raw.
func Digits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Normalize canonicalizes a single phone string. Ten digits get the default
// US country prefix; 11 digits starting with 1, and any 11-15 digit
// international number, keep their own prefix. Re-normalizing a canonical
// form is a no-op.
func Normalize(raw string) (string, error) {
	digits := Digits(raw)

	switch {
	case len(digits) == 10:
		return "+1" + digits, nil
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return "+" + digits, nil
	case len(digits) >= 11 && len(digits) <= 15:
		return "+" + digits, nil
	}
	return "", ErrInvalidPhone
}

// SplitField splits a raw field that may contain two phone numbers. A
// delimiter wins if present; otherwise a digit count of exactly twice a
// valid single-number length (20, or 21/22 when both halves carry the
// country-code digit) is split at the midpoint. Anything else is treated
// as one candidate.
func SplitField(raw string) (string, string) {
	if i := strings.IndexAny(raw, fieldDelimiters); i >= 0 {
		return strings.TrimSpace(raw[:i]), strings.TrimSpace(raw[i+1:])
	}

	digits := Digits(raw)
	switch len(digits) {
	case 20:
		return digits[:10], digits[10:]
	case 22:
		if strings.HasPrefix(digits, "1") && digits[11] == '1' {
			return digits[:11], digits[11:]
		}
	case 21:
		// One prefixed number and one bare, in either order.
		if strings.HasPrefix(digits, "1") {
			return digits[:11], digits[11:]
		}
		if digits[10] == '1' {
			return digits[:10], digits[10:]
		}
	}
	return strings.TrimSpace(raw), ""
}

// Deduper tracks normalized primary phones already seen within a chapter.
// The first occurrence of a key wins; later ones are counted, not erred.
type Deduper struct {
	seen       map[string]bool
	Duplicates int
}

// NewDeduper seeds the deduper with keys that already exist in the store.
func NewDeduper(existing []string) *Deduper {
	seen := make(map[string]bool, len(existing))
	for _, k := range existing {
		seen[k] = true
	}
	return &Deduper{seen: seen}
}

// Admit records key and reports whether this is its first occurrence.
func (d *Deduper) Admit(key string) bool {
	if key == "" {
		return true
	}
	if d.seen[key] {
		d.Duplicates++
		return false
	}
	d.seen[key] = true
	return true
}
