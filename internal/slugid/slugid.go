package slugid

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/labstack/gommon/random"
)

// suffixLen is the length of the random tail appended to every slug.
const suffixLen = 6

// New builds a URL-safe, non-enumerable slug from a human-readable label:
// slugify(label) plus a fresh 6-character lowercase-alphanumeric suffix.
// The suffix is regenerated on every call, so re-saving a record always
// produces a new slug.
func New(label string) string {
	suffix := random.String(suffixLen, random.Lowercase, random.Numeric)
	base := Slugify(label)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

// Code returns a 32-character uppercase hex reference code, used for domain
// reference numbers (patient unique codes, attendance references).
func Code() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back anyway.
		return strings.ToUpper(random.String(32, random.Hex))
	}
	return strings.ToUpper(hex.EncodeToString(buf))
}

// Slugify lowercases label and collapses every non-alphanumeric run into a
// single hyphen, trimming leading and trailing hyphens.
func Slugify(label string) string {
	var b strings.Builder
	b.Grow(len(label))

	hyphen := false
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			hyphen = false
		default:
			if !hyphen && b.Len() > 0 {
				b.WriteByte('-')
				hyphen = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}
