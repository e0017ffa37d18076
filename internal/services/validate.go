// Package services – contact field validation.
//
// This file holds the pure validation predicates and the phone normalizer
// used by ContactService. Everything here is stateless and side-effect free:
// no repository lookups, no network, just syntax. Cross-record rules (email
// uniqueness) live in the service methods that have a repository handle.
package services

import (
	"regexp"
	"strings"
	"unicode"
)

// emailRE accepts anything of the form local@domain.tld with no whitespace
// or extra '@'. Deliberately permissive: this is a syntax gate, not RFC 5322.
var emailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether s looks like an email address. Purely
// syntactic; no DNS or mailbox checks.
func IsValidEmail(s string) bool {
	return emailRE.MatchString(s)
}

// IsValidCity reports whether s is a plausible city name: after trimming it
// must be non-empty and consist only of letters (any script, so accented
// Latin names like "São José dos Campos" pass), spaces, and hyphens.
func IsValidCity(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsSpace(r) || r == '-' {
			continue
		}
		return false
	}
	return true
}

// IsValidPhoneFormat reports whether s reduces to 10 or 11 digits once every
// non-digit character is discarded. Formatting characters ("(11) 9…", dashes,
// spaces) are irrelevant to validity.
func IsValidPhoneFormat(s string) bool {
	n := len(NormalizePhone(s))
	return n >= 10 && n <= 11
}

// NormalizePhone strips every character that is not an ASCII digit and
// returns the remaining digits. This is the canonical stored representation
// of a phone number; normalization is idempotent.
func NormalizePhone(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
