// Package normalize cleans user-supplied strings before they are stored or
// compared. Case-insensitive lookups use the *CI fields built with text.Fold;
// these helpers only trim and canonicalize.
package normalize

import (
	"strings"
	"unicode"
)

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// LoginID trims and lowercases a login id. Login ids are matched
// case-insensitively so the stored form is always lower case.
func LoginID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses internal runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Role trims and lowercases a role name.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status trims and lowercases a status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Category trims and lowercases a filter category; "all" maps to "".
func Category(s string) string {
	c := strings.ToLower(strings.TrimSpace(s))
	if c == "all" {
		return ""
	}
	return c
}

// QueryParam trims a free-text query parameter. Case is preserved.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Phone strips formatting from a phone number, keeping digits and a
// leading '+'. Returns "" when no digits remain.
func Phone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if strings.Trim(out, "+") == "" {
		return ""
	}
	return out
}
