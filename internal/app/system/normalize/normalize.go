// internal/app/system/normalize/normalize.go
//
// Package normalize trims and canonicalizes raw input before validation and
// persistence, so uniqueness checks compare like with like.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a person or event name, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Username lowercases and trims a username (usernames are
// lowercase-constrained).
func Username(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Phone strips spaces and dashes from a phone number, keeping a leading +.
func Phone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Department uppercases a department code (CSE, ECE, ...).
func Department(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Enum lowercases and trims a closed-set value (status, category, interest).
func Enum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
