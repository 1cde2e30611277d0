// internal/app/system/inputval/inputval.go
//
// Package inputval holds small self-contained validators for raw request
// input. Keep this package free of internal imports; domain models lean on
// it for field-level checks.
package inputval

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
)

// IsValidEmail reports whether s is a plausible RFC 5322 address without a
// display name. Consecutive or leading/trailing dots are rejected even
// though some servers tolerate them.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	local, domain := s[:at], s[at+1:]
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") || strings.Contains(local, "..") {
		return false
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") || strings.Contains(domain, "..") {
		return false
	}
	return true
}

// phoneRe accepts 10-15 digits with an optional leading +country prefix and
// common separators.
var phoneRe = regexp.MustCompile(`^\+?[0-9][0-9 \-]{8,14}[0-9]$`)

// IsValidPhone reports whether s looks like a dialable phone number.
func IsValidPhone(s string) bool {
	return phoneRe.MatchString(strings.TrimSpace(s))
}

// IsValidHTTPURL reports whether s is an absolute http(s) URL.
func IsValidHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// usernameRe: lowercase letters, digits, underscores, 3-30 chars, must start
// with a letter.
var usernameRe = regexp.MustCompile(`^[a-z][a-z0-9_]{2,29}$`)

// IsValidUsername reports whether s satisfies the lowercase username rule.
func IsValidUsername(s string) bool {
	return usernameRe.MatchString(s)
}
