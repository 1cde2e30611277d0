// internal/app/system/htmlsanitize/htmlsanitize.go
//
// Package htmlsanitize cleans user-supplied rich text (event and proposal
// descriptions, member bios, application motivation) before persistence.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var (
	// ugc allows basic formatting markup but strips scripts, event
	// handlers, and javascript: URLs.
	ugc = bluemonday.UGCPolicy()

	// strict strips all markup, leaving plain text.
	strict = bluemonday.StrictPolicy()
)

// Sanitize cleans rich text, keeping safe formatting tags.
func Sanitize(s string) string {
	return ugc.Sanitize(s)
}

// PlainText strips every tag, for fields that must never contain markup.
func PlainText(s string) string {
	return strict.Sanitize(s)
}
