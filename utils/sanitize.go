package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

const maxSanitizePasses = 5

// SanitizeText strips any markup from free text (notes, terms, titles) before
// it is stored and later rendered into emails and PDFs. Entities are decoded
// only once a sanitize pass no longer changes the text, so encoded markup
// cannot come back to life.
func SanitizeText(s string) string {
	clean := s
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(strictPolicy.Sanitize(clean))
		if next == clean {
			return strings.TrimSpace(clean)
		}
		clean = next
	}
	return strings.TrimSpace(strictPolicy.Sanitize(clean))
}
