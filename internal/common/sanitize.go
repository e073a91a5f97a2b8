// File: internal/common/sanitize.go
package common

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// maxUnescapeRounds bounds how many layers of entity encoding are peeled off
// before sanitising.
const maxUnescapeRounds = 4

// SanitizeText strips any markup from user supplied free text and trims it.
// Entities are decoded before the policy runs so encoded tags are treated as
// tags; bluemonday escapes what it keeps, so the result is unescaped once more.
func SanitizeText(s string) string {
	for i := 0; i < maxUnescapeRounds; i++ {
		decoded := html.UnescapeString(s)
		if decoded == s {
			break
		}
		s = decoded
	}
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}
