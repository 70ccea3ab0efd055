package utils

import (
	"html"
	"regexp"
)

var scriptTags = regexp.MustCompile(`(?is)<script.*?>.*?</script>`)

// Sanitize escapes HTML special characters and removes any potential script
// tag sequences. Applied to every free-text field before it is stored.
func Sanitize(input string) string {
	sanitized := html.EscapeString(input)
	return scriptTags.ReplaceAllString(sanitized, "")
}
