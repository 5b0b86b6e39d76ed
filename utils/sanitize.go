package utils

import "github.com/microcosm-cc/bluemonday"

var (
	sanitizer = bluemonday.UGCPolicy()
	stripper  = bluemonday.StrictPolicy()
)

// Sanitize cleans HTML content to prevent XSS attacks while keeping UGC markup.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// StripTags removes all markup; used for titles and plain-text fields.
func StripTags(input string) string {
	return stripper.Sanitize(input)
}
