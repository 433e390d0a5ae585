package utils

import "github.com/microcosm-cc/bluemonday"

var (
	ugcPolicy   = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// Sanitize keeps user-generated markup (post bodies, comments) while
// stripping anything executable.
func Sanitize(input string) string {
	return ugcPolicy.Sanitize(input)
}

// SanitizePlain strips all markup. Titles are plain text.
func SanitizePlain(input string) string {
	return plainPolicy.Sanitize(input)
}
