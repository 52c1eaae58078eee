package utils

import "github.com/microcosm-cc/bluemonday"

var (
	ugcPolicy   = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// Sanitize keeps the user-generated-content subset of HTML. Comment and post
// bodies and signatures go through it.
func Sanitize(input string) string {
	return ugcPolicy.Sanitize(input)
}

// SanitizePlain strips every tag, for single-line fields such as titles.
func SanitizePlain(input string) string {
	return plainPolicy.Sanitize(input)
}
