package utils

import (
	"regexp"
	"strings"
)

var angleBrackets = regexp.MustCompile(`[<>]`)

// SanitizeText strips angle brackets and trims surrounding whitespace from
// free-text input before it is stored.
func SanitizeText(s string) string {
	return strings.TrimSpace(angleBrackets.ReplaceAllString(s, ""))
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)

// ValidUsername reports whether s is an acceptable username: 3-30 chars of
// letters, digits, underscore or hyphen.
func ValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}
