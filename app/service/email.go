package service

import "strings"

// NormalizeEmail is the form used for storage and lookups: trimmed and lower-cased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
