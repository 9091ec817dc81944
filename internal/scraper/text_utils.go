// Package scraper provides text helpers shared by the fetch and scan stages.
package scraper

import (
	"strings"
)

// CleanWhitespace collapses runs of whitespace into single spaces
func CleanWhitespace(text string) string {
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(text), SingleSpace)
}

// ContainsAny checks if a string contains any of the substrings (case-insensitive)
func ContainsAny(s string, substrings []string) bool {
	sLower := strings.ToLower(s)
	for _, substr := range substrings {
		if strings.Contains(sLower, strings.ToLower(substr)) {
			return true
		}
	}
	return false
}

// IsCloudflareBlock checks if the error indicates Cloudflare blocking
func IsCloudflareBlock(err error) bool {
	if err == nil {
		return false
	}
	return ContainsAny(err.Error(), CloudflarePatterns)
}

// truncate shortens s to max runes for log fields and failure reasons
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
