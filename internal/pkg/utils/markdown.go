package utils

import (
	"regexp"
	"strings"
)

var (
	markdownHeadingPattern = regexp.MustCompile(`(?m)^#{1,6}\s`)
	markdownImagePattern   = regexp.MustCompile(`!\[.*\]\(.*\)`)
	markdownLinkPattern    = regexp.MustCompile(`\[.*\]\(.*\)`)
)

// ContainsMarkdown reports whether post content uses markdown syntax. Plain
// text passes on every plan, markdown is gated behind the pro feature flag.
func ContainsMarkdown(content string) bool {
	if content == "" {
		return false
	}
	return strings.Contains(content, "```") ||
		markdownHeadingPattern.MatchString(content) ||
		strings.Contains(content, "**") ||
		strings.Contains(content, "__") ||
		markdownImagePattern.MatchString(content) ||
		markdownLinkPattern.MatchString(content)
}
