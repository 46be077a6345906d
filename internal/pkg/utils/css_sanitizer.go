package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// dangerousCSSPattern matches CSS constructs that can leak data or execute
// script: imports, url/expression calls, javascript handlers, escape
// sequences and data URIs.
var dangerousCSSPattern = regexp.MustCompile(
	`(?i)(@import|url\s*\(|expression\s*\(|javascript:|behavior:|-moz-binding|eval\s*\(|document\.|window\.|\\[0-9a-f]|data:)`,
)

// SanitizeCSS drops every line containing a dangerous construct and returns
// the remaining stylesheet.
func SanitizeCSS(css string) string {
	if strings.TrimSpace(css) == "" {
		return ""
	}

	var sanitized strings.Builder
	for _, line := range strings.Split(css, "\n") {
		if !dangerousCSSPattern.MatchString(strings.TrimSpace(line)) {
			sanitized.WriteString(line)
			sanitized.WriteString("\n")
		}
	}
	return strings.TrimSpace(sanitized.String())
}

// ValidateCSS checks the stylesheet against the line budget and the
// dangerous-construct list. Returns an empty string when valid, otherwise a
// user-facing message.
func ValidateCSS(css string, maxLines int) string {
	if strings.TrimSpace(css) == "" {
		return ""
	}

	lineCount := strings.Count(css, "\n") + 1
	if lineCount > maxLines {
		return fmt.Sprintf("custom CSS must be at most %d lines (currently %d)", maxLines, lineCount)
	}

	if dangerousCSSPattern.MatchString(css) {
		return "custom CSS contains forbidden constructs (@import, url(), expression() and similar are not allowed)"
	}
	return ""
}
