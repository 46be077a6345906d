package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeCSSDropsDangerousLines(t *testing.T) {
	css := ".profile { color: red; }\n" +
		"@import url('https://evil.example/x.css');\n" +
		".bio { background: url(https://evil.example/p.png); }\n" +
		".links { font-weight: bold; }"

	out := SanitizeCSS(css)
	assert.Contains(t, out, ".profile { color: red; }")
	assert.Contains(t, out, ".links { font-weight: bold; }")
	assert.NotContains(t, out, "@import")
	assert.NotContains(t, out, "url(")
}

func TestSanitizeCSSEmpty(t *testing.T) {
	assert.Equal(t, "", SanitizeCSS("   "))
}

func TestValidateCSS(t *testing.T) {
	tests := []struct {
		name     string
		css      string
		maxLines int
		wantErr  bool
	}{
		{"valid", ".a { color: blue; }", 100, false},
		{"empty is valid", "", 100, false},
		{"too many lines", strings.Repeat(".a { color: blue; }\n", 101), 100, true},
		{"expression call", ".a { width: expression(alert(1)); }", 100, true},
		{"javascript uri", ".a { background: javascript:alert(1); }", 100, true},
		{"data uri", ".a { background: data:text/html;base64,x; }", 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := ValidateCSS(tt.css, tt.maxLines)
			if tt.wantErr {
				assert.NotEmpty(t, msg)
			} else {
				assert.Empty(t, msg)
			}
		})
	}
}

func TestGetGravatarURL(t *testing.T) {
	// Normalization: surrounding whitespace and case must not change the hash
	a := GetGravatarURL("  Creator@Example.COM ", 200)
	b := GetGravatarURL("creator@example.com", 200)
	assert.Equal(t, a, b)
	assert.Contains(t, a, "https://www.gravatar.com/avatar/")
	assert.Contains(t, a, "s=200")
	assert.Contains(t, a, "d=mp")

	// Out-of-range sizes fall back to the default
	assert.Contains(t, GetGravatarURL("creator@example.com", 0), "s=200")
	assert.Contains(t, GetGravatarURL("creator@example.com", 5000), "s=200")
}

func TestContainsMarkdown(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"plain text", "just a normal update about my work", false},
		{"empty", "", false},
		{"code fence", "look at this\n```go\nfmt.Println(1)\n```", true},
		{"heading", "# My new series", true},
		{"deep heading", "###### fine print", true},
		{"hash without space is plain", "#hashtag stuff", false},
		{"bold", "this is **important**", true},
		{"underscores", "the __real__ story", true},
		{"image", "here ![alt](https://example.com/a.png)", true},
		{"link", "see [my shop](https://example.com)", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsMarkdown(tt.content))
		})
	}
}
