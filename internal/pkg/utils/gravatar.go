package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// GetGravatarURL builds the Gravatar URL for an email address. Used as the
// avatar fallback when a profile has no uploaded image. Sizes outside 1-2048
// fall back to 200px.
func GetGravatarURL(email string, size int) string {
	if size <= 0 || size > 2048 {
		size = 200
	}

	normalized := strings.ToLower(strings.TrimSpace(email))
	hash := md5.Sum([]byte(normalized))

	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=%d&d=mp", hash, size)
}
