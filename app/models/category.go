package models

import (
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Category groups artworks; available on pro and above.
type Category struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index:ux_categories_user_slug,unique,priority:1" json:"user_id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name" validate:"required,max=100"`
	Slug         string    `gorm:"type:varchar(120);not null;index:ux_categories_user_slug,unique,priority:2" json:"slug"`
	DisplayOrder int       `gorm:"default:0;index" json:"display_order"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

var slugPattern = regexp.MustCompile(`[^a-z0-9\p{Hiragana}\p{Katakana}\p{Han}]+`)

// Slugify builds a URL-safe slug from a display name.
func Slugify(name string) string {
	s := slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(s, "-")
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	return nil
}
