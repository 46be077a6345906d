package models

import (
	"time"

	"gorm.io/gorm"
)

// Tag labels artworks; available on pro and above like categories.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:ux_tags_user_slug,unique,priority:1" json:"user_id"`
	Name      string    `gorm:"type:varchar(50);not null" json:"name" validate:"required,max=50"`
	Slug      string    `gorm:"type:varchar(60);not null;index:ux_tags_user_slug,unique,priority:2" json:"slug"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.Slug == "" {
		t.Slug = Slugify(t.Name)
	}
	return nil
}
