package models

import (
	"time"

	"gorm.io/gorm"
)

// Artwork is one gallery piece owned by a user. FileSize feeds the storage
// quota check on upload.
type Artwork struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;index" json:"user_id"`
	UUID         string     `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	Title        string     `gorm:"type:varchar(200);not null" json:"title" validate:"required,max=200"`
	Description  string     `gorm:"type:text" json:"description" validate:"max=2000"`
	ImageURL     string     `gorm:"type:varchar(500)" json:"image_url"`
	ThumbnailURL string     `gorm:"type:varchar(500)" json:"thumbnail_url"`
	ObjectKey    string     `gorm:"type:varchar(500)" json:"-"` // S3 object key
	FileSize     int64      `gorm:"default:0" json:"file_size"`
	CategoryID   *uint      `gorm:"index" json:"category_id,omitempty"`
	DisplayOrder int        `gorm:"default:0;index" json:"display_order"`
	Visible      bool       `gorm:"default:true" json:"visible"`
	Tags         []Tag      `gorm:"many2many:artwork_tags" json:"tags,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
