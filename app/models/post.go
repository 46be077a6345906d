package models

import "time"

// Post is a news/blog entry on the portfolio page. Markdown content is
// allowed on pro and above only; plain text everywhere.
type Post struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;index" json:"user_id"`
	Title        string     `gorm:"type:varchar(200);not null" json:"title" validate:"required,max=200"`
	Content      string     `gorm:"type:text" json:"content" validate:"max=20000"`
	ThumbnailURL string     `gorm:"type:varchar(500)" json:"thumbnail_url" validate:"omitempty,url,max=500"`
	Visible      bool       `gorm:"default:true" json:"visible"`
	PublishedAt  *time.Time `gorm:"type:timestamp;default:null" json:"published_at,omitempty"`
	ViewCount    int64      `gorm:"default:0" json:"view_count"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
