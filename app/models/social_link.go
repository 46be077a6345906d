package models

import "time"

// SocialLink is one external profile link shown on the public page.
type SocialLink struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Platform     string    `gorm:"type:varchar(50);not null" json:"platform" validate:"required,max=50"`
	URL          string    `gorm:"type:varchar(500);not null" json:"url" validate:"required,url,max=500"`
	Icon         string    `gorm:"type:varchar(100)" json:"icon" validate:"max=100"`
	DisplayOrder int       `gorm:"default:0;index" json:"display_order"`
	Visible      bool      `gorm:"default:true" json:"visible"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
