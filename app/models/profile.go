package models

import "time"

// Profile holds the public-facing portfolio page settings (1:1 with User).
type Profile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	DisplayName string    `gorm:"type:varchar(100)" json:"display_name" validate:"max=100"`
	Bio         string    `gorm:"type:text" json:"bio" validate:"max=1000"`
	AvatarURL   string    `gorm:"type:varchar(500)" json:"avatar_url" validate:"omitempty,url,max=500"`
	CoverURL    string    `gorm:"type:varchar(500)" json:"cover_url" validate:"omitempty,url,max=500"`
	Theme       string    `gorm:"type:varchar(50);default:'default'" json:"theme"`
	CustomCSS   string    `gorm:"type:text" json:"custom_css"` // pro and above, sanitized before save
	Published   bool      `gorm:"default:true" json:"published"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
