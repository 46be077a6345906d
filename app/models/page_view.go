package models

import "time"

// PageView is one visit to a user's public page. VisitorHash is a salted
// hash of the visitor IP, the raw address is not stored.
type PageView struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index:idx_page_views_user_time,priority:1" json:"user_id"`
	VisitorHash string    `gorm:"type:char(64);index" json:"-"`
	Referrer    string    `gorm:"type:varchar(500)" json:"referrer"`
	UserAgent   string    `gorm:"type:varchar(500)" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_page_views_user_time,priority:2" json:"created_at"`
}
