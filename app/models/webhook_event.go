package models

import "time"

// WebhookEvent is the processing log for provider webhook deliveries. The
// unique event id makes repeated delivery of the same event visible; the
// state machine itself stays idempotent either way.
type WebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	StripeEventID   string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"stripe_event_id"`
	EventType       string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}
