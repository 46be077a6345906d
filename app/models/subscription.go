package models

import "time"

const (
	SubscriptionStatusActive     = "active"
	SubscriptionStatusPastDue    = "past_due"
	SubscriptionStatusCanceled   = "canceled"
	SubscriptionStatusIncomplete = "incomplete"
	SubscriptionStatusTrialing   = "trialing"
)

// Subscription is the locally-authoritative record of a user's paid plan,
// kept in sync with the billing provider's event stream. One row per user;
// absence means an implicit free plan. Rows are never hard-deleted,
// cancellation is a status transition.
type Subscription struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	UserID               uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	PlanType             string     `gorm:"type:varchar(50);not null;default:'free'" json:"plan_type"`
	Status               string     `gorm:"type:varchar(32);not null;default:'active';index" json:"status"`
	StripeCustomerID     string     `gorm:"type:varchar(191);default:'';index" json:"-"`
	StripeSubscriptionID string     `gorm:"type:varchar(191);default:'';index" json:"-"`
	StripePriceID        string     `gorm:"type:varchar(191);default:''" json:"-"`
	CurrentPeriodStart   *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsEntitling reports whether the subscription status grants its plan's
// entitlements. Past-due keeps the plan (grace period); the status maps to
// free limits only after the provider reports deletion.
func (s *Subscription) IsEntitling() bool {
	switch s.Status {
	case SubscriptionStatusActive, SubscriptionStatusTrialing:
		return true
	default:
		return false
	}
}
