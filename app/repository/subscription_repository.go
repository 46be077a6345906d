package repository

import (
	"time"

	"github.com/picme-app/picme/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a subscription repository backed by GORM.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// GetByUserID retrieves the subscription row for a user
func (r *subscriptionRepository) GetByUserID(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetByStripeCustomerID locates a subscription by the provider customer id
func (r *subscriptionRepository) GetByStripeCustomerID(customerID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("stripe_customer_id = ?", customerID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetByStripeSubscriptionID locates a subscription by the provider subscription id
func (r *subscriptionRepository) GetByStripeSubscriptionID(subscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("stripe_subscription_id = ?", subscriptionID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Upsert writes the subscription keyed by user_id. The unique constraint on
// user_id makes concurrent get-or-create races collapse into one row.
func (r *subscriptionRepository) Upsert(sub *models.Subscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"plan_type",
			"status",
			"stripe_customer_id",
			"stripe_subscription_id",
			"stripe_price_id",
			"current_period_start",
			"current_period_end",
			"cancel_at_period_end",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("user_id = ?", sub.UserID).First(sub).Error
}

// CreateWebhookEventIfNotExists inserts the processing-log row unless the
// provider event id was seen before. Returns created=false for duplicates.
func (r *subscriptionRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "stripe_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("stripe_event_id = ?", event.StripeEventID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (r *subscriptionRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
