package repository

import (
	"time"

	"github.com/picme-app/picme/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	GetByResetToken(token string) (*models.User, error)
	List(offset, limit int) ([]models.User, int64, error)
	Update(user *models.User) error
	UpdatePlan(userID uint, plan string) error
	Delete(id uint) error
}

// SubscriptionRepository owns the single persisted Subscription record per
// user and its external-id lookups.
type SubscriptionRepository interface {
	GetByUserID(userID uint) (*models.Subscription, error)
	GetByStripeCustomerID(customerID string) (*models.Subscription, error)
	GetByStripeSubscriptionID(subscriptionID string) (*models.Subscription, error)
	Upsert(sub *models.Subscription) error
	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

// ProfileRepository defines profile storage (1:1 with user)
type ProfileRepository interface {
	GetByUserID(userID uint) (*models.Profile, error)
	GetOrCreate(userID uint) (*models.Profile, error)
	Save(profile *models.Profile) error
}

// ArtworkRepository defines the interface for artwork database operations
type ArtworkRepository interface {
	Create(artwork *models.Artwork) error
	GetByID(id uint) (*models.Artwork, error)
	GetByUserID(userID uint) ([]models.Artwork, error)
	GetVisibleByUserID(userID uint) ([]models.Artwork, error)
	Update(artwork *models.Artwork) error
	Delete(id uint) error
	CountByUserID(userID uint) (int64, error)
	SumFileSizeByUserID(userID uint) (int64, error)
	Reorder(userID uint, orderedIDs []uint) error
}

// SocialLinkRepository defines the interface for social link operations
type SocialLinkRepository interface {
	Create(link *models.SocialLink) error
	GetByID(id uint) (*models.SocialLink, error)
	GetByUserID(userID uint) ([]models.SocialLink, error)
	GetVisibleByUserID(userID uint) ([]models.SocialLink, error)
	Update(link *models.SocialLink) error
	Delete(id uint) error
	CountByUserID(userID uint) (int64, error)
	Reorder(userID uint, orderedIDs []uint) error
}

// PostRepository defines the interface for post operations
type PostRepository interface {
	Create(post *models.Post) error
	GetByID(id uint) (*models.Post, error)
	GetByUserID(userID uint) ([]models.Post, error)
	GetPublishedByUserID(userID uint) ([]models.Post, error)
	Update(post *models.Post) error
	Delete(id uint) error
	CountByUserID(userID uint) (int64, error)
	IncrementViewCount(id uint) error
}

// CategoryRepository defines the interface for category operations
type CategoryRepository interface {
	Create(category *models.Category) error
	GetByID(id uint) (*models.Category, error)
	GetByUserID(userID uint) ([]models.Category, error)
	GetByUserIDAndSlug(userID uint, slug string) (*models.Category, error)
	Update(category *models.Category) error
	Delete(id uint) error
	CountByUserID(userID uint) (int64, error)
}

// TagRepository defines the interface for tag operations
type TagRepository interface {
	GetOrCreate(userID uint, name string) (*models.Tag, error)
	GetByUserID(userID uint) ([]models.Tag, error)
	GetByArtworkID(artworkID uint) ([]models.Tag, error)
	ReplaceForArtwork(artwork *models.Artwork, tags []models.Tag) error
}

// PageViewRepository stores public page visits for analytics
type PageViewRepository interface {
	Create(view *models.PageView) error
	CountByUserIDSince(userID uint, since time.Time) (int64, error)
	CountUniqueByUserIDSince(userID uint, since time.Time) (int64, error)
	TopReferrers(userID uint, since time.Time, limit int) ([]ReferrerCount, error)
	DailyCounts(userID uint, since time.Time) ([]DailyCount, error)
}

// ReferrerCount is one row of the top-referrer aggregation.
type ReferrerCount struct {
	Referrer string `json:"referrer"`
	Count    int64  `json:"count"`
}

// DailyCount is one day of aggregated page views.
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"views"`
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Subscription SubscriptionRepository
	Profile      ProfileRepository
	Artwork      ArtworkRepository
	SocialLink   SocialLinkRepository
	Post         PostRepository
	Category     CategoryRepository
	Tag          TagRepository
	PageView     PageViewRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Profile:      NewProfileRepository(db),
		Artwork:      NewArtworkRepository(db),
		SocialLink:   NewSocialLinkRepository(db),
		Post:         NewPostRepository(db),
		Category:     NewCategoryRepository(db),
		Tag:          NewTagRepository(db),
		PageView:     NewPageViewRepository(db),
	}
}
