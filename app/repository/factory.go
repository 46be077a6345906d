package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetUserRepository returns the user repository instance
func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

// GetSubscriptionRepository returns the subscription repository instance
func (f *Factory) GetSubscriptionRepository() SubscriptionRepository {
	return f.GetRepositories().Subscription
}

// GetProfileRepository returns the profile repository instance
func (f *Factory) GetProfileRepository() ProfileRepository {
	return f.GetRepositories().Profile
}

// GetArtworkRepository returns the artwork repository instance
func (f *Factory) GetArtworkRepository() ArtworkRepository {
	return f.GetRepositories().Artwork
}

// GetSocialLinkRepository returns the social link repository instance
func (f *Factory) GetSocialLinkRepository() SocialLinkRepository {
	return f.GetRepositories().SocialLink
}

// GetPostRepository returns the post repository instance
func (f *Factory) GetPostRepository() PostRepository {
	return f.GetRepositories().Post
}

// GetCategoryRepository returns the category repository instance
func (f *Factory) GetCategoryRepository() CategoryRepository {
	return f.GetRepositories().Category
}

// GetTagRepository returns the tag repository instance
func (f *Factory) GetTagRepository() TagRepository {
	return f.GetRepositories().Tag
}

// GetPageViewRepository returns the page view repository instance
func (f *Factory) GetPageViewRepository() PageViewRepository {
	return f.GetRepositories().PageView
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the initialized global factory
func GetGlobalFactory() *Factory {
	return globalFactory
}
