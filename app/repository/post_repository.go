package repository

import (
	"github.com/picme-app/picme/app/models"
	"gorm.io/gorm"
)

// postRepository implements the PostRepository interface
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository instance
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// Create creates a new post in the database
func (r *postRepository) Create(post *models.Post) error {
	return r.db.Create(post).Error
}

// GetByID retrieves a post by its ID
func (r *postRepository) GetByID(id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetByUserID retrieves all posts of a user, newest first
func (r *postRepository) GetByUserID(userID uint) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

// GetPublishedByUserID retrieves published posts for the public page
func (r *postRepository) GetPublishedByUserID(userID uint) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.Where("user_id = ? AND published_at IS NOT NULL", userID).
		Order("published_at DESC").
		Find(&posts).Error
	return posts, err
}

// Update updates an existing post
func (r *postRepository) Update(post *models.Post) error {
	return r.db.Save(post).Error
}

// Delete removes a post
func (r *postRepository) Delete(id uint) error {
	return r.db.Delete(&models.Post{}, id).Error
}

// CountByUserID counts posts owned by a user
func (r *postRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Post{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// IncrementViewCount atomically bumps the view counter of a post
func (r *postRepository) IncrementViewCount(id uint) error {
	return r.db.Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}
