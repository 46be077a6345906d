package repository

import (
	"github.com/picme-app/picme/app/models"
	"gorm.io/gorm"
)

// categoryRepository implements the CategoryRepository interface
type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository instance
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// Create creates a new category in the database
func (r *categoryRepository) Create(category *models.Category) error {
	return r.db.Create(category).Error
}

// GetByID retrieves a category by its ID
func (r *categoryRepository) GetByID(id uint) (*models.Category, error) {
	var category models.Category
	err := r.db.First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetByUserID retrieves all categories of a user ordered by name
func (r *categoryRepository) GetByUserID(userID uint) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.Where("user_id = ?", userID).
		Order("name ASC").
		Find(&categories).Error
	return categories, err
}

// GetByUserIDAndSlug retrieves a category by its owner and slug
func (r *categoryRepository) GetByUserIDAndSlug(userID uint, slug string) (*models.Category, error) {
	var category models.Category
	err := r.db.Where("user_id = ? AND slug = ?", userID, slug).First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// Update updates an existing category
func (r *categoryRepository) Update(category *models.Category) error {
	return r.db.Save(category).Error
}

// Delete removes a category and detaches its artworks
func (r *categoryRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Artwork{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, id).Error
	})
}

// CountByUserID counts categories owned by a user
func (r *categoryRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Category{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
