package repository

import (
	"github.com/picme-app/picme/app/models"
	"gorm.io/gorm"
)

// socialLinkRepository implements the SocialLinkRepository interface
type socialLinkRepository struct {
	db *gorm.DB
}

// NewSocialLinkRepository creates a new social link repository instance
func NewSocialLinkRepository(db *gorm.DB) SocialLinkRepository {
	return &socialLinkRepository{db: db}
}

// Create creates a new social link in the database
func (r *socialLinkRepository) Create(link *models.SocialLink) error {
	return r.db.Create(link).Error
}

// GetByID retrieves a social link by its ID
func (r *socialLinkRepository) GetByID(id uint) (*models.SocialLink, error) {
	var link models.SocialLink
	err := r.db.First(&link, id).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// GetByUserID retrieves all social links of a user in display order
func (r *socialLinkRepository) GetByUserID(userID uint) ([]models.SocialLink, error) {
	var links []models.SocialLink
	err := r.db.Where("user_id = ?", userID).
		Order("display_order ASC, id ASC").
		Find(&links).Error
	return links, err
}

// GetVisibleByUserID retrieves the links shown on the public page
func (r *socialLinkRepository) GetVisibleByUserID(userID uint) ([]models.SocialLink, error) {
	var links []models.SocialLink
	err := r.db.Where("user_id = ? AND visible = ?", userID, true).
		Order("display_order ASC, id ASC").
		Find(&links).Error
	return links, err
}

// Update updates an existing social link
func (r *socialLinkRepository) Update(link *models.SocialLink) error {
	return r.db.Save(link).Error
}

// Delete removes a social link
func (r *socialLinkRepository) Delete(id uint) error {
	return r.db.Delete(&models.SocialLink{}, id).Error
}

// CountByUserID counts social links owned by a user
func (r *socialLinkRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.SocialLink{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// Reorder rewrites display_order following the given id sequence
func (r *socialLinkRepository) Reorder(userID uint, orderedIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for idx, id := range orderedIDs {
			if err := tx.Model(&models.SocialLink{}).
				Where("id = ? AND user_id = ?", id, userID).
				Update("display_order", idx).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
