package repository

import (
	"errors"

	"github.com/picme-app/picme/app/models"
	"gorm.io/gorm"
)

// tagRepository implements the TagRepository interface
type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new tag repository instance
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

// GetOrCreate finds a user's tag by name or creates it if missing
func (r *tagRepository) GetOrCreate(userID uint, name string) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.Where("user_id = ? AND name = ?", userID, name).First(&tag).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = models.Tag{UserID: userID, Name: name}
			if err := r.db.Create(&tag).Error; err != nil {
				return nil, err
			}
			return &tag, nil
		}
		return nil, err
	}
	return &tag, nil
}

// GetByUserID retrieves all tags of a user ordered by name
func (r *tagRepository) GetByUserID(userID uint) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.Where("user_id = ?", userID).
		Order("name ASC").
		Find(&tags).Error
	return tags, err
}

// GetByArtworkID retrieves all tags attached to an artwork
func (r *tagRepository) GetByArtworkID(artworkID uint) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.Joins("JOIN artwork_tags ON artwork_tags.tag_id = tags.id").
		Where("artwork_tags.artwork_id = ?", artworkID).
		Order("tags.name ASC").
		Find(&tags).Error
	return tags, err
}

// ReplaceForArtwork replaces the tag set of an artwork
func (r *tagRepository) ReplaceForArtwork(artwork *models.Artwork, tags []models.Tag) error {
	return r.db.Model(artwork).Association("Tags").Replace(tags)
}
