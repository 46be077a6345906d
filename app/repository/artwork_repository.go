package repository

import (
	"github.com/picme-app/picme/app/models"
	"gorm.io/gorm"
)

// artworkRepository implements the ArtworkRepository interface
type artworkRepository struct {
	db *gorm.DB
}

// NewArtworkRepository creates a new artwork repository instance
func NewArtworkRepository(db *gorm.DB) ArtworkRepository {
	return &artworkRepository{db: db}
}

// Create creates a new artwork in the database
func (r *artworkRepository) Create(artwork *models.Artwork) error {
	return r.db.Create(artwork).Error
}

// GetByID retrieves an artwork by its ID
func (r *artworkRepository) GetByID(id uint) (*models.Artwork, error) {
	var artwork models.Artwork
	err := r.db.Preload("Tags").First(&artwork, id).Error
	if err != nil {
		return nil, err
	}
	return &artwork, nil
}

// GetByUserID retrieves all artworks owned by a user in display order
func (r *artworkRepository) GetByUserID(userID uint) ([]models.Artwork, error) {
	var artworks []models.Artwork
	err := r.db.Preload("Tags").
		Where("user_id = ?", userID).
		Order("display_order ASC, id ASC").
		Find(&artworks).Error
	return artworks, err
}

// GetVisibleByUserID retrieves publicly visible artworks for the public page
func (r *artworkRepository) GetVisibleByUserID(userID uint) ([]models.Artwork, error) {
	var artworks []models.Artwork
	err := r.db.Where("user_id = ? AND visible = ?", userID, true).
		Order("display_order ASC, id ASC").
		Find(&artworks).Error
	return artworks, err
}

// Update updates an existing artwork
func (r *artworkRepository) Update(artwork *models.Artwork) error {
	return r.db.Save(artwork).Error
}

// Delete soft-deletes an artwork
func (r *artworkRepository) Delete(id uint) error {
	return r.db.Delete(&models.Artwork{}, id).Error
}

// CountByUserID counts artworks owned by a user
func (r *artworkRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Artwork{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// SumFileSizeByUserID sums the stored file sizes for the storage quota check
func (r *artworkRepository) SumFileSizeByUserID(userID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.Artwork{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(file_size), 0)").
		Scan(&total).Error
	return total, err
}

// Reorder rewrites display_order following the given id sequence. IDs not
// owned by the user are skipped rather than failing the whole batch.
func (r *artworkRepository) Reorder(userID uint, orderedIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for idx, id := range orderedIDs {
			if err := tx.Model(&models.Artwork{}).
				Where("id = ? AND user_id = ?", id, userID).
				Update("display_order", idx).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
