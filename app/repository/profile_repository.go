package repository

import (
	"errors"

	"github.com/picme-app/picme/app/models"
	"gorm.io/gorm"
)

// profileRepository implements the ProfileRepository interface
type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository instance
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// GetByUserID retrieves the profile for a user
func (r *profileRepository) GetByUserID(userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetOrCreate returns the existing profile or creates an empty default
func (r *profileRepository) GetOrCreate(userID uint) (*models.Profile, error) {
	profile, err := r.GetByUserID(userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	profile = &models.Profile{UserID: userID, Theme: "default", Published: true}
	if err := r.db.Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

// Save persists profile changes
func (r *profileRepository) Save(profile *models.Profile) error {
	return r.db.Save(profile).Error
}
