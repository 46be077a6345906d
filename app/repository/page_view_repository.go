package repository

import (
	"time"

	"github.com/picme-app/picme/app/models"
	"gorm.io/gorm"
)

// pageViewRepository implements the PageViewRepository interface
type pageViewRepository struct {
	db *gorm.DB
}

// NewPageViewRepository creates a new page view repository instance
func NewPageViewRepository(db *gorm.DB) PageViewRepository {
	return &pageViewRepository{db: db}
}

// Create records a page view
func (r *pageViewRepository) Create(view *models.PageView) error {
	return r.db.Create(view).Error
}

// CountByUserIDSince counts page views for a creator page since the given time
func (r *pageViewRepository) CountByUserIDSince(userID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.PageView{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

// CountUniqueByUserIDSince counts distinct visitors since the given time
func (r *pageViewRepository) CountUniqueByUserIDSince(userID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.PageView{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Distinct("visitor_hash").
		Count(&count).Error
	return count, err
}

// TopReferrers returns the most frequent non-empty referrers since the given time
func (r *pageViewRepository) TopReferrers(userID uint, since time.Time, limit int) ([]ReferrerCount, error) {
	var rows []ReferrerCount
	err := r.db.Model(&models.PageView{}).
		Select("referrer, COUNT(*) AS count").
		Where("user_id = ? AND created_at >= ? AND referrer <> ''", userID, since).
		Group("referrer").
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// DailyCounts returns per-day view counts since the given time
func (r *pageViewRepository) DailyCounts(userID uint, since time.Time) ([]DailyCount, error) {
	var rows []DailyCount
	err := r.db.Model(&models.PageView{}).
		Select("DATE(created_at) AS date, COUNT(*) AS count").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&rows).Error
	return rows, err
}
