package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/picme-app/picme/app/models"
	"github.com/picme-app/picme/app/repository"
	"github.com/picme-app/picme/internal/pkg/cache"
	"github.com/picme-app/picme/internal/pkg/env"
)

const (
	cacheKeySummary = "analytics:summary:%d:%d" // user id, day window
	dedupeKeyView   = "analytics:seen:%d:%s:%s" // user id, visitor hash, date
	summaryCacheTTL = 5 * time.Minute
	dedupeWindowTTL = 30 * time.Minute
	maxTopReferrers = 10
)

// Summary is the aggregated analytics view for a creator page.
type Summary struct {
	TotalViews     int64                     `json:"total_views"`
	UniqueVisitors int64                     `json:"unique_visitors"`
	TopReferrers   []repository.ReferrerCount `json:"top_referrers"`
	Days           int                       `json:"days"`
}

// Service records public page visits and aggregates them for the owner.
type Service struct {
	views repository.PageViewRepository
	salt  string
}

// NewService creates the analytics service. The hash salt keeps raw visitor
// addresses out of storage.
func NewService(views repository.PageViewRepository) *Service {
	return &Service{
		views: views,
		salt:  env.GetEnv("ANALYTICS_HASH_SALT", "picme-analytics"),
	}
}

// VisitorHash derives the stored visitor identifier from the client address.
func (s *Service) VisitorHash(clientIP string) string {
	sum := sha256.Sum256([]byte(s.salt + ":" + clientIP))
	return hex.EncodeToString(sum[:])
}

// RecordView stores one page view. Repeat views by the same visitor inside
// the dedupe window are dropped. A cache outage degrades to recording every
// view rather than losing them.
func (s *Service) RecordView(userID uint, clientIP, referrer, userAgent string) {
	hash := s.VisitorHash(clientIP)
	key := fmt.Sprintf(dedupeKeyView, userID, hash, time.Now().UTC().Format("2006-01-02"))

	fresh, err := cache.SetNX(key, 1, dedupeWindowTTL)
	if err != nil {
		log.Printf("[Analytics] view dedupe unavailable: %v", err)
		fresh = true
	}
	if !fresh {
		return
	}

	view := &models.PageView{
		UserID:      userID,
		VisitorHash: hash,
		Referrer:    truncate(referrer, 500),
		UserAgent:   truncate(userAgent, 500),
	}
	if err := s.views.Create(view); err != nil {
		log.Printf("[Analytics] failed to record page view for user %d: %v", userID, err)
	}
}

// GetSummary returns view totals for the trailing day window, cached briefly
// to keep repeated dashboard loads off the database.
func (s *Service) GetSummary(userID uint, days int) (*Summary, error) {
	if days <= 0 {
		days = 30
	}

	key := fmt.Sprintf(cacheKeySummary, userID, days)
	if cached, err := cache.Get(key); err == nil && cached != "" {
		var summary Summary
		if err := json.Unmarshal([]byte(cached), &summary); err == nil {
			return &summary, nil
		}
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	total, err := s.views.CountByUserIDSince(userID, since)
	if err != nil {
		return nil, err
	}
	unique, err := s.views.CountUniqueByUserIDSince(userID, since)
	if err != nil {
		return nil, err
	}
	referrers, err := s.views.TopReferrers(userID, since, maxTopReferrers)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		TotalViews:     total,
		UniqueVisitors: unique,
		TopReferrers:   referrers,
		Days:           days,
	}

	if encoded, err := json.Marshal(summary); err == nil {
		if err := cache.Set(key, string(encoded), summaryCacheTTL); err != nil {
			log.Printf("[Analytics] failed to cache summary for user %d: %v", userID, err)
		}
	}
	return summary, nil
}

// GetTimeline returns the per-day view counts for the trailing day window.
func (s *Service) GetTimeline(userID uint, days int) ([]repository.DailyCount, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	return s.views.DailyCounts(userID, since)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
