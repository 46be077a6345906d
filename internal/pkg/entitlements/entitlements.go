package entitlements

import (
	"math"
	"strings"
)

type Plan string

const (
	PlanFree    Plan = "free"
	PlanStarter Plan = "starter"
	PlanPro     Plan = "pro"
	PlanStudio  Plan = "studio"
)

// Unlimited marks a limit that is never reached.
const Unlimited int64 = math.MaxInt64

// Limits is the full entitlement set a plan grants. It is derived from the
// plan, never stored per user.
type Limits struct {
	MaxArtworks     int64 `json:"max_artworks"`
	MaxSocialLinks  int64 `json:"max_social_links"`
	MaxPosts        int64 `json:"max_posts"`
	MaxCategories   int64 `json:"max_categories"`
	MaxStorageBytes int64 `json:"max_storage_bytes"`
	HasAds          bool  `json:"has_ads"`
	CanMarkdown     bool  `json:"can_markdown"`
	CanCustomStyle  bool  `json:"can_custom_style"`
	CanAnalytics    bool  `json:"can_analytics"`
}

// NormalizePlan maps arbitrary plan strings to a known plan, defaulting to free.
func NormalizePlan(plan string) Plan {
	switch Plan(strings.ToLower(strings.TrimSpace(plan))) {
	case PlanStarter:
		return PlanStarter
	case PlanPro:
		return PlanPro
	case PlanStudio:
		return PlanStudio
	default:
		return PlanFree
	}
}

// PlanRank orders plans for upgrade comparisons.
func PlanRank(plan Plan) int {
	switch plan {
	case PlanStudio:
		return 3
	case PlanPro:
		return 2
	case PlanStarter:
		return 1
	default:
		return 0
	}
}

// LimitsFor returns the limit table entry for a plan. Unknown plans get the
// free tier.
func LimitsFor(plan Plan) Limits {
	switch plan {
	case PlanStarter:
		return Limits{
			MaxArtworks:     20,
			MaxSocialLinks:  5,
			MaxPosts:        20,
			MaxCategories:   0,
			MaxStorageBytes: 1024 * 1024 * 1024, // 1 GB
		}
	case PlanPro:
		return Limits{
			MaxArtworks:     50,
			MaxSocialLinks:  10,
			MaxPosts:        Unlimited,
			MaxCategories:   5,
			MaxStorageBytes: 2048 * 1024 * 1024, // 2 GB
			CanMarkdown:     true,
			CanCustomStyle:  true,
			CanAnalytics:    true,
		}
	case PlanStudio:
		return Limits{
			MaxArtworks:     200,
			MaxSocialLinks:  20,
			MaxPosts:        Unlimited,
			MaxCategories:   Unlimited,
			MaxStorageBytes: 10240 * 1024 * 1024, // 10 GB
			CanMarkdown:     true,
			CanCustomStyle:  true,
			CanAnalytics:    true,
		}
	default:
		return Limits{
			MaxArtworks:     5,
			MaxSocialLinks:  2,
			MaxPosts:        5,
			MaxCategories:   0,
			MaxStorageBytes: 300 * 1024 * 1024, // 300 MB
			HasAds:          true,
		}
	}
}

// CustomCSSMaxLines returns how many lines of custom CSS a plan may store.
// Zero means the plan has no custom style access at all.
func CustomCSSMaxLines(plan Plan) int {
	switch plan {
	case PlanStudio:
		return 500
	case PlanPro:
		return 100
	default:
		return 0
	}
}
