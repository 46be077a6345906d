package entitlements

import "fmt"

// Resource names a countable, plan-limited resource kind.
type Resource string

const (
	ResourceArtworks    Resource = "artworks"
	ResourceSocialLinks Resource = "social_links"
	ResourcePosts       Resource = "posts"
	ResourceCategories  Resource = "categories"
)

// Feature names a boolean-gated plan capability.
type Feature string

const (
	FeatureMarkdown    Feature = "markdown"
	FeatureCustomStyle Feature = "custom_style"
	FeatureAnalytics   Feature = "analytics"
)

// LimitError reports a plan limit that would be exceeded. Limit is exposed so
// callers can show the exact number to the user.
type LimitError struct {
	Resource Resource
	Limit    int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("plan limit reached for %s (max %d), upgrade required", e.Resource, e.Limit)
}

// StorageError reports a storage quota that would be exceeded by an upload.
type StorageError struct {
	LimitBytes int64
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage quota reached (max %d MB), upgrade required", e.LimitBytes/(1024*1024))
}

// FeatureError reports a capability the caller's plan does not include.
type FeatureError struct {
	Feature      Feature
	RequiredPlan Plan
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("feature %s requires the %s plan or higher", e.Feature, e.RequiredPlan)
}

// requiredPlanFor returns the cheapest plan that includes the feature.
func requiredPlanFor(f Feature) Plan {
	switch f {
	case FeatureMarkdown, FeatureCustomStyle, FeatureAnalytics:
		return PlanPro
	default:
		return PlanPro
	}
}

func featureEnabled(l Limits, f Feature) bool {
	switch f {
	case FeatureMarkdown:
		return l.CanMarkdown
	case FeatureCustomStyle:
		return l.CanCustomStyle
	case FeatureAnalytics:
		return l.CanAnalytics
	default:
		return false
	}
}
