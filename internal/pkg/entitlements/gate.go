package entitlements

import (
	"context"
	"fmt"
)

// PlanResolver returns the effective plan for a user: the subscription plan
// while the subscription is active or trialing, otherwise the plan stored on
// the user record, otherwise free.
type PlanResolver func(ctx context.Context, userID uint) (Plan, error)

// Counter returns the current count (or byte sum) of a resource owned by a user.
type Counter func(ctx context.Context, userID uint) (int64, error)

// Gate is the single place resource-creation paths ask "is this within the
// caller's plan?". Counting and inserting are separate steps, so two
// concurrent creations can both pass and overshoot a limit by one; the limits
// are soft UX guards, not billing invariants.
type Gate struct {
	resolvePlan    PlanResolver
	counters       map[Resource]Counter
	storageCounter Counter
}

func NewGate(resolve PlanResolver) *Gate {
	return &Gate{
		resolvePlan: resolve,
		counters:    make(map[Resource]Counter),
	}
}

// RegisterCounter wires the owning service's count query for a resource kind.
func (g *Gate) RegisterCounter(r Resource, c Counter) {
	g.counters[r] = c
}

// RegisterStorageCounter wires the byte-sum query used by CheckStorage.
func (g *Gate) RegisterStorageCounter(c Counter) {
	g.storageCounter = c
}

func maxFor(l Limits, r Resource) int64 {
	switch r {
	case ResourceArtworks:
		return l.MaxArtworks
	case ResourceSocialLinks:
		return l.MaxSocialLinks
	case ResourcePosts:
		return l.MaxPosts
	case ResourceCategories:
		return l.MaxCategories
	default:
		return 0
	}
}

// CheckCreate allows one more resource of the given kind, or returns a
// *LimitError carrying the numeric limit.
func (g *Gate) CheckCreate(ctx context.Context, userID uint, r Resource) error {
	plan, err := g.resolvePlan(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve plan for user %d: %w", userID, err)
	}

	limits := LimitsFor(plan)
	max := maxFor(limits, r)
	if max == Unlimited {
		return nil
	}

	counter, ok := g.counters[r]
	if !ok {
		return fmt.Errorf("no counter registered for resource %q", r)
	}
	current, err := counter(ctx, userID)
	if err != nil {
		return fmt.Errorf("count %s for user %d: %w", r, userID, err)
	}

	if current >= max {
		return &LimitError{Resource: r, Limit: max}
	}
	return nil
}

// CheckStorage allows an upload of additionalBytes within the plan's byte
// quota, or returns a *StorageError.
func (g *Gate) CheckStorage(ctx context.Context, userID uint, additionalBytes int64) error {
	plan, err := g.resolvePlan(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve plan for user %d: %w", userID, err)
	}

	limits := LimitsFor(plan)
	if g.storageCounter == nil {
		return fmt.Errorf("no storage counter registered")
	}
	used, err := g.storageCounter(ctx, userID)
	if err != nil {
		return fmt.Errorf("sum storage for user %d: %w", userID, err)
	}

	if used+additionalBytes > limits.MaxStorageBytes {
		return &StorageError{LimitBytes: limits.MaxStorageBytes}
	}
	return nil
}

// RequireFeature denies with a *FeatureError when the caller's plan lacks a
// boolean-gated capability.
func (g *Gate) RequireFeature(ctx context.Context, userID uint, f Feature) error {
	plan, err := g.resolvePlan(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve plan for user %d: %w", userID, err)
	}

	if !featureEnabled(LimitsFor(plan), f) {
		return &FeatureError{Feature: f, RequiredPlan: requiredPlanFor(f)}
	}
	return nil
}

// EffectiveLimits resolves the caller's plan and returns its limit table entry.
func (g *Gate) EffectiveLimits(ctx context.Context, userID uint) (Plan, Limits, error) {
	plan, err := g.resolvePlan(ctx, userID)
	if err != nil {
		return PlanFree, Limits{}, fmt.Errorf("resolve plan for user %d: %w", userID, err)
	}
	return plan, LimitsFor(plan), nil
}
