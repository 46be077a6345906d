package entitlements

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestGate(plan Plan, counts map[Resource]int64, storageUsed int64) *Gate {
	g := NewGate(func(ctx context.Context, userID uint) (Plan, error) {
		return plan, nil
	})
	for r, n := range counts {
		n := n
		g.RegisterCounter(r, func(ctx context.Context, userID uint) (int64, error) {
			return n, nil
		})
	}
	g.RegisterStorageCounter(func(ctx context.Context, userID uint) (int64, error) {
		return storageUsed, nil
	})
	return g
}

func TestCheckCreateAtLimit(t *testing.T) {
	ctx := context.Background()

	// Free user at exactly the artwork limit: the next create is denied and
	// the error carries the numeric limit.
	g := newTestGate(PlanFree, map[Resource]int64{ResourceArtworks: 5}, 0)
	err := g.CheckCreate(ctx, 1, ResourceArtworks)
	var limitErr *LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected *LimitError, got %v", err)
	}
	assert.Equal(t, int64(5), limitErr.Limit)
	assert.Equal(t, ResourceArtworks, limitErr.Resource)

	// One below the limit passes.
	g = newTestGate(PlanFree, map[Resource]int64{ResourceArtworks: 4}, 0)
	assert.NoError(t, g.CheckCreate(ctx, 1, ResourceArtworks))
}

func TestCheckCreateSocialLinksAfterDowngrade(t *testing.T) {
	ctx := context.Background()

	// Starter with 5 of 5 links: denied with limit 5.
	g := newTestGate(PlanStarter, map[Resource]int64{ResourceSocialLinks: 5}, 0)
	err := g.CheckCreate(ctx, 1, ResourceSocialLinks)
	var limitErr *LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected *LimitError, got %v", err)
	}
	assert.Equal(t, int64(5), limitErr.Limit)

	// After downgrade to free the user still holds 5 stored links; new
	// creation stays blocked (limit 2) but nothing is deleted.
	g = newTestGate(PlanFree, map[Resource]int64{ResourceSocialLinks: 5}, 0)
	err = g.CheckCreate(ctx, 1, ResourceSocialLinks)
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected *LimitError after downgrade, got %v", err)
	}
	assert.Equal(t, int64(2), limitErr.Limit)

	// Back below the free limit creation works again.
	g = newTestGate(PlanFree, map[Resource]int64{ResourceSocialLinks: 1}, 0)
	assert.NoError(t, g.CheckCreate(ctx, 1, ResourceSocialLinks))
}

func TestCheckCreateUnlimited(t *testing.T) {
	// Pro posts are unlimited; no counter needs to run.
	g := NewGate(func(ctx context.Context, userID uint) (Plan, error) {
		return PlanPro, nil
	})
	assert.NoError(t, g.CheckCreate(context.Background(), 1, ResourcePosts))
}

func TestCheckCreateZeroLimit(t *testing.T) {
	// Free has no categories at all.
	g := newTestGate(PlanFree, map[Resource]int64{ResourceCategories: 0}, 0)
	err := g.CheckCreate(context.Background(), 1, ResourceCategories)
	var limitErr *LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected *LimitError, got %v", err)
	}
	assert.Equal(t, int64(0), limitErr.Limit)
}

func TestCheckStorage(t *testing.T) {
	ctx := context.Background()
	quota := LimitsFor(PlanFree).MaxStorageBytes

	g := newTestGate(PlanFree, nil, quota-100)
	assert.NoError(t, g.CheckStorage(ctx, 1, 100))

	err := g.CheckStorage(ctx, 1, 101)
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected *StorageError, got %v", err)
	}
	assert.Equal(t, quota, storageErr.LimitBytes)
}

func TestRequireFeature(t *testing.T) {
	ctx := context.Background()

	g := newTestGate(PlanStarter, nil, 0)
	for _, f := range []Feature{FeatureMarkdown, FeatureCustomStyle, FeatureAnalytics} {
		err := g.RequireFeature(ctx, 1, f)
		var featureErr *FeatureError
		if !errors.As(err, &featureErr) {
			t.Fatalf("expected *FeatureError for %s, got %v", f, err)
		}
		assert.Equal(t, PlanPro, featureErr.RequiredPlan)
	}

	g = newTestGate(PlanStudio, nil, 0)
	for _, f := range []Feature{FeatureMarkdown, FeatureCustomStyle, FeatureAnalytics} {
		assert.NoError(t, g.RequireFeature(ctx, 1, f))
	}
}

func TestGateResolverError(t *testing.T) {
	wantErr := errors.New("db down")
	g := NewGate(func(ctx context.Context, userID uint) (Plan, error) {
		return PlanFree, wantErr
	})
	err := g.CheckCreate(context.Background(), 1, ResourceArtworks)
	assert.ErrorIs(t, err, wantErr)
}
