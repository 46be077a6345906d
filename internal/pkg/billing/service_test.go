package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/picme-app/picme/app/models"
	"github.com/picme-app/picme/internal/pkg/entitlements"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// fakeUserRepo is a map-backed UserRepository for service tests.
// planUpdateErr fails the next UpdatePlan call once, then clears itself.
type fakeUserRepo struct {
	users         map[uint]*models.User
	planUpdateErr error
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uint]*models.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(id uint) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByUsername(username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByActivationToken(token string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByResetToken(token string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) List(offset, limit int) ([]models.User, int64, error) {
	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) Update(user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) UpdatePlan(userID uint, plan string) error {
	if r.planUpdateErr != nil {
		err := r.planUpdateErr
		r.planUpdateErr = nil
		return err
	}
	u, ok := r.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Plan = plan
	return nil
}

func (r *fakeUserRepo) Delete(id uint) error {
	delete(r.users, id)
	return nil
}

// fakeSubRepo is a map-backed SubscriptionRepository keyed by user id.
type fakeSubRepo struct {
	subs   map[uint]*models.Subscription
	events map[string]*models.WebhookEvent
	nextID uint
}

func newFakeSubRepo() *fakeSubRepo {
	return &fakeSubRepo{
		subs:   map[uint]*models.Subscription{},
		events: map[string]*models.WebhookEvent{},
	}
}

func (r *fakeSubRepo) GetByUserID(userID uint) (*models.Subscription, error) {
	s, ok := r.subs[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSubRepo) GetByStripeCustomerID(customerID string) (*models.Subscription, error) {
	for _, s := range r.subs {
		if s.StripeCustomerID == customerID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSubRepo) GetByStripeSubscriptionID(subscriptionID string) (*models.Subscription, error) {
	for _, s := range r.subs {
		if s.StripeSubscriptionID == subscriptionID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSubRepo) Upsert(sub *models.Subscription) error {
	if existing, ok := r.subs[sub.UserID]; ok {
		sub.ID = existing.ID
	} else {
		r.nextID++
		sub.ID = r.nextID
	}
	cp := *sub
	r.subs[sub.UserID] = &cp
	return nil
}

func (r *fakeSubRepo) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	if existing, ok := r.events[event.StripeEventID]; ok {
		return false, existing, nil
	}
	r.nextID++
	event.ID = r.nextID
	r.events[event.StripeEventID] = event
	return true, event, nil
}

func (r *fakeSubRepo) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range r.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// fakeClient records outbound provider calls and tracks the remote
// cancel-at-period-end flag.
type fakeClient struct {
	customers      int
	sessions       int
	lastMetadata   map[string]string
	cancelRequests []bool
	subStatus      string
	remoteCancel   bool
}

func (c *fakeClient) CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error) {
	c.customers++
	return fmt.Sprintf("cus_fake_%d", c.customers), nil
}

func (c *fakeClient) CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string, metadata map[string]string) (*CheckoutSession, error) {
	c.sessions++
	c.lastMetadata = metadata
	return &CheckoutSession{ID: "cs_fake_1", URL: "https://checkout.example/cs_fake_1"}, nil
}

func (c *fakeClient) GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error) {
	return &ProviderSubscription{
		ID:                subscriptionID,
		Status:            c.status(),
		CancelAtPeriodEnd: c.remoteCancel,
	}, nil
}

func (c *fakeClient) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*ProviderSubscription, error) {
	c.cancelRequests = append(c.cancelRequests, cancel)
	c.remoteCancel = cancel
	return &ProviderSubscription{
		ID:                subscriptionID,
		Status:            c.status(),
		CancelAtPeriodEnd: cancel,
	}, nil
}

func (c *fakeClient) status() string {
	if c.subStatus == "" {
		return "active"
	}
	return c.subStatus
}

func enabledConfig() *Config {
	return &Config{
		SecretKey:     "sk_test_123",
		WebhookSecret: "whsec_test",
		FrontendURL:   "https://picme.test",
		PriceIDs: map[entitlements.Plan]string{
			entitlements.PlanStarter: "price_starter",
			entitlements.PlanPro:     "price_pro",
			entitlements.PlanStudio:  "price_studio",
		},
	}
}

func newTestService(users *fakeUserRepo, subs *fakeSubRepo) (*Service, *fakeClient) {
	client := &fakeClient{}
	return NewService(enabledConfig(), client, users, subs), client
}

func checkoutCompletedEvent(id string, metadata map[string]string) *Event {
	payload := map[string]any{
		"id":           "cs_1",
		"object":       "checkout.session",
		"customer":     "cus_1",
		"subscription": "sub_1",
		"metadata":     metadata,
	}
	raw, _ := json.Marshal(payload)
	return &Event{ID: id, Type: EventCheckoutCompleted, Raw: raw}
}

func subscriptionEvent(eventID, eventType, subID, status string) *Event {
	payload := map[string]any{
		"id":       subID,
		"object":   "subscription",
		"customer": "cus_1",
		"status":   status,
	}
	raw, _ := json.Marshal(payload)
	return &Event{ID: eventID, Type: eventType, Raw: raw}
}

func TestCheckoutCompletedActivatesPlan(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: 42, Plan: "free"})
	subs := newFakeSubRepo()
	svc, _ := newTestService(users, subs)

	event := checkoutCompletedEvent("evt_1", map[string]string{"user_id": "42", "plan_type": "pro"})
	if err := svc.ProcessEvent(event); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	sub, err := subs.GetByUserID(42)
	if err != nil {
		t.Fatalf("expected subscription row: %v", err)
	}
	assert.Equal(t, "pro", sub.PlanType)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, "cus_1", sub.StripeCustomerID)
	assert.Equal(t, "sub_1", sub.StripeSubscriptionID)
	assert.Equal(t, "pro", users.users[42].Plan)
}

func TestCheckoutCompletedIdempotent(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: 42, Plan: "free"})
	subs := newFakeSubRepo()
	svc, _ := newTestService(users, subs)

	// Same logical event redelivered under two different event ids: the
	// dedupe log does not fire, the handler itself must converge.
	for i, eventID := range []string{"evt_1", "evt_2"} {
		event := checkoutCompletedEvent(eventID, map[string]string{"user_id": "42", "plan_type": "pro"})
		if err := svc.ProcessEvent(event); err != nil {
			t.Fatalf("delivery %d failed: %v", i+1, err)
		}
	}

	sub, _ := subs.GetByUserID(42)
	assert.Equal(t, "pro", sub.PlanType)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Len(t, subs.subs, 1)
}

func TestDuplicateEventIDSkipsReapply(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: 42, Plan: "free"})
	subs := newFakeSubRepo()
	svc, _ := newTestService(users, subs)

	event := checkoutCompletedEvent("evt_1", map[string]string{"user_id": "42", "plan_type": "starter"})
	if err := svc.ProcessEvent(event); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}

	// Flip local state so a reapply would be visible.
	users.users[42].Plan = "free"
	if err := svc.ProcessEvent(event); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	assert.Equal(t, "free", users.users[42].Plan)
}

func TestFailedApplyReappliedOnRedelivery(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: 42, Plan: "free"})
	users.planUpdateErr = errors.New("connection reset by peer")
	subs := newFakeSubRepo()
	svc, _ := newTestService(users, subs)

	event := checkoutCompletedEvent("evt_1", map[string]string{"user_id": "42", "plan_type": "pro"})
	if err := svc.ProcessEvent(event); err == nil {
		t.Fatal("expected first delivery to fail")
	}
	assert.Equal(t, "free", users.users[42].Plan)

	// The provider redelivers after the error response. The stored event
	// carries a processing error, so it must not count as a duplicate.
	if err := svc.ProcessEvent(event); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	assert.Equal(t, "pro", users.users[42].Plan)

	sub, err := subs.GetByUserID(42)
	if err != nil {
		t.Fatalf("expected subscription row: %v", err)
	}
	assert.Equal(t, "pro", sub.PlanType)
	assert.Empty(t, subs.events["evt_1"].ProcessingError)
}

func TestCheckoutCompletedMissingMetadataIsNoop(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]string
	}{
		{"no metadata", nil},
		{"missing plan", map[string]string{"user_id": "42"}},
		{"missing user", map[string]string{"plan_type": "pro"}},
		{"bad user id", map[string]string{"user_id": "abc", "plan_type": "pro"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newFakeUserRepo(&models.User{ID: 42, Plan: "free"})
			subs := newFakeSubRepo()
			svc, _ := newTestService(users, subs)

			event := checkoutCompletedEvent("evt_x", tt.metadata)
			if err := svc.ProcessEvent(event); err != nil {
				t.Fatalf("expected graceful no-op, got %v", err)
			}
			assert.Empty(t, subs.subs)
			assert.Equal(t, "free", users.users[42].Plan)
		})
	}
}

func TestSubscriptionUpdatedOverwritesState(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: 42, Plan: "pro"})
	subs := newFakeSubRepo()
	subs.Upsert(&models.Subscription{
		UserID:               42,
		PlanType:             "pro",
		Status:               models.SubscriptionStatusActive,
		StripeCustomerID:     "cus_1",
		StripeSubscriptionID: "sub_1",
	})
	svc, _ := newTestService(users, subs)

	payload := map[string]any{
		"id":                   "sub_1",
		"object":               "subscription",
		"customer":             "cus_1",
		"status":               "past_due",
		"cancel_at_period_end": true,
		"current_period_start": 1735689600,
		"current_period_end":   1738368000,
		"items":                map[string]any{"data": []any{map[string]any{"price": map[string]any{"id": "price_pro"}}}},
	}
	raw, _ := json.Marshal(payload)
	err := svc.ProcessEvent(&Event{ID: "evt_u1", Type: EventSubscriptionUpdated, Raw: raw})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	sub, _ := subs.GetByUserID(42)
	assert.Equal(t, models.SubscriptionStatusPastDue, sub.Status)
	assert.True(t, sub.CancelAtPeriodEnd)
	assert.Equal(t, "price_pro", sub.StripePriceID)
	if assert.NotNil(t, sub.CurrentPeriodEnd) {
		assert.Equal(t, int64(1738368000), sub.CurrentPeriodEnd.Unix())
	}
	// price_pro maps to the plan already held, so the plan stays put.
	assert.Equal(t, "pro", sub.PlanType)
	assert.Equal(t, "pro", users.users[42].Plan)
}

func TestSubscriptionUpdatedPriceChangeMovesPlan(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: 42, Plan: "pro"})
	subs := newFakeSubRepo()
	subs.Upsert(&models.Subscription{
		UserID:               42,
		PlanType:             "pro",
		Status:               models.SubscriptionStatusActive,
		StripeCustomerID:     "cus_1",
		StripeSubscriptionID: "sub_1",
	})
	svc, _ := newTestService(users, subs)

	payload := map[string]any{
		"id":       "sub_1",
		"object":   "subscription",
		"customer": "cus_1",
		"status":   "active",
		"items":    map[string]any{"data": []any{map[string]any{"price": map[string]any{"id": "price_studio"}}}},
	}
	raw, _ := json.Marshal(payload)
	err := svc.ProcessEvent(&Event{ID: "evt_u9", Type: EventSubscriptionUpdated, Raw: raw})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	sub, _ := subs.GetByUserID(42)
	assert.Equal(t, "studio", sub.PlanType)
	assert.Equal(t, "price_studio", sub.StripePriceID)
	assert.Equal(t, "studio", users.users[42].Plan)
}

func TestSubscriptionUpdatedUntrackedIsNoop(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: 42, Plan: "free"})
	subs := newFakeSubRepo()
	svc, _ := newTestService(users, subs)

	event := subscriptionEvent("evt_u2", EventSubscriptionUpdated, "sub_unknown", "active")
	if err := svc.ProcessEvent(event); err != nil {
		t.Fatalf("expected graceful no-op, got %v", err)
	}
	assert.Empty(t, subs.subs)
}

func TestSubscriptionDeletedRevokesPlan(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: 42, Plan: "starter"})
	subs := newFakeSubRepo()
	subs.Upsert(&models.Subscription{
		UserID:               42,
		PlanType:             "starter",
		Status:               models.SubscriptionStatusActive,
		StripeCustomerID:     "cus_1",
		StripeSubscriptionID: "sub_1",
	})
	svc, _ := newTestService(users, subs)

	// A few updates first, deletion must win regardless.
	for i := 0; i < 3; i++ {
		event := subscriptionEvent(fmt.Sprintf("evt_u%d", i), EventSubscriptionUpdated, "sub_1", "active")
		if err := svc.ProcessEvent(event); err != nil {
			t.Fatalf("update %d failed: %v", i, err)
		}
	}

	event := subscriptionEvent("evt_d1", EventSubscriptionDeleted, "sub_1", "canceled")
	if err := svc.ProcessEvent(event); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	sub, _ := subs.GetByUserID(42)
	assert.Equal(t, models.SubscriptionStatusCanceled, sub.Status)
	assert.Equal(t, "free", sub.PlanType)
	assert.Equal(t, "free", users.users[42].Plan)
}

func TestPaymentFailedMarksPastDueKeepsPlan(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: 42, Plan: "pro"})
	subs := newFakeSubRepo()
	subs.Upsert(&models.Subscription{
		UserID:               42,
		PlanType:             "pro",
		Status:               models.SubscriptionStatusActive,
		StripeCustomerID:     "cus_1",
		StripeSubscriptionID: "sub_1",
	})
	svc, _ := newTestService(users, subs)

	raw, _ := json.Marshal(map[string]any{"id": "in_1", "object": "invoice", "customer": "cus_1"})
	err := svc.ProcessEvent(&Event{ID: "evt_pf", Type: EventPaymentFailed, Raw: raw})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	sub, _ := subs.GetByUserID(42)
	assert.Equal(t, models.SubscriptionStatusPastDue, sub.Status)
	assert.Equal(t, "pro", sub.PlanType)
	assert.Equal(t, "pro", users.users[42].Plan)
}

func TestPaymentSucceededAndUnknownEventsAreNoops(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: 42, Plan: "pro"})
	subs := newFakeSubRepo()
	svc, _ := newTestService(users, subs)

	raw, _ := json.Marshal(map[string]any{"id": "in_1", "object": "invoice", "customer": "cus_1"})
	if err := svc.ProcessEvent(&Event{ID: "evt_ps", Type: EventPaymentSucceeded, Raw: raw}); err != nil {
		t.Fatalf("payment succeeded: %v", err)
	}
	if err := svc.ProcessEvent(&Event{ID: "evt_z", Type: "customer.created", Raw: json.RawMessage(`{}`)}); err != nil {
		t.Fatalf("unknown event: %v", err)
	}
	assert.Empty(t, subs.subs)
}

func TestStatusFallbackWhenDisabled(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: 42, Plan: "starter"})
	subs := newFakeSubRepo()
	svc := NewService(&Config{}, nil, users, subs)

	status, err := svc.Status(42)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	assert.Equal(t, entitlements.PlanStarter, status.PlanType)
	assert.Equal(t, models.SubscriptionStatusActive, status.Status)
	assert.False(t, status.CancelAtPeriodEnd)
	assert.Nil(t, status.CurrentPeriodEnd)
	assert.Equal(t, int64(20), status.Limits.MaxArtworks)
}

func TestCheckoutFailsWhenDisabled(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: 42, Plan: "free"})
	subs := newFakeSubRepo()
	svc := NewService(&Config{}, nil, users, subs)

	_, err := svc.CreateCheckout(context.Background(), 42, entitlements.PlanPro)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCheckoutRejectsFreePlan(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: 42, Plan: "free"})
	subs := newFakeSubRepo()
	svc, _ := newTestService(users, subs)

	_, err := svc.CreateCheckout(context.Background(), 42, entitlements.PlanFree)
	assert.ErrorIs(t, err, ErrNotPurchasable)
}

func TestCheckoutCreatesAndReusesCustomer(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: 42, Username: "alice", Email: "alice@example.com", Plan: "free"})
	subs := newFakeSubRepo()
	svc, client := newTestService(users, subs)

	sess, err := svc.CreateCheckout(context.Background(), 42, entitlements.PlanPro)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	assert.Equal(t, "cs_fake_1", sess.ID)
	assert.NotEmpty(t, sess.URL)
	assert.Equal(t, "42", client.lastMetadata["user_id"])
	assert.Equal(t, "pro", client.lastMetadata["plan_type"])

	// Customer id is persisted before returning.
	sub, err := subs.GetByUserID(42)
	if err != nil {
		t.Fatalf("expected placeholder subscription: %v", err)
	}
	assert.Equal(t, "cus_fake_1", sub.StripeCustomerID)
	assert.Equal(t, "free", sub.PlanType)
	assert.Equal(t, models.SubscriptionStatusIncomplete, sub.Status)

	// Second checkout reuses the stored customer.
	if _, err := svc.CreateCheckout(context.Background(), 42, entitlements.PlanStudio); err != nil {
		t.Fatalf("second checkout failed: %v", err)
	}
	assert.Equal(t, 1, client.customers)
	assert.Equal(t, 2, client.sessions)
}

func TestCancelAndResume(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: 42, Plan: "pro"})
	subs := newFakeSubRepo()
	subs.Upsert(&models.Subscription{
		UserID:               42,
		PlanType:             "pro",
		Status:               models.SubscriptionStatusActive,
		StripeCustomerID:     "cus_1",
		StripeSubscriptionID: "sub_1",
	})
	svc, client := newTestService(users, subs)

	status, err := svc.Cancel(context.Background(), 42)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	assert.True(t, status.CancelAtPeriodEnd)
	assert.Equal(t, entitlements.PlanPro, status.PlanType)

	status, err = svc.Resume(context.Background(), 42)
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	assert.False(t, status.CancelAtPeriodEnd)
	assert.Equal(t, []bool{true, false}, client.cancelRequests)
}

func TestCancelAlreadyFlaggedRemotelyMirrorsWithoutUpdate(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: 42, Plan: "pro"})
	subs := newFakeSubRepo()
	subs.Upsert(&models.Subscription{
		UserID:               42,
		PlanType:             "pro",
		Status:               models.SubscriptionStatusActive,
		StripeCustomerID:     "cus_1",
		StripeSubscriptionID: "sub_1",
	})
	svc, client := newTestService(users, subs)
	client.remoteCancel = true

	status, err := svc.Cancel(context.Background(), 42)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	assert.True(t, status.CancelAtPeriodEnd)
	// The remote flag already matched, so no update went out.
	assert.Empty(t, client.cancelRequests)
}

func TestResolvePlanFollowsEntitlingSubscription(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: 42, Plan: "free"})
	subs := newFakeSubRepo()
	subs.Upsert(&models.Subscription{UserID: 42, PlanType: "pro", Status: models.SubscriptionStatusActive})
	svc, _ := newTestService(users, subs)

	plan, err := svc.ResolvePlan(42)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	assert.Equal(t, entitlements.PlanPro, plan)

	// Past-due falls through to the user row, which still carries the plan.
	users.users[42].Plan = "pro"
	subs.Upsert(&models.Subscription{UserID: 42, PlanType: "pro", Status: models.SubscriptionStatusPastDue})
	plan, err = svc.ResolvePlan(42)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	assert.Equal(t, entitlements.PlanPro, plan)

	// After deletion both the row status and the user plan are downgraded.
	users.users[42].Plan = "free"
	subs.Upsert(&models.Subscription{UserID: 42, PlanType: "pro", Status: models.SubscriptionStatusCanceled})
	plan, err = svc.ResolvePlan(42)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	assert.Equal(t, entitlements.PlanFree, plan)
}

func TestResolvePlanWithoutSubscriptionUsesUserPlan(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: 42, Plan: "starter"})
	subs := newFakeSubRepo()
	svc, _ := newTestService(users, subs)

	plan, err := svc.ResolvePlan(42)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	assert.Equal(t, entitlements.PlanStarter, plan)
}

func TestCancelWithoutSubscription(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: 42, Plan: "free"})
	subs := newFakeSubRepo()
	svc, _ := newTestService(users, subs)

	_, err := svc.Cancel(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNoSubscription)
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	users := newFakeUserRepo()
	subs := newFakeSubRepo()
	svc, _ := newTestService(users, subs)

	err := svc.HandleWebhook([]byte(`{}`), "t=1,v1=bad")

	var verr *VerificationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected verification error, got %v", err)
	}
	assert.Empty(t, subs.events)
}
