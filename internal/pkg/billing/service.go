package billing

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/picme-app/picme/app/models"
	"github.com/picme-app/picme/app/repository"
	"github.com/picme-app/picme/internal/pkg/entitlements"
	"gorm.io/gorm"
)

// StatusResponse is the subscription view returned to the authenticated user.
type StatusResponse struct {
	PlanType           entitlements.Plan   `json:"plan_type"`
	Status             string              `json:"status"`
	CurrentPeriodStart *time.Time          `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time          `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool                `json:"cancel_at_period_end"`
	Limits             entitlements.Limits `json:"limits"`
}

// Service reconciles the provider's subscription event stream into local
// subscription rows and drives the interactive billing operations.
type Service struct {
	cfg    *Config
	client Client
	users  repository.UserRepository
	subs   repository.SubscriptionRepository
}

// NewService wires the reconciliation service. client may be nil when the
// config is not enabled.
func NewService(cfg *Config, client Client, users repository.UserRepository, subs repository.SubscriptionRepository) *Service {
	return &Service{cfg: cfg, client: client, users: users, subs: subs}
}

// Enabled reports whether the billing provider is configured.
func (s *Service) Enabled() bool {
	return s.cfg.Enabled() && s.client != nil
}

// HandleWebhook verifies and processes one raw webhook delivery. A
// *VerificationError means the caller must answer 400; any other error asks
// the provider to redeliver.
func (s *Service) HandleWebhook(payload []byte, sigHeader string) error {
	if s.cfg.WebhookSecret == "" {
		return &VerificationError{Err: errors.New("webhook secret not configured")}
	}
	event, err := VerifyEvent(payload, sigHeader, s.cfg.WebhookSecret)
	if err != nil {
		return err
	}
	return s.ProcessEvent(event)
}

// ProcessEvent records the delivery and applies the event to local state.
// Re-deliveries of a successfully processed event id are acknowledged without
// reapplying. A delivery whose apply failed keeps its processing error, so the
// provider's retry runs the handler again instead of being swallowed as a
// duplicate.
func (s *Service) ProcessEvent(event *Event) error {
	created, stored, err := s.subs.CreateWebhookEventIfNotExists(&models.WebhookEvent{
		StripeEventID: event.ID,
		EventType:     event.Type,
	})
	if err != nil {
		return err
	}
	if !created && stored.ProcessedAt != nil && stored.ProcessingError == "" {
		log.Printf("[Billing] duplicate webhook event %s (%s), skipping", event.ID, event.Type)
		return nil
	}

	applyErr := s.apply(event)

	errMsg := ""
	if applyErr != nil {
		errMsg = applyErr.Error()
	}
	if markErr := s.subs.MarkWebhookProcessed(stored.ID, errMsg); markErr != nil {
		log.Printf("[Billing] failed to mark webhook event %s processed: %v", event.ID, markErr)
	}
	return applyErr
}

func (s *Service) apply(event *Event) error {
	switch event.Type {
	case EventCheckoutCompleted:
		return s.handleCheckoutCompleted(event)
	case EventSubscriptionUpdated:
		return s.handleSubscriptionUpdated(event)
	case EventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(event)
	case EventPaymentSucceeded:
		return s.handlePaymentSucceeded(event)
	case EventPaymentFailed:
		return s.handlePaymentFailed(event)
	default:
		log.Printf("[Billing] ignoring webhook event type %s", event.Type)
		return nil
	}
}

// handleCheckoutCompleted attributes the completed checkout back to a local
// user through the session metadata and activates the purchased plan.
// Sessions without complete metadata are logged and dropped, never partially
// applied.
func (s *Service) handleCheckoutCompleted(event *Event) error {
	sess, err := decodeCheckoutSession(event.Raw)
	if err != nil {
		log.Printf("[Billing] undecodable checkout session in event %s: %v", event.ID, err)
		return nil
	}

	userIDStr := sess.Metadata["user_id"]
	planStr := sess.Metadata["plan_type"]
	if userIDStr == "" || planStr == "" {
		log.Printf("[Billing] checkout session %s missing correlation metadata, ignoring", sess.ID)
		return nil
	}
	userID64, err := strconv.ParseUint(userIDStr, 10, 64)
	if err != nil {
		log.Printf("[Billing] checkout session %s carries bad user_id %q, ignoring", sess.ID, userIDStr)
		return nil
	}
	userID := uint(userID64)
	plan := entitlements.NormalizePlan(planStr)

	sub := &models.Subscription{
		UserID:               userID,
		PlanType:             string(plan),
		Status:               models.SubscriptionStatusActive,
		StripeCustomerID:     sess.Customer,
		StripeSubscriptionID: sess.Subscription,
	}
	if err := s.subs.Upsert(sub); err != nil {
		return err
	}
	if err := s.users.UpdatePlan(userID, string(plan)); err != nil {
		return err
	}
	log.Printf("[Billing] checkout completed: user %d on plan %s", userID, plan)
	return nil
}

// handleSubscriptionUpdated overwrites the tracked status, period bounds and
// cancel flag, and follows price changes into the matching plan. Last write
// wins: the provider supplies no ordering token, so a late update can undo a
// newer one until the next delivery corrects it.
func (s *Service) handleSubscriptionUpdated(event *Event) error {
	payload, err := decodeSubscription(event.Raw)
	if err != nil {
		log.Printf("[Billing] undecodable subscription in event %s: %v", event.ID, err)
		return nil
	}

	sub, err := s.subs.GetByStripeSubscriptionID(payload.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[Billing] update for untracked subscription %s, ignoring", payload.ID)
			return nil
		}
		return err
	}

	sub.Status = mapProviderStatus(payload.Status)
	sub.CancelAtPeriodEnd = payload.CancelAtPeriodEnd
	sub.CurrentPeriodStart, sub.CurrentPeriodEnd = payload.periodBounds()
	if priceID := payload.priceID(); priceID != "" {
		sub.StripePriceID = priceID
		// A new price means the user switched plans through the provider's
		// portal; mirror it through the configured price mapping.
		if plan, ok := s.cfg.PlanForPrice(priceID); ok && string(plan) != sub.PlanType {
			sub.PlanType = string(plan)
			if err := s.users.UpdatePlan(sub.UserID, string(plan)); err != nil {
				return err
			}
			log.Printf("[Billing] subscription %s moved user %d to plan %s", payload.ID, sub.UserID, plan)
		}
	}
	return s.subs.Upsert(sub)
}

// handleSubscriptionDeleted revokes the paid plan. The row survives for the
// next checkout.
func (s *Service) handleSubscriptionDeleted(event *Event) error {
	payload, err := decodeSubscription(event.Raw)
	if err != nil {
		log.Printf("[Billing] undecodable subscription in event %s: %v", event.ID, err)
		return nil
	}

	sub, err := s.subs.GetByStripeSubscriptionID(payload.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[Billing] delete for untracked subscription %s, ignoring", payload.ID)
			return nil
		}
		return err
	}

	sub.Status = models.SubscriptionStatusCanceled
	sub.PlanType = string(entitlements.PlanFree)
	sub.CancelAtPeriodEnd = false
	if err := s.subs.Upsert(sub); err != nil {
		return err
	}
	if err := s.users.UpdatePlan(sub.UserID, string(entitlements.PlanFree)); err != nil {
		return err
	}
	log.Printf("[Billing] subscription %s deleted, user %d back on free", payload.ID, sub.UserID)
	return nil
}

func (s *Service) handlePaymentSucceeded(event *Event) error {
	invoice, err := decodeInvoice(event.Raw)
	if err != nil {
		log.Printf("[Billing] undecodable invoice in event %s: %v", event.ID, err)
		return nil
	}
	// Plan and period were already advanced by subscription_updated. Kept
	// lightweight so the webhook acks inside the provider's timeout.
	log.Printf("[Billing] payment succeeded for invoice %s (customer %s)", invoice.ID, invoice.Customer)
	return nil
}

// handlePaymentFailed moves the subscription into past_due. The plan is kept,
// entitlement revocation happens only on deletion.
func (s *Service) handlePaymentFailed(event *Event) error {
	invoice, err := decodeInvoice(event.Raw)
	if err != nil {
		log.Printf("[Billing] undecodable invoice in event %s: %v", event.ID, err)
		return nil
	}
	if invoice.Customer == "" {
		log.Printf("[Billing] payment failure for invoice %s without customer, ignoring", invoice.ID)
		return nil
	}

	sub, err := s.subs.GetByStripeCustomerID(invoice.Customer)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[Billing] payment failure for untracked customer %s, ignoring", invoice.Customer)
			return nil
		}
		return err
	}

	sub.Status = models.SubscriptionStatusPastDue
	if err := s.subs.Upsert(sub); err != nil {
		return err
	}
	log.Printf("[Billing] payment failed for customer %s, subscription past due", invoice.Customer)
	return nil
}

// ResolvePlan returns the plan whose limits the user is currently entitled
// to: the plan of an entitling subscription when one exists, otherwise the
// denormalized plan on the user row. Past-due subscriptions fall through to
// the user row, which still carries the plan until the provider reports
// deletion.
func (s *Service) ResolvePlan(userID uint) (entitlements.Plan, error) {
	sub, err := s.subs.GetByUserID(userID)
	switch {
	case err == nil:
		if sub.IsEntitling() {
			return entitlements.NormalizePlan(sub.PlanType), nil
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return entitlements.PlanFree, err
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return entitlements.PlanFree, err
	}
	return entitlements.NormalizePlan(user.Plan), nil
}

// Status returns the caller's current plan, subscription state and limits.
// With billing disabled it reports the stored plan as active with no period
// data.
func (s *Service) Status(userID uint) (*StatusResponse, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	plan := entitlements.NormalizePlan(user.Plan)

	resp := &StatusResponse{
		PlanType: plan,
		Status:   models.SubscriptionStatusActive,
		Limits:   entitlements.LimitsFor(plan),
	}
	if !s.Enabled() {
		return resp, nil
	}

	sub, err := s.subs.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resp, nil
		}
		return nil, err
	}

	resp.PlanType = entitlements.NormalizePlan(sub.PlanType)
	resp.Status = sub.Status
	resp.CurrentPeriodStart = sub.CurrentPeriodStart
	resp.CurrentPeriodEnd = sub.CurrentPeriodEnd
	resp.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	resp.Limits = entitlements.LimitsFor(resp.PlanType)
	return resp, nil
}

// CreateCheckout starts a provider checkout session for a paid plan and
// returns its id and redirect URL.
func (s *Service) CreateCheckout(ctx context.Context, userID uint, plan entitlements.Plan) (*CheckoutSession, error) {
	if !s.Enabled() {
		return nil, ErrNotConfigured
	}
	if entitlements.PlanRank(plan) == 0 {
		return nil, ErrNotPurchasable
	}
	priceID, ok := s.cfg.PriceIDFor(plan)
	if !ok {
		return nil, ErrNotConfigured
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	customerID, err := s.getOrCreateCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{
		"user_id":   strconv.FormatUint(uint64(userID), 10),
		"plan_type": string(plan),
	}
	return s.client.CreateCheckoutSession(
		ctx,
		customerID,
		priceID,
		s.cfg.FrontendURL+"/settings/billing?checkout=success",
		s.cfg.FrontendURL+"/settings/billing?checkout=canceled",
		metadata,
	)
}

// getOrCreateCustomer reuses the stored provider customer id or creates one
// and persists it before returning, so a racing duplicate request finds the
// stored id instead of creating a second customer.
func (s *Service) getOrCreateCustomer(ctx context.Context, user *models.User) (string, error) {
	sub, err := s.subs.GetByUserID(user.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		sub = nil
	}
	if sub != nil && sub.StripeCustomerID != "" {
		return sub.StripeCustomerID, nil
	}

	customerID, err := s.client.CreateCustomer(ctx, user.Email, user.Username, map[string]string{
		"user_id": strconv.FormatUint(uint64(user.ID), 10),
	})
	if err != nil {
		return "", err
	}

	if sub == nil {
		sub = &models.Subscription{
			UserID:   user.ID,
			PlanType: string(entitlements.PlanFree),
			Status:   models.SubscriptionStatusIncomplete,
		}
	}
	sub.StripeCustomerID = customerID
	if err := s.subs.Upsert(sub); err != nil {
		return "", err
	}
	return customerID, nil
}

// Cancel asks the provider to stop renewal at period end and mirrors the
// flag locally. Not retried on ambiguous failures, the remote state may have
// changed already.
func (s *Service) Cancel(ctx context.Context, userID uint) (*StatusResponse, error) {
	return s.setCancelFlag(ctx, userID, true)
}

// Resume clears a pending cancellation.
func (s *Service) Resume(ctx context.Context, userID uint) (*StatusResponse, error) {
	return s.setCancelFlag(ctx, userID, false)
}

func (s *Service) setCancelFlag(ctx context.Context, userID uint, cancel bool) (*StatusResponse, error) {
	if !s.Enabled() {
		return nil, ErrNotConfigured
	}

	sub, err := s.subs.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSubscription
		}
		return nil, err
	}
	if sub.StripeSubscriptionID == "" {
		return nil, ErrNoSubscription
	}

	// Read the remote state first: when the flag already matches, a repeated
	// request mirrors instead of issuing a second update.
	remote, err := s.client.GetSubscription(ctx, sub.StripeSubscriptionID)
	if err != nil {
		return nil, err
	}
	if remote.CancelAtPeriodEnd != cancel {
		remote, err = s.client.SetCancelAtPeriodEnd(ctx, sub.StripeSubscriptionID, cancel)
		if err != nil {
			return nil, err
		}
	}

	sub.CancelAtPeriodEnd = remote.CancelAtPeriodEnd
	sub.Status = mapProviderStatus(remote.Status)
	if !remote.PeriodStart.IsZero() {
		t := remote.PeriodStart
		sub.CurrentPeriodStart = &t
	}
	if !remote.PeriodEnd.IsZero() {
		t := remote.PeriodEnd
		sub.CurrentPeriodEnd = &t
	}
	if err := s.subs.Upsert(sub); err != nil {
		return nil, err
	}
	return s.Status(userID)
}

// mapProviderStatus folds provider statuses into the local set. Unknown
// statuses fail closed to past_due so they never grant entitlements.
func mapProviderStatus(status string) string {
	switch status {
	case "active":
		return models.SubscriptionStatusActive
	case "trialing":
		return models.SubscriptionStatusTrialing
	case "past_due", "unpaid", "paused":
		return models.SubscriptionStatusPastDue
	case "canceled", "incomplete_expired":
		return models.SubscriptionStatusCanceled
	case "incomplete":
		return models.SubscriptionStatusIncomplete
	default:
		return models.SubscriptionStatusPastDue
	}
}
