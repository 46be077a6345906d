package billing

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
)

// Event kinds the reconciliation service reacts to. Everything else is
// acknowledged and ignored.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventPaymentSucceeded    = "invoice.payment_succeeded"
	EventPaymentFailed       = "invoice.payment_failed"
)

// Event is a verified webhook event with its payload still raw. Payloads are
// decoded per-kind by the handlers.
type Event struct {
	ID   string
	Type string
	Raw  json.RawMessage
}

// errPayloadMismatch marks a payload whose object discriminator does not
// match the event type. Treated as unreconciled, never fatal.
var errPayloadMismatch = errors.New("event payload object mismatch")

// VerifyEvent checks the provider signature over the raw body and returns the
// typed event. Any mismatch, malformed header or stale timestamp yields a
// *VerificationError and the payload is never handed to the state machine.
// API version drift between the provider and the SDK is tolerated, the
// per-kind decoders deal with payload shape differences.
func VerifyEvent(payload []byte, sigHeader, secret string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, &VerificationError{Err: err}
	}
	return &Event{
		ID:   event.ID,
		Type: string(event.Type),
		Raw:  event.Data.Raw,
	}, nil
}

// checkoutSessionPayload is the slice of a checkout.session object the
// reconciler reads. Customer and Subscription arrive as plain string ids in
// webhook payloads.
type checkoutSessionPayload struct {
	ID           string            `json:"id"`
	Object       string            `json:"object"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type subscriptionPayload struct {
	ID                 string `json:"id"`
	Object             string `json:"object"`
	Customer           string `json:"customer"`
	Status             string `json:"status"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	Items              struct {
		Data []struct {
			CurrentPeriodStart int64 `json:"current_period_start"`
			CurrentPeriodEnd   int64 `json:"current_period_end"`
			Price              struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
	Metadata map[string]string `json:"metadata"`
}

type invoicePayload struct {
	ID       string `json:"id"`
	Object   string `json:"object"`
	Customer string `json:"customer"`
}

// decodeCheckoutSession decodes strictly first, then falls back to a loose
// decode with a discriminator check when the strict pass came back empty.
// The fallback tolerates provider API version drift without letting a
// mislabeled payload through.
func decodeCheckoutSession(raw json.RawMessage) (*checkoutSessionPayload, error) {
	var payload checkoutSessionPayload
	if err := json.Unmarshal(raw, &payload); err == nil && payload.ID != "" {
		return &payload, nil
	}

	loose, err := looseDecode(raw, "checkout.session")
	if err != nil {
		return nil, err
	}
	payload = checkoutSessionPayload{
		ID:           stringField(loose, "id"),
		Object:       stringField(loose, "object"),
		Customer:     stringField(loose, "customer"),
		Subscription: stringField(loose, "subscription"),
		Metadata:     metadataField(loose),
	}
	return &payload, nil
}

func decodeSubscription(raw json.RawMessage) (*subscriptionPayload, error) {
	var payload subscriptionPayload
	if err := json.Unmarshal(raw, &payload); err == nil && payload.ID != "" {
		return &payload, nil
	}

	loose, err := looseDecode(raw, "subscription")
	if err != nil {
		return nil, err
	}
	payload = subscriptionPayload{
		ID:                stringField(loose, "id"),
		Object:            stringField(loose, "object"),
		Customer:          stringField(loose, "customer"),
		Status:            stringField(loose, "status"),
		CancelAtPeriodEnd: boolField(loose, "cancel_at_period_end"),
		Metadata:          metadataField(loose),
	}
	payload.CurrentPeriodStart = intField(loose, "current_period_start")
	payload.CurrentPeriodEnd = intField(loose, "current_period_end")
	return &payload, nil
}

func decodeInvoice(raw json.RawMessage) (*invoicePayload, error) {
	var payload invoicePayload
	if err := json.Unmarshal(raw, &payload); err == nil && payload.ID != "" {
		return &payload, nil
	}

	loose, err := looseDecode(raw, "invoice")
	if err != nil {
		return nil, err
	}
	payload = invoicePayload{
		ID:       stringField(loose, "id"),
		Object:   stringField(loose, "object"),
		Customer: stringField(loose, "customer"),
	}
	return &payload, nil
}

// periodBounds picks the billing period from the payload, preferring the
// top-level fields and falling back to the first subscription item for newer
// API versions that only carry them there.
func (p *subscriptionPayload) periodBounds() (*time.Time, *time.Time) {
	start, end := p.CurrentPeriodStart, p.CurrentPeriodEnd
	if start == 0 && end == 0 && len(p.Items.Data) > 0 {
		start = p.Items.Data[0].CurrentPeriodStart
		end = p.Items.Data[0].CurrentPeriodEnd
	}
	var startT, endT *time.Time
	if start > 0 {
		t := time.Unix(start, 0).UTC()
		startT = &t
	}
	if end > 0 {
		t := time.Unix(end, 0).UTC()
		endT = &t
	}
	return startT, endT
}

// priceID returns the first price id on the subscription items.
func (p *subscriptionPayload) priceID() string {
	for _, item := range p.Items.Data {
		if item.Price.ID != "" {
			return item.Price.ID
		}
	}
	return ""
}

func looseDecode(raw json.RawMessage, wantObject string) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if obj, _ := m["object"].(string); obj != wantObject {
		return nil, errPayloadMismatch
	}
	return m, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func intField(m map[string]any, key string) int64 {
	f, _ := m[key].(float64)
	return int64(f)
}

func metadataField(m map[string]any) map[string]string {
	raw, _ := m["metadata"].(map[string]any)
	if raw == nil {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
