package billing

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecodeCheckoutSessionStrict(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "cs_123",
		"object": "checkout.session",
		"customer": "cus_123",
		"subscription": "sub_123",
		"metadata": {"user_id": "42", "plan_type": "pro"}
	}`)

	sess, err := decodeCheckoutSession(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	assert.Equal(t, "cs_123", sess.ID)
	assert.Equal(t, "cus_123", sess.Customer)
	assert.Equal(t, "sub_123", sess.Subscription)
	assert.Equal(t, "42", sess.Metadata["user_id"])
	assert.Equal(t, "pro", sess.Metadata["plan_type"])
}

func TestDecodeCheckoutSessionLooseFallback(t *testing.T) {
	// Customer arrives expanded as an object, which breaks the strict typed
	// decode. The loose pass still validates the discriminator.
	raw := json.RawMessage(`{
		"id": "cs_456",
		"object": "checkout.session",
		"customer": {"id": "cus_456"},
		"subscription": "sub_456",
		"metadata": {"user_id": "7", "plan_type": "starter"}
	}`)

	sess, err := decodeCheckoutSession(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	assert.Equal(t, "cs_456", sess.ID)
	// Expanded customer cannot be read as a string, the field stays empty.
	assert.Equal(t, "", sess.Customer)
	assert.Equal(t, "7", sess.Metadata["user_id"])
}

func TestDecodeSubscriptionDiscriminatorMismatch(t *testing.T) {
	// Empty id forces the loose pass; the object field says this is not a
	// subscription at all.
	raw := json.RawMessage(`{"object": "invoice", "customer": "cus_1"}`)

	_, err := decodeSubscription(raw)
	if !errors.Is(err, errPayloadMismatch) {
		t.Fatalf("expected payload mismatch, got %v", err)
	}
}

func TestDecodeSubscriptionPeriodFromItems(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "sub_789",
		"object": "subscription",
		"customer": "cus_789",
		"status": "active",
		"cancel_at_period_end": true,
		"items": {"data": [{
			"current_period_start": 1735689600,
			"current_period_end": 1738368000,
			"price": {"id": "price_pro"}
		}]}
	}`)

	payload, err := decodeSubscription(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	assert.True(t, payload.CancelAtPeriodEnd)
	assert.Equal(t, "price_pro", payload.priceID())

	start, end := payload.periodBounds()
	if start == nil || end == nil {
		t.Fatal("expected period bounds from items")
	}
	assert.Equal(t, time.Unix(1735689600, 0).UTC(), *start)
	assert.Equal(t, time.Unix(1738368000, 0).UTC(), *end)
}

func TestDecodeSubscriptionTopLevelPeriodWins(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "sub_790",
		"object": "subscription",
		"status": "active",
		"current_period_start": 100,
		"current_period_end": 200,
		"items": {"data": [{
			"current_period_start": 300,
			"current_period_end": 400,
			"price": {"id": "price_starter"}
		}]}
	}`)

	payload, err := decodeSubscription(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	start, end := payload.periodBounds()
	assert.Equal(t, int64(100), start.Unix())
	assert.Equal(t, int64(200), end.Unix())
}

func TestDecodeInvoice(t *testing.T) {
	raw := json.RawMessage(`{"id": "in_1", "object": "invoice", "customer": "cus_1"}`)

	invoice, err := decodeInvoice(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	assert.Equal(t, "in_1", invoice.ID)
	assert.Equal(t, "cus_1", invoice.Customer)
}

func TestVerifyEventRejectsBadSignature(t *testing.T) {
	_, err := VerifyEvent([]byte(`{}`), "t=1,v1=deadbeef", "whsec_test")

	var verr *VerificationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected verification error, got %v", err)
	}
}
