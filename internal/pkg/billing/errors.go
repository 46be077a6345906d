package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned by interactive billing operations when no
	// provider API key is set.
	ErrNotConfigured = errors.New("billing is not configured")

	// ErrNotPurchasable is returned when checkout is requested for a plan
	// that cannot be bought (free, or unknown).
	ErrNotPurchasable = errors.New("plan is not purchasable")

	// ErrNoSubscription is returned by cancel/resume when the user has no
	// provider-backed subscription to act on.
	ErrNoSubscription = errors.New("no active subscription")
)

// VerificationError marks a webhook payload that failed signature
// verification. The HTTP layer answers such requests with 400.
type VerificationError struct {
	Err error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("webhook verification failed: %v", e.Err)
}

func (e *VerificationError) Unwrap() error { return e.Err }

// APIError wraps a failed call to the billing provider. Callers may retry
// interactive operations; webhook-triggered writes are never auto-retried.
type APIError struct {
	Op  string
	Err error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("billing provider %s failed: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }
