package billing

import (
	"context"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// apiTimeout bounds every outbound call to the billing provider.
const apiTimeout = 15 * time.Second

// ProviderSubscription is the slice of a provider subscription this service
// cares about, normalized away from the SDK types.
type ProviderSubscription struct {
	ID                string
	CustomerID        string
	Status            string
	CancelAtPeriodEnd bool
	PeriodStart       time.Time
	PeriodEnd         time.Time
	PriceID           string
}

// CheckoutSession is the result of a session creation call.
type CheckoutSession struct {
	ID  string
	URL string
}

// Client is the outbound interface to the billing provider. It exists so the
// reconciliation service can be tested without network access.
type Client interface {
	CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error)
	CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string, metadata map[string]string) (*CheckoutSession, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error)
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*ProviderSubscription, error)
}

// stripeClient talks to Stripe through an explicitly constructed API client,
// no package-global key.
type stripeClient struct {
	api *client.API
}

// NewStripeClient builds a Client for the given secret key.
func NewStripeClient(secretKey string) Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &stripeClient{api: api}
}

func (c *stripeClient) CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	cust, err := c.api.Customers.New(params)
	if err != nil {
		return "", &APIError{Op: "create customer", Err: err}
	}
	return cust.ID, nil
}

func (c *stripeClient) CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string, metadata map[string]string) (*CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, &APIError{Op: "create checkout session", Err: err}
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (c *stripeClient) GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := c.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, &APIError{Op: "get subscription", Err: err}
	}
	return normalizeSubscription(sub), nil
}

func (c *stripeClient) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*ProviderSubscription, error) {
	ctx, cancelCtx := context.WithTimeout(ctx, apiTimeout)
	defer cancelCtx()

	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(cancel),
	}
	params.Context = ctx

	sub, err := c.api.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		return nil, &APIError{Op: "update subscription", Err: err}
	}
	return normalizeSubscription(sub), nil
}

func normalizeSubscription(sub *stripe.Subscription) *ProviderSubscription {
	out := &ProviderSubscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item == nil {
				continue
			}
			if item.Price != nil && out.PriceID == "" {
				out.PriceID = item.Price.ID
			}
			if item.CurrentPeriodStart > 0 && out.PeriodStart.IsZero() {
				out.PeriodStart = time.Unix(item.CurrentPeriodStart, 0).UTC()
			}
			if item.CurrentPeriodEnd > 0 && out.PeriodEnd.IsZero() {
				out.PeriodEnd = time.Unix(item.CurrentPeriodEnd, 0).UTC()
			}
		}
	}
	return out
}
