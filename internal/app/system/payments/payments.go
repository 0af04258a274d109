// Package payments wraps the Stripe API calls the provider billing screens
// make and turns verified webhook payloads into contact updates.
package payments

import (
	"context"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned by every call on a Disabled gateway.
var ErrNotConfigured = errors.New("payments: stripe is not configured")

// Subscription is the part of a Stripe subscription the API returns.
type Subscription struct {
	ID                string     `json:"id"`
	CustomerID        string     `json:"customerId"`
	Status            string     `json:"status"`
	PriceID           string     `json:"priceId,omitempty"`
	TrialEnd          *time.Time `json:"trialEnd,omitempty"`
	CurrentPeriodEnd  *time.Time `json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancelAtPeriodEnd"`
}

// PaymentMethod is a saved card.
type PaymentMethod struct {
	ID       string `json:"id"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int64  `json:"expMonth"`
	ExpYear  int64  `json:"expYear"`
}

// Invoice is one billing history row.
type Invoice struct {
	ID         string    `json:"id"`
	Number     string    `json:"number"`
	AmountPaid int64     `json:"amountPaid"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	Created    time.Time `json:"created"`
	HostedURL  string    `json:"hostedUrl,omitempty"`
	PDF        string    `json:"pdf,omitempty"`
}

// Gateway is the billing surface used by handlers.
type Gateway interface {
	CreateCustomer(ctx context.Context, email, name string) (string, error)
	CreateSetupIntent(ctx context.Context, customerID string) (string, error)
	CreateSubscription(ctx context.Context, customerID, priceID string, trialDays int64) (*Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	UpdateSubscription(ctx context.Context, subscriptionID, priceID string) (*Subscription, error)
	ResumeSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	CustomerSubscription(ctx context.Context, customerID string) (*Subscription, error)
	PaymentMethods(ctx context.Context, customerID string) ([]PaymentMethod, error)
	Invoices(ctx context.Context, customerID string, limit int64) ([]Invoice, error)
}

// Stripe implements Gateway with stripe-go.
type Stripe struct {
	api *client.API
	log *zap.Logger
}

// NewStripe returns a Stripe gateway, or Disabled when secretKey is blank.
func NewStripe(secretKey string, logger *zap.Logger) Gateway {
	if secretKey == "" {
		logger.Warn("stripe secret key not set; payments disabled")
		return Disabled{}
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Stripe{api: api, log: logger}
}

func (s *Stripe) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	p := &stripe.CustomerParams{Email: stripe.String(email), Name: stripe.String(name)}
	p.Context = ctx
	c, err := s.api.Customers.New(p)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

func (s *Stripe) CreateSetupIntent(ctx context.Context, customerID string) (string, error) {
	p := &stripe.SetupIntentParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	p.Context = ctx
	si, err := s.api.SetupIntents.New(p)
	if err != nil {
		return "", err
	}
	return si.ClientSecret, nil
}

func (s *Stripe) CreateSubscription(ctx context.Context, customerID, priceID string, trialDays int64) (*Subscription, error) {
	p := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items:    []*stripe.SubscriptionItemsParams{{Price: stripe.String(priceID)}},
	}
	if trialDays > 0 {
		p.TrialPeriodDays = stripe.Int64(trialDays)
	}
	p.Context = ctx
	sub, err := s.api.Subscriptions.New(p)
	if err != nil {
		return nil, err
	}
	return fromStripe(sub), nil
}

// CancelSubscription cancels immediately rather than at period end.
func (s *Stripe) CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	p := &stripe.SubscriptionCancelParams{}
	p.Context = ctx
	sub, err := s.api.Subscriptions.Cancel(subscriptionID, p)
	if err != nil {
		return nil, err
	}
	return fromStripe(sub), nil
}

// UpdateSubscription swaps the price on the subscription's first item.
func (s *Stripe) UpdateSubscription(ctx context.Context, subscriptionID, priceID string) (*Subscription, error) {
	gp := &stripe.SubscriptionParams{}
	gp.Context = ctx
	cur, err := s.api.Subscriptions.Get(subscriptionID, gp)
	if err != nil {
		return nil, err
	}
	if cur.Items == nil || len(cur.Items.Data) == 0 {
		return nil, errors.New("payments: subscription has no items")
	}
	p := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{{
			ID:    stripe.String(cur.Items.Data[0].ID),
			Price: stripe.String(priceID),
		}},
	}
	p.Context = ctx
	sub, err := s.api.Subscriptions.Update(subscriptionID, p)
	if err != nil {
		return nil, err
	}
	return fromStripe(sub), nil
}

// ResumeSubscription clears a pending cancel-at-period-end.
func (s *Stripe) ResumeSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	p := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(false)}
	p.Context = ctx
	sub, err := s.api.Subscriptions.Update(subscriptionID, p)
	if err != nil {
		return nil, err
	}
	return fromStripe(sub), nil
}

// CustomerSubscription returns the customer's most recent subscription, or
// nil when there is none.
func (s *Stripe) CustomerSubscription(ctx context.Context, customerID string) (*Subscription, error) {
	p := &stripe.SubscriptionListParams{Customer: stripe.String(customerID), Status: stripe.String("all")}
	p.Context = ctx
	p.Limit = stripe.Int64(1)
	it := s.api.Subscriptions.List(p)
	if it.Next() {
		return fromStripe(it.Subscription()), nil
	}
	return nil, it.Err()
}

func (s *Stripe) PaymentMethods(ctx context.Context, customerID string) ([]PaymentMethod, error) {
	p := &stripe.PaymentMethodListParams{Customer: stripe.String(customerID), Type: stripe.String("card")}
	p.Context = ctx
	it := s.api.PaymentMethods.List(p)
	var out []PaymentMethod
	for it.Next() {
		pm := it.PaymentMethod()
		m := PaymentMethod{ID: pm.ID}
		if pm.Card != nil {
			m.Brand = string(pm.Card.Brand)
			m.Last4 = pm.Card.Last4
			m.ExpMonth = pm.Card.ExpMonth
			m.ExpYear = pm.Card.ExpYear
		}
		out = append(out, m)
	}
	return out, it.Err()
}

func (s *Stripe) Invoices(ctx context.Context, customerID string, limit int64) ([]Invoice, error) {
	p := &stripe.InvoiceListParams{Customer: stripe.String(customerID)}
	p.Context = ctx
	if limit > 0 {
		p.Limit = stripe.Int64(limit)
	}
	it := s.api.Invoices.List(p)
	var out []Invoice
	for it.Next() {
		inv := it.Invoice()
		out = append(out, Invoice{
			ID:         inv.ID,
			Number:     inv.Number,
			AmountPaid: inv.AmountPaid,
			Currency:   string(inv.Currency),
			Status:     string(inv.Status),
			Created:    time.Unix(inv.Created, 0).UTC(),
			HostedURL:  inv.HostedInvoiceURL,
			PDF:        inv.InvoicePDF,
		})
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out, it.Err()
}

func fromStripe(sub *stripe.Subscription) *Subscription {
	if sub == nil {
		return nil
	}
	out := &Subscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		TrialEnd:          unixPtr(sub.TrialEnd),
		CurrentPeriodEnd:  unixPtr(sub.CurrentPeriodEnd),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		out.PriceID = sub.Items.Data[0].Price.ID
	}
	return out
}

func unixPtr(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

// Disabled is the gateway used when no Stripe key is configured.
type Disabled struct{}

func (Disabled) CreateCustomer(context.Context, string, string) (string, error) {
	return "", ErrNotConfigured
}
func (Disabled) CreateSetupIntent(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}
func (Disabled) CreateSubscription(context.Context, string, string, int64) (*Subscription, error) {
	return nil, ErrNotConfigured
}
func (Disabled) CancelSubscription(context.Context, string) (*Subscription, error) {
	return nil, ErrNotConfigured
}
func (Disabled) UpdateSubscription(context.Context, string, string) (*Subscription, error) {
	return nil, ErrNotConfigured
}
func (Disabled) ResumeSubscription(context.Context, string) (*Subscription, error) {
	return nil, ErrNotConfigured
}
func (Disabled) CustomerSubscription(context.Context, string) (*Subscription, error) {
	return nil, ErrNotConfigured
}
func (Disabled) PaymentMethods(context.Context, string) ([]PaymentMethod, error) {
	return nil, ErrNotConfigured
}
func (Disabled) Invoices(context.Context, string, int64) ([]Invoice, error) {
	return nil, ErrNotConfigured
}
