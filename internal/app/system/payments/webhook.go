package payments

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dalemusser/kinshealth/internal/domain/models"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Webhook event types the service reacts to.
const (
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventTrialWillEnd        = "customer.subscription.trial_will_end"
	EventPaymentSucceeded    = "invoice.payment_succeeded"
	EventPaymentFailed       = "invoice.payment_failed"
)

// Event is a verified webhook reduced to what contact bookkeeping needs.
type Event struct {
	ID         string
	Type       string
	CustomerID string
	Status     string
	TrialEnd   *time.Time
}

// ParseEvent verifies the Stripe-Signature header against secret and
// decodes the event. Nothing about the payload is trusted before that.
func ParseEvent(payload []byte, sigHeader, secret string) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, sigHeader, secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return Event{}, err
	}
	out := Event{ID: ev.ID, Type: string(ev.Type)}

	switch out.Type {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted, EventTrialWillEnd:
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return Event{}, fmt.Errorf("decode subscription: %w", err)
		}
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
		out.Status = string(sub.Status)
		out.TrialEnd = unixPtr(sub.TrialEnd)
	case EventPaymentSucceeded, EventPaymentFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(ev.Data.Raw, &inv); err != nil {
			return Event{}, fmt.Errorf("decode invoice: %w", err)
		}
		if inv.Customer != nil {
			out.CustomerID = inv.Customer.ID
		}
		out.Status = string(inv.Status)
	}
	return out, nil
}

// ContactPatch is the set of contact fields an event changes.
type ContactPatch struct {
	Subscribed   bool
	Trial        string
	TrialEndDate *time.Time
	// SetTrialEnd is true when TrialEndDate should be written, even as null.
	SetTrialEnd bool
}

// PatchFor maps a subscription event onto the contact's billing fields.
// currentTrial is the contact's stored trial state, kept when an update
// says nothing about the trial. ok is false for events that only get logged.
func PatchFor(ev Event, currentTrial string) (p ContactPatch, ok bool) {
	switch ev.Type {
	case EventSubscriptionCreated:
		return ContactPatch{
			Subscribed:   false,
			Trial:        models.TrialActive,
			TrialEndDate: ev.TrialEnd,
			SetTrialEnd:  true,
		}, true
	case EventSubscriptionUpdated:
		p.Subscribed = ev.Status == string(stripe.SubscriptionStatusActive)
		switch {
		case ev.Status == string(stripe.SubscriptionStatusTrialing):
			p.Trial = models.TrialActive
		case p.Subscribed && ev.TrialEnd != nil:
			p.Trial = models.TrialExpired
		default:
			p.Trial = currentTrial
		}
		return p, true
	case EventSubscriptionDeleted:
		return ContactPatch{Subscribed: false, Trial: models.TrialExpired}, true
	}
	return ContactPatch{}, false
}
