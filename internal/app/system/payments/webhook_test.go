package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/dalemusser/kinshealth/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func sign(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func subscriptionEvent(typ, status string, trialEnd int64) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"object": "event",
		"api_version": "2023-10-16",
		"type": %q,
		"data": {"object": {"id": "sub_1", "object": "subscription", "customer": "cus_9", "status": %q, "trial_end": %d}}
	}`, typ, status, trialEnd))
}

func TestParseEvent_Valid(t *testing.T) {
	payload := subscriptionEvent(EventSubscriptionCreated, "trialing", 1700000000)
	ev, err := ParseEvent(payload, sign(payload, testSecret, time.Now()), testSecret)
	require.NoError(t, err)

	assert.Equal(t, EventSubscriptionCreated, ev.Type)
	assert.Equal(t, "cus_9", ev.CustomerID)
	assert.Equal(t, "trialing", ev.Status)
	require.NotNil(t, ev.TrialEnd)
	assert.Equal(t, int64(1700000000), ev.TrialEnd.Unix())
}

func TestParseEvent_BadSignature(t *testing.T) {
	payload := subscriptionEvent(EventSubscriptionDeleted, "canceled", 0)
	_, err := ParseEvent(payload, sign(payload, "whsec_other", time.Now()), testSecret)
	assert.Error(t, err)

	_, err = ParseEvent(payload, "", testSecret)
	assert.Error(t, err)
}

func TestParseEvent_TamperedPayload(t *testing.T) {
	payload := subscriptionEvent(EventSubscriptionUpdated, "active", 0)
	header := sign(payload, testSecret, time.Now())
	tampered := subscriptionEvent(EventSubscriptionUpdated, "canceled", 0)
	_, err := ParseEvent(tampered, header, testSecret)
	assert.Error(t, err)
}

func TestPatchFor(t *testing.T) {
	end := time.Unix(1700000000, 0).UTC()

	p, ok := PatchFor(Event{Type: EventSubscriptionCreated, TrialEnd: &end}, "")
	require.True(t, ok)
	assert.False(t, p.Subscribed)
	assert.Equal(t, models.TrialActive, p.Trial)
	assert.True(t, p.SetTrialEnd)
	assert.Equal(t, &end, p.TrialEndDate)

	p, ok = PatchFor(Event{Type: EventSubscriptionUpdated, Status: "trialing"}, models.TrialExpired)
	require.True(t, ok)
	assert.Equal(t, models.TrialActive, p.Trial)
	assert.False(t, p.Subscribed)

	p, _ = PatchFor(Event{Type: EventSubscriptionUpdated, Status: "active", TrialEnd: &end}, models.TrialActive)
	assert.True(t, p.Subscribed)
	assert.Equal(t, models.TrialExpired, p.Trial)

	p, _ = PatchFor(Event{Type: EventSubscriptionUpdated, Status: "past_due"}, "custom")
	assert.False(t, p.Subscribed)
	assert.Equal(t, "custom", p.Trial)

	p, ok = PatchFor(Event{Type: EventSubscriptionDeleted}, models.TrialActive)
	require.True(t, ok)
	assert.Equal(t, models.TrialExpired, p.Trial)
	assert.False(t, p.SetTrialEnd)

	_, ok = PatchFor(Event{Type: EventPaymentFailed}, "")
	assert.False(t, ok)
}
