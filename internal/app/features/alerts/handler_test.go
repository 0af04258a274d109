package alerts

import (
	"context"
	"net/http"
	"testing"

	"github.com/dalemusser/kinshealth/internal/app/system/messaging"
	"github.com/dalemusser/kinshealth/internal/app/system/metrics"
	"github.com/dalemusser/kinshealth/internal/app/system/workers"
	"github.com/dalemusser/kinshealth/internal/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeQueue struct {
	jobs       []primitive.ObjectID
	caregivers []string
	err        error
}

func (q *fakeQueue) EnqueueJobAlert(id primitive.ObjectID) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, id)
	return nil
}

func (q *fakeQueue) EnqueueCaregiverAlert(id string) error {
	if q.err != nil {
		return q.err
	}
	q.caregivers = append(q.caregivers, id)
	return nil
}

type fakeSMS struct{ sent []string }

func (s *fakeSMS) SendSMS(_ context.Context, to, body string) (messaging.SMSResult, error) {
	s.sent = append(s.sent, to)
	return messaging.SMSResult{SID: "SM1", To: to, Body: body, Status: "queued"}, nil
}

func TestSendJobAlerts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	q := &fakeQueue{}
	h := NewHandler(db, q, messaging.DisabledSMS{}, metrics.New(), zap.NewNop())

	job := fx.CreateJob(ctx, "prov1", "Published")
	draft := fx.CreateJob(ctx, "prov1", "Not yet", testutil.Draft())

	send := func(id string) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		h.HandleSendJobAlerts(rec, testutil.JSONRequest(t, http.MethodPost, "/send-job-alerts", map[string]string{"jobId": id}))
		return rec
	}

	send(job.ID.Hex()).AssertStatus(t, http.StatusAccepted)
	if len(q.jobs) != 1 || q.jobs[0] != job.ID {
		t.Errorf("queued = %v", q.jobs)
	}
	send(draft.ID.Hex()).AssertStatus(t, http.StatusBadRequest)
	send(primitive.NewObjectID().Hex()).AssertStatus(t, http.StatusNotFound)
	send("junk").AssertStatus(t, http.StatusBadRequest)

	q.err = workers.ErrQueueFull
	send(job.ID.Hex()).AssertStatus(t, http.StatusTooManyRequests)
}

func TestSendCaregiverAlert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	q := &fakeQueue{}
	h := NewHandler(db, q, messaging.DisabledSMS{}, metrics.New(), zap.NewNop())
	fx.CreateCaregiver(ctx, "cg1")
	fx.CreateProvider(ctx, "prov1")

	rec := testutil.NewRecorder()
	h.HandleSendCaregiverAlert(rec, testutil.JSONRequest(t, http.MethodPost, "/", map[string]string{"caregiverID": "cg1"}))
	rec.AssertStatus(t, http.StatusAccepted)

	rec = testutil.NewRecorder()
	h.HandleSendCaregiverAlert(rec, testutil.JSONRequest(t, http.MethodPost, "/", map[string]string{"caregiverID": "prov1"}))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestSendSMS(t *testing.T) {
	m := metrics.New()
	sms := &fakeSMS{}
	h := &Handler{SMS: sms, Metrics: m, Log: zap.NewNop()}

	rec := testutil.NewRecorder()
	h.HandleSendSMS(rec, testutil.JSONRequest(t, http.MethodPost, "/sms/send", map[string]string{"to": "+15551234567", "body": "Shift confirmed"}))
	rec.AssertStatus(t, http.StatusOK)
	if len(sms.sent) != 1 {
		t.Fatalf("sent = %v", sms.sent)
	}
	if got := promtest.ToFloat64(m.AlertsSentCounter(metrics.ChannelSMS, metrics.OutcomeSent)); got != 1 {
		t.Errorf("sms sent counter = %v", got)
	}

	rec = testutil.NewRecorder()
	h.HandleSendSMS(rec, testutil.JSONRequest(t, http.MethodPost, "/sms/send", map[string]string{"to": "555-1234", "body": "x"}))
	rec.AssertStatus(t, http.StatusBadRequest)

	h.SMS = messaging.DisabledSMS{}
	rec = testutil.NewRecorder()
	h.HandleSendSMS(rec, testutil.JSONRequest(t, http.MethodPost, "/sms/send", map[string]string{"to": "+15551234567", "body": "x"}))
	rec.AssertStatus(t, http.StatusBadGateway)
	if got := promtest.ToFloat64(m.AlertsSentCounter(metrics.ChannelSMS, metrics.OutcomeFailed)); got != 1 {
		t.Errorf("sms failed counter = %v", got)
	}
}
