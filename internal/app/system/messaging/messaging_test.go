package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/customerio/go-customerio/v3"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

type fakeTwilio struct {
	params *twilioApi.CreateMessageParams
	err    error
}

func (f *fakeTwilio) CreateMessage(p *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = p
	if f.err != nil {
		return nil, f.err
	}
	sid, status := "SM123", "queued"
	return &twilioApi.ApiV2010Message{Sid: &sid, Status: &status}, nil
}

func TestValidE164(t *testing.T) {
	cases := map[string]bool{
		"+12063097500": true,
		"+442071838750": true,
		"12063097500":  false,
		"+0123":        false,
		"+1 206 309":   false,
		"":             false,
	}
	for in, want := range cases {
		if got := ValidE164(in); got != want {
			t.Errorf("ValidE164(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTwilio_SendSMS(t *testing.T) {
	api := &fakeTwilio{}
	s := &Twilio{api: api, from: "+12063097500", log: zap.NewNop()}

	res, err := s.SendSMS(context.Background(), "+15555550100", "hello")
	if err != nil {
		t.Fatalf("SendSMS: %v", err)
	}
	if res.SID != "SM123" || res.Status != "queued" {
		t.Errorf("unexpected result %+v", res)
	}
	if *api.params.From != "+12063097500" || *api.params.To != "+15555550100" || *api.params.Body != "hello" {
		t.Errorf("unexpected params to=%v from=%v", *api.params.To, *api.params.From)
	}
}

func TestTwilio_RejectsBadNumber(t *testing.T) {
	api := &fakeTwilio{}
	s := &Twilio{api: api, from: "+12063097500", log: zap.NewNop()}
	if _, err := s.SendSMS(context.Background(), "555-0100", "x"); !errors.Is(err, ErrBadPhone) {
		t.Fatalf("err = %v, want ErrBadPhone", err)
	}
	if api.params != nil {
		t.Error("twilio should not be called for an invalid number")
	}
}

func TestNewTwilio_MissingCredentials(t *testing.T) {
	s := NewTwilio("", "", "", zap.NewNop())
	if _, err := s.SendSMS(context.Background(), "+15555550100", "x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

type fakeCIO struct{ req *customerio.SendEmailRequest }

func (f *fakeCIO) SendEmail(_ context.Context, req *customerio.SendEmailRequest) (*customerio.SendEmailResponse, error) {
	f.req = req
	return &customerio.SendEmailResponse{}, nil
}

func TestCustomerIO_SendEmail(t *testing.T) {
	api := &fakeCIO{}
	c := &CustomerIO{api: api, log: zap.NewNop()}
	err := c.SendEmail(context.Background(), Email{
		To:         "cg@example.com",
		TemplateID: "12",
		Data:       map[string]any{"TITLE": "Night shift"},
	})
	if err != nil {
		t.Fatalf("SendEmail: %v", err)
	}
	if api.req.TransactionalMessageID != "12" || api.req.Identifiers["email"] != "cg@example.com" {
		t.Errorf("unexpected request %+v", api.req)
	}
}

func TestCustomerIO_EmptyRecipient(t *testing.T) {
	c := &CustomerIO{api: &fakeCIO{}, log: zap.NewNop()}
	if err := c.SendEmail(context.Background(), Email{TemplateID: "12"}); err == nil {
		t.Fatal("expected error for empty recipient")
	}
}
