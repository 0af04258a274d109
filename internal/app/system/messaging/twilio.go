package messaging

import (
	"context"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// messageAPI is the one Twilio call used here.
type messageAPI interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// Twilio sends SMS from a fixed number.
type Twilio struct {
	api  messageAPI
	from string
	log  *zap.Logger
}

// NewTwilio returns a Twilio sender, or DisabledSMS when credentials are
// missing.
func NewTwilio(accountSID, authToken, from string, logger *zap.Logger) SMSSender {
	if accountSID == "" || authToken == "" || from == "" {
		logger.Warn("twilio credentials not set; sms disabled")
		return DisabledSMS{}
	}
	c := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &Twilio{api: c.Api, from: from, log: logger}
}

// SendSMS validates the recipient and sends body. The Twilio client has no
// context support, so ctx is only checked before the call.
func (t *Twilio) SendSMS(ctx context.Context, to, body string) (SMSResult, error) {
	if !ValidE164(to) {
		return SMSResult{}, ErrBadPhone
	}
	if err := ctx.Err(); err != nil {
		return SMSResult{}, err
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	msg, err := t.api.CreateMessage(params)
	if err != nil {
		return SMSResult{}, err
	}
	res := SMSResult{To: to, Body: body}
	if msg.Sid != nil {
		res.SID = *msg.Sid
	}
	if msg.Status != nil {
		res.Status = *msg.Status
	}
	return res, nil
}
