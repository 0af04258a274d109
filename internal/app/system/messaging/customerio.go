package messaging

import (
	"context"
	"errors"

	"github.com/customerio/go-customerio/v3"
	"go.uber.org/zap"
)

type transactionalAPI interface {
	SendEmail(ctx context.Context, req *customerio.SendEmailRequest) (*customerio.SendEmailResponse, error)
}

// CustomerIO sends transactional templates through the App API.
type CustomerIO struct {
	api transactionalAPI
	log *zap.Logger
}

// NewCustomerIO returns a Customer.io emailer, or a LogEmailer when appKey
// is blank.
func NewCustomerIO(appKey string, logger *zap.Logger) Emailer {
	if appKey == "" {
		logger.Warn("customer.io app key not set; emails will only be logged")
		return LogEmailer{Log: logger}
	}
	return &CustomerIO{api: customerio.NewAPIClient(appKey), log: logger}
}

func (c *CustomerIO) SendEmail(ctx context.Context, e Email) error {
	if e.To == "" {
		return errors.New("messaging: email recipient is empty")
	}
	_, err := c.api.SendEmail(ctx, &customerio.SendEmailRequest{
		To:                     e.To,
		TransactionalMessageID: e.TemplateID,
		MessageData:            e.Data,
		Identifiers:            map[string]string{"email": e.To},
	})
	return err
}
