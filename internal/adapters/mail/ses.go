package mail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/okian/relocator/internal/domain/model"
	"github.com/rotisserie/eris"
)

// sesAPI is the subset of the SES client used here.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender delivers through Amazon SES.
type SESSender struct {
	client sesAPI
}

// NewSESSender loads the default AWS configuration for region.
func NewSESSender(ctx context.Context, region string) (*SESSender, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, eris.Wrap(err, "ses: load aws config")
	}
	return &SESSender{client: ses.NewFromConfig(cfg)}, nil
}

func (s *SESSender) Send(ctx context.Context, msg Message) (model.EmailStatus, error) {
	if msg.To == "" {
		return model.EmailFailed, ErrNoRecipient
	}
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(msg.From),
		Destination: &types.Destination{ToAddresses: []string{msg.To}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.Body), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return model.EmailFailed, fmt.Errorf("%w: %w", ErrSend, eris.Wrapf(err, "ses: send to %s", msg.To))
	}
	return model.EmailSent, nil
}

func (s *SESSender) Name() string { return ProviderSES }
