package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/unclebandit/groundzero-backend/internal/logger"
)

// SESAPI is the subset of the SES client the sender uses.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender sends e-mails through Amazon SES.
type SESSender struct {
	client SESAPI
	from   string
	log    logger.Logger
}

func NewSESSender(ctx context.Context, region, from string, log logger.Logger) (*SESSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSESSenderWithClient(ses.NewFromConfig(cfg), from, log), nil
}

func NewSESSenderWithClient(client SESAPI, from string, log logger.Logger) *SESSender {
	return &SESSender{client: client, from: from, log: log}
}

func (s *SESSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	from := req.From
	if from == "" {
		from = s.from
	}

	out, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{req.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(req.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(req.HTML), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(from),
	})
	if err != nil {
		return SendResult{}, fmt.Errorf("ses send failed: %w", err)
	}

	id := aws.ToString(out.MessageId)
	s.log.Debug("ses accepted message", map[string]interface{}{"message_id": id, "to": req.To})
	return SendResult{MessageID: id, SentAt: time.Now()}, nil
}
