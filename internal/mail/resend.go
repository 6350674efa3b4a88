package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/unclebandit/groundzero-backend/internal/logger"
)

// ResendSender sends e-mails via the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	log    logger.Logger
}

func NewResendSender(apiKey, from string, log logger.Logger) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
		log:    log,
	}
}

func (s *ResendSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	from := req.From
	if from == "" {
		from = s.from
	}

	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    from,
		To:      []string{req.To},
		Subject: req.Subject,
		Html:    req.HTML,
	})
	if err != nil {
		return SendResult{}, fmt.Errorf("resend send failed: %w", err)
	}

	s.log.Debug("resend accepted message", map[string]interface{}{
		"message_id": sent.Id,
		"to":         req.To,
	})
	return SendResult{MessageID: sent.Id, SentAt: time.Now()}, nil
}
