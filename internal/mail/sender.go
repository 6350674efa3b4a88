package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/unclebandit/groundzero-backend/internal/config"
	"github.com/unclebandit/groundzero-backend/internal/logger"
)

// SendRequest contains the data needed to send one e-mail.
type SendRequest struct {
	To      string
	From    string // empty means the sender's default
	Subject string
	HTML    string
}

// SendResult contains the response from the e-mail provider.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers a single e-mail through an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}

// NewSender picks the transport named by cfg.Provider.
func NewSender(ctx context.Context, cfg config.MailConfig, log logger.Logger) (Sender, error) {
	switch cfg.Provider {
	case "resend":
		return NewResendSender(cfg.ResendAPIKey, cfg.From, log), nil
	case "ses":
		return NewSESSender(ctx, cfg.SESRegion, cfg.From, log)
	case "noop", "":
		return NewNoopSender(log), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}
