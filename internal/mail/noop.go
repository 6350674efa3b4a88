package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/unclebandit/groundzero-backend/internal/logger"
)

// NoopSender logs sends but does not deliver anything. Used in development.
type NoopSender struct {
	log logger.Logger
}

func NewNoopSender(log logger.Logger) *NoopSender {
	return &NoopSender{log: log}
}

func (s *NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	s.log.Info("noop email send", map[string]interface{}{"to": req.To, "subject": req.Subject})
	return SendResult{
		MessageID: fmt.Sprintf("noop-%d", time.Now().UnixNano()),
		SentAt:    time.Now(),
	}, nil
}
