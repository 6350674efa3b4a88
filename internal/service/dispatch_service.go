// internal/service/dispatch_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/groundzero-backend/internal/errors"
	"github.com/unclebandit/groundzero-backend/internal/lock"
	"github.com/unclebandit/groundzero-backend/internal/logger"
	"github.com/unclebandit/groundzero-backend/internal/mail"
	"github.com/unclebandit/groundzero-backend/internal/metrics"
	"github.com/unclebandit/groundzero-backend/internal/model"
	"github.com/unclebandit/groundzero-backend/internal/queue"
	"github.com/unclebandit/groundzero-backend/internal/repository"
)

const (
	DefaultBatchSize  = 10
	DefaultBatchDelay = time.Second

	testSubjectPrefix = "[TEST] "
)

// DispatchService sends a composed newsletter to a single test address or
// to every active subscriber, keeping a campaign row and one send row per
// recipient.
type DispatchService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	SendRepo     repository.SendRepositoryInterface
	Subscribers  repository.SubscriberRepositoryInterface
	Mailer       mail.Sender
	Log          logger.Logger

	// Optional collaborators.
	Events queue.EventPublisher
	Locker lock.Locker

	BatchSize  int
	BatchDelay time.Duration

	// Sleep pauses between batches. It returns early with ctx.Err() if the
	// context ends first.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DispatchResult is what the admin API reports back.
type DispatchResult struct {
	CampaignID   int    `json:"campaignId"`
	SuccessCount int    `json:"success"`
	FailedCount  int    `json:"failed"`
	Message      string `json:"message"`
}

type sendOutcome struct {
	recipient model.Recipient
	err       error
}

func NewDispatchService(
	campaigns repository.CampaignRepositoryInterface,
	sends repository.SendRepositoryInterface,
	subscribers repository.SubscriberRepositoryInterface,
	mailer mail.Sender,
	log logger.Logger,
) *DispatchService {
	return &DispatchService{
		CampaignRepo: campaigns,
		SendRepo:     sends,
		Subscribers:  subscribers,
		Mailer:       mailer,
		Log:          log,
		BatchSize:    DefaultBatchSize,
		BatchDelay:   DefaultBatchDelay,
	}
}

// Dispatch validates msg and sends it. Validation, directory and campaign
// creation failures return before any mail goes out. Once the campaign
// exists, per-recipient failures are recorded on their send rows and never
// returned; only a cancelled context can stop the batch loop early, so
// callers pass a context that ends on shutdown rather than on client
// disconnect.
func (s *DispatchService) Dispatch(ctx context.Context, msg model.Message) (*DispatchResult, error) {
	msg.TestRecipient = strings.TrimSpace(msg.TestRecipient)
	if strings.TrimSpace(msg.Title) == "" || strings.TrimSpace(msg.Body) == "" {
		return nil, appErrors.NewValidation("Title and content are required")
	}
	html, err := RenderNewsletter(msg.Title, msg.Subtitle, msg.Body, msg.Format)
	if err != nil {
		return nil, appErrors.NewValidation("%v", err)
	}

	kind := "bulk"
	if msg.IsTest() {
		kind = "test"
	}
	started := time.Now()
	log := s.Log.WithFields(map[string]interface{}{
		"dispatch_id": uuid.NewString(),
		"kind":        kind,
	})

	var res *DispatchResult
	if msg.IsTest() {
		res, err = s.dispatchTest(ctx, log, msg, html)
	} else {
		res, err = s.dispatchBulk(ctx, log, msg, html)
	}

	metrics.NewsletterDispatchDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.NewsletterDispatches.WithLabelValues(kind, result).Inc()
	return res, err
}

func (s *DispatchService) dispatchTest(ctx context.Context, log logger.Logger, msg model.Message, html string) (*DispatchResult, error) {
	addr := msg.TestRecipient
	campaign := newCampaign(msg, testSubjectPrefix+msg.Title, 1)
	campaign.IsTest = true
	campaign.TestEmail = &addr

	if err := s.CampaignRepo.Create(ctx, campaign); err != nil {
		log.Error("failed to create test campaign", map[string]interface{}{"error": err})
		return nil, &appErrors.PersistenceError{Op: "create campaign record", Err: err}
	}

	out := s.deliver(ctx, log, "test", campaign, model.Recipient{Email: addr}, html)
	ok, failed := 1, 0
	if out.err != nil {
		ok, failed = 0, 1
	}
	s.finalize(ctx, log, campaign.ID, ok, failed)

	return &DispatchResult{
		CampaignID:   campaign.ID,
		SuccessCount: ok,
		FailedCount:  failed,
		Message:      fmt.Sprintf("Test email sent to %s", addr),
	}, nil
}

func (s *DispatchService) dispatchBulk(ctx context.Context, log logger.Logger, msg model.Message, html string) (*DispatchResult, error) {
	if s.Locker != nil {
		release, err := s.Locker.Acquire(ctx, lock.DispatchKey)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("failed to release dispatch lock", map[string]interface{}{"error": err})
			}
		}()
	}

	subscribers, err := s.Subscribers.ListActive(ctx)
	if err != nil {
		log.Error("failed to fetch subscribers", map[string]interface{}{"error": err})
		return nil, &appErrors.DirectoryError{Err: err}
	}
	if len(subscribers) == 0 {
		return nil, &appErrors.NoRecipientsError{}
	}

	recipients := make([]model.Recipient, len(subscribers))
	for i := range subscribers {
		id := subscribers[i].ID
		recipients[i] = model.Recipient{ID: &id, Email: subscribers[i].Email}
	}

	campaign := newCampaign(msg, msg.Title, len(recipients))
	if err := s.CampaignRepo.Create(ctx, campaign); err != nil {
		log.Error("failed to create campaign", map[string]interface{}{"error": err})
		return nil, &appErrors.PersistenceError{Op: "create campaign record", Err: err}
	}
	log = log.WithFields(map[string]interface{}{"campaign_id": campaign.ID})
	log.Info("📨 dispatching newsletter", map[string]interface{}{"recipients": len(recipients)})

	size := s.batchSize()
	var ok, failed int
	for start := 0; start < len(recipients); start += size {
		if err := ctx.Err(); err != nil {
			return nil, s.abort(ctx, log, campaign.ID, ok, failed, err)
		}

		end := min(start+size, len(recipients))
		for _, out := range s.sendBatch(ctx, log, campaign, recipients[start:end], html) {
			if out.err != nil {
				failed++
			} else {
				ok++
			}
		}

		if end < len(recipients) {
			if err := s.sleep(ctx, s.batchDelay()); err != nil {
				return nil, s.abort(ctx, log, campaign.ID, ok, failed, err)
			}
		}
	}

	s.finalize(ctx, log, campaign.ID, ok, failed)
	log.Info("✅ newsletter dispatched", map[string]interface{}{"delivered": ok, "failed": failed})

	return &DispatchResult{
		CampaignID:   campaign.ID,
		SuccessCount: ok,
		FailedCount:  failed,
		Message:      fmt.Sprintf("Newsletter sent! %d delivered, %d failed.", ok, failed),
	}, nil
}

// sendBatch delivers to every recipient concurrently and returns once all of
// them have settled. Outcomes are in batch order.
func (s *DispatchService) sendBatch(ctx context.Context, log logger.Logger, campaign *model.Campaign, batch []model.Recipient, html string) []sendOutcome {
	outcomes := make([]sendOutcome, len(batch))
	var wg sync.WaitGroup
	for i, r := range batch {
		wg.Add(1)
		go func(i int, r model.Recipient) {
			defer wg.Done()
			outcomes[i] = s.deliver(ctx, log, "bulk", campaign, r, html)
		}(i, r)
	}
	wg.Wait()
	return outcomes
}

// deliver makes one delivery attempt and writes its send row. The outcome
// stands even if the row cannot be written.
func (s *DispatchService) deliver(ctx context.Context, log logger.Logger, kind string, campaign *model.Campaign, r model.Recipient, html string) sendOutcome {
	_, err := s.Mailer.Send(ctx, mail.SendRequest{
		To:      r.Email,
		Subject: campaign.Subject,
		HTML:    html,
	})

	send := &model.Send{
		CampaignID:   campaign.ID,
		SubscriberID: r.ID,
		Email:        r.Email,
		Status:       model.SendStatusSuccess,
	}
	if err != nil {
		reason := err.Error()
		send.Status = model.SendStatusFailed
		send.ErrorMessage = &reason
		log.Warn("delivery failed", map[string]interface{}{"email": r.Email, "error": reason})
		err = &appErrors.DeliveryError{Email: r.Email, Err: err}
	}
	metrics.NewsletterSends.WithLabelValues(kind, send.Status).Inc()

	// The attempt already happened; record it even if the caller has gone.
	if werr := s.SendRepo.Create(context.WithoutCancel(ctx), send); werr != nil {
		log.Error("failed to record send", map[string]interface{}{
			"email":  r.Email,
			"status": send.Status,
			"error":  werr,
		})
	}
	return sendOutcome{recipient: r, err: err}
}

// finalize writes the aggregate counts once, marking the campaign finalized.
// A failure is logged and left to the reconciler; the send rows remain the
// source of truth.
func (s *DispatchService) finalize(ctx context.Context, log logger.Logger, campaignID, ok, failed int) {
	aggregateOK := true
	if err := s.CampaignRepo.UpdateCounts(context.WithoutCancel(ctx), campaignID, ok, failed); err != nil {
		aggregateOK = false
		log.Error("campaign aggregate is inconsistent", map[string]interface{}{
			"successful_sends": ok,
			"failed_sends":     failed,
			"error":            err,
		})
	}
	s.publish(ctx, log, campaignID, aggregateOK)
}

// abort finalizes an interrupted dispatch with the outcomes it has so far.
func (s *DispatchService) abort(ctx context.Context, log logger.Logger, campaignID, ok, failed int, cause error) error {
	log.Error("dispatch interrupted", map[string]interface{}{"attempted": ok + failed, "error": cause})
	s.finalize(ctx, log, campaignID, ok, failed)
	return fmt.Errorf("dispatch of campaign %d interrupted after %d recipients: %w", campaignID, ok+failed, cause)
}

func (s *DispatchService) publish(ctx context.Context, log logger.Logger, campaignID int, aggregateOK bool) {
	if s.Events == nil {
		return
	}
	evt := queue.CampaignFinalized{CampaignID: campaignID, AggregateOK: aggregateOK}
	if err := s.Events.PublishCampaignFinalized(context.WithoutCancel(ctx), evt); err != nil {
		log.Warn("failed to publish campaign event", map[string]interface{}{"error": err})
	}
}

func (s *DispatchService) batchSize() int {
	if s.BatchSize < 1 {
		return DefaultBatchSize
	}
	return s.BatchSize
}

func (s *DispatchService) batchDelay() time.Duration {
	if s.BatchDelay < 0 {
		return 0
	}
	return s.BatchDelay
}

func (s *DispatchService) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	return sleepCtx(ctx, d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func newCampaign(msg model.Message, subject string, total int) *model.Campaign {
	c := &model.Campaign{
		Title:           msg.Title,
		Content:         msg.Body,
		Subject:         subject,
		TotalRecipients: total,
	}
	if msg.Subtitle != "" {
		sub := msg.Subtitle
		c.Subtitle = &sub
	}
	return c
}
