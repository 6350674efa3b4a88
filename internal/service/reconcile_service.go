package service

import (
	"context"
	"errors"
	"time"

	appErrors "github.com/unclebandit/groundzero-backend/internal/errors"
	"github.com/unclebandit/groundzero-backend/internal/logger"
	"github.com/unclebandit/groundzero-backend/internal/metrics"
	"github.com/unclebandit/groundzero-backend/internal/model"
	"github.com/unclebandit/groundzero-backend/internal/queue"
	"github.com/unclebandit/groundzero-backend/internal/repository"
)

// DefaultStaleAfter is how old an unfinalized campaign must be before the
// sweep treats its dispatch as dead. It matches the default dispatch lock TTL.
const DefaultStaleAfter = 30 * time.Minute

// ReconcileService finalizes campaigns whose dispatch never wrote its
// aggregate counts, using the send rows as the source of truth.
type ReconcileService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	SendRepo     repository.SendRepositoryInterface
	Log          logger.Logger

	// StaleAfter keeps the sweep away from campaigns that may still be
	// sending.
	StaleAfter time.Duration
	Now        func() time.Time
}

// Reconcile writes counts from the send rows to a campaign that has not been
// finalized, and reports whether it did. Finalized campaigns are left alone,
// including one finalized between the read and the write.
func (s *ReconcileService) Reconcile(ctx context.Context, campaignID int) (bool, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return false, err
	}
	if campaign.FinalizedAt != nil {
		return false, nil
	}
	counts, err := s.SendRepo.CountByStatus(ctx, campaignID)
	if err != nil {
		return false, &appErrors.PersistenceError{Op: "count sends", Err: err}
	}

	ok, failed := counts[model.SendStatusSuccess], counts[model.SendStatusFailed]
	written, err := s.CampaignRepo.ReconcileCounts(ctx, campaignID, ok, failed)
	if err != nil {
		return false, &appErrors.PersistenceError{Op: "update campaign counts", Err: err}
	}
	if !written {
		s.Log.Debug("campaign finalized concurrently", map[string]interface{}{"campaign_id": campaignID})
		return false, nil
	}
	metrics.CampaignsReconciled.Inc()
	s.Log.Info("🔧 campaign counts reconciled", map[string]interface{}{
		"campaign_id":      campaignID,
		"successful_sends": ok,
		"failed_sends":     failed,
		"total_recipients": campaign.TotalRecipients,
	})
	return true, nil
}

// HandleFinalized is subscribed to campaign.finalized. Campaigns whose
// aggregate was written cleanly are skipped. A missing campaign is not
// retried.
func (s *ReconcileService) HandleFinalized(ctx context.Context, evt queue.CampaignFinalized) error {
	if evt.AggregateOK {
		return nil
	}
	_, err := s.Reconcile(ctx, evt.CampaignID)
	var notFound *appErrors.ErrCampaignNotFound
	if errors.As(err, &notFound) {
		s.Log.Warn("finalized event for unknown campaign", map[string]interface{}{"campaign_id": evt.CampaignID})
		return nil
	}
	return err
}

// Sweep reconciles unfinalized campaigns older than StaleAfter and returns
// how many it finalized. One campaign failing does not stop the sweep.
func (s *ReconcileService) Sweep(ctx context.Context, limit int) (int, error) {
	cutoff := s.now().Add(-s.staleAfter())
	campaigns, err := s.CampaignRepo.ListUnfinalized(ctx, cutoff, limit)
	if err != nil {
		return 0, &appErrors.PersistenceError{Op: "list campaigns", Err: err}
	}

	fixed := 0
	for _, c := range campaigns {
		if err := ctx.Err(); err != nil {
			return fixed, err
		}
		changed, err := s.Reconcile(ctx, c.ID)
		if err != nil {
			s.Log.Error("failed to reconcile campaign", map[string]interface{}{"campaign_id": c.ID, "error": err})
			continue
		}
		if changed {
			fixed++
		}
	}
	return fixed, nil
}

func (s *ReconcileService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ReconcileService) staleAfter() time.Duration {
	if s.StaleAfter <= 0 {
		return DefaultStaleAfter
	}
	return s.StaleAfter
}
