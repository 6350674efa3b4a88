package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/groundzero-backend/internal/logger"
	"github.com/unclebandit/groundzero-backend/internal/model"
	"github.com/unclebandit/groundzero-backend/internal/queue"
	"github.com/unclebandit/groundzero-backend/internal/service"
)

func seedCampaign(t *testing.T, campaigns *MockCampaignRepo, sends *MockSendRepo, total, ok, failed int) *model.Campaign {
	t.Helper()
	c := &model.Campaign{Title: "T", Subject: "T", TotalRecipients: total}
	require.NoError(t, campaigns.Create(context.Background(), c))
	for i := 0; i < ok; i++ {
		require.NoError(t, sends.Create(context.Background(), &model.Send{CampaignID: c.ID, Status: model.SendStatusSuccess}))
	}
	for i := 0; i < failed; i++ {
		require.NoError(t, sends.Create(context.Background(), &model.Send{CampaignID: c.ID, Status: model.SendStatusFailed}))
	}
	return c
}

func newReconciler(t *testing.T) (*service.ReconcileService, *MockCampaignRepo, *MockSendRepo) {
	campaigns, sends := &MockCampaignRepo{}, &MockSendRepo{}
	return &service.ReconcileService{CampaignRepo: campaigns, SendRepo: sends, Log: logger.NewTestLogger(t)}, campaigns, sends
}

func TestReconcile_RewritesDriftedCounts(t *testing.T) {
	svc, campaigns, sends := newReconciler(t)
	c := seedCampaign(t, campaigns, sends, 5, 3, 2)

	changed, err := svc.Reconcile(context.Background(), c.ID)
	require.NoError(t, err)

	assert.True(t, changed)
	got, _ := campaigns.GetByID(context.Background(), c.ID)
	assert.Equal(t, 3, got.SuccessfulSends)
	assert.Equal(t, 2, got.FailedSends)
	assert.True(t, got.Consistent())
}

func TestReconcile_LeavesFinalizedCampaignAlone(t *testing.T) {
	svc, campaigns, sends := newReconciler(t)
	c := seedCampaign(t, campaigns, sends, 2, 2, 0)
	require.NoError(t, campaigns.UpdateCounts(context.Background(), c.ID, 2, 0))
	campaigns.updateErr = errors.New("must not be called")

	changed, err := svc.Reconcile(context.Background(), c.ID)

	require.NoError(t, err)
	assert.False(t, changed)
}

func TestReconcile_UnknownCampaign(t *testing.T) {
	svc, _, _ := newReconciler(t)

	_, err := svc.Reconcile(context.Background(), 99)
	assert.Error(t, err)

	// Not retried through the queue.
	assert.NoError(t, svc.HandleFinalized(context.Background(), queue.CampaignFinalized{CampaignID: 99}))
}

func TestHandleFinalized(t *testing.T) {
	svc, campaigns, sends := newReconciler(t)
	c := seedCampaign(t, campaigns, sends, 1, 1, 0)

	require.NoError(t, svc.HandleFinalized(context.Background(), queue.CampaignFinalized{CampaignID: c.ID, AggregateOK: true}))
	got, _ := campaigns.GetByID(context.Background(), c.ID)
	assert.Equal(t, 0, got.SuccessfulSends)

	require.NoError(t, svc.HandleFinalized(context.Background(), queue.CampaignFinalized{CampaignID: c.ID, AggregateOK: false}))
	got, _ = campaigns.GetByID(context.Background(), c.ID)
	assert.Equal(t, 1, got.SuccessfulSends)
}

func TestHandleFinalized_UpdateFailureIsRetryable(t *testing.T) {
	svc, campaigns, sends := newReconciler(t)
	c := seedCampaign(t, campaigns, sends, 1, 0, 1)
	campaigns.updateErr = errors.New("db down")

	err := svc.HandleFinalized(context.Background(), queue.CampaignFinalized{CampaignID: c.ID})
	assert.ErrorContains(t, err, "db down")
}

func TestSweep_FinalizesStaleCampaigns(t *testing.T) {
	svc, campaigns, sends := newReconciler(t)
	svc.Now = func() time.Time { return time.Now().Add(time.Hour) }
	stuck := seedCampaign(t, campaigns, sends, 3, 2, 1)
	done := seedCampaign(t, campaigns, sends, 1, 1, 0)
	require.NoError(t, campaigns.UpdateCounts(context.Background(), done.ID, 1, 0))
	newest := seedCampaign(t, campaigns, sends, 4, 4, 0)

	fixed, err := svc.Sweep(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)

	got, _ := campaigns.GetByID(context.Background(), newest.ID)
	assert.Equal(t, 4, got.SuccessfulSends)
	// The older stuck campaign falls outside the limit.
	got, _ = campaigns.GetByID(context.Background(), stuck.ID)
	assert.Nil(t, got.FinalizedAt)

	fixed, err = svc.Sweep(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)
	got, _ = campaigns.GetByID(context.Background(), stuck.ID)
	assert.Equal(t, 2, got.SuccessfulSends)
	assert.Equal(t, 1, got.FailedSends)

	fixed, err = svc.Sweep(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, fixed)
	assert.Equal(t, [][2]int{{1, 0}}, campaigns.writes[done.ID])
}

func TestSweep_SkipsCampaignsStillSending(t *testing.T) {
	svc, campaigns, sends := newReconciler(t)
	c := seedCampaign(t, campaigns, sends, 30, 10, 0)

	fixed, err := svc.Sweep(context.Background(), 10)
	require.NoError(t, err)

	assert.Zero(t, fixed)
	assert.Empty(t, campaigns.writes[c.ID])
}

func TestSweepBetweenBatchesLeavesRunningDispatchAlone(t *testing.T) {
	f := newFixture(t, 25)
	reconciler := &service.ReconcileService{CampaignRepo: f.campaigns, SendRepo: f.sends, Log: logger.NewTestLogger(t)}
	f.svc.Sleep = func(ctx context.Context, _ time.Duration) error {
		_, err := reconciler.Sweep(ctx, 50)
		return err
	}

	res, err := f.svc.Dispatch(context.Background(), validMessage())
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{25, 0}}, f.campaigns.writes[res.CampaignID])
}

// finalizingSends lets the dispatch finalize the campaign after the
// reconciler has read it but before it writes.
type finalizingSends struct {
	*MockSendRepo
	campaigns *MockCampaignRepo
	final     [2]int
}

func (s *finalizingSends) CountByStatus(ctx context.Context, campaignID int) (map[string]int, error) {
	counts, err := s.MockSendRepo.CountByStatus(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return counts, s.campaigns.UpdateCounts(ctx, campaignID, s.final[0], s.final[1])
}

func TestReconcile_LosesToConcurrentFinalize(t *testing.T) {
	campaigns, sends := &MockCampaignRepo{}, &MockSendRepo{}
	c := seedCampaign(t, campaigns, sends, 25, 10, 0)
	svc := &service.ReconcileService{
		CampaignRepo: campaigns,
		SendRepo:     &finalizingSends{MockSendRepo: sends, campaigns: campaigns, final: [2]int{25, 0}},
		Log:          logger.NewTestLogger(t),
	}

	changed, err := svc.Reconcile(context.Background(), c.ID)
	require.NoError(t, err)

	assert.False(t, changed)
	got, _ := campaigns.GetByID(context.Background(), c.ID)
	assert.Equal(t, 25, got.SuccessfulSends)
	assert.Equal(t, [][2]int{{25, 0}}, campaigns.writes[c.ID])
}

func TestDispatchThenReconcileThroughQueue(t *testing.T) {
	f := newFixture(t, 12)
	f.campaigns.updateErr = errors.New("lost connection")

	q := queue.NewInMemoryQueue(logger.NewTestLogger(t))
	f.svc.Events = &queue.Events{Queue: q}
	reconciler := &service.ReconcileService{CampaignRepo: f.campaigns, SendRepo: f.sends, Log: logger.NewTestLogger(t)}

	var handled []queue.CampaignFinalized
	require.NoError(t, queue.OnCampaignFinalized(context.Background(), q, func(ctx context.Context, evt queue.CampaignFinalized) error {
		handled = append(handled, evt)
		f.campaigns.mu.Lock()
		f.campaigns.updateErr = nil
		f.campaigns.mu.Unlock()
		return reconciler.HandleFinalized(ctx, evt)
	}))

	res, err := f.svc.Dispatch(context.Background(), validMessage())
	require.NoError(t, err)
	q.Wait()

	require.Len(t, handled, 1)
	assert.False(t, handled[0].AggregateOK)
	got, _ := f.campaigns.GetByID(context.Background(), res.CampaignID)
	assert.Equal(t, 12, got.SuccessfulSends)
	assert.True(t, got.Consistent())
}
