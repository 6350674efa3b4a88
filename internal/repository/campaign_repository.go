package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	appErrors "github.com/unclebandit/groundzero-backend/internal/errors"
	"github.com/unclebandit/groundzero-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.Campaign) error
	UpdateCounts(ctx context.Context, campaignID, successful, failed int) error
	GetByID(ctx context.Context, id int) (*model.Campaign, error)
	List(ctx context.Context) ([]*model.Campaign, error)
	ReconcileCounts(ctx context.Context, campaignID, successful, failed int) (bool, error)
	ListUnfinalized(ctx context.Context, createdBefore time.Time, limit int) ([]*model.Campaign, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, title, subtitle, content, subject, is_test, test_email,
        total_recipients, successful_sends, failed_sends, sent_at, finalized_at`

// Create inserts the campaign with zeroed counters and fills in the id and
// sent_at assigned by the database.
func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	query := `
        INSERT INTO newsletter_campaigns
            (title, subtitle, content, subject, is_test, test_email, total_recipients)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, successful_sends, failed_sends, sent_at
    `
	return r.DB.QueryRowContext(ctx, query,
		c.Title, c.Subtitle, c.Content, c.Subject, c.IsTest, c.TestEmail, c.TotalRecipients,
	).Scan(&c.ID, &c.SuccessfulSends, &c.FailedSends, &c.SentAt)
}

// UpdateCounts writes the final aggregates of a dispatch and marks the
// campaign finalized.
func (r *CampaignRepository) UpdateCounts(ctx context.Context, campaignID, successful, failed int) error {
	query := `UPDATE newsletter_campaigns SET successful_sends=$1, failed_sends=$2, finalized_at=now() WHERE id=$3`
	res, err := r.DB.ExecContext(ctx, query, successful, failed, campaignID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	return nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM newsletter_campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

// List returns every campaign, newest first.
func (r *CampaignRepository) List(ctx context.Context) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM newsletter_campaigns ORDER BY sent_at DESC`
	return r.queryCampaigns(ctx, query)
}

// ReconcileCounts finalizes a campaign whose dispatch never wrote its
// aggregates. It reports false if the campaign was already finalized.
func (r *CampaignRepository) ReconcileCounts(ctx context.Context, campaignID, successful, failed int) (bool, error) {
	query := `
        UPDATE newsletter_campaigns
        SET successful_sends=$1, failed_sends=$2, finalized_at=now()
        WHERE id=$3 AND finalized_at IS NULL
    `
	res, err := r.DB.ExecContext(ctx, query, successful, failed, campaignID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListUnfinalized returns campaigns created before createdBefore that have
// no final aggregates yet, newest first.
func (r *CampaignRepository) ListUnfinalized(ctx context.Context, createdBefore time.Time, limit int) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM newsletter_campaigns
        WHERE finalized_at IS NULL AND sent_at < $1
        ORDER BY sent_at DESC LIMIT $2`
	return r.queryCampaigns(ctx, query, createdBefore, limit)
}

func (r *CampaignRepository) queryCampaigns(ctx context.Context, query string, args ...interface{}) ([]*model.Campaign, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(
		&c.ID, &c.Title, &c.Subtitle, &c.Content, &c.Subject, &c.IsTest, &c.TestEmail,
		&c.TotalRecipients, &c.SuccessfulSends, &c.FailedSends, &c.SentAt, &c.FinalizedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
