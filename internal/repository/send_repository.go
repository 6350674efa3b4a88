package repository

import (
	"context"
	"database/sql"

	"github.com/unclebandit/groundzero-backend/internal/model"
)

type SendRepositoryInterface interface {
	Create(ctx context.Context, s *model.Send) error
	ListByCampaign(ctx context.Context, campaignID int) ([]*model.Send, error)
	CountByStatus(ctx context.Context, campaignID int) (map[string]int, error)
}

type SendRepository struct {
	DB *sql.DB
}

// Create inserts one send row and returns the created ID
func (r *SendRepository) Create(ctx context.Context, s *model.Send) error {
	query := `
        INSERT INTO newsletter_sends (campaign_id, subscriber_id, email, status, error_message)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, sent_at
    `
	return r.DB.QueryRowContext(ctx, query,
		s.CampaignID, s.SubscriberID, s.Email, s.Status, s.ErrorMessage,
	).Scan(&s.ID, &s.SentAt)
}

// ListByCampaign returns the sends of one campaign, newest first.
func (r *SendRepository) ListByCampaign(ctx context.Context, campaignID int) ([]*model.Send, error) {
	query := `
        SELECT id, campaign_id, subscriber_id, email, status, error_message, sent_at
        FROM newsletter_sends
        WHERE campaign_id=$1
        ORDER BY sent_at DESC
    `
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sends := []*model.Send{}
	for rows.Next() {
		var s model.Send
		if err := rows.Scan(&s.ID, &s.CampaignID, &s.SubscriberID, &s.Email, &s.Status, &s.ErrorMessage, &s.SentAt); err != nil {
			return nil, err
		}
		sends = append(sends, &s)
	}
	return sends, rows.Err()
}

// CountByStatus groups the sends of a campaign by status.
func (r *SendRepository) CountByStatus(ctx context.Context, campaignID int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM newsletter_sends WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{model.SendStatusSuccess: 0, model.SendStatusFailed: 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ SendRepositoryInterface = (*SendRepository)(nil)
