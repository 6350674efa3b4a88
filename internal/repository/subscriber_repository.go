package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/unclebandit/groundzero-backend/internal/model"
)

// ErrDuplicate is returned when an insert hits a unique constraint.
var ErrDuplicate = errors.New("duplicate row")

const uniqueViolation = "23505"

func wrapInsertErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	}
	return err
}

// SubscriberRepositoryInterface is the recipient directory used by the
// dispatch pipeline plus the signup write path.
type SubscriberRepositoryInterface interface {
	ListActive(ctx context.Context) ([]model.Subscriber, error)
	Create(ctx context.Context, s *model.Subscriber) error
}

type SubscriberRepository struct {
	DB *sql.DB
}

// ListActive fetches every subscriber still opted in.
func (r *SubscriberRepository) ListActive(ctx context.Context) ([]model.Subscriber, error) {
	query := `
        SELECT id, email, source, is_active, subscribed_at
        FROM newsletter_subscribers
        WHERE is_active = true
        ORDER BY subscribed_at, id
    `
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subscribers := []model.Subscriber{}
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.Source, &s.IsActive, &s.SubscribedAt); err != nil {
			return nil, err
		}
		subscribers = append(subscribers, s)
	}
	return subscribers, rows.Err()
}

func (r *SubscriberRepository) Create(ctx context.Context, s *model.Subscriber) error {
	query := `
        INSERT INTO newsletter_subscribers (email, source, is_active)
        VALUES ($1, $2, $3)
        RETURNING id, subscribed_at
    `
	err := r.DB.QueryRowContext(ctx, query, s.Email, s.Source, s.IsActive).Scan(&s.ID, &s.SubscribedAt)
	return wrapInsertErr(err)
}

var _ SubscriberRepositoryInterface = (*SubscriberRepository)(nil)
