package repository

import (
	"context"
	"database/sql"

	"github.com/unclebandit/groundzero-backend/internal/model"
)

type SubmissionRepositoryInterface interface {
	CreateBlogSubmission(ctx context.Context, s *model.BlogSubmission) error
	JoinWaitlist(ctx context.Context, e *model.WaitlistEntry) error
}

// SubmissionRepository stores the public form submissions that are not
// newsletter subscriptions.
type SubmissionRepository struct {
	DB *sql.DB
}

func (r *SubmissionRepository) CreateBlogSubmission(ctx context.Context, s *model.BlogSubmission) error {
	if s.Status == "" {
		s.Status = model.SubmissionPending
	}
	query := `
        INSERT INTO blog_submissions (email, profile_link, blog_link, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id, submitted_at
    `
	err := r.DB.QueryRowContext(ctx, query, s.Email, s.ProfileLink, s.BlogLink, s.Status).Scan(&s.ID, &s.SubmittedAt)
	return wrapInsertErr(err)
}

func (r *SubmissionRepository) JoinWaitlist(ctx context.Context, e *model.WaitlistEntry) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO launch_waitlist (email, source) VALUES ($1, $2)`, e.Email, e.Source)
	return wrapInsertErr(err)
}

var _ SubmissionRepositoryInterface = (*SubmissionRepository)(nil)
