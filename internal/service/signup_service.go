package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	appErrors "github.com/unclebandit/groundzero-backend/internal/errors"
	"github.com/unclebandit/groundzero-backend/internal/logger"
	"github.com/unclebandit/groundzero-backend/internal/model"
	"github.com/unclebandit/groundzero-backend/internal/repository"
)

const (
	SourcePopup      = "popup"
	SourceLaunchSoon = "launch-soon"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsValidURL accepts any absolute URL.
func IsValidURL(raw string) bool {
	return gojsonschema.FormatCheckers.IsFormat("uri", raw)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignupService handles the public forms: newsletter signup, the launch
// waitlist and community blog submissions.
type SignupService struct {
	Subscribers repository.SubscriberRepositoryInterface
	Submissions repository.SubmissionRepositoryInterface
	Log         logger.Logger
}

func (s *SignupService) Subscribe(ctx context.Context, email, source string) (*model.Subscriber, error) {
	if strings.TrimSpace(email) == "" {
		return nil, appErrors.NewValidation("Email is required")
	}
	if !IsValidEmail(email) {
		return nil, appErrors.NewValidation("Invalid email format")
	}
	if source == "" {
		source = SourcePopup
	}

	sub := &model.Subscriber{Email: NormalizeEmail(email), Source: source, IsActive: true}
	if err := s.Subscribers.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &appErrors.ConflictError{Message: "This email is already subscribed"}
		}
		s.Log.Error("failed to insert subscriber", map[string]interface{}{"error": err})
		return nil, &appErrors.PersistenceError{Op: "subscribe", Err: err}
	}
	return sub, nil
}

func (s *SignupService) JoinWaitlist(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" || !IsValidEmail(email) {
		return appErrors.NewValidation("Please enter a valid email.")
	}

	err := s.Submissions.JoinWaitlist(ctx, &model.WaitlistEntry{Email: email, Source: SourceLaunchSoon})
	if errors.Is(err, repository.ErrDuplicate) {
		return &appErrors.ConflictError{Message: "This email is already on the waitlist."}
	}
	if err != nil {
		s.Log.Error("failed to insert waitlist entry", map[string]interface{}{"error": err})
		return &appErrors.PersistenceError{Op: "join waitlist", Err: err}
	}
	return nil
}

func (s *SignupService) SubmitBlog(ctx context.Context, email, profileLink, blogLink string) (*model.BlogSubmission, error) {
	profileLink, blogLink = strings.TrimSpace(profileLink), strings.TrimSpace(blogLink)
	if email == "" || profileLink == "" || blogLink == "" {
		return nil, appErrors.NewValidation("Email, profile link, and blog link are required")
	}
	if !IsValidEmail(email) {
		return nil, appErrors.NewValidation("Invalid email format")
	}
	if !IsValidURL(profileLink) || !IsValidURL(blogLink) {
		return nil, appErrors.NewValidation("Invalid URL format for profile or blog link")
	}

	sub := &model.BlogSubmission{
		Email:       NormalizeEmail(email),
		ProfileLink: profileLink,
		BlogLink:    blogLink,
		Status:      model.SubmissionPending,
	}
	if err := s.Submissions.CreateBlogSubmission(ctx, sub); err != nil {
		s.Log.Error("failed to insert blog submission", map[string]interface{}{"error": err})
		return nil, &appErrors.PersistenceError{Op: "submit", Err: err}
	}
	return sub, nil
}
