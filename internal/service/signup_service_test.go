package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/groundzero-backend/internal/errors"
	"github.com/unclebandit/groundzero-backend/internal/logger"
	"github.com/unclebandit/groundzero-backend/internal/model"
	"github.com/unclebandit/groundzero-backend/internal/repository"
	"github.com/unclebandit/groundzero-backend/internal/service"
)

type MockSubscriberStore struct {
	created []model.Subscriber
	err     error
}

func (m *MockSubscriberStore) ListActive(context.Context) ([]model.Subscriber, error) {
	return m.created, nil
}

func (m *MockSubscriberStore) Create(_ context.Context, s *model.Subscriber) error {
	if m.err != nil {
		return m.err
	}
	s.ID = fmt.Sprintf("sub-%d", len(m.created)+1)
	m.created = append(m.created, *s)
	return nil
}

type MockSubmissionStore struct {
	blogs    []model.BlogSubmission
	waitlist []model.WaitlistEntry
	err      error
}

func (m *MockSubmissionStore) CreateBlogSubmission(_ context.Context, s *model.BlogSubmission) error {
	if m.err != nil {
		return m.err
	}
	m.blogs = append(m.blogs, *s)
	return nil
}

func (m *MockSubmissionStore) JoinWaitlist(_ context.Context, e *model.WaitlistEntry) error {
	if m.err != nil {
		return m.err
	}
	m.waitlist = append(m.waitlist, *e)
	return nil
}

func newSignup(t *testing.T) (*service.SignupService, *MockSubscriberStore, *MockSubmissionStore) {
	subs, forms := &MockSubscriberStore{}, &MockSubmissionStore{}
	return &service.SignupService{Subscribers: subs, Submissions: forms, Log: logger.NewTestLogger(t)}, subs, forms
}

func TestEmailAndURLRules(t *testing.T) {
	assert.True(t, service.IsValidEmail("a@b.co"))
	assert.False(t, service.IsValidEmail("a@b"))
	assert.False(t, service.IsValidEmail("a b@c.com"))
	assert.False(t, service.IsValidEmail(" a@b.com"))

	assert.True(t, service.IsValidURL("https://x.com/someone"))
	assert.True(t, service.IsValidURL("http://blog.example.org/post?id=1"))
	assert.False(t, service.IsValidURL("blog.example.org"))
	assert.False(t, service.IsValidURL(""))

	assert.Equal(t, "reader@example.com", service.NormalizeEmail("  Reader@Example.COM "))
}

func TestSubscribe(t *testing.T) {
	svc, store, _ := newSignup(t)

	sub, err := svc.Subscribe(context.Background(), "New.Reader@Example.com", "")
	require.NoError(t, err)

	assert.Equal(t, "new.reader@example.com", sub.Email)
	assert.Equal(t, service.SourcePopup, sub.Source)
	assert.True(t, sub.IsActive)
	assert.Len(t, store.created, 1)
}

func TestSubscribe_Validation(t *testing.T) {
	svc, store, _ := newSignup(t)

	_, err := svc.Subscribe(context.Background(), "", "")
	assert.EqualError(t, err, "Email is required")

	_, err = svc.Subscribe(context.Background(), "not-an-email", "")
	var verr *appErrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Invalid email format", verr.Message)
	assert.Empty(t, store.created)
}

func TestSubscribe_Duplicate(t *testing.T) {
	svc, store, _ := newSignup(t)
	store.err = fmt.Errorf("%w: newsletter_subscribers_email_key", repository.ErrDuplicate)

	_, err := svc.Subscribe(context.Background(), "a@b.com", "")

	var conflict *appErrors.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "This email is already subscribed", conflict.Message)
	assert.Equal(t, 409, appErrors.StatusCode(err))
}

func TestSubscribe_StoreFailure(t *testing.T) {
	svc, store, _ := newSignup(t)
	store.err = errors.New("connection refused")

	_, err := svc.Subscribe(context.Background(), "a@b.com", "")

	assert.Equal(t, 500, appErrors.StatusCode(err))
}

func TestJoinWaitlist(t *testing.T) {
	svc, _, forms := newSignup(t)

	require.NoError(t, svc.JoinWaitlist(context.Background(), "  Early@Bird.io "))
	assert.Equal(t, []model.WaitlistEntry{{Email: "early@bird.io", Source: service.SourceLaunchSoon}}, forms.waitlist)

	assert.EqualError(t, svc.JoinWaitlist(context.Background(), "nope"), "Please enter a valid email.")

	forms.err = repository.ErrDuplicate
	err := svc.JoinWaitlist(context.Background(), "early@bird.io")
	assert.EqualError(t, err, "This email is already on the waitlist.")
}

func TestSubmitBlog(t *testing.T) {
	svc, _, forms := newSignup(t)

	sub, err := svc.SubmitBlog(context.Background(), "Writer@Example.com", " https://x.com/writer ", "https://writer.substack.com")
	require.NoError(t, err)

	assert.Equal(t, "writer@example.com", sub.Email)
	assert.Equal(t, "https://x.com/writer", sub.ProfileLink)
	assert.Equal(t, model.SubmissionPending, sub.Status)
	assert.Len(t, forms.blogs, 1)
}

func TestSubmitBlog_Validation(t *testing.T) {
	svc, _, forms := newSignup(t)
	cases := []struct {
		email, profile, blog, want string
	}{
		{"", "https://a", "https://b", "Email, profile link, and blog link are required"},
		{"a@b.com", "", "https://b", "Email, profile link, and blog link are required"},
		{"bad", "https://a", "https://b", "Invalid email format"},
		{"a@b.com", "a", "https://b", "Invalid URL format for profile or blog link"},
		{"a@b.com", "https://a", "b.com", "Invalid URL format for profile or blog link"},
	}
	for _, tc := range cases {
		_, err := svc.SubmitBlog(context.Background(), tc.email, tc.profile, tc.blog)
		assert.EqualError(t, err, tc.want)
	}
	assert.Empty(t, forms.blogs)
}
