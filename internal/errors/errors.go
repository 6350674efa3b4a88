// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrDispatchInProgress is returned when another bulk dispatch holds the lock.
var ErrDispatchInProgress = errors.New("another newsletter dispatch is already running")

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ValidationError means the caller sent a malformed or incomplete request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// DirectoryError wraps a failure to read the subscriber directory.
type DirectoryError struct {
	Err error
}

func (e *DirectoryError) Error() string {
	return "failed to fetch subscribers: " + e.Err.Error()
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// NoRecipientsError is returned for a bulk send when nobody is subscribed.
type NoRecipientsError struct{}

func (e *NoRecipientsError) Error() string {
	return "no active subscribers found"
}

// PersistenceError wraps a failed write to the campaign ledger.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// DeliveryError is a per-recipient transport failure. It is recorded on the
// send row and never returned from a dispatch.
type DeliveryError struct {
	Email string
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed: %v", e.Email, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// FeedUnavailableError means the upstream feed failed and nothing was cached.
type FeedUnavailableError struct {
	Err error
}

func (e *FeedUnavailableError) Error() string {
	return "feed unavailable: " + e.Err.Error()
}

func (e *FeedUnavailableError) Unwrap() error { return e.Err }

// ConflictError is returned when a unique row already exists (email already
// subscribed, already on the waitlist).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode maps an error from the service layer to an HTTP status.
func StatusCode(err error) int {
	var (
		validation *ValidationError
		noRcpt     *NoRecipientsError
		conflict   *ConflictError
		notFound   *ErrCampaignNotFound
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation), errors.As(err, &noRcpt):
		return http.StatusBadRequest
	case errors.As(err, &conflict), errors.Is(err, ErrDispatchInProgress):
		return http.StatusConflict
	case errors.As(err, &notFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
