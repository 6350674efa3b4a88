// internal/controller/newsletter_controller.go
package controller

import (
	"context"
	"errors"
	"net/http"

	appErrors "github.com/unclebandit/groundzero-backend/internal/errors"
	"github.com/unclebandit/groundzero-backend/internal/logger"
	"github.com/unclebandit/groundzero-backend/internal/model"
	"github.com/unclebandit/groundzero-backend/internal/service"
)

// Dispatcher is implemented by service.DispatchService.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg model.Message) (*service.DispatchResult, error)
}

type NewsletterController struct {
	Dispatcher Dispatcher
	Log        logger.Logger

	// Shutdown ends with the process. A running dispatch stops between
	// batches when it does; a client disconnect never stops it.
	Shutdown context.Context
}

type sendNewsletterRequest struct {
	Title     *string `json:"title"`
	Subtitle  *string `json:"subtitle"`
	Content   *string `json:"content"`
	TestEmail *string `json:"testEmail"`
	Format    *string `json:"format"`
}

func (req sendNewsletterRequest) message() model.Message {
	return model.Message{
		Title:         deref(req.Title),
		Subtitle:      deref(req.Subtitle),
		Body:          deref(req.Content),
		TestRecipient: deref(req.TestEmail),
		Format:        deref(req.Format),
	}
}

// Send handles POST /api/email-newsletter/send.
func (c *NewsletterController) Send(w http.ResponseWriter, r *http.Request) {
	var body sendNewsletterRequest
	if err := decodeBody(r, newsletterSendSchema, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := c.dispatchContext(r)
	defer cancel()

	res, err := c.Dispatcher.Dispatch(ctx, body.message())
	if err != nil {
		c.Log.Error("newsletter send failed", map[string]interface{}{"error": err})
		writeError(w, appErrors.StatusCode(err), dispatchErrorMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":    res.Message,
		"success":    res.SuccessCount,
		"failed":     res.FailedCount,
		"campaignId": res.CampaignID,
	})
}

// dispatchContext keeps the request's values but not its cancellation.
func (c *NewsletterController) dispatchContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	if c.Shutdown == nil {
		return ctx, cancel
	}
	stop := context.AfterFunc(c.Shutdown, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func dispatchErrorMessage(err error) string {
	var (
		validation *appErrors.ValidationError
		noRcpt     *appErrors.NoRecipientsError
		directory  *appErrors.DirectoryError
		persist    *appErrors.PersistenceError
	)
	switch {
	case errors.As(err, &validation):
		return validation.Message
	case errors.As(err, &noRcpt):
		return "No active subscribers found"
	case errors.As(err, &directory):
		return "Failed to fetch subscribers"
	case errors.As(err, &persist):
		return "Failed to create campaign record"
	case errors.Is(err, appErrors.ErrDispatchInProgress):
		return "Another newsletter is already being sent"
	default:
		return "Failed to send newsletter"
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
