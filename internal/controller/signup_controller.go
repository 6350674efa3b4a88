package controller

import (
	"context"
	"net/http"

	appErrors "github.com/unclebandit/groundzero-backend/internal/errors"
	"github.com/unclebandit/groundzero-backend/internal/logger"
	"github.com/unclebandit/groundzero-backend/internal/model"
)

// Signups is implemented by service.SignupService.
type Signups interface {
	Subscribe(ctx context.Context, email, source string) (*model.Subscriber, error)
	JoinWaitlist(ctx context.Context, email string) error
	SubmitBlog(ctx context.Context, email, profileLink, blogLink string) (*model.BlogSubmission, error)
}

type SignupController struct {
	Signups Signups
	Log     logger.Logger
}

type emailRequest struct {
	Email  *string `json:"email"`
	Source string  `json:"source"`
}

type blogSubmissionRequest struct {
	Email       *string `json:"email"`
	ProfileLink *string `json:"profileLink"`
	BlogLink    *string `json:"blogLink"`
}

// Subscribe handles POST /api/newsletter/subscribe.
func (c *SignupController) Subscribe(w http.ResponseWriter, r *http.Request) {
	var body emailRequest
	if err := decodeBody(r, emailSchema, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := c.Signups.Subscribe(r.Context(), deref(body.Email), body.Source)
	if err != nil {
		c.fail(w, err, "Failed to subscribe. Please try again.")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Successfully subscribed to newsletter",
		"data":    []*model.Subscriber{sub},
	})
}

// JoinWaitlist handles POST /api/launch-waitlist.
func (c *SignupController) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	var body emailRequest
	if err := decodeBody(r, emailSchema, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := c.Signups.JoinWaitlist(r.Context(), deref(body.Email)); err != nil {
		c.fail(w, err, "Failed to join the waitlist. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// SubmitBlog handles POST /api/blog-submissions/submit.
func (c *SignupController) SubmitBlog(w http.ResponseWriter, r *http.Request) {
	var body blogSubmissionRequest
	if err := decodeBody(r, blogSubmissionSchema, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := c.Signups.SubmitBlog(r.Context(), deref(body.Email), deref(body.ProfileLink), deref(body.BlogLink))
	if err != nil {
		c.fail(w, err, "Failed to submit. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Blog submission received successfully",
		"data":    []*model.BlogSubmission{sub},
	})
}

// fail shows validation and conflict messages as they are and hides
// everything else behind fallback.
func (c *SignupController) fail(w http.ResponseWriter, err error, fallback string) {
	status := appErrors.StatusCode(err)
	if status >= http.StatusInternalServerError {
		c.Log.Error("signup failed", map[string]interface{}{"error": err})
		writeError(w, status, fallback)
		return
	}
	writeError(w, status, err.Error())
}
