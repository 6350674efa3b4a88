// internal/model/subscriber.go
package model

import "time"

type Subscriber struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Source       string    `db:"source" json:"source"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	SubscribedAt time.Time `db:"subscribed_at" json:"subscribed_at"`
}

const SubmissionPending = "pending"

// BlogSubmission is a community blog waiting for review.
type BlogSubmission struct {
	ID          string    `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	ProfileLink string    `db:"profile_link" json:"profile_link"`
	BlogLink    string    `db:"blog_link" json:"blog_link"`
	Status      string    `db:"status" json:"status"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
}

type WaitlistEntry struct {
	Email  string `db:"email" json:"email"`
	Source string `db:"source" json:"source"`
}
