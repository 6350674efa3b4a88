// internal/model/campaign.go
package model

import "time"

// Campaign is one newsletter dispatch attempt, test or bulk.
type Campaign struct {
	ID              int       `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Subtitle        *string   `db:"subtitle" json:"subtitle"`
	Content         string    `db:"content" json:"content"`
	Subject         string    `db:"subject" json:"subject"`
	IsTest          bool      `db:"is_test" json:"is_test"`
	TestEmail       *string   `db:"test_email" json:"test_email"`
	TotalRecipients int       `db:"total_recipients" json:"total_recipients"`
	SuccessfulSends int       `db:"successful_sends" json:"successful_sends"`
	FailedSends     int       `db:"failed_sends" json:"failed_sends"`
	SentAt          time.Time `db:"sent_at" json:"sent_at"`

	// FinalizedAt is set once the aggregates have been written, by the
	// dispatch itself or by reconciliation.
	FinalizedAt *time.Time `db:"finalized_at" json:"finalized_at"`
}

// Consistent reports whether the stored aggregates cover every recipient.
func (c *Campaign) Consistent() bool {
	return c.SuccessfulSends+c.FailedSends == c.TotalRecipients
}

// Message is what an admin composes in the newsletter editor.
type Message struct {
	Title         string `json:"title"`
	Subtitle      string `json:"subtitle,omitempty"`
	Body          string `json:"content"`
	TestRecipient string `json:"testEmail,omitempty"`
	Format        string `json:"format,omitempty"` // html (default) or markdown
}

// IsTest is true when the message goes to a single test address only.
func (m Message) IsTest() bool {
	return m.TestRecipient != ""
}
