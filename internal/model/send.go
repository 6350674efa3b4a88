// internal/model/send.go
package model

import "time"

const (
	SendStatusSuccess = "success"
	SendStatusFailed  = "failed"
)

// Send records one delivery attempt within a campaign. Rows are written once
// and never updated.
type Send struct {
	ID           int       `db:"id" json:"id"`
	CampaignID   int       `db:"campaign_id" json:"campaign_id"`
	SubscriberID *string   `db:"subscriber_id" json:"subscriber_id"`
	Email        string    `db:"email" json:"email"`
	Status       string    `db:"status" json:"status"`
	ErrorMessage *string   `db:"error_message" json:"error_message"`
	SentAt       time.Time `db:"sent_at" json:"sent_at"`
}

// Recipient is one address a campaign is delivered to. ID is nil for test
// sends.
type Recipient struct {
	ID    *string
	Email string
}
