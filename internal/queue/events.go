package queue

import (
	"context"
	"encoding/json"
	"fmt"
)

// TopicCampaignFinalized is published once per dispatch, after the campaign
// counts have been written.
const TopicCampaignFinalized = "campaign.finalized"

type CampaignFinalized struct {
	CampaignID    int    `json:"campaign_id"`
	AggregateOK   bool   `json:"aggregate_ok"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// EventPublisher is the narrow view the dispatch service needs.
type EventPublisher interface {
	PublishCampaignFinalized(ctx context.Context, evt CampaignFinalized) error
}

// Events adapts a Queue to EventPublisher.
type Events struct {
	Queue Queue
}

var _ EventPublisher = (*Events)(nil)

func (e *Events) PublishCampaignFinalized(ctx context.Context, evt CampaignFinalized) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return e.Queue.Publish(ctx, TopicCampaignFinalized, body)
}

// OnCampaignFinalized subscribes fn to finalized events. Undecodable bodies
// are dropped rather than retried.
func OnCampaignFinalized(ctx context.Context, q Queue, fn func(context.Context, CampaignFinalized) error) error {
	return q.Subscribe(ctx, TopicCampaignFinalized, func(ctx context.Context, body []byte) error {
		var evt CampaignFinalized
		if err := json.Unmarshal(body, &evt); err != nil || evt.CampaignID <= 0 {
			return nil
		}
		if err := fn(ctx, evt); err != nil {
			return fmt.Errorf("campaign %d: %w", evt.CampaignID, err)
		}
		return nil
	})
}
