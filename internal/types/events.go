package types

import "time"

// BusEventType discriminates event bus messages.
type BusEventType string

const (
	BusJobCreated         BusEventType = "job_created"
	BusJobUpdated         BusEventType = "job_updated"
	BusApplicationCreated BusEventType = "application_created"
	BusApplicationUpdate  BusEventType = "application_update"
	BusStatusUpdated      BusEventType = "status_updated"
)

// BusEvent is a single publish/subscribe message. UserID is zero for
// broadcast events (job_created, job_updated); authenticated subscribers
// receive only events targeted at their user.
type BusEvent struct {
	Type      BusEventType `json:"type"`
	Channel   string       `json:"channel,omitempty"`
	UserID    int64        `json:"user_id,omitempty"`
	Payload   any          `json:"payload,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
