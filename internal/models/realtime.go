package models

import "time"

// FeedEventKind classifies the realtime events published on the feed channel.
type FeedEventKind string

const (
	EventComplaintCreated FeedEventKind = "complaint_created"
	EventStatusChanged    FeedEventKind = "status_changed"
	EventPriorityChanged  FeedEventKind = "priority_changed"
	EventUpvoteToggled    FeedEventKind = "upvote_toggled"
)

// FeedEvent is the wire format broadcast to live feed subscribers and stored
// for cursor-based catch-up reads.
type FeedEvent struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"cursor"`
	Kind        FeedEventKind   `gorm:"type:text;not null" json:"kind"`
	ComplaintID string          `gorm:"index" json:"complaintId"`
	Status      ComplaintStatus `json:"status,omitempty"`
	Priority    Priority        `json:"priority,omitempty"`
	Upvotes     int             `json:"upvotes"`
	ActorID     string          `json:"actorId"`
	OccurredAt  time.Time       `json:"occurredAt"`
}
