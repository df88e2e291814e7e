package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityAction is the kind of audit event recorded against a complaint.
type ActivityAction string

const (
	ActionStatusChange   ActivityAction = "status_change"
	ActionPriorityChange ActivityAction = "priority_change"
	ActionNoteAdded      ActivityAction = "note_added"
	ActionUpvoted        ActivityAction = "upvoted"
)

// ActivityLog is an append-only audit entry attached to a complaint.
// Rows are never updated or deleted.
type ActivityLog struct {
	ID              string         `gorm:"primaryKey" json:"id"`
	ComplaintID     string         `gorm:"index;not null" json:"complaintId"`
	Action          ActivityAction `gorm:"type:text;not null" json:"action"`
	FromValue       *string        `json:"fromValue"`
	ToValue         string         `json:"toValue"`
	PerformedBy     string         `json:"performedBy"`
	PerformedByName string         `json:"performedByName"`
	Note            *string        `json:"note"`
	Timestamp       time.Time      `gorm:"index" json:"timestamp"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	return
}
