package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq" // pq.StringArray for the upvoter set
	"gorm.io/gorm"
)

// ComplaintCategory enumerates the kinds of civic issues citizens can report.
type ComplaintCategory string

const (
	CategoryRoadDamage     ComplaintCategory = "road_damage"
	CategoryStreetlight    ComplaintCategory = "streetlight"
	CategorySanitation     ComplaintCategory = "sanitation"
	CategoryPublicProperty ComplaintCategory = "public_property"
	CategoryWaterSupply    ComplaintCategory = "water_supply"
	CategorySafetyHazard   ComplaintCategory = "safety_hazard"
	CategoryPublicNotice   ComplaintCategory = "public_notice"
	CategoryGreenery       ComplaintCategory = "greenery"
	CategoryOther          ComplaintCategory = "other"
)

// Categories lists every valid complaint category.
var Categories = []ComplaintCategory{
	CategoryRoadDamage, CategoryStreetlight, CategorySanitation,
	CategoryPublicProperty, CategoryWaterSupply, CategorySafetyHazard,
	CategoryPublicNotice, CategoryGreenery, CategoryOther,
}

// ComplaintStatus is the lifecycle state of a complaint.
type ComplaintStatus string

const (
	StatusSubmitted   ComplaintStatus = "submitted"
	StatusUnderReview ComplaintStatus = "under_review"
	StatusInProgress  ComplaintStatus = "in_progress"
	StatusResolved    ComplaintStatus = "resolved"
	StatusRejected    ComplaintStatus = "rejected"
)

// OpenStatuses are the states that count as "still open" for duplicate
// detection and the public map feed.
var OpenStatuses = []ComplaintStatus{StatusSubmitted, StatusUnderReview, StatusInProgress}

// Valid reports whether s is one of the five known statuses.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// Priority is the admin-assigned urgency of a complaint.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether p is one of the four known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// ImageChecks is the immutable snapshot of the image validation that was
// captured when the complaint was submitted.
type ImageChecks struct {
	Passed     bool `json:"passed"`
	FileType   bool `json:"fileType"`
	Resolution bool `json:"resolution"`
	HasExif    bool `json:"hasExif"`
	FileSize   bool `json:"fileSize"`
	IsNotAI    bool `json:"isNotAi"`
}

// Complaint is a citizen-filed civic issue report with photo evidence and a
// geotagged location.
type Complaint struct {
	ID           string `gorm:"primaryKey" json:"id"`
	UserID       string `gorm:"index;not null" json:"userId"`
	UserName     string `json:"userName"`
	UserPhotoURL string `json:"userPhotoURL"`

	Title       string            `gorm:"type:varchar(100);not null" json:"title"`
	Description string            `gorm:"type:varchar(500)" json:"description"`
	Category    ComplaintCategory `gorm:"type:text;not null" json:"category"`
	ImageURL    string            `json:"imageURL"`
	ImagePath   string            `json:"imagePath"`

	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Address   string  `json:"address"`
	Area      string  `json:"area"`
	// Geohash is the precision-8 spatial index token derived from lat/lng.
	Geohash string `gorm:"index" json:"geohash"`

	Status     ComplaintStatus `gorm:"type:text;index;default:submitted" json:"status"`
	Priority   Priority        `gorm:"type:text;default:medium" json:"priority"`
	AdminNotes string          `json:"adminNotes"`
	AssignedTo *string         `json:"assignedTo"`

	// Upvotes must equal len(UpvotedBy) at all times.
	Upvotes   int            `json:"upvotes"`
	UpvotedBy pq.StringArray `gorm:"type:text[]" json:"upvotedBy"`

	ImageChecks ImageChecks `gorm:"embedded;embeddedPrefix:img_" json:"imageValidation"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	// ResolvedAt is set the first time the complaint enters resolved and is
	// never cleared, even if the status changes again afterwards.
	ResolvedAt *time.Time `json:"resolvedAt"`
}

// BeforeCreate assigns a UUID if the complaint has no ID yet.
func (c *Complaint) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}
