package models

import "time"

// UserRole defines the access level of an account.
type UserRole string

const (
	RoleCitizen UserRole = "citizen"
	RoleAdmin   UserRole = "admin"
)

// User represents a citizen or admin account.
// The UID comes from the authentication provider and is immutable; the role is
// assigned once at provisioning time from the admin allow-list and is never
// re-derived afterwards.
type User struct {
	// UID is the opaque, stable identifier supplied by the auth provider.
	UID         string   `gorm:"primaryKey" json:"uid"`
	Email       string   `gorm:"uniqueIndex" json:"email"`
	DisplayName string   `json:"displayName"`
	PhotoURL    string   `json:"photoURL"`
	Role        UserRole `gorm:"type:text;not null;default:citizen" json:"role"`

	// XP may go negative after upvote retractions or rejection penalties.
	XP         int    `json:"xp"`
	Level      int    `json:"level"`
	LevelTitle string `json:"levelTitle"`

	TotalComplaints    int `json:"totalComplaints"`
	ResolvedComplaints int `json:"resolvedComplaints"`
	UpvotesReceived    int `json:"upvotesReceived"`

	JoinedAt     time.Time `json:"joinedAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}
