package models

// SessionRequest is the payload for session exchange. The gateway has already
// verified the identity; this core only provisions the user document and
// issues a token.
type SessionRequest struct {
	UID         string `json:"uid" binding:"required"`
	Email       string `json:"email" binding:"required"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

// SessionResponse returns the token and the provisioned user.
type SessionResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// SubmitComplaintRequest carries the complaint fields the client controls.
// The image itself arrives as a multipart file alongside this payload.
type SubmitComplaintRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    ComplaintCategory `json:"category"`
	Latitude    float64           `json:"lat"`
	Longitude   float64           `json:"lng"`
	Address     string            `json:"address"`
	Area        string            `json:"area"`
	// Force skips the duplicate-proximity gate after the user has seen the
	// nearby complaint and chosen to file anyway.
	Force bool `json:"force"`
}

// UpdateStatusRequest is the admin payload for a status transition.
type UpdateStatusRequest struct {
	Status   ComplaintStatus `json:"status" binding:"required"`
	Notes    string          `json:"notes"`
	Priority Priority        `json:"priority"`
}

// LevelProgress reports progress toward the next level.
type LevelProgress struct {
	Current    int `json:"current"`
	Required   int `json:"required"`
	Percentage int `json:"percentage"`
}

// LeaderboardEntry is one row of the XP leaderboard.
type LeaderboardEntry struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
	XP          int    `json:"xp"`
	Level       int    `json:"level"`
	LevelTitle  string `json:"levelTitle"`
}

// StatusCounts summarizes complaints by lifecycle state for the admin
// dashboard.
type StatusCounts struct {
	Submitted   int64 `json:"submitted"`
	UnderReview int64 `json:"underReview"`
	InProgress  int64 `json:"inProgress"`
	Resolved    int64 `json:"resolved"`
	Rejected    int64 `json:"rejected"`
}
