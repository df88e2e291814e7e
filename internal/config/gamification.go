package config

import "time"

// XP rewards per event. Deltas are applied atomically with the action that
// triggers them; negative values are penalties.
const (
	XPSubmitComplaint   = 10
	XPComplaintVerified = 15 // submitted -> under_review only
	XPComplaintResolved = 30
	XPComplaintRejected = -5
	XPGiveUpvote        = 1
	XPReceiveUpvote     = 2
)

// LevelThresholds holds the cumulative XP required for each level (1-indexed:
// LevelThresholds[i] is the floor of level i+1).
var LevelThresholds = []int{0, 50, 150, 350, 600, 1000, 1500}

// LevelTitles maps level-1 to the display title for that level.
var LevelTitles = []string{
	"Newcomer",
	"Citizen",
	"Active Citizen",
	"Community Voice",
	"Civic Champion",
	"Neighbourhood Guardian",
	"City Hero",
}

// MaxLevel is the highest reachable level.
var MaxLevel = len(LevelThresholds)

// Duplicate detection
const (
	// DuplicateRadiusMetres flags a candidate as a likely duplicate when an
	// open complaint lies strictly closer than this.
	DuplicateRadiusMetres = 150.0
)

// Image validation
const (
	ImageMinBytes      = 10
	ImageMaxBytes      = 20 * 1024 * 1024
	ImageMinDimension  = 10
	ImageAIScanBytes   = 10000
	ImageExifScanBytes = 1000
)

// Content limits
const (
	TitleMaxLen       = 100
	DescriptionMaxLen = 500
	GeohashPrecision  = 8
)

// Geocoding
const (
	// GeocodeMinInterval is the minimum spacing between requests to the shared
	// geocoding provider.
	GeocodeMinInterval = time.Second
)
