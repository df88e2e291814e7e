package gamification_test

import (
	"testing"

	"civicpulse/backend/internal/config"
	"civicpulse/backend/internal/gamification"

	"github.com/stretchr/testify/assert"
)

// TestCalculateLevel_Boundaries verifies exact threshold behavior.
func TestCalculateLevel_Boundaries(t *testing.T) {
	tests := []struct {
		xp        int
		wantLevel int
		wantTitle string
	}{
		{0, 1, "Newcomer"},
		{49, 1, "Newcomer"},
		{50, 2, "Citizen"},
		{149, 2, "Citizen"},
		{150, 3, "Active Citizen"},
		{350, 4, "Community Voice"},
		{600, 5, "Civic Champion"},
		{1000, 6, "Neighbourhood Guardian"},
		{1499, 6, "Neighbourhood Guardian"},
		{1500, 7, "City Hero"},
		{999999, 7, "City Hero"},
	}

	for _, tt := range tests {
		got := gamification.CalculateLevel(tt.xp)
		assert.Equal(t, tt.wantLevel, got.Level, "xp=%d", tt.xp)
		assert.Equal(t, tt.wantTitle, got.Title, "xp=%d", tt.xp)
	}
}

// TestCalculateLevel_NegativeXP verifies negative balances still map to level 1
// (XP can go negative via retractions and rejection penalties).
func TestCalculateLevel_NegativeXP(t *testing.T) {
	got := gamification.CalculateLevel(-25)
	assert.Equal(t, 1, got.Level)
	assert.Equal(t, "Newcomer", got.Title)
}

// TestCalculateLevel_Monotonic verifies level never decreases as XP grows.
func TestCalculateLevel_Monotonic(t *testing.T) {
	prev := 0
	for xp := -10; xp <= 2000; xp++ {
		level := gamification.CalculateLevel(xp).Level
		assert.GreaterOrEqual(t, level, prev, "xp=%d", xp)
		prev = level
	}
}

// TestXPToNextLevel_Progress verifies current+floor == xp and current < required
// for every level below the cap.
func TestXPToNextLevel_Progress(t *testing.T) {
	for level := 1; level < config.MaxLevel; level++ {
		floor := config.LevelThresholds[level-1]
		next := config.LevelThresholds[level]
		for _, xp := range []int{floor, (floor + next) / 2, next - 1} {
			p := gamification.XPToNextLevel(xp, level)
			assert.Equal(t, xp, p.Current+floor, "level=%d xp=%d", level, xp)
			assert.Less(t, p.Current, p.Required, "level=%d xp=%d", level, xp)
			assert.Equal(t, next-floor, p.Required, "level=%d", level)
		}
	}
}

// TestXPToNextLevel_LevelFloor verifies out-of-range levels are treated as
// level 1 instead of panicking on the threshold table.
func TestXPToNextLevel_LevelFloor(t *testing.T) {
	assert.NotPanics(t, func() {
		p := gamification.XPToNextLevel(0, 0)
		assert.Equal(t, 0, p.Current)
		assert.Equal(t, config.LevelThresholds[1], p.Required)

		p = gamification.XPToNextLevel(-10, -3)
		assert.Equal(t, -10, p.Current)
	})
}

// TestXPToNextLevel_MaxLevel verifies the cap: no further progress representable.
func TestXPToNextLevel_MaxLevel(t *testing.T) {
	p := gamification.XPToNextLevel(1800, 7)
	assert.Equal(t, 1800, p.Current)
	assert.Equal(t, 1800, p.Required)
	assert.Equal(t, 100, p.Percentage)
}

// TestXPToNextLevel_Percentage checks rounding on a known midpoint.
func TestXPToNextLevel_Percentage(t *testing.T) {
	// level 1: floor 0, next 50; xp 25 -> 50%
	p := gamification.XPToNextLevel(25, 1)
	assert.Equal(t, 50, p.Percentage)

	// level 2: floor 50, next 150; xp 125 -> 75/100 -> 75%
	p = gamification.XPToNextLevel(125, 2)
	assert.Equal(t, 75, p.Percentage)

	// unclamped: xp already past the next threshold
	p = gamification.XPToNextLevel(200, 1)
	assert.Greater(t, p.Percentage, 100)
}

func TestNextLevelTitle(t *testing.T) {
	assert.Equal(t, "Citizen", gamification.NextLevelTitle(1))
	assert.Equal(t, "City Hero", gamification.NextLevelTitle(7))
	assert.Equal(t, "City Hero", gamification.NextLevelTitle(42))
}
