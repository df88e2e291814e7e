// Package gamification provides the pure XP-to-level math: mapping accumulated
// experience points to a discrete level and title, and progress toward the
// next level.
package gamification

import (
	"civicpulse/backend/internal/config"
	"civicpulse/backend/internal/models"
)

// LevelInfo pairs a level with its display title.
type LevelInfo struct {
	Level int
	Title string
}

// CalculateLevel returns the highest level whose threshold xp meets.
// Threshold 0 for level 1 guarantees a result even for negative XP.
func CalculateLevel(xp int) LevelInfo {
	level := 1
	for i := len(config.LevelThresholds) - 1; i >= 0; i-- {
		if xp >= config.LevelThresholds[i] {
			level = i + 1
			break
		}
	}
	return LevelInfo{Level: level, Title: config.LevelTitles[level-1]}
}

// XPToNextLevel reports progress from the current level's floor to the next
// threshold. At the maximum level there is no further progress to represent,
// so current == required and the percentage is pinned at 100.
//
// The percentage is not clamped: if xp has already crossed the next threshold
// (levels are reconciled after the fact, not synchronously), the caller clamps
// for display.
func XPToNextLevel(xp, currentLevel int) models.LevelProgress {
	if currentLevel < 1 {
		currentLevel = 1
	}
	if currentLevel >= config.MaxLevel {
		return models.LevelProgress{Current: xp, Required: xp, Percentage: 100}
	}

	floor := config.LevelThresholds[currentLevel-1]
	next := config.LevelThresholds[currentLevel]
	progress := xp - floor
	required := next - floor

	return models.LevelProgress{
		Current:    progress,
		Required:   required,
		Percentage: roundPct(progress, required),
	}
}

// NextLevelTitle returns the title of the level after currentLevel, or the top
// title when already maxed.
func NextLevelTitle(currentLevel int) string {
	if currentLevel >= len(config.LevelTitles) {
		return config.LevelTitles[len(config.LevelTitles)-1]
	}
	return config.LevelTitles[currentLevel]
}

func roundPct(progress, required int) int {
	if required == 0 {
		return 100
	}
	// round half away from zero, as in float rounding of progress/required*100
	scaled := progress * 100
	if scaled >= 0 {
		return (scaled + required/2) / required
	}
	return (scaled - required/2) / required
}
