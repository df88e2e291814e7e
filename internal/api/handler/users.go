package handler

import (
	"net/http"
	"strconv"

	"civicpulse/backend/internal/gamification"
	"civicpulse/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// Me returns the authenticated user's profile with level progress.
func (h *Handler) Me(c *gin.Context) {
	user := currentUser(c)
	progress := gamification.XPToNextLevel(user.XP, user.Level)
	if progress.Percentage > 100 {
		progress.Percentage = 100
	}

	c.JSON(http.StatusOK, gin.H{
		"user":           user,
		"progress":       progress,
		"nextLevelTitle": gamification.NextLevelTitle(user.Level),
	})
}

// Leaderboard returns the top users by XP.
func (h *Handler) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	users, err := h.Storage.Leaderboard(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load leaderboard"})
		return
	}

	entries := make([]models.LeaderboardEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, models.LeaderboardEntry{
			UID:         u.UID,
			DisplayName: u.DisplayName,
			PhotoURL:    u.PhotoURL,
			XP:          u.XP,
			Level:       u.Level,
			LevelTitle:  u.LevelTitle,
		})
	}
	c.JSON(http.StatusOK, entries)
}
