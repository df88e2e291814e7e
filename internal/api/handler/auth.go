package handler

import (
	"net/http"
	"time"

	"civicpulse/backend/internal/config"
	"civicpulse/backend/internal/models"

	"github.com/gin-gonic/gin"

	jwt "github.com/golang-jwt/jwt/v5"
)

// generateJWT signs a session token for the given uid.
func (h *Handler) generateJWT(uid string) (string, error) {
	claims := jwt.MapClaims{
		"uid": uid,
		"exp": time.Now().Add(time.Hour * 72).Unix(),
		"iss": "civicpulse-service",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.Cfg.JWTSecret))
}

// Session provisions the user record on first contact and issues a JWT. The
// identity in the payload has already been verified upstream; the role is
// decided here, once, from the admin allow-list and never re-derived for
// existing accounts.
func (h *Handler) Session(c *gin.Context) {
	var req models.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := models.RoleCitizen
	if h.Cfg.IsAdminEmail(req.Email) {
		role = models.RoleAdmin
	}

	now := time.Now()
	user := &models.User{
		UID:          req.UID,
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PhotoURL:     req.PhotoURL,
		Role:         role,
		Level:        1,
		LevelTitle:   config.LevelTitles[0],
		JoinedAt:     now,
		LastActiveAt: now,
	}

	created, err := h.Storage.EnsureUser(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to provision user"})
		return
	}
	if !created {
		if err := h.Storage.TouchLastActive(user.UID); err == nil {
			user.LastActiveAt = now
		}
	}

	token, err := h.generateJWT(user.UID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	c.JSON(http.StatusOK, models.SessionResponse{Token: token, User: *user})
}
