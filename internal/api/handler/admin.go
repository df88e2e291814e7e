package handler

import (
	"errors"
	"net/http"

	"civicpulse/backend/internal/complaints"
	"civicpulse/backend/internal/models"
	"civicpulse/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// UpdateStatus applies an admin status transition to a complaint.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.Complaints.UpdateStatus(currentUser(c), c.Param("id"), req)
	if err != nil {
		var vErr *complaints.ValidationError
		switch {
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error(), "fields": vErr.Fields})
		case errors.Is(err, storage.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Complaint not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		}
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Dashboard summarizes complaints by lifecycle state.
func (h *Handler) Dashboard(c *gin.Context) {
	counts, err := h.Storage.CountByStatus()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}
	c.JSON(http.StatusOK, counts)
}
