package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"civicpulse/backend/internal/complaints"
	"civicpulse/backend/internal/models"
	"civicpulse/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// SubmitComplaint files a new complaint. The request is multipart: the photo
// under "image", the remaining fields as plain form values.
func (h *Handler) SubmitComplaint(c *gin.Context) {
	user := currentUser(c)

	lat, latErr := strconv.ParseFloat(c.PostForm("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.PostForm("lng"), 64)
	if latErr != nil || lngErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng must be valid coordinates"})
		return
	}

	req := models.SubmitComplaintRequest{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    models.ComplaintCategory(c.PostForm("category")),
		Latitude:    lat,
		Longitude:   lng,
		Address:     c.PostForm("address"),
		Area:        c.PostForm("area"),
		Force:       c.PostForm("force") == "true",
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image file"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image file"})
		return
	}

	created, err := h.Complaints.Submit(c.Request.Context(), user, complaints.SubmitInput{
		Request:   req,
		ImageMIME: fileHeader.Header.Get("Content-Type"),
		ImageData: data,
	})
	if err != nil {
		var vErr *complaints.ValidationError
		var dupErr *complaints.DuplicateError
		switch {
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":       vErr.Error(),
				"fields":      vErr.Fields,
				"imageChecks": vErr.Image,
			})
		case errors.As(err, &dupErr):
			c.JSON(http.StatusConflict, gin.H{
				"error":    "A similar complaint already exists nearby",
				"existing": dupErr.Existing,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create complaint"})
		}
		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListComplaints returns the newest complaints, optionally capped by limit
// and filtered by a status set. status takes a comma-separated list of states
// or the keyword "open" (the public map feed's filter).
func (h *Handler) ListComplaints(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	statuses, err := parseStatusFilter(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var list []models.Complaint
	if len(statuses) == 0 {
		list, err = h.Storage.ListComplaints(limit)
	} else {
		list, err = h.Storage.ListByStatus(statuses, limit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list complaints"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func parseStatusFilter(raw string) ([]models.ComplaintStatus, error) {
	if raw == "" {
		return nil, nil
	}
	if raw == "open" {
		return models.OpenStatuses, nil
	}
	var out []models.ComplaintStatus
	for _, part := range strings.Split(raw, ",") {
		s := models.ComplaintStatus(strings.TrimSpace(part))
		if !s.Valid() {
			return nil, fmt.Errorf("unknown status %q", s)
		}
		out = append(out, s)
	}
	return out, nil
}

// GetComplaint returns one complaint by id.
func (h *Handler) GetComplaint(c *gin.Context) {
	complaint, err := h.Storage.GetComplaint(c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Complaint not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load complaint"})
		return
	}
	c.JSON(http.StatusOK, complaint)
}

// MyComplaints returns the authenticated user's own filings.
func (h *Handler) MyComplaints(c *gin.Context) {
	list, err := h.Storage.GetComplaintsByUser(currentUser(c).UID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list complaints"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// ComplaintActivity returns the append-only audit trail for a complaint.
func (h *Handler) ComplaintActivity(c *gin.Context) {
	entries, err := h.Storage.GetActivity(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load activity"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// NearbyOpen previews the duplicate advisory for a location before the user
// files: returns the nearest open complaint within the radius, or null.
func (h *Handler) NearbyOpen(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng must be valid coordinates"})
		return
	}

	nearby, err := h.Complaints.NearbyOpen(lat, lng)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check nearby complaints"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"duplicate": nearby})
}

// ToggleUpvote flips the caller's upvote on a complaint.
func (h *Handler) ToggleUpvote(c *gin.Context) {
	id := c.Param("id")
	upvoted, err := h.Complaints.ToggleUpvote(id, currentUser(c))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Complaint not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle upvote"})
		return
	}

	complaint, err := h.Storage.GetComplaint(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load complaint"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"upvoted": upvoted, "upvotes": complaint.Upvotes})
}

// Feed returns stored feed events after the given cursor for catch-up polling.
func (h *Handler) Feed(c *gin.Context) {
	cursor, _ := strconv.ParseUint(c.DefaultQuery("cursor", "0"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	events, err := h.Storage.EventsSince(uint(cursor), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load feed"})
		return
	}
	c.JSON(http.StatusOK, events)
}
