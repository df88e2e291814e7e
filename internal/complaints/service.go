// Package complaints implements the complaint lifecycle: submission with its
// validation gates, admin status transitions with conditional XP awards, and
// the upvote ledger.
package complaints

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"civicpulse/backend/internal/config"
	"civicpulse/backend/internal/gamification"
	"civicpulse/backend/internal/geo"
	"civicpulse/backend/internal/models"
	"civicpulse/backend/internal/storage"
	"civicpulse/backend/internal/upload"
	"civicpulse/backend/internal/validation"
)

// AddressResolver resolves coordinates into an address label.
type AddressResolver interface {
	Reverse(ctx context.Context, lat, lng float64) geo.GeocodedAddress
}

// Notifier announces noteworthy complaints to operators. Implementations must
// not block.
type Notifier interface {
	ComplaintCreated(c *models.Complaint)
	ComplaintEscalated(c *models.Complaint, priority models.Priority)
}

// FeedBroadcaster delivers a published feed event to this instance's live
// subscribers when no shared broker carries it.
type FeedBroadcaster interface {
	BroadcastLocal(ev models.FeedEvent)
}

// ValidationError reports a submission rejected before any store mutation.
type ValidationError struct {
	Fields map[string]string // field-level messages (title, category, ...)
	Image  *validation.Result
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for field, msg := range e.Fields {
			parts = append(parts, field+": "+msg)
		}
		return "validation failed: " + strings.Join(parts, "; ")
	}
	return "validation failed: image checks did not pass"
}

// ErrDuplicateNearby is returned (wrapped in DuplicateError) when an open
// complaint lies within the proximity radius of a new filing.
var ErrDuplicateNearby = errors.New("similar complaint nearby")

// DuplicateError surfaces the candidate duplicate so the user can choose to
// upvote it instead of filing. Advisory only: resubmitting with Force
// proceeds.
type DuplicateError struct {
	Existing models.Complaint
}

func (e *DuplicateError) Error() string { return ErrDuplicateNearby.Error() }
func (e *DuplicateError) Unwrap() error { return ErrDuplicateNearby }

// Service orchestrates the complaint lifecycle over the storage layer.
type Service struct {
	Storage  storage.Storage
	Uploader upload.Uploader
	Geocoder AddressResolver
	Notifier Notifier
	Feed     FeedBroadcaster
}

// NewService creates a new complaint service. Geocoder, Notifier and Feed are
// optional.
func NewService(s storage.Storage, up upload.Uploader) *Service {
	return &Service{Storage: s, Uploader: up}
}

// SubmitInput bundles everything needed to create a complaint.
type SubmitInput struct {
	Request   models.SubmitComplaintRequest
	ImageMIME string
	ImageData []byte
}

// Submit validates and creates a new complaint for the given user, awards the
// submission XP and publishes the feed event. Validation failures and the
// duplicate-proximity advisory are reported before anything is written.
func (s *Service) Submit(ctx context.Context, user *models.User, in SubmitInput) (*models.Complaint, error) {
	fields := map[string]string{}
	title := strings.TrimSpace(in.Request.Title)
	if title == "" {
		fields["title"] = "title is required"
	} else if len(title) > config.TitleMaxLen {
		fields["title"] = fmt.Sprintf("title must be at most %d characters", config.TitleMaxLen)
	}
	if len(in.Request.Description) > config.DescriptionMaxLen {
		fields["description"] = fmt.Sprintf("description must be at most %d characters", config.DescriptionMaxLen)
	}
	if !validCategory(in.Request.Category) {
		fields["category"] = "unknown category"
	}

	imageResult := validation.ValidateImage(in.ImageMIME, in.ImageData)

	if len(fields) > 0 || !imageResult.Passed {
		return nil, &ValidationError{Fields: fields, Image: &imageResult}
	}

	if !in.Request.Force {
		open, err := s.Storage.GetOpenComplaints()
		if err != nil {
			return nil, err
		}
		if nearby := geo.FindNearby(in.Request.Latitude, in.Request.Longitude, open); nearby != nil {
			return nil, &DuplicateError{Existing: *nearby}
		}
	}

	address, area := in.Request.Address, in.Request.Area
	if address == "" {
		resolved := geo.FallbackLabel(in.Request.Latitude, in.Request.Longitude)
		if s.Geocoder != nil {
			resolved = s.Geocoder.Reverse(ctx, in.Request.Latitude, in.Request.Longitude)
		}
		address, area = resolved.Address, resolved.Area
	}

	c := &models.Complaint{
		UserID:       user.UID,
		UserName:     user.DisplayName,
		UserPhotoURL: user.PhotoURL,
		Title:        title,
		Description:  in.Request.Description,
		Category:     in.Request.Category,
		Latitude:     in.Request.Latitude,
		Longitude:    in.Request.Longitude,
		Address:      address,
		Area:         area,
		Geohash:      geo.Hash(in.Request.Latitude, in.Request.Longitude),
		Status:       models.StatusSubmitted,
		Priority:     models.PriorityMedium,
		UpvotedBy:    []string{},
		ImageChecks:  imageResult.Snapshot(),
	}

	// id is needed for the upload destination before the row exists
	if err := c.BeforeCreate(nil); err != nil {
		return nil, err
	}

	url, path, err := s.Uploader.Upload(ctx, c.ID, in.ImageMIME, in.ImageData)
	if err != nil {
		// no partial persistence on upload failure
		return nil, fmt.Errorf("image upload: %w", err)
	}
	c.ImageURL = url
	c.ImagePath = path

	if err := s.Storage.CreateComplaint(c); err != nil {
		if delErr := s.Uploader.Delete(ctx, path); delErr != nil {
			log.Printf("WARN: orphaned image %s after failed create: %v", path, delErr)
		}
		return nil, err
	}

	if err := s.Storage.AddUserXP(user.UID, config.XPSubmitComplaint); err != nil {
		return nil, err
	}
	if err := s.Storage.IncrementTotalComplaints(user.UID); err != nil {
		return nil, err
	}
	if err := s.Storage.TouchLastActive(user.UID); err != nil {
		return nil, err
	}
	if err := s.reconcileLevel(user.UID); err != nil {
		return nil, err
	}

	s.publish(models.FeedEvent{
		Kind:        models.EventComplaintCreated,
		ComplaintID: c.ID,
		Status:      c.Status,
		ActorID:     user.UID,
	})
	if s.Notifier != nil {
		s.Notifier.ComplaintCreated(c)
	}
	return c, nil
}

// NearbyOpen returns the advisory duplicate candidate for a location, or nil.
func (s *Service) NearbyOpen(lat, lng float64) (*models.Complaint, error) {
	open, err := s.Storage.GetOpenComplaints()
	if err != nil {
		return nil, err
	}
	return geo.FindNearby(lat, lng, open), nil
}

// UpdateStatus applies an admin-initiated transition. Any target status is
// permitted; the transition is logged with its from/to values, resolvedAt
// latches on the first resolve, and the owner is awarded XP per the reward
// table unless the owner is an admin or is the acting admin themselves.
func (s *Service) UpdateStatus(actor *models.User, complaintID string, req models.UpdateStatusRequest) (*models.Complaint, error) {
	if !req.Status.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"status": "unknown status"}}
	}
	if req.Priority != "" && !req.Priority.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"priority": "unknown priority"}}
	}

	prior, err := s.Storage.GetComplaint(complaintID)
	if err != nil {
		return nil, err
	}

	xpDelta := 0
	owner, err := s.Storage.GetUser(prior.UserID)
	if err == nil && owner.Role != models.RoleAdmin && owner.UID != actor.UID {
		xpDelta = transitionXP(prior.Status, req.Status)
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	res, err := s.Storage.ApplyStatusChange(storage.StatusChange{
		ComplaintID:  complaintID,
		To:           req.Status,
		Notes:        req.Notes,
		Priority:     req.Priority,
		ActorID:      actor.UID,
		ActorName:    actor.DisplayName,
		OwnerXPDelta: xpDelta,
	})
	if err != nil {
		return nil, err
	}

	if xpDelta != 0 {
		if err := s.reconcileLevel(res.OwnerID); err != nil {
			return nil, err
		}
	}

	updated, err := s.Storage.GetComplaint(complaintID)
	if err != nil {
		return nil, err
	}

	s.publish(models.FeedEvent{
		Kind:        models.EventStatusChanged,
		ComplaintID: complaintID,
		Status:      updated.Status,
		Priority:    updated.Priority,
		Upvotes:     updated.Upvotes,
		ActorID:     actor.UID,
	})
	if s.Notifier != nil && req.Priority == models.PriorityCritical {
		s.Notifier.ComplaintEscalated(updated, req.Priority)
	}
	return updated, nil
}

// transitionXP is the owner-side reward for a status transition. Only the
// submitted -> under_review edge pays the verification reward; resolve and
// reject pay from any prior state.
func transitionXP(from, to models.ComplaintStatus) int {
	switch {
	case to == models.StatusUnderReview && from == models.StatusSubmitted:
		return config.XPComplaintVerified
	case to == models.StatusResolved:
		return config.XPComplaintResolved
	case to == models.StatusRejected:
		return config.XPComplaintRejected
	}
	return 0
}

// reconcileLevel recomputes a user's level from current XP and persists level
// and title together when they changed.
func (s *Service) reconcileLevel(uid string) error {
	u, err := s.Storage.GetUser(uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	info := gamification.CalculateLevel(u.XP)
	if info.Level == u.Level {
		return nil
	}
	return s.Storage.SetUserLevel(uid, info.Level, info.Title)
}

func (s *Service) publish(ev models.FeedEvent) {
	if err := s.Storage.PublishEvent(&ev); err != nil {
		log.Printf("WARN: failed to publish %s event for %s: %v", ev.Kind, ev.ComplaintID, err)
		return
	}
	if s.Feed != nil {
		// carries the cursor assigned above
		s.Feed.BroadcastLocal(ev)
	}
}

func validCategory(c models.ComplaintCategory) bool {
	for _, known := range models.Categories {
		if c == known {
			return true
		}
	}
	return false
}
