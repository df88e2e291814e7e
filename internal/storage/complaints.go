package storage

import (
	"errors"
	"fmt"
	"time"

	"civicpulse/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateComplaint inserts a new complaint row.
func (s *Service) CreateComplaint(c *models.Complaint) error {
	if c.Status == "" {
		c.Status = models.StatusSubmitted
	}
	if c.Priority == "" {
		c.Priority = models.PriorityMedium
	}
	if err := s.DB.Create(c).Error; err != nil {
		return fmt.Errorf("failed to create complaint: %w", err)
	}
	return nil
}

// GetComplaint loads a complaint by id.
func (s *Service) GetComplaint(id string) (*models.Complaint, error) {
	var c models.Complaint
	err := s.DB.First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get complaint %s: %w", id, err)
	}
	return &c, nil
}

// GetOpenComplaints returns every complaint still in an open state, for
// duplicate detection and the public map feed.
func (s *Service) GetOpenComplaints() ([]models.Complaint, error) {
	var out []models.Complaint
	err := s.DB.Where("status IN ?", models.OpenStatuses).
		Order("created_at desc").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list open complaints: %w", err)
	}
	return out, nil
}

// GetComplaintsByUser returns a user's complaints, newest first.
func (s *Service) GetComplaintsByUser(uid string) ([]models.Complaint, error) {
	var out []models.Complaint
	err := s.DB.Where("user_id = ?", uid).Order("created_at desc").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints for %s: %w", uid, err)
	}
	return out, nil
}

// ListComplaints returns the newest complaints across all states.
func (s *Service) ListComplaints(limit int) ([]models.Complaint, error) {
	var out []models.Complaint
	q := s.DB.Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	return out, nil
}

// ListByStatus returns the newest complaints in any of the given states.
func (s *Service) ListByStatus(statuses []models.ComplaintStatus, limit int) ([]models.Complaint, error) {
	var out []models.Complaint
	q := s.DB.Where("status IN ?", statuses).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list complaints by status: %w", err)
	}
	return out, nil
}

// CountByStatus tallies complaints per lifecycle state.
func (s *Service) CountByStatus() (models.StatusCounts, error) {
	var counts models.StatusCounts
	rows := []struct {
		Status models.ComplaintStatus
		N      int64
	}{}
	err := s.DB.Model(&models.Complaint{}).
		Select("status, count(*) as n").Group("status").Scan(&rows).Error
	if err != nil {
		return counts, fmt.Errorf("failed to count complaints: %w", err)
	}
	for _, row := range rows {
		switch row.Status {
		case models.StatusSubmitted:
			counts.Submitted = row.N
		case models.StatusUnderReview:
			counts.UnderReview = row.N
		case models.StatusInProgress:
			counts.InProgress = row.N
		case models.StatusResolved:
			counts.Resolved = row.N
		case models.StatusRejected:
			counts.Rejected = row.N
		}
	}
	return counts, nil
}

// ApplyStatusChange runs one transition as a single transaction: complaint
// row update, activity log append, and the owner-side counter effects. The
// row lock serializes concurrent transitions on the same complaint; every log
// entry persists even when statuses race (last committed status wins).
func (s *Service) ApplyStatusChange(ch StatusChange) (*StatusChangeResult, error) {
	var res StatusChangeResult

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var c models.Complaint
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&c, "id = ?", ch.ComplaintID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read complaint %s: %w", ch.ComplaintID, err)
		}

		res.From = c.Status
		res.OwnerID = c.UserID

		now := time.Now()
		updates := map[string]interface{}{
			"status":     ch.To,
			"updated_at": now,
		}
		if ch.Notes != "" {
			updates["admin_notes"] = ch.Notes
		}
		if ch.Priority != "" {
			updates["priority"] = ch.Priority
		}

		// resolvedAt latches on the first resolve and is never cleared.
		if ch.To == models.StatusResolved && c.ResolvedAt == nil {
			updates["resolved_at"] = now
			res.FirstResolve = true
		}

		if err := tx.Model(&c).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update complaint %s: %w", ch.ComplaintID, err)
		}

		from := string(res.From)
		entry := models.ActivityLog{
			ComplaintID:     ch.ComplaintID,
			Action:          models.ActionStatusChange,
			FromValue:       &from,
			ToValue:         string(ch.To),
			PerformedBy:     ch.ActorID,
			PerformedByName: ch.ActorName,
			Timestamp:       now,
		}
		if ch.Notes != "" {
			note := ch.Notes
			entry.Note = &note
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to append activity log: %w", err)
		}

		if res.FirstResolve {
			err := tx.Model(&models.User{}).Where("uid = ?", c.UserID).
				Update("resolved_complaints", gorm.Expr("resolved_complaints + 1")).Error
			if err != nil {
				return fmt.Errorf("failed to bump resolved counter: %w", err)
			}
		}

		if ch.OwnerXPDelta != 0 {
			err := tx.Model(&models.User{}).Where("uid = ?", c.UserID).
				Updates(map[string]interface{}{
					"xp":             gorm.Expr("xp + ?", ch.OwnerXPDelta),
					"last_active_at": now,
				}).Error
			if err != nil {
				return fmt.Errorf("failed to award xp: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if ch.OwnerXPDelta != 0 {
		s.bumpLeaderboard(res.OwnerID, ch.OwnerXPDelta)
	}
	return &res, nil
}

// ToggleUpvote flips one user's upvote on a complaint inside a single
// transaction spanning the complaint, the voter and the owner. Applying it
// twice returns every counter to its starting value; upvotes always equals
// the size of the upvoter set.
func (s *Service) ToggleUpvote(complaintID, voterID string, giveXP, receiveXP int) (*UpvoteOutcome, error) {
	var out UpvoteOutcome

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var c models.Complaint
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&c, "id = ?", complaintID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read complaint %s: %w", complaintID, err)
		}

		out.OwnerID = c.UserID
		hasUpvoted := false
		for _, id := range c.UpvotedBy {
			if id == voterID {
				hasUpvoted = true
				break
			}
		}

		now := time.Now()
		if hasUpvoted {
			// retract. last_active_at moves only on the XP-earning apply
			// branch, and only for the acting voter.
			err = tx.Model(&c).Updates(map[string]interface{}{
				"upvotes":    gorm.Expr("upvotes - 1"),
				"upvoted_by": gorm.Expr("array_remove(upvoted_by, ?)", voterID),
				"updated_at": now,
			}).Error
			if err != nil {
				return fmt.Errorf("failed to retract upvote: %w", err)
			}

			err = tx.Model(&models.User{}).Where("uid = ?", voterID).
				Update("xp", gorm.Expr("xp - ?", giveXP)).Error
			if err != nil {
				return fmt.Errorf("failed to retract voter xp: %w", err)
			}

			err = tx.Model(&models.User{}).Where("uid = ?", c.UserID).
				Updates(map[string]interface{}{
					"xp":               gorm.Expr("xp - ?", receiveXP),
					"upvotes_received": gorm.Expr("upvotes_received - 1"),
				}).Error
			if err != nil {
				return fmt.Errorf("failed to retract owner xp: %w", err)
			}

			out.Upvoted = false
			out.Upvotes = c.Upvotes - 1
			return nil
		}

		// apply; array_append under the row lock keeps the set free of
		// duplicates, so upvotes never double-counts
		err = tx.Model(&c).Updates(map[string]interface{}{
			"upvotes":    gorm.Expr("upvotes + 1"),
			"upvoted_by": gorm.Expr("array_append(upvoted_by, ?)", voterID),
			"updated_at": now,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to apply upvote: %w", err)
		}

		err = tx.Model(&models.User{}).Where("uid = ?", voterID).
			Updates(map[string]interface{}{
				"xp":             gorm.Expr("xp + ?", giveXP),
				"last_active_at": now,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to award voter xp: %w", err)
		}

		err = tx.Model(&models.User{}).Where("uid = ?", c.UserID).
			Updates(map[string]interface{}{
				"xp":               gorm.Expr("xp + ?", receiveXP),
				"upvotes_received": gorm.Expr("upvotes_received + 1"),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to award owner xp: %w", err)
		}

		out.Upvoted = true
		out.Upvotes = c.Upvotes + 1
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.Upvoted {
		s.bumpLeaderboard(voterID, giveXP)
		s.bumpLeaderboard(out.OwnerID, receiveXP)
	} else {
		s.bumpLeaderboard(voterID, -giveXP)
		s.bumpLeaderboard(out.OwnerID, -receiveXP)
	}
	return &out, nil
}

// GetActivity returns a complaint's audit trail ordered by the time of the
// transition that produced each entry.
func (s *Service) GetActivity(complaintID string) ([]models.ActivityLog, error) {
	var out []models.ActivityLog
	err := s.DB.Where("complaint_id = ?", complaintID).
		Order("timestamp asc").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list activity for %s: %w", complaintID, err)
	}
	return out, nil
}
