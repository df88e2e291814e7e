// Package storage persists users, complaints and activity logs in PostgreSQL
// and keeps the leaderboard cache and realtime feed channel in Redis. All
// multi-record mutations run inside database transactions; plain counter
// deltas use atomic SQL increments so concurrent updates never lose writes.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civicpulse/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested user or complaint does not exist.
var ErrNotFound = errors.New("not found")

// StatusChange carries one admin-initiated transition plus the side effects
// the caller decided on. The storage layer applies everything atomically.
type StatusChange struct {
	ComplaintID string
	To          models.ComplaintStatus
	Notes       string
	Priority    models.Priority
	ActorID     string
	ActorName   string

	// OwnerXPDelta is applied to the complaint owner's XP; zero means no
	// award. The caller has already applied the admin/self exemptions.
	OwnerXPDelta int
}

// StatusChangeResult reports what the transaction actually did.
type StatusChangeResult struct {
	From         models.ComplaintStatus
	OwnerID      string
	FirstResolve bool
}

// UpvoteOutcome reports the new state after a toggle.
type UpvoteOutcome struct {
	Upvoted bool
	OwnerID string
	Upvotes int
}

// Storage is the persistence contract the services depend on.
type Storage interface {
	// users
	GetUser(uid string) (*models.User, error)
	EnsureUser(user *models.User) (bool, error)
	SetUserLevel(uid string, level int, title string) error
	AddUserXP(uid string, delta int) error
	IncrementTotalComplaints(uid string) error
	TouchLastActive(uid string) error
	Leaderboard(limit int) ([]models.User, error)

	// complaints
	CreateComplaint(c *models.Complaint) error
	GetComplaint(id string) (*models.Complaint, error)
	GetOpenComplaints() ([]models.Complaint, error)
	GetComplaintsByUser(uid string) ([]models.Complaint, error)
	ListComplaints(limit int) ([]models.Complaint, error)
	ListByStatus(statuses []models.ComplaintStatus, limit int) ([]models.Complaint, error)
	CountByStatus() (models.StatusCounts, error)

	// atomic multi-record operations
	ApplyStatusChange(ch StatusChange) (*StatusChangeResult, error)
	ToggleUpvote(complaintID, voterID string, giveXP, receiveXP int) (*UpvoteOutcome, error)

	// activity log (append-only)
	GetActivity(complaintID string) ([]models.ActivityLog, error)

	// realtime feed
	PublishEvent(ev *models.FeedEvent) error
	EventsSince(cursor uint, limit int) ([]models.FeedEvent, error)
}

// Service implements Storage on PostgreSQL + Redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// GetUser loads a user by uid.
func (s *Service) GetUser(uid string) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, "uid = ?", uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", uid, err)
	}
	return &user, nil
}

// EnsureUser creates the user document on first contact. Returns true when a
// new row was created; an existing user is left untouched, so the role
// assigned at provisioning time is never re-derived.
func (s *Service) EnsureUser(user *models.User) (bool, error) {
	result := s.DB.Where("uid = ?", user.UID).FirstOrCreate(user)
	if result.Error != nil {
		return false, fmt.Errorf("failed to ensure user %s: %w", user.UID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// SetUserLevel persists a reconciled level and title together.
func (s *Service) SetUserLevel(uid string, level int, title string) error {
	return s.DB.Model(&models.User{}).Where("uid = ?", uid).
		Updates(map[string]interface{}{
			"level":       level,
			"level_title": title,
		}).Error
}

// AddUserXP applies an atomic XP increment and mirrors it into the
// leaderboard cache.
func (s *Service) AddUserXP(uid string, delta int) error {
	if delta == 0 {
		return nil
	}
	err := s.DB.Model(&models.User{}).Where("uid = ?", uid).
		Update("xp", gorm.Expr("xp + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("failed to add xp for %s: %w", uid, err)
	}
	s.bumpLeaderboard(uid, delta)
	return nil
}

// IncrementTotalComplaints bumps the submission counter atomically.
func (s *Service) IncrementTotalComplaints(uid string) error {
	return s.DB.Model(&models.User{}).Where("uid = ?", uid).
		Update("total_complaints", gorm.Expr("total_complaints + 1")).Error
}

// SetRoleByEmail changes an account's role. Used by the admin CLI; the HTTP
// surface never mutates roles after provisioning.
func (s *Service) SetRoleByEmail(email string, role models.UserRole) error {
	res := s.DB.Model(&models.User{}).Where("lower(email) = lower(?)", email).
		Update("role", role)
	if res.Error != nil {
		return fmt.Errorf("failed to set role for %s: %w", email, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastActive bumps the activity timestamp.
func (s *Service) TouchLastActive(uid string) error {
	return s.DB.Model(&models.User{}).Where("uid = ?", uid).
		Update("last_active_at", time.Now()).Error
}
