package complaints_test

import (
	"context"
	"fmt"
	"time"

	"civicpulse/backend/internal/models"
	"civicpulse/backend/internal/storage"
)

// fakeStore is an in-memory implementation of storage.Storage honoring the
// same contract as the PostgreSQL service: atomic counter deltas, the
// resolvedAt latch, and set semantics for the upvoter list.
type fakeStore struct {
	users      map[string]*models.User
	complaints map[string]*models.Complaint
	activity   map[string][]models.ActivityLog
	events     []models.FeedEvent

	failCreate bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      make(map[string]*models.User),
		complaints: make(map[string]*models.Complaint),
		activity:   make(map[string][]models.ActivityLog),
	}
}

func (f *fakeStore) addUser(u models.User) *models.User {
	cp := u
	f.users[u.UID] = &cp
	return f.users[u.UID]
}

func (f *fakeStore) GetUser(uid string) (*models.User, error) {
	u, ok := f.users[uid]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) EnsureUser(user *models.User) (bool, error) {
	if existing, ok := f.users[user.UID]; ok {
		*user = *existing
		return false, nil
	}
	cp := *user
	f.users[user.UID] = &cp
	return true, nil
}

func (f *fakeStore) SetUserLevel(uid string, level int, title string) error {
	u, ok := f.users[uid]
	if !ok {
		return storage.ErrNotFound
	}
	u.Level = level
	u.LevelTitle = title
	return nil
}

func (f *fakeStore) AddUserXP(uid string, delta int) error {
	u, ok := f.users[uid]
	if !ok {
		return storage.ErrNotFound
	}
	u.XP += delta
	return nil
}

func (f *fakeStore) IncrementTotalComplaints(uid string) error {
	u, ok := f.users[uid]
	if !ok {
		return storage.ErrNotFound
	}
	u.TotalComplaints++
	return nil
}

func (f *fakeStore) TouchLastActive(uid string) error {
	if u, ok := f.users[uid]; ok {
		u.LastActiveAt = time.Now()
	}
	return nil
}

func (f *fakeStore) Leaderboard(limit int) ([]models.User, error) {
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeStore) CreateComplaint(c *models.Complaint) error {
	if f.failCreate {
		return fmt.Errorf("create failed")
	}
	if c.ID == "" {
		c.ID = fmt.Sprintf("c-%d", len(f.complaints)+1)
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	cp := *c
	f.complaints[c.ID] = &cp
	return nil
}

func (f *fakeStore) GetComplaint(id string) (*models.Complaint, error) {
	c, ok := f.complaints[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *c
	cp.UpvotedBy = append([]string(nil), c.UpvotedBy...)
	return &cp, nil
}

func (f *fakeStore) GetOpenComplaints() ([]models.Complaint, error) {
	var out []models.Complaint
	for _, c := range f.complaints {
		for _, s := range models.OpenStatuses {
			if c.Status == s {
				out = append(out, *c)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) GetComplaintsByUser(uid string) ([]models.Complaint, error) {
	var out []models.Complaint
	for _, c := range f.complaints {
		if c.UserID == uid {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeStore) ListComplaints(limit int) ([]models.Complaint, error) {
	var out []models.Complaint
	for _, c := range f.complaints {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeStore) ListByStatus(statuses []models.ComplaintStatus, limit int) ([]models.Complaint, error) {
	var out []models.Complaint
	for _, c := range f.complaints {
		for _, s := range statuses {
			if c.Status == s {
				out = append(out, *c)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) CountByStatus() (models.StatusCounts, error) {
	var counts models.StatusCounts
	for _, c := range f.complaints {
		switch c.Status {
		case models.StatusSubmitted:
			counts.Submitted++
		case models.StatusUnderReview:
			counts.UnderReview++
		case models.StatusInProgress:
			counts.InProgress++
		case models.StatusResolved:
			counts.Resolved++
		case models.StatusRejected:
			counts.Rejected++
		}
	}
	return counts, nil
}

func (f *fakeStore) ApplyStatusChange(ch storage.StatusChange) (*storage.StatusChangeResult, error) {
	c, ok := f.complaints[ch.ComplaintID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	res := &storage.StatusChangeResult{From: c.Status, OwnerID: c.UserID}
	now := time.Now()

	c.Status = ch.To
	c.UpdatedAt = now
	if ch.Notes != "" {
		c.AdminNotes = ch.Notes
	}
	if ch.Priority != "" {
		c.Priority = ch.Priority
	}
	if ch.To == models.StatusResolved && c.ResolvedAt == nil {
		t := now
		c.ResolvedAt = &t
		res.FirstResolve = true
	}

	from := string(res.From)
	entry := models.ActivityLog{
		ID:              fmt.Sprintf("log-%d", len(f.activity[ch.ComplaintID])+1),
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
	f.activity[ch.ComplaintID] = append(f.activity[ch.ComplaintID], entry)

	if owner, ok := f.users[c.UserID]; ok {
		if res.FirstResolve {
			owner.ResolvedComplaints++
		}
		if ch.OwnerXPDelta != 0 {
			owner.XP += ch.OwnerXPDelta
			owner.LastActiveAt = now
		}
	}
	return res, nil
}

func (f *fakeStore) ToggleUpvote(complaintID, voterID string, giveXP, receiveXP int) (*storage.UpvoteOutcome, error) {
	c, ok := f.complaints[complaintID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	out := &storage.UpvoteOutcome{OwnerID: c.UserID}
	hasUpvoted := false
	for _, id := range c.UpvotedBy {
		if id == voterID {
			hasUpvoted = true
			break
		}
	}

	voter := f.users[voterID]
	owner := f.users[c.UserID]
	c.UpdatedAt = time.Now()

	if hasUpvoted {
		kept := c.UpvotedBy[:0]
		for _, id := range c.UpvotedBy {
			if id != voterID {
				kept = append(kept, id)
			}
		}
		c.UpvotedBy = kept
		c.Upvotes--
		if voter != nil {
			voter.XP -= giveXP
		}
		if owner != nil {
			owner.XP -= receiveXP
			owner.UpvotesReceived--
		}
		out.Upvoted = false
	} else {
		c.UpvotedBy = append(c.UpvotedBy, voterID)
		c.Upvotes++
		if voter != nil {
			voter.XP += giveXP
		}
		if owner != nil {
			owner.XP += receiveXP
			owner.UpvotesReceived++
		}
		out.Upvoted = true
	}
	out.Upvotes = c.Upvotes
	return out, nil
}

func (f *fakeStore) GetActivity(complaintID string) ([]models.ActivityLog, error) {
	return f.activity[complaintID], nil
}

func (f *fakeStore) PublishEvent(ev *models.FeedEvent) error {
	ev.ID = uint(len(f.events) + 1)
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	f.events = append(f.events, *ev)
	return nil
}

func (f *fakeStore) EventsSince(cursor uint, limit int) ([]models.FeedEvent, error) {
	var out []models.FeedEvent
	for _, ev := range f.events {
		if ev.ID > cursor {
			out = append(out, ev)
		}
	}
	return out, nil
}

// fakeBroadcaster records locally broadcast feed events.
type fakeBroadcaster struct {
	events []models.FeedEvent
}

func (b *fakeBroadcaster) BroadcastLocal(ev models.FeedEvent) {
	b.events = append(b.events, ev)
}

// fakeUploader records uploads and can be told to fail.
type fakeUploader struct {
	fail     bool
	uploaded []string
	deleted  []string
}

func (u *fakeUploader) Upload(ctx context.Context, complaintID, mimeType string, data []byte) (string, string, error) {
	if u.fail {
		return "", "", fmt.Errorf("cdn unavailable")
	}
	u.uploaded = append(u.uploaded, complaintID)
	return "https://cdn.example/" + complaintID + ".jpg", "complaints/" + complaintID, nil
}

func (u *fakeUploader) Delete(ctx context.Context, path string) error {
	u.deleted = append(u.deleted, path)
	return nil
}
