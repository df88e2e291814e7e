package complaints_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"civicpulse/backend/internal/complaints"
	"civicpulse/backend/internal/models"
	"civicpulse/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 32, 32))))
	return buf.Bytes()
}

func citizen(uid string) models.User {
	return models.User{
		UID: uid, Email: uid + "@example.com", DisplayName: "User " + uid,
		Role: models.RoleCitizen, Level: 1, LevelTitle: "Newcomer",
	}
}

func admin(uid string) models.User {
	u := citizen(uid)
	u.Role = models.RoleAdmin
	return u
}

func submitInput(t *testing.T) complaints.SubmitInput {
	return complaints.SubmitInput{
		Request: models.SubmitComplaintRequest{
			Title:     "Broken streetlight on 5th Cross",
			Category:  models.CategoryStreetlight,
			Latitude:  12.9716,
			Longitude: 77.5946,
			Address:   "5th Cross, Indiranagar",
			Area:      "Indiranagar",
		},
		ImageMIME: "image/png",
		ImageData: validPNG(t),
	}
}

func TestSubmit_Success(t *testing.T) {
	store := newFakeStore()
	user := store.addUser(citizen("u1"))
	up := &fakeUploader{}
	svc := complaints.NewService(store, up)

	c, err := svc.Submit(context.Background(), user, submitInput(t))
	require.NoError(t, err)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, models.StatusSubmitted, c.Status)
	assert.Equal(t, models.PriorityMedium, c.Priority)
	assert.Len(t, c.Geohash, 8)
	assert.Equal(t, "https://cdn.example/"+c.ID+".jpg", c.ImageURL)
	assert.True(t, c.ImageChecks.Passed)
	assert.Empty(t, c.UpvotedBy)

	owner, _ := store.GetUser("u1")
	assert.Equal(t, 10, owner.XP, "submission awards +10")
	assert.Equal(t, 1, owner.TotalComplaints)
	assert.Equal(t, 1, owner.Level, "10 XP is still level 1")

	require.Len(t, store.events, 1)
	assert.Equal(t, models.EventComplaintCreated, store.events[0].Kind)
}

// TestSubmit_LocalFeedBroadcast verifies every published event is also handed
// to the local broadcaster, cursor included, so live subscribers are served
// even without a shared broker.
func TestSubmit_LocalFeedBroadcast(t *testing.T) {
	store := newFakeStore()
	user := store.addUser(citizen("u1"))
	svc := complaints.NewService(store, &fakeUploader{})
	feed := &fakeBroadcaster{}
	svc.Feed = feed

	c, err := svc.Submit(context.Background(), user, submitInput(t))
	require.NoError(t, err)

	require.Len(t, feed.events, 1)
	assert.Equal(t, models.EventComplaintCreated, feed.events[0].Kind)
	assert.Equal(t, c.ID, feed.events[0].ComplaintID)
	require.Len(t, store.events, 1)
	assert.Equal(t, store.events[0].ID, feed.events[0].ID, "broadcast carries the assigned cursor")
}

func TestSubmit_TitleValidation(t *testing.T) {
	store := newFakeStore()
	user := store.addUser(citizen("u1"))
	svc := complaints.NewService(store, &fakeUploader{})

	in := submitInput(t)
	in.Request.Title = "   "
	_, err := svc.Submit(context.Background(), user, in)

	var verr *complaints.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
	assert.Empty(t, store.complaints, "nothing persisted on validation failure")

	owner, _ := store.GetUser("u1")
	assert.Zero(t, owner.XP)
}

func TestSubmit_TitleTooLong(t *testing.T) {
	store := newFakeStore()
	user := store.addUser(citizen("u1"))
	svc := complaints.NewService(store, &fakeUploader{})

	in := submitInput(t)
	in.Request.Title = string(make([]byte, 101))
	_, err := svc.Submit(context.Background(), user, in)

	var verr *complaints.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
}

func TestSubmit_ImageValidationFailure(t *testing.T) {
	store := newFakeStore()
	user := store.addUser(citizen("u1"))
	up := &fakeUploader{}
	svc := complaints.NewService(store, up)

	in := submitInput(t)
	in.ImageMIME = "image/gif"
	in.ImageData = []byte{1, 2, 3, 4, 5}
	_, err := svc.Submit(context.Background(), user, in)

	var verr *complaints.ValidationError
	require.ErrorAs(t, err, &verr)
	require.NotNil(t, verr.Image)
	assert.False(t, verr.Image.FileType.Passed)
	assert.False(t, verr.Image.FileSize.Passed)
	assert.False(t, verr.Image.Resolution.Passed)
	assert.True(t, verr.Image.HasExif.Passed)
	assert.Empty(t, up.uploaded, "upload must not happen for a rejected image")
	assert.Empty(t, store.complaints)
}

func TestSubmit_DuplicateAdvisory(t *testing.T) {
	store := newFakeStore()
	user := store.addUser(citizen("u1"))
	svc := complaints.NewService(store, &fakeUploader{})

	// open complaint ~100m east of the candidate point
	existing := &models.Complaint{
		UserID: "u2", Title: "Pothole", Category: models.CategoryRoadDamage,
		Latitude: 12.9716, Longitude: 77.59552, Status: models.StatusSubmitted,
	}
	require.NoError(t, store.CreateComplaint(existing))

	_, err := svc.Submit(context.Background(), user, submitInput(t))

	var dup *complaints.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.True(t, errors.Is(err, complaints.ErrDuplicateNearby))
	assert.Equal(t, existing.ID, dup.Existing.ID)

	// the user saw the candidate and chose to file anyway
	in := submitInput(t)
	in.Request.Force = true
	c, err := svc.Submit(context.Background(), user, in)
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
}

func TestSubmit_ResolvedComplaintNotADuplicate(t *testing.T) {
	store := newFakeStore()
	user := store.addUser(citizen("u1"))
	svc := complaints.NewService(store, &fakeUploader{})

	existing := &models.Complaint{
		UserID: "u2", Title: "Pothole", Category: models.CategoryRoadDamage,
		Latitude: 12.9716, Longitude: 77.59552, Status: models.StatusResolved,
	}
	require.NoError(t, store.CreateComplaint(existing))

	_, err := svc.Submit(context.Background(), user, submitInput(t))
	assert.NoError(t, err, "closed complaints do not trigger the advisory")
}

func TestSubmit_UploadFailureAborts(t *testing.T) {
	store := newFakeStore()
	user := store.addUser(citizen("u1"))
	svc := complaints.NewService(store, &fakeUploader{fail: true})

	_, err := svc.Submit(context.Background(), user, submitInput(t))
	require.Error(t, err)
	assert.Empty(t, store.complaints, "no partial persistence on upload failure")

	owner, _ := store.GetUser("u1")
	assert.Zero(t, owner.XP)
	assert.Zero(t, owner.TotalComplaints)
}

// TestUpdateStatus_XPScenario walks the reference scenario: submitted ->
// under_review (+15) -> resolved (+30), with the resolution latch.
func TestUpdateStatus_XPScenario(t *testing.T) {
	store := newFakeStore()
	owner := store.addUser(citizen("owner"))
	actor := store.addUser(admin("admin"))
	svc := complaints.NewService(store, &fakeUploader{})

	c, err := svc.Submit(context.Background(), owner, submitInput(t))
	require.NoError(t, err)
	store.users["owner"].XP = 0 // scenario starts from zero

	_, err = svc.UpdateStatus(actor, c.ID, models.UpdateStatusRequest{Status: models.StatusUnderReview})
	require.NoError(t, err)

	u, _ := store.GetUser("owner")
	assert.Equal(t, 15, u.XP)
	assert.Equal(t, 1, u.Level, "15 XP is below the 50 threshold")

	updated, err := svc.UpdateStatus(actor, c.ID, models.UpdateStatusRequest{Status: models.StatusResolved})
	require.NoError(t, err)

	u, _ = store.GetUser("owner")
	assert.Equal(t, 45, u.XP)
	assert.Equal(t, 1, u.ResolvedComplaints)
	assert.NotNil(t, updated.ResolvedAt)

	logs, _ := store.GetActivity(c.ID)
	require.Len(t, logs, 2)
	assert.Equal(t, "submitted", *logs[0].FromValue)
	assert.Equal(t, "under_review", logs[0].ToValue)
	assert.Equal(t, "under_review", *logs[1].FromValue)
	assert.Equal(t, "resolved", logs[1].ToValue)
}

func TestUpdateStatus_VerifyRewardOnlyFromSubmitted(t *testing.T) {
	store := newFakeStore()
	owner := store.addUser(citizen("owner"))
	actor := store.addUser(admin("admin"))
	svc := complaints.NewService(store, &fakeUploader{})

	c, err := svc.Submit(context.Background(), owner, submitInput(t))
	require.NoError(t, err)
	store.users["owner"].XP = 0

	// in_progress pays nothing
	_, err = svc.UpdateStatus(actor, c.ID, models.UpdateStatusRequest{Status: models.StatusInProgress})
	require.NoError(t, err)
	u, _ := store.GetUser("owner")
	assert.Zero(t, u.XP)

	// under_review from in_progress pays nothing either
	_, err = svc.UpdateStatus(actor, c.ID, models.UpdateStatusRequest{Status: models.StatusUnderReview})
	require.NoError(t, err)
	u, _ = store.GetUser("owner")
	assert.Zero(t, u.XP)
}

func TestUpdateStatus_RejectedPenalty(t *testing.T) {
	store := newFakeStore()
	owner := store.addUser(citizen("owner"))
	actor := store.addUser(admin("admin"))
	svc := complaints.NewService(store, &fakeUploader{})

	c, err := svc.Submit(context.Background(), owner, submitInput(t))
	require.NoError(t, err)
	store.users["owner"].XP = 0

	_, err = svc.UpdateStatus(actor, c.ID, models.UpdateStatusRequest{Status: models.StatusRejected})
	require.NoError(t, err)

	u, _ := store.GetUser("owner")
	assert.Equal(t, -5, u.XP, "XP may go negative")
	assert.Equal(t, 1, u.Level)
}

// TestUpdateStatus_AdminOwnerExempt verifies that admin-owned complaints
// never earn XP, whatever the transition.
func TestUpdateStatus_AdminOwnerExempt(t *testing.T) {
	store := newFakeStore()
	owner := store.addUser(admin("admin-owner"))
	actor := store.addUser(admin("other-admin"))
	svc := complaints.NewService(store, &fakeUploader{})

	c, err := svc.Submit(context.Background(), owner, submitInput(t))
	require.NoError(t, err)
	store.users["admin-owner"].XP = 0

	for _, to := range []models.ComplaintStatus{
		models.StatusUnderReview, models.StatusResolved, models.StatusRejected,
	} {
		_, err = svc.UpdateStatus(actor, c.ID, models.UpdateStatusRequest{Status: to})
		require.NoError(t, err)
	}

	u, _ := store.GetUser("admin-owner")
	assert.Zero(t, u.XP)
}

func TestUpdateStatus_SelfActingAdminExempt(t *testing.T) {
	store := newFakeStore()
	owner := store.addUser(citizen("u1"))
	svc := complaints.NewService(store, &fakeUploader{})

	c, err := svc.Submit(context.Background(), owner, submitInput(t))
	require.NoError(t, err)
	store.users["u1"].XP = 0

	// the owner acts on their own complaint: no award
	_, err = svc.UpdateStatus(owner, c.ID, models.UpdateStatusRequest{Status: models.StatusResolved})
	require.NoError(t, err)

	u, _ := store.GetUser("u1")
	assert.Zero(t, u.XP)
	assert.Equal(t, 1, u.ResolvedComplaints, "the resolution counter is not an XP award")
}

func TestUpdateStatus_ResolvedAtNeverCleared(t *testing.T) {
	store := newFakeStore()
	owner := store.addUser(citizen("owner"))
	actor := store.addUser(admin("admin"))
	svc := complaints.NewService(store, &fakeUploader{})

	c, err := svc.Submit(context.Background(), owner, submitInput(t))
	require.NoError(t, err)

	first, err := svc.UpdateStatus(actor, c.ID, models.UpdateStatusRequest{Status: models.StatusResolved})
	require.NoError(t, err)
	require.NotNil(t, first.ResolvedAt)
	stamp := *first.ResolvedAt

	reopened, err := svc.UpdateStatus(actor, c.ID, models.UpdateStatusRequest{Status: models.StatusUnderReview})
	require.NoError(t, err)
	require.NotNil(t, reopened.ResolvedAt)
	assert.Equal(t, stamp, *reopened.ResolvedAt)

	// resolving again must not double-count the owner counter
	_, err = svc.UpdateStatus(actor, c.ID, models.UpdateStatusRequest{Status: models.StatusResolved})
	require.NoError(t, err)
	u, _ := store.GetUser("owner")
	assert.Equal(t, 1, u.ResolvedComplaints)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	store := newFakeStore()
	actor := store.addUser(admin("admin"))
	svc := complaints.NewService(store, &fakeUploader{})

	_, err := svc.UpdateStatus(actor, "missing", models.UpdateStatusRequest{Status: models.StatusResolved})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateStatus_LevelUpOnAward(t *testing.T) {
	store := newFakeStore()
	owner := store.addUser(citizen("owner"))
	actor := store.addUser(admin("admin"))
	svc := complaints.NewService(store, &fakeUploader{})

	c, err := svc.Submit(context.Background(), owner, submitInput(t))
	require.NoError(t, err)
	store.users["owner"].XP = 40 // 40 + 30 crosses the level-2 threshold

	_, err = svc.UpdateStatus(actor, c.ID, models.UpdateStatusRequest{Status: models.StatusResolved})
	require.NoError(t, err)

	u, _ := store.GetUser("owner")
	assert.Equal(t, 70, u.XP)
	assert.Equal(t, 2, u.Level)
	assert.Equal(t, "Citizen", u.LevelTitle, "level and title always move together")
}

func TestUpdateStatus_PriorityAndNotes(t *testing.T) {
	store := newFakeStore()
	owner := store.addUser(citizen("owner"))
	actor := store.addUser(admin("admin"))
	svc := complaints.NewService(store, &fakeUploader{})

	c, err := svc.Submit(context.Background(), owner, submitInput(t))
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(actor, c.ID, models.UpdateStatusRequest{
		Status:   models.StatusInProgress,
		Priority: models.PriorityHigh,
		Notes:    "crew dispatched",
	})
	require.NoError(t, err)

	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.Equal(t, "crew dispatched", updated.AdminNotes)

	logs, _ := store.GetActivity(c.ID)
	require.NotEmpty(t, logs)
	require.NotNil(t, logs[len(logs)-1].Note)
	assert.Equal(t, "crew dispatched", *logs[len(logs)-1].Note)
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	store := newFakeStore()
	actor := store.addUser(admin("admin"))
	svc := complaints.NewService(store, &fakeUploader{})

	_, err := svc.UpdateStatus(actor, "any", models.UpdateStatusRequest{Status: "vanished"})
	var verr *complaints.ValidationError
	assert.ErrorAs(t, err, &verr)
}
