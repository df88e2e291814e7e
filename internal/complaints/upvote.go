package complaints

import (
	"civicpulse/backend/internal/config"
	"civicpulse/backend/internal/models"
)

// ToggleUpvote flips the voter's upvote on a complaint. The storage layer
// commits the complaint, voter and owner records in one transaction; this
// layer reconciles both users' levels afterwards and publishes the feed
// event. Returns true when the new state is "upvoted".
//
// Self-upvoting is not blocked: the owner then collects both the give and the
// receive reward, matching the toggle's involution property.
func (s *Service) ToggleUpvote(complaintID string, voter *models.User) (bool, error) {
	out, err := s.Storage.ToggleUpvote(complaintID, voter.UID,
		config.XPGiveUpvote, config.XPReceiveUpvote)
	if err != nil {
		return false, err
	}

	if err := s.reconcileLevel(voter.UID); err != nil {
		return out.Upvoted, err
	}
	if out.OwnerID != voter.UID {
		if err := s.reconcileLevel(out.OwnerID); err != nil {
			return out.Upvoted, err
		}
	}

	s.publish(models.FeedEvent{
		Kind:        models.EventUpvoteToggled,
		ComplaintID: complaintID,
		Upvotes:     out.Upvotes,
		ActorID:     voter.UID,
	})
	return out.Upvoted, nil
}
