package service

import (
	"context"
	"fmt"

	"github.com/Kerhoff/moamoa/internal/apperr"
	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/settlement"
)

// MaxVotes bounds how many items one participant may vote for.
const MaxVotes = 10

// VoteOption is an owner's wishlist item with the viewer's vote flag.
type VoteOption struct {
	*models.Wishlist
	UserVoted bool `json:"userVoted"`
}

// VoteOptions is what a participant can vote for.
type VoteOptions struct {
	EventID int64        `json:"eventId"`
	Options []VoteOption `json:"options"`
}

// VoteResults is the tallied vote of an event.
type VoteResults struct {
	EventID     int64                   `json:"eventId"`
	TotalVoters int                     `json:"totalVoters"`
	Results     []settlement.VoteResult `json:"results"`
}

func notParticipant() error {
	return apperr.Forbidden("NOT_PARTICIPANT", "이벤트 참여자만 투표할 수 있습니다")
}

func (s *Service) requireParticipant(ctx context.Context, eventID, viewerID int64) error {
	ok, err := s.isParticipant(ctx, eventID, viewerID)
	if err != nil {
		return err
	}
	if !ok {
		return notParticipant()
	}
	return nil
}

// visibleWishlists returns the birthday person's items viewerID may see.
// Private items are shown to the owner only.
func (s *Service) visibleWishlists(ctx context.Context, event *models.BirthdayEvent, viewerID int64) ([]*models.Wishlist, error) {
	all, err := s.Wishlists.ListAllByUser(ctx, event.BirthdayPersonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlists: %w", err)
	}
	if event.IsOwner(viewerID) {
		return all, nil
	}
	visible := make([]*models.Wishlist, 0, len(all))
	for _, w := range all {
		if w.IsPublic {
			visible = append(visible, w)
		}
	}
	return visible, nil
}

// VoteOptions lists the birthday person's public wishlist for a participant.
func (s *Service) VoteOptions(ctx context.Context, viewerID, eventID int64) (*VoteOptions, error) {
	event, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.requireParticipant(ctx, eventID, viewerID); err != nil {
		return nil, err
	}

	wishlists, err := s.visibleWishlists(ctx, event, viewerID)
	if err != nil {
		return nil, err
	}
	votes, err := s.Votes.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	mine := make(map[int64]bool)
	for _, v := range votes {
		if v.UserID == viewerID {
			mine[v.WishlistID] = true
		}
	}

	options := make([]VoteOption, 0, len(wishlists))
	for _, w := range wishlists {
		options = append(options, VoteOption{Wishlist: w, UserVoted: mine[w.ID]})
	}
	return &VoteOptions{EventID: eventID, Options: options}, nil
}

// CastVotes replaces viewerID's votes on the event.
func (s *Service) CastVotes(ctx context.Context, viewerID, eventID int64, ids []int64) (*VoteResults, error) {
	if len(ids) == 0 || len(ids) > MaxVotes {
		return nil, apperr.Validation("INVALID_VOTE_COUNT", "투표는 1개 이상 %d개 이하로 할 수 있습니다", MaxVotes)
	}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			return nil, apperr.Validation("INVALID_WISHLIST_IDS", "위시리스트 ID가 올바르지 않습니다").
				WithData(map[string]int64{"wishlistId": id})
		}
		seen[id] = true
	}

	event, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.requireParticipant(ctx, eventID, viewerID); err != nil {
		return nil, err
	}
	if !event.IsActive() {
		return nil, apperr.Validation("EVENT_CLOSED", "진행 중인 이벤트에만 투표할 수 있습니다")
	}
	if _, err := s.ownedWishlists(ctx, event.BirthdayPersonID, ids, !event.IsOwner(viewerID)); err != nil {
		return nil, err
	}

	if err := s.Votes.Replace(ctx, eventID, viewerID, ids); err != nil {
		return nil, fmt.Errorf("failed to save votes: %w", err)
	}
	s.logger.WithField("event_id", eventID).Debugf("User %d voted for %d items", viewerID, len(ids))
	return s.tally(ctx, event, viewerID)
}

// VoteResults tallies the event's votes for a participant or the owner.
func (s *Service) VoteResults(ctx context.Context, viewerID, eventID int64) (*VoteResults, error) {
	event, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsOwner(viewerID) {
		if err := s.requireParticipant(ctx, eventID, viewerID); err != nil {
			return nil, err
		}
	}
	return s.tally(ctx, event, viewerID)
}

func (s *Service) tally(ctx context.Context, event *models.BirthdayEvent, viewerID int64) (*VoteResults, error) {
	wishlists, err := s.visibleWishlists(ctx, event, viewerID)
	if err != nil {
		return nil, err
	}
	votes, err := s.Votes.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	voters := make(map[int64]bool)
	for _, v := range votes {
		voters[v.UserID] = true
	}
	return &VoteResults{
		EventID:     event.ID,
		TotalVoters: len(voters),
		Results:     settlement.TallyVotes(wishlists, votes, viewerID),
	}, nil
}
