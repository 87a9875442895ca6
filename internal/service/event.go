package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/moamoa/internal/apperr"
	"github.com/Kerhoff/moamoa/internal/banner"
	"github.com/Kerhoff/moamoa/internal/dday"
	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/repository"
)

// ParticipantView is a participant as shown on the event page.
type ParticipantView struct {
	User              UserSummary              `json:"user"`
	ParticipationType models.ParticipationType `json:"participationType"`
	Amount            int64                    `json:"amount"`
	Message           string                   `json:"message"`
	ParticipatedAt    string                   `json:"participatedAt"`
}

// EventDetail is the event page.
type EventDetail struct {
	Event            *models.BirthdayEvent `json:"event"`
	BirthdayPerson   UserSummary           `json:"birthdayPerson"`
	Countdown        dday.Countdown        `json:"countdown"`
	DaysLeft         int                   `json:"daysLeft"`
	CurrentAmount    int64                 `json:"currentAmount"`
	ParticipantCount int                   `json:"participantCount"`
	Participants     []ParticipantView     `json:"participants"`
	Wishlists        []*models.Wishlist    `json:"wishlists"`
	Button           banner.Button         `json:"buttonInfo"`
}

func participantViews(ps []*models.Participant) []ParticipantView {
	out := make([]ParticipantView, 0, len(ps))
	for _, p := range ps {
		out = append(out, ParticipantView{
			User:              summarize(p.User),
			ParticipationType: p.ParticipationType,
			Amount:            p.Amount,
			Message:           p.Message,
			ParticipatedAt:    p.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

// EventDetail returns the event page for viewerID. Only the birthday person,
// participants and followers of the birthday person may see it.
func (s *Service) EventDetail(ctx context.Context, viewerID, eventID int64) (*EventDetail, error) {
	event, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}

	participant, err := s.Participants.Get(ctx, eventID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participation: %w", err)
	}
	owner := event.IsOwner(viewerID)
	if !owner && participant == nil {
		following, err := s.Follows.IsFollowing(ctx, viewerID, event.BirthdayPersonID)
		if err != nil {
			return nil, fmt.Errorf("failed to check follow: %w", err)
		}
		if !following {
			return nil, apperr.Forbidden("EVENT_ACCESS_DENIED", "이 생일 이벤트를 볼 수 없습니다")
		}
	}

	person, err := s.user(ctx, event.BirthdayPersonID)
	if err != nil {
		return nil, err
	}
	participants, err := s.Participants.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	visible, err := s.visibleWishlists(ctx, event, viewerID)
	if err != nil {
		return nil, err
	}

	var current int64
	for _, p := range participants {
		current += p.Amount
	}

	today := s.clock.Today()
	countdown := dday.CountdownTo(person.Birthday, today)
	event.BirthdayPerson = person

	return &EventDetail{
		Event:            event,
		BirthdayPerson:   summarize(person),
		Countdown:        countdown,
		DaysLeft:         dday.DaysBetween(today, event.Deadline),
		CurrentAmount:    current,
		ParticipantCount: len(participants),
		Participants:     participantViews(participants),
		Wishlists:        visible,
		Button:           banner.ButtonFor(event, viewerID, participant != nil, today, countdown),
	}, nil
}

// ParticipateInput is a participation request.
type ParticipateInput struct {
	ParticipationType models.ParticipationType
	Amount            int64
	Message           string
}

// Participate joins viewerID to the event. The participant row and the
// owner's notification are written together; the chat/e-mail push after
// that is best effort.
func (s *Service) Participate(ctx context.Context, viewerID, eventID int64, in ParticipateInput) (*models.Participant, error) {
	event, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.IsOwner(viewerID) {
		return nil, apperr.Validation("CANNOT_PARTICIPATE_OWN_EVENT", "자신의 생일 이벤트에는 참여할 수 없습니다")
	}

	following, err := s.Follows.IsFollowing(ctx, viewerID, event.BirthdayPersonID)
	if err != nil {
		return nil, fmt.Errorf("failed to check follow: %w", err)
	}
	if !following {
		return nil, apperr.Forbidden("NOT_FOLLOWING", "팔로우한 친구의 이벤트에만 참여할 수 있습니다")
	}

	if !event.IsActive() || s.clock.DaysUntil(event.Deadline) < 0 {
		return nil, apperr.Validation("EVENT_CLOSED", "참여 기간이 종료된 이벤트입니다")
	}

	switch in.ParticipationType {
	case models.ParticipationWithMoney:
		if in.Amount <= 0 {
			return nil, apperr.Validation("INVALID_AMOUNT", "참여 금액은 0원보다 커야 합니다")
		}
	case models.ParticipationWithoutMoney:
		in.Amount = 0
	default:
		return nil, apperr.Validation("INVALID_PARTICIPATION_TYPE", "유효하지 않은 참여 유형입니다")
	}

	existing, err := s.Participants.Get(ctx, eventID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participation: %w", err)
	}
	if existing != nil {
		return nil, alreadyParticipated()
	}

	sender, err := s.user(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	owner, err := s.user(ctx, event.BirthdayPersonID)
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("%s님이 모아에 참여했어요", sender.DisplayName())
	if in.Amount > 0 {
		body = fmt.Sprintf("%s님이 %s원으로 모아에 참여했어요", sender.DisplayName(), formatWon(in.Amount))
	}
	id := event.ID
	notification := &models.Notification{
		UserID:  owner.ID,
		Kind:    models.NotificationParticipation,
		Title:   "새로운 참여자",
		Body:    body,
		EventID: &id,
	}

	p, err := s.Participants.Create(ctx, &models.Participant{
		EventID:           eventID,
		UserID:            viewerID,
		ParticipationType: in.ParticipationType,
		Amount:            in.Amount,
		Message:           strings.TrimSpace(in.Message),
	}, notification)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, alreadyParticipated()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to participate: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"event_id": eventID, "user_id": viewerID, "amount": in.Amount}).Info("User joined birthday event")
	s.push("participation", messageFor(owner, notification.Title, notification.Body))
	return p, nil
}

func alreadyParticipated() error {
	return apperr.Validation("ALREADY_PARTICIPATED", "이미 참여한 이벤트입니다")
}

// isParticipant reports whether viewerID joined eventID.
func (s *Service) isParticipant(ctx context.Context, eventID, viewerID int64) (bool, error) {
	p, err := s.Participants.Get(ctx, eventID, viewerID)
	if err != nil {
		return false, fmt.Errorf("failed to load participation: %w", err)
	}
	return p != nil, nil
}
