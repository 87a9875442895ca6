package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/moamoa/internal/apperr"
	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/notify"
	"github.com/Kerhoff/moamoa/internal/settlement"
)

const (
	completeEventsJob = "complete_events"
	eventBatchSize    = 200
)

// CompleteExpiredEvents closes every active event whose deadline is before
// today. Owners and participants are notified of each closed event.
func (s *Service) CompleteExpiredEvents(ctx context.Context) (int, error) {
	today := s.clock.Today()
	closed := 0

	for {
		events, err := s.Events.ListActiveDue(ctx, today, eventBatchSize)
		if err != nil {
			return closed, fmt.Errorf("failed to list due events: %w", err)
		}
		for _, e := range events {
			ok, err := s.completeEvent(ctx, e)
			if err != nil {
				return closed, err
			}
			if ok {
				closed++
			}
		}
		if len(events) < eventBatchSize {
			break
		}
	}
	return closed, nil
}

// CompleteMyEvent lets the owner close their active event early and returns
// the resulting leftover status.
func (s *Service) CompleteMyEvent(ctx context.Context, ownerID int64) (*EventStatus, error) {
	event, err := s.Events.GetActiveByPerson(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active event: %w", err)
	}
	if event == nil {
		return nil, apperr.NotFound("ACTIVE_EVENT_NOT_FOUND", "진행 중인 생일 이벤트가 없습니다")
	}
	if _, err := s.completeEvent(ctx, event); err != nil {
		return nil, err
	}
	return s.EventStatus(ctx, ownerID)
}

// completeEvent reports false when the event was closed by someone else
// first.
func (s *Service) completeEvent(ctx context.Context, event *models.BirthdayEvent) (bool, error) {
	a, err := s.amounts(ctx, event.ID)
	if err != nil {
		return false, err
	}
	c := models.Completion{
		NeedBalance:       settlement.Remaining(a.CurrentAmount, a.SelectedAmount) > 0,
		NeedCertification: a.ParticipantCount > 0,
	}
	ok, err := s.Events.Complete(ctx, event.ID, c)
	if err != nil {
		return false, fmt.Errorf("failed to complete event %d: %w", event.ID, err)
	}
	if !ok {
		return false, nil
	}
	event.Status = models.EventStatusCompleted
	event.NeedBalance = c.NeedBalance
	event.NeedCertification = c.NeedCertification

	s.logger.WithFields(logrus.Fields{
		"event_id":           event.ID,
		"need_balance":       c.NeedBalance,
		"need_certification": c.NeedCertification,
	}).Info("Birthday event completed")
	s.announceCompletion(ctx, event, a.CurrentAmount)
	return true, nil
}

// announceCompletion tells the owner the total and the participants that
// the event closed. Failures only get logged.
func (s *Service) announceCompletion(ctx context.Context, event *models.BirthdayEvent, total int64) {
	owner, err := s.user(ctx, event.BirthdayPersonID)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load event owner")
		return
	}
	s.broadcast(ctx, models.NotificationMoaCompleted, event.ID, []*models.User{owner},
		"모아 완료!", fmt.Sprintf("생일 모아가 완료되었어요! 총 %s원이 모였습니다!", formatWon(total)))

	participants, err := s.participantUsers(ctx, event.ID)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load participants")
		return
	}
	s.broadcast(ctx, models.NotificationEventCompleted, event.ID, participants,
		"이벤트 종료", fmt.Sprintf("%s님의 생일 모아 이벤트가 종료되었습니다!", owner.DisplayName()))
}

// participantUsers loads the full user rows of everyone who joined eventID.
func (s *Service) participantUsers(ctx context.Context, eventID int64) ([]*models.User, error) {
	ps, err := s.Participants.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	ids := make([]int64, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.UserID)
	}
	byID, err := s.Users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// broadcast stores one notification per recipient and pushes them.
func (s *Service) broadcast(ctx context.Context, kind models.NotificationKind, eventID int64, to []*models.User, title, body string) {
	msgs := make([]notify.Message, 0, len(to))
	for _, u := range to {
		id := eventID
		if _, err := s.Repositories.Notifications.Create(ctx, &models.Notification{
			UserID:  u.ID,
			Kind:    kind,
			Title:   title,
			Body:    body,
			EventID: &id,
		}); err != nil {
			s.logger.WithError(err).WithField("user_id", u.ID).Warn("Failed to store notification")
		}
		msgs = append(msgs, messageFor(u, title, body))
	}
	s.push(strings.ToLower(string(kind)), msgs...)
}
