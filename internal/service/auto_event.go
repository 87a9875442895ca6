package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Kerhoff/moamoa/internal/banner"
	"github.com/Kerhoff/moamoa/internal/dday"
	"github.com/Kerhoff/moamoa/internal/metrics"
	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/repository"
)

const (
	autoEventJob   = "auto_event"
	userBatchSize  = 500
	autoEventTitle = "%s님의 생일 모아"
)

// StartAutoEventScheduler runs CompleteExpiredEvents and then
// CreateUpcomingEvents on spec (standard five field cron, evaluated in the
// service's zone). It blocks until the context is cancelled, so it should
// be launched in a separate goroutine.
func (s *Service) StartAutoEventScheduler(ctx context.Context, spec string) error {
	c := cron.New(cron.WithLocation(s.clock.Location()))
	_, err := c.AddFunc(spec, func() {
		start := time.Now()
		closed, err := s.CompleteExpiredEvents(ctx)
		metrics.RecordJob(completeEventsJob, time.Since(start), err == nil)
		if err != nil {
			s.logger.WithError(err).Error("Event completion job failed")
		} else if closed > 0 {
			s.logger.Infof("Completed %d expired events", closed)
		}

		start = time.Now()
		n, err := s.CreateUpcomingEvents(ctx)
		metrics.RecordJob(autoEventJob, time.Since(start), err == nil)
		if err != nil {
			s.logger.WithError(err).Error("Auto event job failed")
			return
		}
		s.logger.Infof("Auto event job created %d events", n)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule auto event job: %w", err)
	}

	c.Start()
	s.logger.WithField("spec", spec).Info("Auto event scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("Auto event scheduler stopped")
	return nil
}

// CreateUpcomingEvents opens an active event for every user whose birthday
// is within the upcoming window and who has no active event yet. Followers
// are notified of each new event.
func (s *Service) CreateUpcomingEvents(ctx context.Context) (int, error) {
	today := s.clock.Today()
	created := 0
	var afterID int64

	for {
		users, err := s.Users.ListBatch(ctx, afterID, userBatchSize)
		if err != nil {
			return created, fmt.Errorf("failed to list users: %w", err)
		}
		if len(users) == 0 {
			break
		}
		afterID = users[len(users)-1].ID

		var due []*models.User
		var ids []int64
		for _, u := range users {
			if u.Birthday.IsZero() {
				continue
			}
			if dday.CountdownTo(u.Birthday, today).DaysRemaining <= banner.UpcomingWindowDays {
				due = append(due, u)
				ids = append(ids, u.ID)
			}
		}
		if len(due) == 0 {
			continue
		}

		active, err := s.Events.ActiveByPersons(ctx, ids)
		if err != nil {
			return created, fmt.Errorf("failed to load active events: %w", err)
		}
		for _, u := range due {
			if _, ok := active[u.ID]; ok {
				continue
			}
			event, err := s.createAutoEvent(ctx, u, today)
			if err != nil {
				return created, err
			}
			if event != nil {
				created++
				s.announceEvent(ctx, u, event)
			}
		}

		if len(users) < userBatchSize {
			break
		}
	}

	metrics.RecordEventsCreated(created)
	return created, nil
}

// createAutoEvent returns nil without error when another writer opened the
// person's event first.
func (s *Service) createAutoEvent(ctx context.Context, u *models.User, today time.Time) (*models.BirthdayEvent, error) {
	event, err := s.Events.Create(ctx, &models.BirthdayEvent{
		BirthdayPersonID: u.ID,
		CreatorID:        u.ID,
		Title:            fmt.Sprintf(autoEventTitle, u.DisplayName()),
		Deadline:         dday.NextOccurrence(u.Birthday, today),
		Status:           models.EventStatusActive,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create event for user %d: %w", u.ID, err)
	}
	s.logger.WithField("user_id", u.ID).Infof("Created birthday event %d", event.ID)
	return event, nil
}

// announceEvent stores a notification for each follower and pushes them.
// Failures only get logged.
func (s *Service) announceEvent(ctx context.Context, person *models.User, event *models.BirthdayEvent) {
	followerIDs, err := s.Follows.FollowerIDs(ctx, person.ID)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load followers")
		return
	}
	if len(followerIDs) == 0 {
		return
	}
	followers, err := s.Users.GetByIDs(ctx, followerIDs)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load followers")
		return
	}

	cd := dday.CountdownTo(person.Birthday, s.clock.Today())
	title := "친구의 생일 모아가 열렸어요"
	body := fmt.Sprintf("%s님의 생일이 %s 남았어요. 마음을 모아 선물해보세요!", person.DisplayName(), cd.Formatted)
	if cd.IsBirthdayToday {
		body = fmt.Sprintf("오늘은 %s님의 생일이에요. 마음을 모아 선물해보세요!", person.DisplayName())
	}

	to := make([]*models.User, 0, len(followers))
	for _, f := range followers {
		to = append(to, f)
	}
	s.broadcast(ctx, models.NotificationEventCreated, event.ID, to, title, body)
}
