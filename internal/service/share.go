package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kerhoff/moamoa/internal/apperr"
	"github.com/Kerhoff/moamoa/internal/models"
)

const defaultShareBaseURL = "https://moamoa.app"

// ShareLinkInput optionally shortens a link's lifetime.
type ShareLinkInput struct {
	ExpiresAt *time.Time `json:"expiresAt"`
}

// ShareLink is a time-limited invitation to an active event.
type ShareLink struct {
	ShareURL  string    `json:"shareUrl"`
	ShareText string    `json:"shareText"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SharedEvent is what an invitation link reveals without signing in.
type SharedEvent struct {
	EventID            int64              `json:"eventId"`
	BirthdayPersonName string             `json:"birthdayPersonName"`
	Deadline           string             `json:"deadline"`
	Status             models.EventStatus `json:"status"`
}

func shareNotFound() error {
	return apperr.NotFound("SHARE_LINK_NOT_FOUND", "유효하지 않거나 만료된 공유 링크입니다")
}

// CreateShareLink issues an invitation link for an active event. The owner
// and followers may share. Links expire at the end of the deadline day
// unless an earlier expiry is given.
func (s *Service) CreateShareLink(ctx context.Context, viewerID, eventID int64, in ShareLinkInput) (*ShareLink, error) {
	event, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsOwner(viewerID) {
		following, err := s.Follows.IsFollowing(ctx, viewerID, event.BirthdayPersonID)
		if err != nil {
			return nil, fmt.Errorf("failed to check follow: %w", err)
		}
		if !following {
			return nil, apperr.Forbidden("EVENT_ACCESS_DENIED", "이 생일 이벤트를 볼 수 없습니다")
		}
	}
	if !event.IsActive() || s.clock.DaysUntil(event.Deadline) < 0 {
		return nil, apperr.Validation("EVENT_CLOSED", "참여 기간이 종료된 이벤트입니다")
	}

	now := s.clock.Now()
	loc := s.clock.Location()
	d := event.Deadline
	lastMoment := time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, loc)
	expires := lastMoment
	if in.ExpiresAt != nil {
		expires = in.ExpiresAt.In(loc)
		if !expires.After(now) || expires.After(lastMoment) {
			return nil, apperr.Validation("INVALID_EXPIRY", "만료 시각은 지금 이후, 마감일 이전이어야 합니다")
		}
	}

	person, err := s.user(ctx, event.BirthdayPersonID)
	if err != nil {
		return nil, err
	}

	token := &models.ShareToken{
		Token:     strings.ReplaceAll(uuid.NewString(), "-", ""),
		EventID:   event.ID,
		CreatedBy: viewerID,
		ExpiresAt: expires,
	}
	if err := s.ShareTokens.Create(ctx, token, now); err != nil {
		return nil, fmt.Errorf("failed to create share link: %w", err)
	}

	base := s.ext.ShareBaseURL
	if base == "" {
		base = defaultShareBaseURL
	}
	link := fmt.Sprintf("%s/events/%d/join?token=%s", strings.TrimRight(base, "/"), event.ID, url.QueryEscape(token.Token))

	s.logger.WithField("event_id", event.ID).Info("Share link created")
	return &ShareLink{
		ShareURL:  link,
		ShareText: fmt.Sprintf("%s님의 생일 모아모아에 참여해주세요!\n마감: %d월 %d일", person.DisplayName(), d.Month(), d.Day()),
		ExpiresAt: expires,
	}, nil
}

// SharedEvent resolves an unexpired invitation token.
func (s *Service) SharedEvent(ctx context.Context, token string) (*SharedEvent, error) {
	if token == "" {
		return nil, shareNotFound()
	}
	t, err := s.ShareTokens.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to load share link: %w", err)
	}
	if t == nil || !t.ExpiresAt.After(s.clock.Now()) {
		return nil, shareNotFound()
	}

	event, err := s.Events.GetByID(ctx, t.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event %d: %w", t.EventID, err)
	}
	if event == nil {
		return nil, shareNotFound()
	}
	person, err := s.user(ctx, event.BirthdayPersonID)
	if err != nil {
		return nil, err
	}
	return &SharedEvent{
		EventID:            event.ID,
		BirthdayPersonName: person.DisplayName(),
		Deadline:           dateString(event.Deadline),
		Status:             event.Status,
	}, nil
}
