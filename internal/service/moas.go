package service

import (
	"context"
	"fmt"

	"github.com/Kerhoff/moamoa/internal/banner"
	"github.com/Kerhoff/moamoa/internal/dday"
	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/pagination"
	"github.com/Kerhoff/moamoa/internal/repository"
)

// MoaItem is one event card on the moa screen.
type MoaItem struct {
	ID               int64              `json:"id"`
	Title            string             `json:"title"`
	Status           models.EventStatus `json:"status"`
	BannerType       *banner.Type       `json:"bannerType"`
	BirthdayPerson   UserSummary        `json:"birthdayPerson"`
	Countdown        dday.Countdown     `json:"countdown"`
	Deadline         string             `json:"deadline"`
	DaysLeft         int                `json:"daysLeft"`
	CurrentAmount    int64              `json:"currentAmount"`
	SelectedAmount   int64              `json:"selectedAmount"`
	ParticipantCount int                `json:"participantCount"`
	IsParticipant    bool               `json:"isParticipant"`
	IsBirthdayPerson bool               `json:"isBirthdayPerson"`

	createdAtCursor string
}

// MoasPage is the moa screen: one swipe of events plus the home banners.
type MoasPage struct {
	Items      []MoaItem       `json:"items"`
	Pagination pagination.Info `json:"pagination"`
	MainBanner banner.Banner   `json:"mainBanner"`
	SubBanners []banner.Banner `json:"subBanners"`
}

func timeCursor(e *models.BirthdayEvent) string {
	return pagination.EncodeTimeCursor(pagination.TimeCursor{ID: e.ID, CreatedAt: e.CreatedAt})
}

func decodeTimeCursor(raw string) (*pagination.TimeCursor, error) {
	if raw == "" {
		return nil, nil
	}
	c, err := pagination.DecodeTimeCursor(raw)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Moas lists the viewer's and followed users' events newest first together
// with the main and sub banners.
func (s *Service) Moas(ctx context.Context, viewerID int64, req PageRequest) (*MoasPage, error) {
	cursor, err := decodeTimeCursor(req.Cursor)
	if err != nil {
		return nil, err
	}
	viewer, err := s.user(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	rows, err := s.Events.ListMoas(ctx, repository.MoaFilters{
		CursorFilters: repository.CursorFilters{Cursor: cursor, Direction: req.Direction, Limit: req.Limit + 1},
		ViewerID:      viewerID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list moas: %w", err)
	}
	events, hasMore := pagination.Window(rows, req.Limit, req.Direction)

	items, err := s.moaItems(ctx, viewerID, events)
	if err != nil {
		return nil, err
	}

	mainBanner, subBanners, err := s.banners(ctx, viewer)
	if err != nil {
		return nil, err
	}

	return &MoasPage{
		Items:      items,
		Pagination: pagination.NewInfo(items, req.Direction, hasMore, cursor != nil, func(m MoaItem) string { return m.createdAtCursor }),
		MainBanner: mainBanner,
		SubBanners: subBanners,
	}, nil
}

func (s *Service) moaItems(ctx context.Context, viewerID int64, events []*models.BirthdayEvent) ([]MoaItem, error) {
	items := make([]MoaItem, 0, len(events))
	if len(events) == 0 {
		return items, nil
	}

	ids := make([]int64, 0, len(events))
	personIDs := make([]int64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
		personIDs = append(personIDs, e.BirthdayPersonID)
	}

	joined, err := s.Participants.JoinedEventIDs(ctx, viewerID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load participation: %w", err)
	}
	amounts, err := s.Events.Amounts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load event amounts: %w", err)
	}
	people, err := s.Users.GetByIDs(ctx, personIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load birthday people: %w", err)
	}

	today := s.clock.Today()
	for _, e := range events {
		person := people[e.BirthdayPersonID]
		a := amounts[e.ID]
		item := MoaItem{
			ID:               e.ID,
			Title:            e.Title,
			Status:           e.Status,
			BannerType:       banner.TypeFor(e, viewerID, joined[e.ID]),
			BirthdayPerson:   summarize(person),
			Deadline:         dateString(e.Deadline),
			DaysLeft:         dday.DaysBetween(today, e.Deadline),
			CurrentAmount:    a.CurrentAmount,
			SelectedAmount:   a.SelectedAmount,
			ParticipantCount: a.ParticipantCount,
			IsParticipant:    joined[e.ID],
			IsBirthdayPerson: e.IsOwner(viewerID),
			createdAtCursor:  timeCursor(e),
		}
		if person != nil && !person.Birthday.IsZero() {
			item.Countdown = dday.CountdownTo(person.Birthday, today)
		}
		items = append(items, item)
	}
	return items, nil
}

// banners computes the home banners from the viewer's whole state, not just
// the visible page.
func (s *Service) banners(ctx context.Context, viewer *models.User) (banner.Banner, []banner.Banner, error) {
	events, err := s.Events.ListBannerMoas(ctx, viewer.ID)
	if err != nil {
		return banner.Banner{}, nil, fmt.Errorf("failed to list banner moas: %w", err)
	}

	ids := make([]int64, 0, len(events))
	personIDs := make([]int64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
		personIDs = append(personIDs, e.BirthdayPersonID)
	}
	joined, err := s.Participants.JoinedEventIDs(ctx, viewer.ID, ids)
	if err != nil {
		return banner.Banner{}, nil, fmt.Errorf("failed to load participation: %w", err)
	}
	people, err := s.Users.GetByIDs(ctx, personIDs)
	if err != nil {
		return banner.Banner{}, nil, fmt.Errorf("failed to load birthday people: %w", err)
	}

	moas := make([]banner.Moa, 0, len(events))
	for _, e := range events {
		m := banner.Moa{
			ID:               e.ID,
			BannerType:       banner.TypeFor(e, viewer.ID, joined[e.ID]),
			Status:           e.Status,
			IsBirthdayPerson: e.IsOwner(viewer.ID),
		}
		if p := people[e.BirthdayPersonID]; p != nil {
			m.BirthdayPersonName = p.DisplayName()
		}
		moas = append(moas, m)
	}

	friends, err := s.upcomingFriends(ctx, viewer.ID)
	if err != nil {
		return banner.Banner{}, nil, err
	}
	upcoming := make([]banner.Upcoming, 0, len(friends))
	for _, f := range friends {
		upcoming = append(upcoming, banner.Upcoming{DDay: f.DDay, UserID: f.UserID, EventID: f.EventID})
	}

	v := banner.Viewer{Name: viewer.DisplayName(), Birthday: viewer.Birthday}
	return banner.Main(v, moas, upcoming, s.clock), banner.Sub(moas), nil
}
