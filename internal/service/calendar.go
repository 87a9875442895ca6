package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Kerhoff/moamoa/internal/apperr"
	"github.com/Kerhoff/moamoa/internal/dday"
	"github.com/Kerhoff/moamoa/internal/models"
)

// calendarYearSpan bounds how far from the current year a month view goes.
const calendarYearSpan = 10

// CalendarFriend is a followed user shown on a calendar day.
type CalendarFriend struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	PhotoURL       string `json:"photo"`
	HasActiveEvent bool   `json:"hasActiveEvent"`
}

// CalendarDay groups the birthdays that fall on one date.
type CalendarDay struct {
	Date       string           `json:"date"`
	Friends    []CalendarFriend `json:"friends"`
	EventCount int              `json:"eventCount"`
}

// Calendar is the month view of followed users' birthdays.
type Calendar struct {
	Year      int           `json:"year"`
	Month     int           `json:"month"`
	Birthdays []CalendarDay `json:"birthdays"`
}

// DateBirthday is one friend whose birthday is on the requested date.
type DateBirthday struct {
	Friend UserSummary `json:"friend"`
}

// DateBirthdays lists the friends born on one date.
type DateBirthdays struct {
	Date      string         `json:"date"`
	Birthdays []DateBirthday `json:"birthdays"`
}

func (s *Service) followedUsers(ctx context.Context, viewerID int64) ([]*models.User, error) {
	ids, err := s.Follows.FollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load followings: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	byID, err := s.Users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load followed users: %w", err)
	}
	out := make([]*models.User, 0, len(byID))
	for _, u := range byID {
		if !u.Birthday.IsZero() {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// BirthdayCalendar groups followed users' birthdays in year/month by date.
// Feb 29 birthdays land on Feb 28 in common years.
func (s *Service) BirthdayCalendar(ctx context.Context, viewerID int64, year, month int) (*Calendar, error) {
	now := s.clock.Today().Year()
	if year < now-calendarYearSpan || year > now+calendarYearSpan {
		return nil, apperr.Validation("INVALID_YEAR", "year는 %d 이상 %d 이하여야 합니다", now-calendarYearSpan, now+calendarYearSpan)
	}
	if month < 1 || month > 12 {
		return nil, apperr.Validation("INVALID_MONTH", "month는 1 이상 12 이하여야 합니다")
	}

	users, err := s.followedUsers(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	loc := s.clock.Location()
	byDate := map[string]*CalendarDay{}
	var inMonth []*models.User
	var personIDs []int64
	for _, u := range users {
		occ := dday.OccurrenceIn(u.Birthday, year, loc)
		if occ.Month() != time.Month(month) {
			continue
		}
		inMonth = append(inMonth, u)
		personIDs = append(personIDs, u.ID)
	}

	active, err := s.Events.ActiveByPersons(ctx, personIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load active events: %w", err)
	}

	for _, u := range inMonth {
		key := dateString(dday.OccurrenceIn(u.Birthday, year, loc))
		day, ok := byDate[key]
		if !ok {
			day = &CalendarDay{Date: key, Friends: []CalendarFriend{}}
			byDate[key] = day
		}
		e, has := active[u.ID]
		open := has && s.clock.DaysUntil(e.Deadline) >= 0
		day.Friends = append(day.Friends, CalendarFriend{ID: u.ID, Name: u.Name, PhotoURL: u.PhotoURL, HasActiveEvent: open})
		if open {
			day.EventCount++
		}
	}

	out := &Calendar{Year: year, Month: month, Birthdays: make([]CalendarDay, 0, len(byDate))}
	for _, day := range byDate {
		out.Birthdays = append(out.Birthdays, *day)
	}
	sort.Slice(out.Birthdays, func(i, j int) bool { return out.Birthdays[i].Date < out.Birthdays[j].Date })
	return out, nil
}

// BirthdaysOn lists followed users whose birthday falls on date
// (YYYY-MM-DD).
func (s *Service) BirthdaysOn(ctx context.Context, viewerID int64, date string) (*DateBirthdays, error) {
	loc := s.clock.Location()
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return nil, apperr.Validation("INVALID_DATE", "날짜는 YYYY-MM-DD 형식이어야 합니다")
	}

	users, err := s.followedUsers(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	out := &DateBirthdays{Date: dateString(day), Birthdays: []DateBirthday{}}
	for _, u := range users {
		if dday.OccurrenceIn(u.Birthday, day.Year(), loc).Equal(day) {
			out.Birthdays = append(out.Birthdays, DateBirthday{Friend: summarize(u)})
		}
	}
	return out, nil
}
