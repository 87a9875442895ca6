package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/Kerhoff/moamoa/internal/banner"
	"github.com/Kerhoff/moamoa/internal/dday"
	"github.com/Kerhoff/moamoa/internal/pagination"
)

// PageRequest is a cursor swipe request as parsed from the query string.
type PageRequest struct {
	Cursor    string
	Direction pagination.Direction
	Limit     int
}

// UpcomingBirthday is a followed friend whose birthday is close.
type UpcomingBirthday struct {
	UserID      int64  `json:"userId"`
	Name        string `json:"name"`
	PhotoURL    string `json:"photo"`
	Birthday    string `json:"birthday"`
	DDay        int    `json:"dDay"`
	DisplayDate string `json:"displayDate"`
	EventID     *int64 `json:"eventId"`
}

// UpcomingPage is one swipe of upcoming birthdays.
type UpcomingPage struct {
	Items      []UpcomingBirthday `json:"items"`
	Pagination pagination.Info    `json:"pagination"`
}

func upcomingCursor(u UpcomingBirthday) string {
	return pagination.EncodeDDayCursor(pagination.DDayCursor{ID: u.UserID, DDay: u.DDay})
}

// compareDDay orders u against the cursor position: -1 before, 1 after.
func compareDDay(u UpcomingBirthday, c pagination.DDayCursor) int {
	switch {
	case u.DDay < c.DDay, u.DDay == c.DDay && u.UserID < c.ID:
		return -1
	case u.DDay == c.DDay && u.UserID == c.ID:
		return 0
	default:
		return 1
	}
}

// upcomingFriends lists followed users with a birthday in the next
// UpcomingWindowDays days, closest first.
func (s *Service) upcomingFriends(ctx context.Context, viewerID int64) ([]UpcomingBirthday, error) {
	ids, err := s.Follows.FollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load followings: %w", err)
	}
	if len(ids) == 0 {
		return []UpcomingBirthday{}, nil
	}

	users, err := s.Users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load followed users: %w", err)
	}

	today := s.clock.Today()
	var inWindow []int64
	out := make([]UpcomingBirthday, 0)
	for _, u := range users {
		if u.Birthday.IsZero() {
			continue
		}
		cd := dday.CountdownTo(u.Birthday, today)
		if cd.DaysRemaining > banner.UpcomingWindowDays {
			continue
		}
		inWindow = append(inWindow, u.ID)
		out = append(out, UpcomingBirthday{
			UserID:      u.ID,
			Name:        u.Name,
			PhotoURL:    u.PhotoURL,
			Birthday:    dateString(u.Birthday),
			DDay:        cd.DaysRemaining,
			DisplayDate: dday.DisplayDate(cd.NextBirthday),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DDay != out[j].DDay {
			return out[i].DDay < out[j].DDay
		}
		return out[i].UserID < out[j].UserID
	})

	if len(inWindow) > 0 {
		active, err := s.Events.ActiveByPersons(ctx, inWindow)
		if err != nil {
			return nil, fmt.Errorf("failed to load active events: %w", err)
		}
		for i := range out {
			if e, ok := active[out[i].UserID]; ok {
				id := e.ID
				out[i].EventID = &id
			}
		}
	}
	return out, nil
}

// UpcomingBirthdays pages through friends' upcoming birthdays ordered by
// (dDay, userId).
func (s *Service) UpcomingBirthdays(ctx context.Context, viewerID int64, req PageRequest) (*UpcomingPage, error) {
	var cursor *pagination.DDayCursor
	if req.Cursor != "" {
		c, err := pagination.DecodeDDayCursor(req.Cursor)
		if err != nil {
			return nil, err
		}
		cursor = &c
	}

	all, err := s.upcomingFriends(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	// Build the lookahead fetch the way a keyset query would return it:
	// ascending for next, descending from the cursor for prev.
	fetched := make([]UpcomingBirthday, 0, req.Limit+1)
	if req.Direction == pagination.Prev {
		for i := len(all) - 1; i >= 0 && len(fetched) <= req.Limit; i-- {
			if cursor == nil || compareDDay(all[i], *cursor) < 0 {
				fetched = append(fetched, all[i])
			}
		}
	} else {
		for i := 0; i < len(all) && len(fetched) <= req.Limit; i++ {
			if cursor == nil || compareDDay(all[i], *cursor) > 0 {
				fetched = append(fetched, all[i])
			}
		}
	}

	page, hasMore := pagination.Window(fetched, req.Limit, req.Direction)
	return &UpcomingPage{
		Items:      page,
		Pagination: pagination.NewInfo(page, req.Direction, hasMore, cursor != nil, upcomingCursor),
	}, nil
}
