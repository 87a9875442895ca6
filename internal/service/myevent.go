package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/Kerhoff/moamoa/internal/apperr"
	"github.com/Kerhoff/moamoa/internal/models"
	"github.com/Kerhoff/moamoa/internal/pagination"
	"github.com/Kerhoff/moamoa/internal/repository"
	"github.com/Kerhoff/moamoa/internal/settlement"
)

// WishlistSort is the ordering of the owner's wishlist on the event screen.
type WishlistSort string

const (
	SortCreatedAt WishlistSort = "CREATED_AT"
	SortVoteCount WishlistSort = "VOTE_COUNT"
	SortPriceDesc WishlistSort = "PRICE_DESC"
	SortPriceAsc  WishlistSort = "PRICE_ASC"
)

// ParseWishlistSort defaults to CREATED_AT.
func ParseWishlistSort(raw string) (WishlistSort, error) {
	switch WishlistSort(raw) {
	case "":
		return SortCreatedAt, nil
	case SortCreatedAt, SortVoteCount, SortPriceDesc, SortPriceAsc:
		return WishlistSort(raw), nil
	}
	return "", apperr.Validation("INVALID_SORT", "유효하지 않은 정렬 기준입니다").
		WithData(map[string]string{"sortBy": raw})
}

func (s *Service) activeOrLatest(ctx context.Context, ownerID int64) (*models.BirthdayEvent, error) {
	event, err := s.Events.GetActiveByPerson(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active event: %w", err)
	}
	if event != nil {
		return event, nil
	}
	return s.latestCompleted(ctx, ownerID)
}

func (s *Service) latestCompleted(ctx context.Context, ownerID int64) (*models.BirthdayEvent, error) {
	event, err := s.Events.GetLatestCompletedByPerson(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed event: %w", err)
	}
	if event == nil {
		return nil, apperr.NotFound("EVENT_NOT_FOUND", "생일 이벤트를 찾을 수 없습니다")
	}
	return event, nil
}

// MyEventResult summarizes the owner's latest completed event.
type MyEventResult struct {
	Event            *models.BirthdayEvent `json:"event"`
	CurrentAmount    int64                 `json:"currentAmount"`
	SelectedAmount   int64                 `json:"selectedAmount"`
	RemainingAmount  int64                 `json:"remainingAmount"`
	ParticipantCount int                   `json:"participantCount"`
	Participants     []ParticipantView     `json:"participants"`
	SelectedItems    []*models.Wishlist    `json:"selectedItems"`
	LetterCount      int                   `json:"letterCount"`
}

// MyEventResult returns the result page of ownerID's latest completed event.
func (s *Service) MyEventResult(ctx context.Context, ownerID int64) (*MyEventResult, error) {
	event, err := s.latestCompleted(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	participants, err := s.Participants.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	selectedIDs, err := s.Selections.ListWishlistIDs(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list selected items: %w", err)
	}
	wishlists, err := s.Wishlists.ListAllByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlists: %w", err)
	}
	letters, err := s.Letters.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list letters: %w", err)
	}

	selected := make(map[int64]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}
	items := make([]*models.Wishlist, 0, len(selectedIDs))
	var selectedAmount int64
	for _, w := range wishlists {
		if selected[w.ID] {
			items = append(items, w)
			selectedAmount += w.Price
		}
	}

	var current int64
	for _, p := range participants {
		current += p.Amount
	}

	return &MyEventResult{
		Event:            event,
		CurrentAmount:    current,
		SelectedAmount:   selectedAmount,
		RemainingAmount:  settlement.Remaining(current, selectedAmount),
		ParticipantCount: len(participants),
		Participants:     participantViews(participants),
		SelectedItems:    items,
		LetterCount:      len(letters),
	}, nil
}

// EventWishlistItem is a wishlist row on the owner's event screen.
type EventWishlistItem struct {
	*models.Wishlist
	VoteCount  int  `json:"voteCount"`
	IsSelected bool `json:"isSelected"`

	cursor string
}

// EventWishlistPage is one page of the owner's wishlist.
type EventWishlistPage struct {
	EventID        int64               `json:"eventId"`
	CurrentAmount  int64               `json:"currentAmount"`
	SelectedAmount int64               `json:"selectedAmount"`
	Items          []EventWishlistItem `json:"items"`
	Pagination     pagination.Info     `json:"pagination"`
}

// EventWishlistRequest selects a page of MyEventWishlist.
type EventWishlistRequest struct {
	SortBy WishlistSort
	Cursor string
	Limit  int
}

// MyEventWishlist lists the owner's wishlist with vote counts and selection
// flags for the active (or latest completed) event. Creation order pages by
// keyset; the other orders page by offset.
func (s *Service) MyEventWishlist(ctx context.Context, ownerID int64, req EventWishlistRequest) (*EventWishlistPage, error) {
	event, err := s.activeOrLatest(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	votes, err := s.Votes.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	selectedIDs, err := s.Selections.ListWishlistIDs(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list selected items: %w", err)
	}
	amounts, err := s.amounts(ctx, event.ID)
	if err != nil {
		return nil, err
	}

	voters := make(map[int64]map[int64]bool)
	for _, v := range votes {
		if voters[v.WishlistID] == nil {
			voters[v.WishlistID] = make(map[int64]bool)
		}
		voters[v.WishlistID][v.UserID] = true
	}
	selected := make(map[int64]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}
	decorate := func(w *models.Wishlist) EventWishlistItem {
		return EventWishlistItem{Wishlist: w, VoteCount: len(voters[w.ID]), IsSelected: selected[w.ID]}
	}

	var (
		items    []EventWishlistItem
		hasMore  bool
		supplied = req.Cursor != ""
	)
	if req.SortBy == SortCreatedAt {
		cursor, err := decodeTimeCursor(req.Cursor)
		if err != nil {
			return nil, err
		}
		rows, err := s.Wishlists.ListByUser(ctx, ownerID, repository.CursorFilters{
			Cursor: cursor, Direction: pagination.Next, Limit: req.Limit + 1,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list wishlists: %w", err)
		}
		var page []*models.Wishlist
		page, hasMore = pagination.Window(rows, req.Limit, pagination.Next)
		items = make([]EventWishlistItem, 0, len(page))
		for _, w := range page {
			item := decorate(w)
			item.cursor = pagination.EncodeTimeCursor(pagination.TimeCursor{ID: w.ID, CreatedAt: w.CreatedAt})
			items = append(items, item)
		}
	} else {
		offset := 0
		if supplied {
			c, err := pagination.DecodeOffsetCursor(req.Cursor)
			if err != nil {
				return nil, err
			}
			offset = c.Offset
		}
		all, err := s.Wishlists.ListAllByUser(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to list wishlists: %w", err)
		}
		sorted := make([]EventWishlistItem, 0, len(all))
		for _, w := range all {
			sorted = append(sorted, decorate(w))
		}
		sortEventWishlist(sorted, req.SortBy)

		if offset > len(sorted) {
			offset = len(sorted)
		}
		end := min(offset+req.Limit+1, len(sorted))
		items, hasMore = pagination.Window(sorted[offset:end], req.Limit, pagination.Next)
		for i := range items {
			items[i].cursor = pagination.EncodeOffsetCursor(pagination.OffsetCursor{ID: items[i].ID, Offset: offset + i + 1})
		}
	}

	return &EventWishlistPage{
		EventID:        event.ID,
		CurrentAmount:  amounts.CurrentAmount,
		SelectedAmount: amounts.SelectedAmount,
		Items:          items,
		Pagination: pagination.NewInfo(items, pagination.Next, hasMore, supplied,
			func(i EventWishlistItem) string { return i.cursor }),
	}, nil
}

func sortEventWishlist(items []EventWishlistItem, by WishlistSort) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch by {
		case SortVoteCount:
			if a.VoteCount != b.VoteCount {
				return a.VoteCount > b.VoteCount
			}
		case SortPriceDesc:
			if a.Price != b.Price {
				return a.Price > b.Price
			}
		case SortPriceAsc:
			if a.Price != b.Price {
				return a.Price < b.Price
			}
		}
		return a.ID < b.ID
	})
}
