package pagination

import "slices"

// Info is the paging block returned alongside every cursor-paged list.
type Info struct {
	HasNext    bool    `json:"hasNext"`
	HasPrev    bool    `json:"hasPrev"`
	NextCursor *string `json:"nextCursor"`
	PrevCursor *string `json:"prevCursor"`
}

// Window turns a limit+1 lookahead fetch into the display page. Prev fetches
// arrive in ascending order and are reversed back to display order after the
// extra row is dropped.
func Window[T any](rows []T, limit int, dir Direction) ([]T, bool) {
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	page := slices.Clone(rows)
	if dir == Prev {
		slices.Reverse(page)
	}
	return page, hasMore
}

// NewInfo derives flags and cursors from the boundary rows of the returned
// page. On a next page hasPrev means only that a cursor was supplied; no
// predecessor lookup is made.
func NewInfo[T any](page []T, dir Direction, hasMore, cursorSupplied bool, cursorOf func(T) string) Info {
	var info Info
	if dir == Prev {
		info.HasPrev = hasMore
		info.HasNext = true
	} else {
		info.HasNext = hasMore
		info.HasPrev = cursorSupplied
	}

	if len(page) == 0 {
		return info
	}

	first, last := page[0], page[len(page)-1]
	if info.HasNext {
		c := cursorOf(last)
		info.NextCursor = &c
	}
	if info.HasPrev {
		c := cursorOf(first)
		info.PrevCursor = &c
	}
	return info
}
