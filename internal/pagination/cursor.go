// Package pagination implements the opaque-cursor swipe paging shared by the
// list endpoints.
package pagination

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Kerhoff/moamoa/internal/apperr"
)

// Direction is the swipe direction of a page request.
type Direction string

const (
	Next Direction = "next"
	Prev Direction = "prev"
)

// ParseDirection defaults to Next when raw is empty.
func ParseDirection(raw string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(raw))) {
	case "", Next:
		return Next, nil
	case Prev:
		return Prev, nil
	}
	return "", apperr.Validation("INVALID_DIRECTION", "direction은 next 또는 prev 여야 합니다").
		WithData(map[string]string{"direction": raw})
}

// ParseLimit reads a page size. Empty input yields def.
func ParseLimit(raw string, def, min, max int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < min || v > max {
		return 0, apperr.Validation("INVALID_LIMIT", "limit은 %d 이상 %d 이하의 숫자여야 합니다", min, max).
			WithData(map[string]string{"limit": raw})
	}
	return v, nil
}

// MaxPage bounds numbered pages so that page*limit stays a sane offset.
const MaxPage = 10000

// ParsePage reads a 1-based page number. Empty input yields 1.
func ParsePage(raw string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return 1, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 1 || v > MaxPage {
		return 0, apperr.Validation("INVALID_PAGE", "page는 1 이상 %d 이하의 숫자여야 합니다", MaxPage).
			WithData(map[string]string{"page": raw})
	}
	return v, nil
}

// TimeCursor orders rows by creation time with the id as tiebreak.
type TimeCursor struct {
	ID        int64
	CreatedAt time.Time
}

// DDayCursor orders rows by days-until-birthday with the id as tiebreak.
type DDayCursor struct {
	ID   int64
	DDay int
}

// OffsetCursor resumes lists whose sort key is not unique enough for a keyset
// (price, vote count).
type OffsetCursor struct {
	ID     int64
	Offset int
}

type timeCursorWire struct {
	ID        *int64  `json:"id"`
	CreatedAt *string `json:"createdAt"`
}

type dDayCursorWire struct {
	ID   *int64 `json:"id"`
	DDay *int   `json:"dDay"`
}

type offsetCursorWire struct {
	ID     *int64 `json:"id"`
	Offset *int   `json:"offset"`
}

func invalidCursor(reason string) *apperr.Error {
	return apperr.Validation("INVALID_CURSOR", "유효하지 않은 커서입니다").
		WithData(map[string]string{"reason": reason})
}

func encode(v any) string {
	// The wire structs only hold numbers and strings; Marshal cannot fail.
	b, _ := json.Marshal(v)
	return base64.StdEncoding.EncodeToString(b)
}

func decode(s string, dst any) error {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		if raw, err = base64.RawURLEncoding.DecodeString(s); err != nil {
			return invalidCursor("base64")
		}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return invalidCursor("json")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return invalidCursor("trailing data")
	}
	return nil
}

// EncodeTimeCursor renders c as base64(JSON{id, createdAt}).
func EncodeTimeCursor(c TimeCursor) string {
	ts := c.CreatedAt.UTC().Format(time.RFC3339Nano)
	return encode(timeCursorWire{ID: &c.ID, CreatedAt: &ts})
}

// DecodeTimeCursor fails closed on any malformed input.
func DecodeTimeCursor(s string) (TimeCursor, error) {
	var w timeCursorWire
	if err := decode(s, &w); err != nil {
		return TimeCursor{}, err
	}
	if w.ID == nil || *w.ID <= 0 {
		return TimeCursor{}, invalidCursor("id")
	}
	if w.CreatedAt == nil {
		return TimeCursor{}, invalidCursor("createdAt")
	}
	ts, err := time.Parse(time.RFC3339Nano, *w.CreatedAt)
	if err != nil {
		return TimeCursor{}, invalidCursor("createdAt")
	}
	return TimeCursor{ID: *w.ID, CreatedAt: ts}, nil
}

// EncodeDDayCursor renders c as base64(JSON{id, dDay}).
func EncodeDDayCursor(c DDayCursor) string {
	return encode(dDayCursorWire{ID: &c.ID, DDay: &c.DDay})
}

func DecodeDDayCursor(s string) (DDayCursor, error) {
	var w dDayCursorWire
	if err := decode(s, &w); err != nil {
		return DDayCursor{}, err
	}
	if w.ID == nil || *w.ID <= 0 {
		return DDayCursor{}, invalidCursor("id")
	}
	if w.DDay == nil || *w.DDay < 0 {
		return DDayCursor{}, invalidCursor("dDay")
	}
	return DDayCursor{ID: *w.ID, DDay: *w.DDay}, nil
}

func EncodeOffsetCursor(c OffsetCursor) string {
	return encode(offsetCursorWire{ID: &c.ID, Offset: &c.Offset})
}

func DecodeOffsetCursor(s string) (OffsetCursor, error) {
	var w offsetCursorWire
	if err := decode(s, &w); err != nil {
		return OffsetCursor{}, err
	}
	if w.ID == nil || *w.ID <= 0 {
		return OffsetCursor{}, invalidCursor("id")
	}
	if w.Offset == nil || *w.Offset < 0 {
		return OffsetCursor{}, invalidCursor("offset")
	}
	return OffsetCursor{ID: *w.ID, Offset: *w.Offset}, nil
}

// String is used in log fields.
func (c TimeCursor) String() string {
	return fmt.Sprintf("%d@%s", c.ID, c.CreatedAt.Format(time.RFC3339))
}
