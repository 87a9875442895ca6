// Package dday computes countdowns to recurring month/day dates. All
// comparisons are date-only in the clock's zone.
package dday

import (
	"fmt"
	"time"
)

// Clock supplies "today" in a fixed zone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock returns a wall clock for loc. A nil loc means UTC.
func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc, now: time.Now}
}

// Fixed returns a clock frozen at t, used by tests and the scheduler.
func Fixed(t time.Time, loc *time.Location) *Clock {
	c := NewClock(loc)
	c.now = func() time.Time { return t }
	return c
}

func (c *Clock) Location() *time.Location { return c.loc }

// Now is the current instant in the clock's zone.
func (c *Clock) Now() time.Time { return c.now().In(c.loc) }

// Today is midnight of the current date in the clock's zone.
func (c *Clock) Today() time.Time {
	return Truncate(c.now().In(c.loc))
}

// Truncate drops the time of day, keeping t's zone.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsLeap reports whether year has a Feb 29.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// occurrence builds the month/day in year. Feb 29 falls back to Feb 28 in
// common years instead of normalising into March.
func occurrence(year int, month time.Month, day int, loc *time.Location) time.Time {
	if month == time.February && day == 29 && !IsLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// OccurrenceIn returns birthday's month/day in year at midnight in loc.
func OccurrenceIn(birthday time.Time, year int, loc *time.Location) time.Time {
	return occurrence(year, birthday.Month(), birthday.Day(), loc)
}

// NextOccurrence returns the first occurrence of birthday's month/day that is
// on or after today. Only the month and day of birthday are read.
func NextOccurrence(birthday, today time.Time) time.Time {
	today = Truncate(today)
	occ := occurrence(today.Year(), birthday.Month(), birthday.Day(), today.Location())
	if occ.Before(today) {
		occ = occurrence(today.Year()+1, birthday.Month(), birthday.Day(), today.Location())
	}
	return occ
}

// DaysBetween counts calendar days from a to b, ignoring time of day and
// DST shifts. Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// Countdown describes the distance to a birthday.
type Countdown struct {
	DaysRemaining   int       `json:"daysRemaining"`
	IsBirthdayToday bool      `json:"isBirthdayToday"`
	Formatted       string    `json:"formatted"`
	NextBirthday    time.Time `json:"nextBirthday"`
}

// CountdownTo computes the countdown from today to birthday's next occurrence.
func CountdownTo(birthday, today time.Time) Countdown {
	today = Truncate(today)
	next := NextOccurrence(birthday, today)
	days := DaysBetween(today, next)
	return Countdown{
		DaysRemaining:   days,
		IsBirthdayToday: days == 0,
		Formatted:       Format(days),
		NextBirthday:    next,
	}
}

// Countdown is CountdownTo with the clock's today.
func (c *Clock) Countdown(birthday time.Time) Countdown {
	return CountdownTo(birthday, c.Today())
}

// DaysUntil counts days from today to date, negative once date has passed.
func (c *Clock) DaysUntil(date time.Time) int {
	return DaysBetween(c.Today(), date)
}

// IsToday reports whether birthday's month/day is today's.
func (c *Clock) IsToday(birthday time.Time) bool {
	return c.Countdown(birthday).IsBirthdayToday
}

// Format renders a day count as "D-DAY" or "D-n".
func Format(days int) string {
	if days == 0 {
		return "D-DAY"
	}
	if days < 0 {
		return fmt.Sprintf("D+%d", -days)
	}
	return fmt.Sprintf("D-%d", days)
}

// DisplayDate renders the Korean "M월 D일" label.
func DisplayDate(t time.Time) string {
	return fmt.Sprintf("%d월 %d일", int(t.Month()), t.Day())
}
