// Package calendar works out which trading session the provider is expected
// to have fully published at a given instant.
package calendar

import (
	"fmt"
	"time"

	"stockcache/internal/stock/model"
)

// TimeOfDay is a wall-clock time in the exchange's timezone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24h).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) minutes() int { return t.Hour*60 + t.Minute }

// MostRecentCompleteTradingDay returns the civil date of the latest session
// whose daily data is published as of now. Before the cutoff the previous day
// is used; Saturday and Sunday roll back to Friday.
func MostRecentCompleteTradingDay(now time.Time, loc *time.Location, cutoff TimeOfDay) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	localNow := now.In(loc)

	candidate := model.CivilDate(localNow)
	if localNow.Hour()*60+localNow.Minute() < cutoff.minutes() {
		candidate = candidate.AddDate(0, 0, -1)
	}

	switch candidate.Weekday() {
	case time.Saturday:
		candidate = candidate.AddDate(0, 0, -1)
	case time.Sunday:
		candidate = candidate.AddDate(0, 0, -2)
	}
	return candidate
}

// Calendar binds the exchange timezone and publication cutoff to a clock.
type Calendar struct {
	Location *time.Location
	Cutoff   TimeOfDay
	Now      func() time.Time
}

// New loads the named timezone and parses the cutoff.
func New(timezone, cutoff string) (*Calendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load exchange timezone: %w", err)
	}
	tod, err := ParseTimeOfDay(cutoff)
	if err != nil {
		return nil, err
	}
	return &Calendar{Location: loc, Cutoff: tod, Now: time.Now}, nil
}

// ReferenceDay is MostRecentCompleteTradingDay at the calendar's current instant.
func (c *Calendar) ReferenceDay() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return MostRecentCompleteTradingDay(now(), c.Location, c.Cutoff)
}

// Today is the civil date of the current instant in the exchange timezone.
func (c *Calendar) Today() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return model.CivilDate(now().In(loc))
}
