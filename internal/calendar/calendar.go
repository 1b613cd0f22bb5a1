package calendar

import (
	"strings"
	"time"
)

const (
	// DefaultTimezone is used when the configured zone is empty or unknown.
	DefaultTimezone = "Europe/Berlin"

	keyLayout = "2006-01-02"
)

// Clock normalizes instants to calendar days of one fixed business timezone.
// Device-local time never takes part in day comparisons.
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Location: loc, Now: time.Now}
}

func (c Clock) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c Clock) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Day returns local midnight of the business day containing t.
func (c Clock) Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	lt := t.In(c.loc())
	y, m, d := lt.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc())
}

func (c Clock) Today() time.Time {
	return c.Day(c.now())
}

// Date builds a business day from its calendar components.
func (c Clock) Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, c.loc())
}

// Parse reads a YYYY-MM-DD string as a business day.
func (c Clock) Parse(s string) (time.Time, error) {
	return time.ParseInLocation(keyLayout, strings.TrimSpace(s), c.loc())
}

// AddDays moves a day by n calendar days. Safe across DST changes.
func AddDays(day time.Time, n int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, day.Location())
}

// DaysBetween counts calendar days from a to b (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func Key(day time.Time) string {
	return day.Format(keyLayout)
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MaxDay returns the latest non-zero day.
func MaxDay(days ...time.Time) time.Time {
	var out time.Time
	for _, d := range days {
		if d.IsZero() {
			continue
		}
		if out.IsZero() || d.After(out) {
			out = d
		}
	}
	return out
}

// LoadLocation resolves the business timezone: configured zone, then DefaultTimezone, then UTC.
func LoadLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}
