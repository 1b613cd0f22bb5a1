package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClock_DayNormalizesToBusinessZone(t *testing.T) {
	berlin := LoadLocation("Europe/Berlin")
	c := NewClock(berlin)

	// 23:30 UTC on Jan 1 is already Jan 2 in Berlin.
	day := c.Day(time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC))
	require.Equal(t, "2024-01-02", Key(day))
	h, m, s := day.Clock()
	require.Zero(t, h+m+s)
}

func TestClock_TodayUsesNow(t *testing.T) {
	c := NewClock(time.UTC)
	c.Now = func() time.Time { return time.Date(2024, 3, 5, 17, 0, 0, 0, time.UTC) }
	require.Equal(t, "2024-03-05", Key(c.Today()))
}

func TestAddDays_AcrossDST(t *testing.T) {
	c := NewClock(LoadLocation("Europe/Berlin"))
	d := c.Date(2024, 3, 30)
	next := AddDays(d, 1)
	require.Equal(t, "2024-03-31", Key(next))
	require.Equal(t, 0, next.Hour())
	require.Equal(t, 2, DaysBetween(d, AddDays(d, 2)))
	require.Equal(t, -3, DaysBetween(d, AddDays(d, -3)))
}

func TestLoadLocation_Fallback(t *testing.T) {
	require.Equal(t, "Europe/Berlin", LoadLocation("").String())
	require.Equal(t, "Europe/Berlin", LoadLocation("Not/AZone").String())
	require.Equal(t, "America/New_York", LoadLocation("America/New_York").String())
}

func TestWeekdayIndex(t *testing.T) {
	require.Equal(t, 0, WeekdayIndex(time.Monday))
	require.Equal(t, 6, WeekdayIndex(time.Sunday))
	require.Equal(t, time.Tuesday, FromIndex(1))
	require.Equal(t, time.Sunday, FromIndex(42))
	require.Equal(t, 0, ClampWeekday(-5))

	c := NewClock(time.UTC)
	require.Equal(t, "2024-01-01", Key(StartOfWeek(c.Date(2024, 1, 7))))
}

func TestMaxDay(t *testing.T) {
	c := NewClock(time.UTC)
	a := c.Date(2024, 1, 1)
	b := c.Date(2024, 1, 10)
	require.Equal(t, b, MaxDay(a, time.Time{}, b))
	require.True(t, MaxDay().IsZero())
	require.True(t, SameDay(a, a.Add(3*time.Hour)))
}
