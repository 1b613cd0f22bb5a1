package calendar

import "time"

// Weekdays are indexed Monday-first: Mon=0 .. Sun=6.

func ValidWeekday(i int) bool {
	return i >= 0 && i <= 6
}

// ClampWeekday maps any index into 0..6.
func ClampWeekday(i int) int {
	if i < 0 {
		return 0
	}
	if i > 6 {
		return 6
	}
	return i
}

func WeekdayIndex(w time.Weekday) int {
	return (int(w) + 6) % 7
}

func FromIndex(i int) time.Weekday {
	return time.Weekday((ClampWeekday(i) + 1) % 7)
}

// StartOfWeek returns the Monday of the week containing day.
func StartOfWeek(day time.Time) time.Time {
	return AddDays(day, -WeekdayIndex(day.Weekday()))
}
