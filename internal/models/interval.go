package models

import "time"

type RuleKind string

const (
	RuleOneOff         RuleKind = "ONE_OFF"
	RuleFixedCycle     RuleKind = "FIXED_CYCLE"
	RuleMonthlyWeekday RuleKind = "MONTHLY_WEEKDAY"
)

const (
	MinCycleDays = 1
	MaxCycleDays = 365
)

// WeekOfMonth selects the 1st..4th weekday of a month, or the last one.
type WeekOfMonth int

const WeekLast WeekOfMonth = -1

type CycleRule struct {
	Days int `json:"days"`
	// 0 = unbounded. Only surviving (non-deleted) occurrences count.
	RepeatCount int `json:"repeat_count,omitempty"`
}

type MonthlyRule struct {
	Week    WeekOfMonth `json:"week"`
	Weekday int         `json:"weekday"` // Mon=0..Sun=6
}

// Interval is one recurrence rule of a customer. Exactly one payload
// matches Kind: ONE_OFF uses only the anchors, FIXED_CYCLE adds Cycle,
// MONTHLY_WEEKDAY uses Monthly and ignores the delivery anchor.
type Interval struct {
	ID             string       `json:"id"`
	Kind           RuleKind     `json:"kind"`
	PickupAnchor   *time.Time   `json:"pickup_anchor,omitempty"`
	DeliveryAnchor *time.Time   `json:"delivery_anchor,omitempty"`
	Cycle          *CycleRule   `json:"cycle,omitempty"`
	Monthly        *MonthlyRule `json:"monthly,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

func ClampCycleDays(days int) int {
	if days < MinCycleDays {
		return MinCycleDays
	}
	if days > MaxCycleDays {
		return MaxCycleDays
	}
	return days
}

func ClampWeek(w WeekOfMonth) WeekOfMonth {
	if w == WeekLast || w < 0 {
		return WeekLast
	}
	if w == 0 {
		return 1
	}
	if w > 4 {
		return 4
	}
	return w
}

// Normalized returns a copy with every selector clamped into its valid range.
// Malformed stored data never makes expansion fail.
func (iv Interval) Normalized() Interval {
	out := iv
	if iv.Cycle != nil {
		c := *iv.Cycle
		c.Days = ClampCycleDays(c.Days)
		if c.RepeatCount < 0 {
			c.RepeatCount = 0
		}
		out.Cycle = &c
	}
	if iv.Monthly != nil {
		m := *iv.Monthly
		m.Week = ClampWeek(m.Week)
		switch {
		case m.Weekday < 0:
			m.Weekday = 0
		case m.Weekday > 6:
			m.Weekday = 6
		}
		out.Monthly = &m
	}
	return out
}
