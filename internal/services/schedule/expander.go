package schedule

import (
	"log/slog"
	"time"

	"github.com/BearBump/TourBox/internal/calendar"
	"github.com/BearBump/TourBox/internal/models"
	"github.com/teambition/rrule-go"
)

// MaxRawCandidates bounds every recurrence series, even on corrupt data.
const MaxRawCandidates = 1000

// Window is the half-open day range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

func NewWindow(start time.Time, daysAhead int) Window {
	if daysAhead < 0 {
		daysAhead = 0
	}
	return Window{Start: start, End: calendar.AddDays(start, daysAhead)}
}

func (w Window) Contains(day time.Time) bool {
	return !day.Before(w.Start) && day.Before(w.End)
}

// Covers reports whether o lies entirely inside w.
func (w Window) Covers(o Window) bool {
	return !o.Start.Before(w.Start) && !o.End.After(w.End)
}

func (w Window) Days() int {
	return calendar.DaysBetween(w.Start, w.End)
}

var rruleWeekdays = [...]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

// expandParams carries the parent customer data some rule kinds need.
type expandParams struct {
	customerID      string
	deliveryOffset  int
	customerCreated time.Time
}

// expandInterval produces the final occurrences of one normalized interval in w.
func expandInterval(iv models.Interval, w Window, ov overrides, p expandParams) []models.Occurrence {
	iv = iv.Normalized()
	floor := iv.CreatedAt

	switch iv.Kind {
	case models.RuleOneOff:
		return expandOneOff(iv, w, ov, floor)
	case models.RuleFixedCycle:
		var out []models.Occurrence
		out = append(out, expandCycle(iv, iv.PickupAnchor, models.OperationPickup, w, ov, floor, p)...)
		out = append(out, expandCycle(iv, iv.DeliveryAnchor, models.OperationDelivery, w, ov, floor, p)...)
		return out
	case models.RuleMonthlyWeekday:
		return expandMonthly(iv, w, ov, p)
	default:
		slog.Warn("unknown interval kind", "customer_id", p.customerID, "interval_id", iv.ID, "kind", string(iv.Kind))
		return nil
	}
}

func expandOneOff(iv models.Interval, w Window, ov overrides, floor time.Time) []models.Occurrence {
	var out []models.Occurrence
	for _, a := range []struct {
		anchor *time.Time
		kind   models.OperationKind
	}{
		{iv.PickupAnchor, models.OperationPickup},
		{iv.DeliveryAnchor, models.OperationDelivery},
	} {
		if a.anchor == nil || a.anchor.IsZero() || beforeFloor(*a.anchor, floor) {
			continue
		}
		occ, ok := ov.resolve(*a.anchor, a.kind, iv.ID, models.SourceInterval)
		if ok && w.Contains(occ.Date) {
			out = append(out, occ)
		}
	}
	return out
}

func expandCycle(iv models.Interval, anchor *time.Time, kind models.OperationKind, w Window, ov overrides, floor time.Time, p expandParams) []models.Occurrence {
	if anchor == nil || anchor.IsZero() || iv.Cycle == nil {
		return nil
	}
	step := iv.Cycle.Days
	limit := iv.Cycle.RepeatCount
	lo, hi := ov.shiftReach(w, kind, iv.ID)

	start := *anchor
	// Unbounded series can skip straight to the window. A repeat budget has to
	// be counted from the anchor.
	if limit == 0 {
		if gap := calendar.DaysBetween(start, lo); gap > 0 {
			start = calendar.AddDays(start, (gap/step)*step)
		}
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.DAILY,
		Interval: step,
		Dtstart:  start,
	})
	if err != nil {
		slog.Warn("build cycle rule", "customer_id", p.customerID, "interval_id", iv.ID, "error", err.Error())
		return nil
	}

	var out []models.Occurrence
	survived := 0
	truncated := iterate(r.Iterator(), hi, func(raw time.Time) bool {
		if beforeFloor(raw, floor) {
			return true
		}
		occ, ok := ov.resolve(raw, kind, iv.ID, models.SourceInterval)
		if !ok {
			return true
		}
		survived++
		if w.Contains(occ.Date) {
			out = append(out, occ)
		}
		return limit == 0 || survived < limit
	})
	if truncated {
		slog.Warn("cycle expansion truncated", "customer_id", p.customerID, "interval_id", iv.ID, "cap", MaxRawCandidates)
	}
	return out
}

// expandMonthly emits the Nth (or last) weekday of every month as pickup and
// pickup+offset as delivery. Each raw date is floored on its own: a date
// before the window start or the creation day is dropped, so a pickup that
// predates creation may still yield a delivery on or after it.
func expandMonthly(iv models.Interval, w Window, ov overrides, p expandParams) []models.Occurrence {
	if iv.Monthly == nil {
		return nil
	}
	created := calendar.MaxDay(p.customerCreated, iv.CreatedAt)
	offset := p.deliveryOffset
	if offset < 0 {
		offset = 0
	}

	floor := calendar.MaxDay(w.Start, created)
	lo := calendar.AddDays(floor, -offset)
	_, hi := ov.shiftReach(w, models.OperationPickup, iv.ID)
	if _, dhi := ov.shiftReach(w, models.OperationDelivery, iv.ID); calendar.AddDays(dhi, -offset).After(hi) {
		hi = calendar.AddDays(dhi, -offset)
	}
	if !lo.Before(hi) {
		return nil
	}

	wd := rruleWeekdays[iv.Monthly.Weekday]
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.MONTHLY,
		Dtstart:   time.Date(lo.Year(), lo.Month(), 1, 0, 0, 0, 0, lo.Location()),
		Byweekday: []rrule.Weekday{wd.Nth(int(iv.Monthly.Week))},
	})
	if err != nil {
		slog.Warn("build monthly rule", "customer_id", p.customerID, "interval_id", iv.ID, "error", err.Error())
		return nil
	}

	var out []models.Occurrence
	accept := func(raw time.Time, kind models.OperationKind) {
		if raw.Before(floor) {
			return
		}
		if occ, ok := ov.resolve(raw, kind, iv.ID, models.SourceInterval); ok && w.Contains(occ.Date) {
			out = append(out, occ)
		}
	}
	truncated := iterate(r.Iterator(), hi, func(pickup time.Time) bool {
		if pickup.Before(lo) {
			return true
		}
		accept(pickup, models.OperationPickup)
		accept(calendar.AddDays(pickup, offset), models.OperationDelivery)
		return true
	})
	if truncated {
		slog.Warn("monthly expansion truncated", "customer_id", p.customerID, "interval_id", iv.ID, "cap", MaxRawCandidates)
	}
	return out
}

// iterate feeds raw candidates before end to fn until fn returns false, the
// rule is exhausted, or MaxRawCandidates is reached. It reports truncation.
func iterate(next rrule.Next, end time.Time, fn func(time.Time) bool) bool {
	for n := 0; ; n++ {
		t, ok := next()
		if !ok || !t.Before(end) {
			return false
		}
		if n >= MaxRawCandidates {
			return true
		}
		if !fn(t) {
			return false
		}
	}
}

func beforeFloor(day, floor time.Time) bool {
	return !floor.IsZero() && day.Before(floor)
}
