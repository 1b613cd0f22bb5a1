package schedule

import (
	"log/slog"
	"slices"
	"time"

	"github.com/BearBump/TourBox/internal/calendar"
	"github.com/BearBump/TourBox/internal/models"
	"github.com/teambition/rrule-go"
)

// WeekdayFallbackID scopes shifts and deletions of the legacy weekday schedule.
const WeekdayFallbackID = "weekday-fallback"

// aggregate merges every source of a normalized customer into one sorted timeline.
// Sources are additive; duplicates by (date, kind) are kept.
func aggregate(c models.Customer, l *models.List, w Window) []models.Occurrence {
	ov := newOverrides(c)
	p := expandParams{
		customerID:      c.ID,
		deliveryOffset:  c.DeliveryOffsetDays,
		customerCreated: c.CreatedAt,
	}

	var out []models.Occurrence
	if len(c.Intervals) > 0 {
		for _, iv := range c.Intervals {
			out = append(out, expandInterval(iv, w, ov, p)...)
		}
	} else {
		out = append(out, expandWeekdays(c, l, w, ov)...)
	}

	flattened := false
	for _, a := range c.Appointments {
		if a.ListID != "" {
			flattened = true
		}
		if a.Date.IsZero() || !w.Contains(a.Date) {
			continue
		}
		src := models.SourceAppointment
		if a.ListID != "" {
			src = models.SourceListAppointment
		}
		kind := a.Kind
		if !kind.Valid() {
			kind = models.OperationPickup
		}
		out = append(out, models.Occurrence{Date: a.Date, Kind: kind, Source: src})
	}

	if !flattened && l != nil {
		out = append(out, expandListAppointments(l, w)...)
	}

	sortOccurrences(out)
	return out
}

// weekdaySource picks the customer's weekday schedule, or the list's one when
// the customer has none.
type weekdaySource struct {
	weekdays   []int
	cycleWeeks int
	anchor     *time.Time
	offset     int
}

func resolveWeekdaySource(c models.Customer, l *models.List) (weekdaySource, bool) {
	if len(c.PickupWeekdays) > 0 {
		return weekdaySource{weekdays: c.PickupWeekdays, cycleWeeks: 1, offset: c.DeliveryOffsetDays}, true
	}
	if l == nil || len(l.PickupWeekdays) == 0 {
		return weekdaySource{}, false
	}
	// Zero reads as unset here: same-day delivery on list weekdays needs the
	// list itself to carry offset 0.
	offset := c.DeliveryOffsetDays
	if offset == 0 {
		offset = l.DeliveryOffsetDays
	}
	return weekdaySource{weekdays: l.PickupWeekdays, cycleWeeks: l.CycleWeeks, anchor: l.Anchor, offset: offset}, true
}

func expandWeekdays(c models.Customer, l *models.List, w Window, ov overrides) []models.Occurrence {
	src, ok := resolveWeekdaySource(c, l)
	if !ok {
		return nil
	}
	offset := src.offset
	if offset < 0 {
		offset = 0
	}
	cycle := src.cycleWeeks
	if cycle < 1 {
		cycle = 1
	}

	var byDay []rrule.Weekday
	seen := make(map[int]struct{}, len(src.weekdays))
	for _, wd := range src.weekdays {
		if !calendar.ValidWeekday(wd) {
			continue
		}
		if _, dup := seen[wd]; dup {
			continue
		}
		seen[wd] = struct{}{}
		byDay = append(byDay, rruleWeekdays[wd])
	}
	if len(byDay) == 0 {
		return nil
	}

	lo := calendar.MaxDay(w.Start, c.CreatedAt)
	_, hi := ov.shiftReach(w, models.OperationPickup, WeekdayFallbackID)
	if _, dhi := ov.shiftReach(w, models.OperationDelivery, WeekdayFallbackID); calendar.AddDays(dhi, -offset).After(hi) {
		hi = calendar.AddDays(dhi, -offset)
	}
	if !lo.Before(hi) {
		return nil
	}

	// The cycle phase is fixed by the anchor week; without an anchor every week counts.
	dtstart := calendar.StartOfWeek(lo)
	if src.anchor != nil && !src.anchor.IsZero() && cycle > 1 {
		first := calendar.StartOfWeek(*src.anchor)
		if weeks := calendar.DaysBetween(first, dtstart) / 7; weeks > 0 {
			dtstart = calendar.AddDays(first, (weeks/cycle)*cycle*7)
		} else {
			dtstart = first
		}
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Interval:  cycle,
		Wkst:      rrule.MO,
		Dtstart:   dtstart,
		Byweekday: byDay,
	})
	if err != nil {
		slog.Warn("build weekday rule", "customer_id", c.ID, "error", err.Error())
		return nil
	}

	var out []models.Occurrence
	truncated := iterate(r.Iterator(), hi, func(pickup time.Time) bool {
		if pickup.Before(lo) {
			return true
		}
		if occ, ok := ov.resolve(pickup, models.OperationPickup, WeekdayFallbackID, models.SourceWeekday); ok && w.Contains(occ.Date) {
			out = append(out, occ)
		}
		delivery := calendar.AddDays(pickup, offset)
		if occ, ok := ov.resolve(delivery, models.OperationDelivery, WeekdayFallbackID, models.SourceWeekday); ok && w.Contains(occ.Date) {
			out = append(out, occ)
		}
		return true
	})
	if truncated {
		slog.Warn("weekday expansion truncated", "customer_id", c.ID, "cap", MaxRawCandidates)
	}
	return out
}

func expandListAppointments(l *models.List, w Window) []models.Occurrence {
	offset := l.DeliveryOffsetDays
	if offset < 0 {
		offset = 0
	}
	var out []models.Occurrence
	for _, d := range l.AppointmentDates {
		if d.IsZero() {
			continue
		}
		if w.Contains(d) {
			out = append(out, models.Occurrence{Date: d, Kind: models.OperationPickup, Source: models.SourceListAppointment})
		}
		if del := calendar.AddDays(d, offset); w.Contains(del) {
			out = append(out, models.Occurrence{Date: del, Kind: models.OperationDelivery, Source: models.SourceListAppointment})
		}
	}
	return out
}

// listContributes reports whether l adds dates to c's timeline. Such timelines
// must not be cached per customer.
func listContributes(c models.Customer, l *models.List) bool {
	if l == nil {
		return false
	}
	if len(c.Intervals) == 0 && len(c.PickupWeekdays) == 0 && len(l.PickupWeekdays) > 0 {
		return true
	}
	if len(l.AppointmentDates) == 0 {
		return false
	}
	for _, a := range c.Appointments {
		if a.ListID != "" {
			return false
		}
	}
	return true
}

func sortOccurrences(occ []models.Occurrence) {
	slices.SortStableFunc(occ, func(a, b models.Occurrence) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.Kind.Rank() - b.Kind.Rank()
	})
}
