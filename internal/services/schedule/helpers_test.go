package schedule

import (
	"time"

	"github.com/BearBump/TourBox/internal/cache/occurrences"
	"github.com/BearBump/TourBox/internal/calendar"
	"github.com/BearBump/TourBox/internal/models"
)

var berlin = calendar.LoadLocation("Europe/Berlin")

func d(m time.Month, day int) time.Time {
	return time.Date(2024, m, day, 0, 0, 0, 0, berlin)
}

func ptr(t time.Time) *time.Time {
	return &t
}

func newTestEngine(today time.Time) *Engine {
	clock := calendar.NewClock(berlin)
	clock.Now = func() time.Time { return today.Add(9 * time.Hour) }
	return NewEngine(clock, occurrences.New())
}

func keys(occ []models.Occurrence) []string {
	out := make([]string, 0, len(occ))
	for _, o := range occ {
		out = append(out, calendar.Key(o.Date))
	}
	return out
}

func keysOf(occ []models.Occurrence, kind models.OperationKind) []string {
	var filtered []models.Occurrence
	for _, o := range occ {
		if o.Kind == kind {
			filtered = append(filtered, o)
		}
	}
	return keys(filtered)
}

func weeklyCustomer() models.Customer {
	return models.Customer{
		ID:   "c1",
		Name: "Weekly",
		Intervals: []models.Interval{{
			ID:           "iv1",
			Kind:         models.RuleFixedCycle,
			PickupAnchor: ptr(d(time.January, 1)),
			Cycle:        &models.CycleRule{Days: 7},
		}},
	}
}

func oneOff(id string, pickup time.Time) models.Interval {
	return models.Interval{ID: id, Kind: models.RuleOneOff, PickupAnchor: ptr(pickup)}
}

func doneAt(t time.Time) models.Completion {
	at := t.Add(15 * time.Hour)
	return models.Completion{Done: true, At: &at}
}
