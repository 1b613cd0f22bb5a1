package tours_api

import (
	"time"

	"github.com/BearBump/TourBox/internal/calendar"
	"github.com/BearBump/TourBox/internal/models"
)

type occurrenceDTO struct {
	Date       string `json:"date"`
	Kind       string `json:"kind"`
	IntervalID string `json:"interval_id,omitempty"`
	Source     string `json:"source"`
	Shifted    bool   `json:"shifted"`
	Original   string `json:"original,omitempty"`
}

func toOccurrenceDTO(o models.Occurrence) occurrenceDTO {
	out := occurrenceDTO{
		Date:       calendar.Key(o.Date),
		Kind:       string(o.Kind),
		IntervalID: o.IntervalID,
		Source:     string(o.Source),
		Shifted:    o.Shifted,
	}
	if o.Original != nil {
		out.Original = calendar.Key(*o.Original)
	}
	return out
}

type statusDTO struct {
	CustomerID   string `json:"customer_id"`
	OverdueToday bool   `json:"overdue_today"`
	NextDue      string `json:"next_due,omitempty"`
}

type intervalDTO struct {
	ID             string `json:"id"`
	Kind           string `json:"kind"`
	PickupAnchor   string `json:"pickup_anchor"`
	DeliveryAnchor string `json:"delivery_anchor"`
	CycleDays      int    `json:"cycle_days"`
	RepeatCount    int    `json:"repeat_count"`
	Week           int    `json:"week"`
	Weekday        int    `json:"weekday"`
}

func (in intervalDTO) toModel(clock calendar.Clock) (models.Interval, error) {
	iv := models.Interval{ID: in.ID, Kind: models.RuleKind(in.Kind)}
	for _, a := range []struct {
		raw   string
		field string
		dst   **time.Time
	}{
		{in.PickupAnchor, "pickup_anchor", &iv.PickupAnchor},
		{in.DeliveryAnchor, "delivery_anchor", &iv.DeliveryAnchor},
	} {
		if a.raw == "" {
			continue
		}
		t, err := clock.Parse(a.raw)
		if err != nil {
			return iv, models.Invalid(a.field + " must be YYYY-MM-DD")
		}
		*a.dst = &t
	}
	switch iv.Kind {
	case models.RuleFixedCycle:
		iv.Cycle = &models.CycleRule{Days: in.CycleDays, RepeatCount: in.RepeatCount}
	case models.RuleMonthlyWeekday:
		iv.Monthly = &models.MonthlyRule{Week: models.WeekOfMonth(in.Week), Weekday: in.Weekday}
	}
	return iv, nil
}

type shiftDTO struct {
	Original   string `json:"original"`
	New        string `json:"new"`
	Kind       string `json:"kind"`
	IntervalID string `json:"interval_id"`
}

type deletionDTO struct {
	Date string `json:"date"`
	Kind string `json:"kind"`
}

type completionDTO struct {
	Kind string    `json:"kind"`
	At   time.Time `json:"at"`
}

type vacationDTO struct {
	From string `json:"from"`
	To   string `json:"to"`
}
