package models

import (
	"slices"
	"time"
)

type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	ListID  string `json:"list_id,omitempty"`

	Intervals          []Interval `json:"intervals"`
	DeliveryOffsetDays int        `json:"delivery_offset_days"`
	// Legacy weekday schedule, used only when Intervals is empty.
	PickupWeekdays []int `json:"pickup_weekdays,omitempty"`

	Appointments []Appointment       `json:"appointments,omitempty"`
	Shifts       []ShiftedOccurrence `json:"shifts,omitempty"`
	Deletions    []DeletedOccurrence `json:"deletions,omitempty"`
	Vacation     *Vacation           `json:"vacation,omitempty"`

	Pickup   Completion `json:"pickup"`
	Delivery Completion `json:"delivery"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type List struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	PickupWeekdays     []int      `json:"pickup_weekdays,omitempty"`
	CycleWeeks         int        `json:"cycle_weeks"`
	Anchor             *time.Time `json:"anchor,omitempty"`
	DeliveryOffsetDays int        `json:"delivery_offset_days"`
	// Pickup dates; every one also yields a delivery at +DeliveryOffsetDays.
	AppointmentDates []time.Time `json:"appointment_dates,omitempty"`
	Vacation         *Vacation   `json:"vacation,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

func (c Customer) Completion(kind OperationKind) Completion {
	if kind == OperationDelivery {
		return c.Delivery
	}
	return c.Pickup
}

func (c Customer) FindInterval(id string) (Interval, bool) {
	for _, iv := range c.Intervals {
		if iv.ID == id {
			return iv, true
		}
	}
	return Interval{}, false
}

// clone copies every slice so With* helpers never share backing arrays with the receiver.
func (c Customer) clone() Customer {
	out := c
	out.Intervals = slices.Clone(c.Intervals)
	out.PickupWeekdays = slices.Clone(c.PickupWeekdays)
	out.Appointments = slices.Clone(c.Appointments)
	out.Shifts = slices.Clone(c.Shifts)
	out.Deletions = slices.Clone(c.Deletions)
	if c.Vacation != nil {
		v := *c.Vacation
		out.Vacation = &v
	}
	return out
}

// WithInterval adds iv, or replaces the interval with the same id.
func (c Customer) WithInterval(iv Interval) Customer {
	out := c.clone()
	for i := range out.Intervals {
		if out.Intervals[i].ID == iv.ID {
			out.Intervals[i] = iv
			return out
		}
	}
	out.Intervals = append(out.Intervals, iv)
	return out
}

// WithShift records s. An existing shift of the same original occurrence is re-targeted.
func (c Customer) WithShift(s ShiftedOccurrence) Customer {
	out := c.clone()
	for i, cur := range out.Shifts {
		if cur.Kind == s.Kind && cur.IntervalID == s.IntervalID && cur.Original.Equal(s.Original) {
			out.Shifts[i] = s
			return out
		}
	}
	out.Shifts = append(out.Shifts, s)
	return out
}

func (c Customer) WithoutShift(original time.Time, kind OperationKind, intervalID string) Customer {
	out := c.clone()
	out.Shifts = slices.DeleteFunc(out.Shifts, func(s ShiftedOccurrence) bool {
		return s.Kind == kind && s.IntervalID == intervalID && s.Original.Equal(original)
	})
	return out
}

func (c Customer) WithDeletion(d DeletedOccurrence) Customer {
	out := c.clone()
	for _, cur := range out.Deletions {
		if cur.Kind == d.Kind && cur.Date.Equal(d.Date) {
			return out
		}
	}
	out.Deletions = append(out.Deletions, d)
	return out
}

func (c Customer) WithoutDeletion(date time.Time, kind OperationKind) Customer {
	out := c.clone()
	out.Deletions = slices.DeleteFunc(out.Deletions, func(d DeletedOccurrence) bool {
		return d.Kind == kind && d.Date.Equal(date)
	})
	return out
}

func (c Customer) WithCompletion(kind OperationKind, comp Completion) Customer {
	out := c.clone()
	if kind == OperationDelivery {
		out.Delivery = comp
	} else {
		out.Pickup = comp
	}
	return out
}

// WithVacation sets or (nil) clears the vacation range.
func (c Customer) WithVacation(v *Vacation) Customer {
	out := c.clone()
	if v == nil {
		out.Vacation = nil
		return out
	}
	vv := *v
	out.Vacation = &vv
	return out
}
