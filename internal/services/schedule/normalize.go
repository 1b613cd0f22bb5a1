package schedule

import (
	"time"

	"github.com/BearBump/TourBox/internal/models"
)

// normalizeCustomer returns a deep copy with every date moved to its business day.
func (e *Engine) normalizeCustomer(c models.Customer) models.Customer {
	day := e.clock.Day
	out := c
	out.CreatedAt = day(c.CreatedAt)

	out.Intervals = make([]models.Interval, len(c.Intervals))
	for i, iv := range c.Intervals {
		iv = iv.Normalized()
		iv.PickupAnchor = e.dayPtr(iv.PickupAnchor)
		iv.DeliveryAnchor = e.dayPtr(iv.DeliveryAnchor)
		iv.CreatedAt = day(iv.CreatedAt)
		out.Intervals[i] = iv
	}
	if len(c.Intervals) == 0 {
		out.Intervals = nil
	}

	out.Appointments = make([]models.Appointment, len(c.Appointments))
	for i, a := range c.Appointments {
		a.Date = day(a.Date)
		out.Appointments[i] = a
	}
	out.Shifts = make([]models.ShiftedOccurrence, len(c.Shifts))
	for i, s := range c.Shifts {
		s.Original = day(s.Original)
		s.New = day(s.New)
		out.Shifts[i] = s
	}
	out.Deletions = make([]models.DeletedOccurrence, len(c.Deletions))
	for i, d := range c.Deletions {
		d.Date = day(d.Date)
		out.Deletions[i] = d
	}

	out.Vacation = e.normalizeVacation(c.Vacation)
	out.Pickup.At = e.dayPtr(c.Pickup.At)
	out.Delivery.At = e.dayPtr(c.Delivery.At)
	return out
}

func (e *Engine) normalizeList(l *models.List) *models.List {
	if l == nil {
		return nil
	}
	out := *l
	out.Anchor = e.dayPtr(l.Anchor)
	out.AppointmentDates = make([]time.Time, len(l.AppointmentDates))
	for i, d := range l.AppointmentDates {
		out.AppointmentDates[i] = e.clock.Day(d)
	}
	out.Vacation = e.normalizeVacation(l.Vacation)
	return &out
}

func (e *Engine) normalizeVacation(v *models.Vacation) *models.Vacation {
	if v == nil {
		return nil
	}
	return &models.Vacation{From: e.clock.Day(v.From), To: e.clock.Day(v.To)}
}

func (e *Engine) dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := e.clock.Day(*t)
	return &d
}
