package schedule

import (
	"time"

	"github.com/BearBump/TourBox/internal/calendar"
	"github.com/BearBump/TourBox/internal/models"
)

// overrides resolves a customer's shifts and deletions against raw candidates.
// All dates must already be normalized business days.
type overrides struct {
	shifts    []models.ShiftedOccurrence
	deletions []models.DeletedOccurrence
}

func newOverrides(c models.Customer) overrides {
	return overrides{shifts: c.Shifts, deletions: c.Deletions}
}

// shift looks up a shift by original date. A shift scoped to the interval wins
// over an unscoped one.
func (o overrides) shift(original time.Time, kind models.OperationKind, intervalID string) (models.ShiftedOccurrence, bool) {
	var fallback *models.ShiftedOccurrence
	for i := range o.shifts {
		s := o.shifts[i]
		if s.Kind != kind || !s.Original.Equal(original) {
			continue
		}
		if s.IntervalID == intervalID {
			return s, true
		}
		if s.IntervalID == "" && fallback == nil {
			fallback = &o.shifts[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return models.ShiftedOccurrence{}, false
}

func (o overrides) deleted(final time.Time, kind models.OperationKind) bool {
	for _, d := range o.deletions {
		if (d.Kind == "" || d.Kind == kind) && d.Date.Equal(final) {
			return true
		}
	}
	return false
}

// resolve applies shift then deletion to one raw candidate.
// ok is false when the final date is cancelled.
func (o overrides) resolve(raw time.Time, kind models.OperationKind, intervalID string, src models.OccurrenceSource) (models.Occurrence, bool) {
	occ := models.Occurrence{Date: raw, Kind: kind, IntervalID: intervalID, Source: src}
	if s, found := o.shift(raw, kind, intervalID); found && !s.New.IsZero() && !s.New.Equal(raw) {
		orig := raw
		occ.Date = s.New
		occ.Shifted = true
		occ.Original = &orig
	}
	if o.deleted(occ.Date, kind) {
		return models.Occurrence{}, false
	}
	return occ, true
}

// shiftReach widens [lo, hi) so raw candidates shifted into the window from
// outside it are still generated.
func (o overrides) shiftReach(w Window, kind models.OperationKind, intervalID string) (lo, hi time.Time) {
	lo, hi = w.Start, w.End
	for _, s := range o.shifts {
		if s.Kind != kind || (s.IntervalID != "" && s.IntervalID != intervalID) {
			continue
		}
		if !w.Contains(s.New) {
			continue
		}
		if s.Original.Before(lo) {
			lo = s.Original
		}
		if !s.Original.Before(hi) {
			hi = calendar.AddDays(s.Original, 1)
		}
	}
	return lo, hi
}
