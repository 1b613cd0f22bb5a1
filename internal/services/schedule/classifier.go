package schedule

import (
	"time"

	"github.com/BearBump/TourBox/internal/models"
)

// Overdue and completion rules. Both the list-grouped and the ungrouped paths
// of the day projection go through these functions only.

// completionDay returns the normalized day the kind was completed on.
func completionDay(c models.Customer, kind models.OperationKind) (time.Time, bool) {
	comp := c.Completion(kind)
	if !comp.Done || comp.At == nil || comp.At.IsZero() {
		return time.Time{}, false
	}
	return *comp.At, true
}

// IsComplete reports whether the occurrence of kind due on due is done:
// the kind is marked done and was completed on or after the due day.
func IsComplete(c models.Customer, kind models.OperationKind, due time.Time) bool {
	day, ok := completionDay(c, kind)
	return ok && !day.Before(due)
}

// CompletedOn reports whether kind was completed exactly on day.
func CompletedOn(c models.Customer, kind models.OperationKind, day time.Time) bool {
	d, ok := completionDay(c, kind)
	return ok && d.Equal(day)
}

func IsOverdue(due, today time.Time, complete bool) bool {
	return due.Before(today) && !complete
}

// ShouldShowOverdue decides whether an overdue occurrence appears on viewed:
// on its own due day, or on today. Never on the days in between.
func ShouldShowOverdue(due, viewed, today time.Time) bool {
	if viewed.Equal(due) {
		return true
	}
	return viewed.Equal(today) && due.Before(today)
}

// IsDayCompleted applies the completion rule to the kinds relevant on viewed.
// Every relevant kind has to be completed on viewed. A past day also counts as
// done when any relevant kind was completed exactly on it.
func IsDayCompleted(c models.Customer, viewed, today time.Time, relevant []models.OperationKind) bool {
	if len(relevant) == 0 {
		return false
	}
	if viewed.Before(today) {
		for _, k := range relevant {
			if CompletedOn(c, k, viewed) {
				return true
			}
		}
	}
	for _, k := range relevant {
		if !CompletedOn(c, k, viewed) {
			return false
		}
	}
	return true
}
