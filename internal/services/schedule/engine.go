package schedule

import (
	"time"

	"github.com/BearBump/TourBox/internal/cache/occurrences"
	"github.com/BearBump/TourBox/internal/calendar"
	"github.com/BearBump/TourBox/internal/models"
)

const (
	// DefaultLookbackDays is how far back overdue occurrences are searched.
	DefaultLookbackDays = 60
	// DefaultHorizonDays is the length of the cached timeline after today.
	DefaultHorizonDays = 365

	membershipBackDays = 7
	membershipDays     = 14
)

// Engine computes occurrences and day views from immutable snapshots.
// It performs no I/O and is safe for concurrent use.
type Engine struct {
	clock    calendar.Clock
	cache    *occurrences.Cache
	lookback int
	horizon  int
}

func NewEngine(clock calendar.Clock, cache *occurrences.Cache) *Engine {
	if cache == nil {
		cache = occurrences.New()
	}
	return &Engine{
		clock:    clock,
		cache:    cache,
		lookback: DefaultLookbackDays,
		horizon:  DefaultHorizonDays,
	}
}

func (e *Engine) WithSettings(lookbackDays, horizonDays int) *Engine {
	if lookbackDays > 0 {
		e.lookback = lookbackDays
	}
	if horizonDays > 0 {
		e.horizon = horizonDays
	}
	return e
}

func (e *Engine) Clock() calendar.Clock {
	return e.clock
}

func (e *Engine) Today() time.Time {
	return e.clock.Today()
}

func (e *Engine) Invalidate(customerID string) {
	e.cache.Invalidate(customerID)
}

func (e *Engine) InvalidateAll() {
	e.cache.InvalidateAll()
}

func (e *Engine) CacheSize() int {
	return e.cache.Len()
}

// Occurrences expands the customer's timeline over [windowStart, windowStart+daysAhead).
func (e *Engine) Occurrences(c models.Customer, l *models.List, windowStart time.Time, daysAhead int) []models.Occurrence {
	nc, nl := e.normalizeCustomer(c), e.normalizeList(l)
	return e.occurrencesIn(nc, nl, NewWindow(e.clock.Day(windowStart), daysAhead))
}

// HasOccurrence checks a single date through a small window around it.
func (e *Engine) HasOccurrence(c models.Customer, l *models.List, date time.Time, kind models.OperationKind) bool {
	day := e.clock.Day(date)
	w := NewWindow(calendar.AddDays(day, -membershipBackDays), membershipDays)
	for _, o := range aggregate(e.normalizeCustomer(c), e.normalizeList(l), w) {
		if o.Kind == kind && o.Date.Equal(day) {
			return true
		}
	}
	return false
}

// Timeline returns the customer's occurrences over [today-lookback, today+horizon).
// Customer-only timelines are served from the cache.
func (e *Engine) Timeline(c models.Customer, l *models.List) []models.Occurrence {
	nc, nl := e.normalizeCustomer(c), e.normalizeList(l)
	return e.timeline(nc, nl, e.clock.Today())
}

// IsOverdueToday reports whether any occurrence within the lookback is overdue.
func (e *Engine) IsOverdueToday(c models.Customer, l *models.List) bool {
	nc, nl := e.normalizeCustomer(c), e.normalizeList(l)
	today := e.clock.Today()
	w := NewWindow(calendar.AddDays(today, -e.lookback), e.lookback)
	for _, o := range e.occurrencesIn(nc, nl, w) {
		if onVacation(nc, nl, o.Date) {
			continue
		}
		if IsOverdue(o.Date, today, IsComplete(nc, o.Kind, o.Date)) {
			return true
		}
	}
	return false
}

// NextDueDate returns the earliest open occurrence: the oldest overdue one if
// any, otherwise the next one from today on.
func (e *Engine) NextDueDate(c models.Customer, l *models.List) (time.Time, bool) {
	nc, nl := e.normalizeCustomer(c), e.normalizeList(l)
	today := e.clock.Today()
	for _, o := range e.timeline(nc, nl, today) {
		if onVacation(nc, nl, o.Date) || IsComplete(nc, o.Kind, o.Date) {
			continue
		}
		return o.Date, true
	}
	return time.Time{}, false
}

func (e *Engine) timelineWindow(today time.Time) Window {
	return NewWindow(calendar.AddDays(today, -e.lookback), e.lookback+e.horizon)
}

func (e *Engine) timeline(c models.Customer, l *models.List, today time.Time) []models.Occurrence {
	w := e.timelineWindow(today)
	if listContributes(c, l) {
		return aggregate(c, l, w)
	}
	if c.ID != "" {
		if items, ok := e.cache.Get(c.ID, w.Start); ok {
			return items
		}
	}
	items := aggregate(c, l, w)
	if c.ID != "" {
		e.cache.Put(c.ID, w.Start, items)
	}
	return items
}

// occurrencesIn filters the cached timeline when w fits inside it.
func (e *Engine) occurrencesIn(c models.Customer, l *models.List, w Window) []models.Occurrence {
	today := e.clock.Today()
	if listContributes(c, l) || !e.timelineWindow(today).Covers(w) {
		return aggregate(c, l, w)
	}
	var out []models.Occurrence
	for _, o := range e.timeline(c, l, today) {
		if w.Contains(o.Date) {
			out = append(out, o)
		}
	}
	return out
}

func onVacation(c models.Customer, l *models.List, day time.Time) bool {
	if c.Vacation.Contains(day) {
		return true
	}
	return l != nil && l.Vacation.Contains(day)
}
