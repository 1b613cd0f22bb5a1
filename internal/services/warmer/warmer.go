package warmer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/TourBox/internal/calendar"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// DefaultRolloverSpec fires shortly after midnight in the business timezone.
const DefaultRolloverSpec = "5 0 * * *"

type DayViews interface {
	WarmDayView(ctx context.Context, viewed time.Time) (bool, error)
	Rollover(ctx context.Context)
}

// Warmer keeps the shared day views for today and the next days computed.
type Warmer struct {
	views DayViews
	clock calendar.Clock

	pollInterval time.Duration
	horizonDays  int
	concurrency  int
	rolloverSpec string

	triggerCh chan struct{}

	startedAtUnixNano    int64
	lastCycleUnixNano    atomic.Int64
	lastTriggerUnixNano  atomic.Int64
	lastRolloverUnixNano atomic.Int64
	totalComputed        atomic.Int64
	totalHits            atomic.Int64
	totalErrors          atomic.Int64
	totalRollovers       atomic.Int64
	inFlight             atomic.Int64
	lastErrorMu          sync.Mutex
	lastError            string
}

func New(views DayViews, clock calendar.Clock) *Warmer {
	return &Warmer{
		views:             views,
		clock:             clock,
		pollInterval:      60 * time.Second,
		horizonDays:       7,
		concurrency:       4,
		rolloverSpec:      DefaultRolloverSpec,
		triggerCh:         make(chan struct{}, 1),
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (w *Warmer) WithSettings(pollInterval time.Duration, horizonDays, concurrency int, rolloverSpec string) *Warmer {
	if pollInterval > 0 {
		w.pollInterval = pollInterval
	}
	if horizonDays > 0 {
		w.horizonDays = horizonDays
	}
	if concurrency > 0 {
		w.concurrency = concurrency
	}
	if rolloverSpec != "" {
		w.rolloverSpec = rolloverSpec
	}
	return w
}

// Trigger forces an immediate warm cycle (best-effort, non-blocking).
func (w *Warmer) Trigger() {
	w.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt      time.Time  `json:"startedAt"`
	LastCycleAt    *time.Time `json:"lastCycleAt,omitempty"`
	LastTriggerAt  *time.Time `json:"lastTriggerAt,omitempty"`
	LastRolloverAt *time.Time `json:"lastRolloverAt,omitempty"`
	TotalComputed  int64      `json:"totalComputed"`
	TotalHits      int64      `json:"totalHits"`
	TotalErrors    int64      `json:"totalErrors"`
	TotalRollovers int64      `json:"totalRollovers"`
	InFlight       int64      `json:"inFlight"`
	LastError      string     `json:"lastError,omitempty"`
}

func unixPtr(n int64) *time.Time {
	if n <= 0 {
		return nil
	}
	t := time.Unix(0, n).UTC()
	return &t
}

func (w *Warmer) Stats() Stats {
	st := Stats{
		StartedAt:      time.Unix(0, w.startedAtUnixNano).UTC(),
		LastCycleAt:    unixPtr(w.lastCycleUnixNano.Load()),
		LastTriggerAt:  unixPtr(w.lastTriggerUnixNano.Load()),
		LastRolloverAt: unixPtr(w.lastRolloverUnixNano.Load()),
		TotalComputed:  w.totalComputed.Load(),
		TotalHits:      w.totalHits.Load(),
		TotalErrors:    w.totalErrors.Load(),
		TotalRollovers: w.totalRollovers.Load(),
		InFlight:       w.inFlight.Load(),
	}
	w.lastErrorMu.Lock()
	st.LastError = w.lastError
	w.lastErrorMu.Unlock()
	return st
}

// Run warms once immediately, then on every tick or trigger. The rollover
// schedule runs in the business timezone until ctx is done.
func (w *Warmer) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(w.clock.Location))
	if _, err := c.AddFunc(w.rolloverSpec, func() { w.Rollover(ctx) }); err != nil {
		return errors.Wrapf(err, "rollover schedule %q", w.rolloverSpec)
	}
	c.Start()
	defer c.Stop()

	t := time.NewTicker(w.pollInterval)
	defer t.Stop()

	w.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			w.runOnce(ctx)
		case <-w.triggerCh:
			w.runOnce(ctx)
		}
	}
}

// Rollover drops every timeline built around the previous day and schedules
// a warm cycle for the new one.
func (w *Warmer) Rollover(ctx context.Context) {
	slog.Info("day rollover", "today", calendar.Key(w.clock.Today()))
	w.lastRolloverUnixNano.Store(time.Now().UTC().UnixNano())
	w.totalRollovers.Add(1)
	w.views.Rollover(ctx)
	w.Trigger()
}

func (w *Warmer) runOnce(ctx context.Context) {
	w.lastCycleUnixNano.Store(time.Now().UTC().UnixNano())
	today := w.clock.Today()

	sem := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup
	for i := 0; i < w.horizonDays; i++ {
		if ctx.Err() != nil {
			break
		}
		day := calendar.AddDays(today, i)
		sem <- struct{}{}
		wg.Add(1)
		w.inFlight.Add(1)
		go func() {
			defer func() {
				w.inFlight.Add(-1)
				<-sem
				wg.Done()
			}()
			computed, err := w.views.WarmDayView(ctx, day)
			if err != nil {
				w.totalErrors.Add(1)
				w.lastErrorMu.Lock()
				w.lastError = err.Error()
				w.lastErrorMu.Unlock()
				slog.Error("warm day view", "day", calendar.Key(day), "error", err.Error())
				return
			}
			if computed {
				w.totalComputed.Add(1)
			} else {
				w.totalHits.Add(1)
			}
		}()
	}
	wg.Wait()
}
