package tours

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/BearBump/TourBox/internal/broker/messages"
	"github.com/BearBump/TourBox/internal/models"
	"github.com/BearBump/TourBox/internal/services/schedule"
)

// SaveCustomer creates or replaces a customer snapshot.
func (s *Service) SaveCustomer(ctx context.Context, c models.Customer) (models.Customer, error) {
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		c.ID = s.newID()
	}
	if strings.TrimSpace(c.Name) == "" {
		return models.Customer{}, models.Invalid("name is required")
	}
	if c.DeliveryOffsetDays < 0 {
		return models.Customer{}, models.Invalid("deliveryOffsetDays must not be negative")
	}
	// Own the slice; the caller's intervals stay untouched even on error.
	c.Intervals = slices.Clone(c.Intervals)
	for i, iv := range c.Intervals {
		checked, err := s.checkInterval(iv)
		if err != nil {
			return models.Customer{}, err
		}
		c.Intervals[i] = checked
	}
	if err := s.repo.SaveCustomer(ctx, c); err != nil {
		return models.Customer{}, err
	}
	s.afterMutation(ctx, c, messages.ChangeInterval)
	return c, nil
}

func (s *Service) SaveList(ctx context.Context, l models.List) (models.List, error) {
	l.ID = strings.TrimSpace(l.ID)
	if l.ID == "" {
		l.ID = s.newID()
	}
	if strings.TrimSpace(l.Name) == "" {
		return models.List{}, models.Invalid("name is required")
	}
	if l.CycleWeeks < 0 || l.DeliveryOffsetDays < 0 {
		return models.List{}, models.Invalid("cycleWeeks and deliveryOffsetDays must not be negative")
	}
	if err := s.repo.SaveList(ctx, l); err != nil {
		return models.List{}, err
	}
	// List members may have list-derived timelines cached anywhere.
	s.engine.InvalidateAll()
	s.bumpGeneration(ctx)
	s.publish(ctx, messages.CustomerChanged{ListID: l.ID, Change: messages.ChangeInterval, ChangedAt: time.Now().UTC()})
	return l, nil
}

func (s *Service) AddInterval(ctx context.Context, customerID string, iv models.Interval) (models.Interval, error) {
	iv, err := s.checkInterval(iv)
	if err != nil {
		return models.Interval{}, err
	}
	_, err = s.mutate(ctx, customerID, messages.ChangeInterval, func(c models.Customer) (models.Customer, error) {
		return c.WithInterval(iv), nil
	})
	if err != nil {
		return models.Interval{}, err
	}
	return iv, nil
}

func (s *Service) checkInterval(iv models.Interval) (models.Interval, error) {
	switch iv.Kind {
	case models.RuleOneOff:
		if iv.PickupAnchor == nil && iv.DeliveryAnchor == nil {
			return iv, models.Invalid("one-off interval needs a pickup or delivery anchor")
		}
	case models.RuleFixedCycle:
		if iv.Cycle == nil {
			return iv, models.Invalid("fixed-cycle interval needs a cycle")
		}
		if iv.PickupAnchor == nil && iv.DeliveryAnchor == nil {
			return iv, models.Invalid("fixed-cycle interval needs a pickup or delivery anchor")
		}
	case models.RuleMonthlyWeekday:
		if iv.Monthly == nil {
			return iv, models.Invalid("monthly interval needs week and weekday")
		}
	default:
		return iv, models.Invalid("unknown interval kind")
	}
	if iv.ID == "" {
		iv.ID = s.newID()
	}
	if iv.CreatedAt.IsZero() {
		iv.CreatedAt = time.Now().UTC()
	}
	return iv.Normalized(), nil
}

// ShiftOccurrence moves the occurrence identified by its original date. Shifting
// back onto the original removes the shift.
func (s *Service) ShiftOccurrence(ctx context.Context, customerID string, shift models.ShiftedOccurrence) error {
	if !shift.Kind.Valid() {
		return models.Invalid("kind must be PICKUP or DELIVERY")
	}
	if shift.Original.IsZero() || shift.New.IsZero() {
		return models.Invalid("original and new dates are required")
	}
	clock := s.engine.Clock()
	shift.Original = clock.Day(shift.Original)
	shift.New = clock.Day(shift.New)

	_, err := s.mutate(ctx, customerID, messages.ChangeShift, func(c models.Customer) (models.Customer, error) {
		if shift.IntervalID != "" && shift.IntervalID != schedule.WeekdayFallbackID {
			if _, ok := c.FindInterval(shift.IntervalID); !ok {
				return c, models.Invalid("unknown interval " + shift.IntervalID)
			}
		}
		if shift.New.Equal(shift.Original) {
			return c.WithoutShift(shift.Original, shift.Kind, shift.IntervalID), nil
		}
		return c.WithShift(shift), nil
	})
	return err
}

func (s *Service) UndoShift(ctx context.Context, customerID string, original time.Time, kind models.OperationKind, intervalID string) error {
	if !kind.Valid() || original.IsZero() {
		return models.Invalid("original date and kind are required")
	}
	day := s.engine.Clock().Day(original)
	_, err := s.mutate(ctx, customerID, messages.ChangeShift, func(c models.Customer) (models.Customer, error) {
		return c.WithoutShift(day, kind, intervalID), nil
	})
	return err
}

// DeleteOccurrence cancels the occurrence whose final date is date. An empty
// kind cancels both kinds.
func (s *Service) DeleteOccurrence(ctx context.Context, customerID string, date time.Time, kind models.OperationKind) error {
	if date.IsZero() || (kind != "" && !kind.Valid()) {
		return models.Invalid("date is required and kind must be PICKUP, DELIVERY or empty")
	}
	day := s.engine.Clock().Day(date)
	_, err := s.mutate(ctx, customerID, messages.ChangeDeletion, func(c models.Customer) (models.Customer, error) {
		return c.WithDeletion(models.DeletedOccurrence{Date: day, Kind: kind}), nil
	})
	return err
}

func (s *Service) RestoreOccurrence(ctx context.Context, customerID string, date time.Time, kind models.OperationKind) error {
	if date.IsZero() {
		return models.Invalid("date is required")
	}
	day := s.engine.Clock().Day(date)
	_, err := s.mutate(ctx, customerID, messages.ChangeDeletion, func(c models.Customer) (models.Customer, error) {
		return c.WithoutDeletion(day, kind), nil
	})
	return err
}

// MarkComplete stores the completion instant; zero means now.
func (s *Service) MarkComplete(ctx context.Context, customerID string, kind models.OperationKind, at time.Time) error {
	if !kind.Valid() {
		return models.Invalid("kind must be PICKUP or DELIVERY")
	}
	if at.IsZero() {
		at = s.engine.Clock().Now()
	}
	_, err := s.mutate(ctx, customerID, messages.ChangeCompletion, func(c models.Customer) (models.Customer, error) {
		return c.WithCompletion(kind, models.Completion{Done: true, At: &at}), nil
	})
	return err
}

func (s *Service) ResetCompletion(ctx context.Context, customerID string, kind models.OperationKind) error {
	if !kind.Valid() {
		return models.Invalid("kind must be PICKUP or DELIVERY")
	}
	_, err := s.mutate(ctx, customerID, messages.ChangeCompletion, func(c models.Customer) (models.Customer, error) {
		return c.WithCompletion(kind, models.Completion{}), nil
	})
	return err
}

// SetVacation sets the inclusive vacation range; nil clears it.
func (s *Service) SetVacation(ctx context.Context, customerID string, v *models.Vacation) error {
	if v != nil {
		if v.From.IsZero() || v.To.IsZero() {
			return models.Invalid("vacation needs from and to")
		}
		clock := s.engine.Clock()
		v = &models.Vacation{From: clock.Day(v.From), To: clock.Day(v.To)}
		if v.To.Before(v.From) {
			return models.Invalid("vacation ends before it starts")
		}
	}
	_, err := s.mutate(ctx, customerID, messages.ChangeVacation, func(c models.Customer) (models.Customer, error) {
		return c.WithVacation(v), nil
	})
	return err
}

func (s *Service) mutate(ctx context.Context, customerID, change string, fn func(models.Customer) (models.Customer, error)) (models.Customer, error) {
	if customerID == "" {
		return models.Customer{}, models.Invalid("customer id is required")
	}
	c, err := s.repo.UpdateCustomer(ctx, customerID, fn)
	if err != nil {
		return models.Customer{}, err
	}
	s.afterMutation(ctx, c, change)
	return c, nil
}

// afterMutation drops every derived view of c. The write is already committed,
// so failures here are logged only.
func (s *Service) afterMutation(ctx context.Context, c models.Customer, change string) {
	s.engine.Invalidate(c.ID)
	s.bumpGeneration(ctx)
	s.publish(ctx, messages.CustomerChanged{
		CustomerID: c.ID,
		ListID:     c.ListID,
		Change:     change,
		ChangedAt:  time.Now().UTC(),
	})
}

func (s *Service) bumpGeneration(ctx context.Context) {
	if s.cache == nil {
		return
	}
	n, err := s.cache.Incr(ctx, generationKey)
	if err != nil {
		slog.Error("bump day view generation", "error", err.Error())
		return
	}
	s.ownBump(n)
}

func (s *Service) publish(ctx context.Context, msg messages.CustomerChanged) {
	if s.producer == nil || s.topic == "" {
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal customer changed", "error", err.Error())
		return
	}
	key := msg.CustomerID
	if key == "" {
		key = msg.ListID
	}
	if err := s.producer.Publish(ctx, s.topic, []byte(key), b); err != nil {
		slog.Error("publish customer changed", "customer_id", msg.CustomerID, "change", msg.Change, "error", err.Error())
	}
}
