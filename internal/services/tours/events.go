package tours

import (
	"context"
	"time"

	"github.com/BearBump/TourBox/internal/broker/messages"
	"github.com/BearBump/TourBox/internal/models"
)

// ApplyChangeEvent drops this process's cached timelines for a change made
// elsewhere and bumps the shared day-view generation once more, so views
// computed from the old timeline before the event arrived are not served.
func (s *Service) ApplyChangeEvent(ctx context.Context, msg messages.CustomerChanged) error {
	switch {
	case msg.Change == messages.ChangeRollover:
		s.engine.InvalidateAll()
	case msg.CustomerID != "":
		s.engine.Invalidate(msg.CustomerID)
	case msg.ListID != "":
		s.engine.InvalidateAll()
	default:
		return models.Invalid("customer_id or list_id is required")
	}
	s.bumpGeneration(ctx)
	return nil
}

// Rollover runs once the business day changed: timelines are rebuilt around
// the new today and every process is told to do the same.
func (s *Service) Rollover(ctx context.Context) {
	s.engine.InvalidateAll()
	s.bumpGeneration(ctx)
	s.publish(ctx, messages.CustomerChanged{Change: messages.ChangeRollover, ChangedAt: time.Now().UTC()})
}
