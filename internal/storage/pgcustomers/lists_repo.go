package pgcustomers

import (
	"context"
	"time"

	"github.com/BearBump/TourBox/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const listColumns = `
  id, name, pickup_weekdays, cycle_weeks, anchor,
  delivery_offset_days, appointment_dates, vacation,
  created_at, updated_at`

func scanList(row pgx.Row) (models.List, error) {
	var (
		l                         models.List
		weekdays, appts, vacation []byte
	)
	if err := row.Scan(
		&l.ID, &l.Name, &weekdays, &l.CycleWeeks, &l.Anchor,
		&l.DeliveryOffsetDays, &appts, &vacation,
		&l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return models.List{}, err
	}
	if err := fromJSON(weekdays, &l.PickupWeekdays); err != nil {
		return models.List{}, err
	}
	if err := fromJSON(appts, &l.AppointmentDates); err != nil {
		return models.List{}, err
	}
	if err := fromJSON(vacation, &l.Vacation); err != nil {
		return models.List{}, err
	}
	return l, nil
}

func (s *Storage) ListLists(ctx context.Context) ([]models.List, error) {
	rows, err := s.db.Query(ctx, `SELECT`+listColumns+` FROM tour_lists ORDER BY name, id`)
	if err != nil {
		return nil, errors.Wrap(err, "select lists")
	}
	defer rows.Close()

	out := make([]models.List, 0)
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan list")
		}
		out = append(out, l)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) GetList(ctx context.Context, id string) (*models.List, error) {
	l, err := scanList(s.db.QueryRow(ctx, `SELECT`+listColumns+` FROM tour_lists WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select list")
	}
	return &l, nil
}

func (s *Storage) SaveList(ctx context.Context, l models.List) error {
	weekdays, err := jsonCol(l.PickupWeekdays)
	if err != nil {
		return err
	}
	appts, err := jsonCol(l.AppointmentDates)
	if err != nil {
		return err
	}
	vacation, err := jsonPtrCol(l.Vacation)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	created := l.CreatedAt
	if created.IsZero() {
		created = now
	}
	cycle := l.CycleWeeks
	if cycle < 1 {
		cycle = 1
	}

	_, err = s.db.Exec(ctx, `
INSERT INTO tour_lists (
  id, name, pickup_weekdays, cycle_weeks, anchor,
  delivery_offset_days, appointment_dates, vacation,
  created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name,
  pickup_weekdays = EXCLUDED.pickup_weekdays,
  cycle_weeks = EXCLUDED.cycle_weeks,
  anchor = EXCLUDED.anchor,
  delivery_offset_days = EXCLUDED.delivery_offset_days,
  appointment_dates = EXCLUDED.appointment_dates,
  vacation = EXCLUDED.vacation,
  updated_at = EXCLUDED.updated_at
`, l.ID, l.Name, weekdays, cycle, l.Anchor, l.DeliveryOffsetDays, appts, vacation, created, now)
	return errors.Wrap(err, "upsert list")
}
