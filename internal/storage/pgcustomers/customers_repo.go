package pgcustomers

import (
	"context"
	"time"

	"github.com/BearBump/TourBox/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const customerColumns = `
  id, name, address, phone, list_id,
  intervals, delivery_offset_days, pickup_weekdays,
  appointments, shifts, deletions, vacation,
  pickup, delivery,
  created_at, updated_at`

func scanCustomer(row pgx.Row) (models.Customer, error) {
	var (
		c                                        models.Customer
		listID                                   *string
		intervals, weekdays, appts, shifts, dels []byte
		vacation, pickup, delivery               []byte
	)
	if err := row.Scan(
		&c.ID, &c.Name, &c.Address, &c.Phone, &listID,
		&intervals, &c.DeliveryOffsetDays, &weekdays,
		&appts, &shifts, &dels, &vacation,
		&pickup, &delivery,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return models.Customer{}, err
	}
	if listID != nil {
		c.ListID = *listID
	}
	for _, f := range []struct {
		b   []byte
		dst any
	}{
		{intervals, &c.Intervals},
		{weekdays, &c.PickupWeekdays},
		{appts, &c.Appointments},
		{shifts, &c.Shifts},
		{dels, &c.Deletions},
		{vacation, &c.Vacation},
		{pickup, &c.Pickup},
		{delivery, &c.Delivery},
	} {
		if err := fromJSON(f.b, f.dst); err != nil {
			return models.Customer{}, errors.Wrapf(err, "customer %s", c.ID)
		}
	}
	return c, nil
}

func (s *Storage) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	rows, err := s.db.Query(ctx, `SELECT`+customerColumns+` FROM customers ORDER BY name, id`)
	if err != nil {
		return nil, errors.Wrap(err, "select customers")
	}
	defer rows.Close()

	out := make([]models.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan customer")
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) GetCustomer(ctx context.Context, id string) (models.Customer, error) {
	c, err := scanCustomer(s.db.QueryRow(ctx, `SELECT`+customerColumns+` FROM customers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Customer{}, models.ErrNotFound
	}
	if err != nil {
		return models.Customer{}, errors.Wrap(err, "select customer")
	}
	return c, nil
}

// SaveCustomer inserts or fully replaces the customer row.
func (s *Storage) SaveCustomer(ctx context.Context, c models.Customer) error {
	args, err := customerArgs(c, time.Now().UTC())
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, upsertCustomerSQL, args...)
	return errors.Wrap(err, "upsert customer")
}

// UpdateCustomer locks the row, applies fn to the stored snapshot and writes
// the result back in one transaction.
func (s *Storage) UpdateCustomer(ctx context.Context, id string, fn func(models.Customer) (models.Customer, error)) (models.Customer, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Customer{}, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cur, err := scanCustomer(tx.QueryRow(ctx, `SELECT`+customerColumns+` FROM customers WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Customer{}, models.ErrNotFound
	}
	if err != nil {
		return models.Customer{}, errors.Wrap(err, "select customer for update")
	}

	next, err := fn(cur)
	if err != nil {
		return models.Customer{}, err
	}
	next.ID = cur.ID
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = time.Now().UTC()

	args, err := customerArgs(next, next.UpdatedAt)
	if err != nil {
		return models.Customer{}, err
	}
	if _, err := tx.Exec(ctx, upsertCustomerSQL, args...); err != nil {
		return models.Customer{}, errors.Wrap(err, "update customer")
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Customer{}, errors.Wrap(err, "commit tx")
	}
	return next, nil
}

const upsertCustomerSQL = `
INSERT INTO customers (
  id, name, address, phone, list_id,
  intervals, delivery_offset_days, pickup_weekdays,
  appointments, shifts, deletions, vacation,
  pickup, delivery,
  created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name,
  address = EXCLUDED.address,
  phone = EXCLUDED.phone,
  list_id = EXCLUDED.list_id,
  intervals = EXCLUDED.intervals,
  delivery_offset_days = EXCLUDED.delivery_offset_days,
  pickup_weekdays = EXCLUDED.pickup_weekdays,
  appointments = EXCLUDED.appointments,
  shifts = EXCLUDED.shifts,
  deletions = EXCLUDED.deletions,
  vacation = EXCLUDED.vacation,
  pickup = EXCLUDED.pickup,
  delivery = EXCLUDED.delivery,
  updated_at = EXCLUDED.updated_at
`

func customerArgs(c models.Customer, now time.Time) ([]any, error) {
	intervals, err := jsonCol(c.Intervals)
	if err != nil {
		return nil, err
	}
	weekdays, err := jsonCol(c.PickupWeekdays)
	if err != nil {
		return nil, err
	}
	appts, err := jsonCol(c.Appointments)
	if err != nil {
		return nil, err
	}
	shifts, err := jsonCol(c.Shifts)
	if err != nil {
		return nil, err
	}
	dels, err := jsonCol(c.Deletions)
	if err != nil {
		return nil, err
	}
	vacation, err := jsonPtrCol(c.Vacation)
	if err != nil {
		return nil, err
	}
	pickup, err := jsonPtrCol(&c.Pickup)
	if err != nil {
		return nil, err
	}
	delivery, err := jsonPtrCol(&c.Delivery)
	if err != nil {
		return nil, err
	}

	var listID *string
	if c.ListID != "" {
		listID = &c.ListID
	}
	created := c.CreatedAt
	if created.IsZero() {
		created = now
	}
	return []any{
		c.ID, c.Name, c.Address, c.Phone, listID,
		intervals, c.DeliveryOffsetDays, weekdays,
		appts, shifts, dels, vacation,
		pickup, delivery,
		created, now,
	}, nil
}
