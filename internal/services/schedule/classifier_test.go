package schedule

import (
	"testing"
	"time"

	"github.com/BearBump/TourBox/internal/models"
	"github.com/stretchr/testify/require"
)

func TestShouldShowOverdue(t *testing.T) {
	due := d(time.January, 3)
	today := d(time.January, 10)

	require.True(t, ShouldShowOverdue(due, due, today))
	require.True(t, ShouldShowOverdue(due, today, today))
	for v := d(time.January, 4); v.Before(today); v = v.AddDate(0, 0, 1) {
		require.False(t, ShouldShowOverdue(due, v, today), v.Format("2006-01-02"))
	}
	require.False(t, ShouldShowOverdue(due, d(time.January, 11), today))
}

func TestIsOverdue(t *testing.T) {
	today := d(time.January, 10)
	require.True(t, IsOverdue(d(time.January, 9), today, false))
	require.False(t, IsOverdue(d(time.January, 9), today, true))
	require.False(t, IsOverdue(today, today, false))
}

func normalized(c models.Customer) models.Customer {
	return newTestEngine(d(time.January, 10)).normalizeCustomer(c)
}

func TestIsComplete(t *testing.T) {
	c := normalized(models.Customer{Pickup: doneAt(d(time.January, 5))})
	require.True(t, IsComplete(c, models.OperationPickup, d(time.January, 5)))
	require.True(t, IsComplete(c, models.OperationPickup, d(time.January, 2)))
	require.False(t, IsComplete(c, models.OperationPickup, d(time.January, 6)))
	require.False(t, IsComplete(c, models.OperationDelivery, d(time.January, 5)))

	notDone := normalized(models.Customer{Pickup: models.Completion{Done: false, At: ptr(d(time.January, 5))}})
	require.False(t, IsComplete(notDone, models.OperationPickup, d(time.January, 5)))
}

func TestIsDayCompleted_SameDayPickupAndDelivery(t *testing.T) {
	day := d(time.January, 10)
	both := []models.OperationKind{models.OperationPickup, models.OperationDelivery}

	onlyPickup := normalized(models.Customer{Pickup: doneAt(day)})
	require.False(t, IsDayCompleted(onlyPickup, day, day, both))
	require.True(t, IsDayCompleted(onlyPickup, day, day, []models.OperationKind{models.OperationPickup}))

	all := normalized(models.Customer{Pickup: doneAt(day), Delivery: doneAt(day)})
	require.True(t, IsDayCompleted(all, day, day, both))

	deliveredYesterday := normalized(models.Customer{Pickup: doneAt(day), Delivery: doneAt(d(time.January, 9))})
	require.False(t, IsDayCompleted(deliveredYesterday, day, day, both))

	require.False(t, IsDayCompleted(all, day, day, nil))
}

func TestIsDayCompleted_Retroactive(t *testing.T) {
	past := d(time.January, 5)
	today := d(time.January, 10)
	both := []models.OperationKind{models.OperationPickup, models.OperationDelivery}

	c := normalized(models.Customer{Pickup: doneAt(past)})
	require.True(t, IsDayCompleted(c, past, today, both))
	require.False(t, IsDayCompleted(c, past, past, both))
}
