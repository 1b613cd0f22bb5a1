package tours

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/BearBump/TourBox/internal/broker/messages"
	cachemocks "github.com/BearBump/TourBox/internal/cache/mocks"
	"github.com/BearBump/TourBox/internal/cache/occurrences"
	"github.com/BearBump/TourBox/internal/calendar"
	"github.com/BearBump/TourBox/internal/models"
	"github.com/BearBump/TourBox/internal/services/schedule"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	toursmocks "github.com/BearBump/TourBox/internal/services/tours/mocks"
)

const testTopic = "customer.changed"

var berlin = calendar.LoadLocation("Europe/Berlin")

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, berlin)
}

func ptr(t time.Time) *time.Time { return &t }

type ServiceSuite struct {
	suite.Suite

	repo   *toursmocks.MockRepository
	pub    *toursmocks.MockPublisher
	cache  *cachemocks.MockStore
	engine *schedule.Engine
	svc    *Service

	stored models.Customer
}

func (s *ServiceSuite) SetupTest() {
	s.repo = &toursmocks.MockRepository{}
	s.pub = &toursmocks.MockPublisher{}
	s.cache = &cachemocks.MockStore{}

	clock := calendar.NewClock(berlin)
	clock.Now = func() time.Time { return day(time.March, 4).Add(9 * time.Hour) }
	s.engine = schedule.NewEngine(clock, occurrences.New())

	s.svc = New(s.repo, s.engine, s.cache, 10*time.Minute).WithPublisher(s.pub, testTopic)
	s.svc.newID = func() string { return "new-id" }

	s.stored = models.Customer{
		ID:        "c1",
		Name:      "Anna",
		CreatedAt: day(time.March, 1),
		Intervals: []models.Interval{{
			ID:           "iv1",
			Kind:         models.RuleOneOff,
			PickupAnchor: ptr(day(time.March, 4)),
			CreatedAt:    day(time.March, 1),
		}},
	}
}

// expectUpdate applies the mutation to the stored snapshot, like the repository does.
func (s *ServiceSuite) expectUpdate(got *models.Customer) {
	s.repo.On("UpdateCustomer", mock.Anything, "c1", mock.Anything).
		Return(func(_ context.Context, _ string, fn func(models.Customer) (models.Customer, error)) (models.Customer, error) {
			next, err := fn(s.stored)
			if err == nil && got != nil {
				*got = next
			}
			return next, err
		}, nil).
		Once()
}

func (s *ServiceSuite) expectAfterMutation(change string) {
	s.cache.On("Incr", mock.Anything, generationKey).Return(int64(2), nil).Once()
	s.pub.On("Publish", mock.Anything, testTopic, []byte("c1"), mock.MatchedBy(func(b []byte) bool {
		var msg messages.CustomerChanged
		return json.Unmarshal(b, &msg) == nil && msg.CustomerID == "c1" && msg.Change == change
	})).Return(nil).Once()
}

func (s *ServiceSuite) TestDayView_CacheMiss_ComputesAndStores() {
	key := "dayview:0:2024-03-04:2024-03-04"
	s.cache.On("Get", mock.Anything, generationKey).Return([]byte(nil), false, nil).Once()
	s.cache.On("Get", mock.Anything, key).Return([]byte(nil), false, nil).Once()
	s.repo.On("ListCustomers", mock.Anything).Return([]models.Customer{s.stored}, nil).Once()
	s.repo.On("ListLists", mock.Anything).Return([]models.List{}, nil).Once()
	s.cache.On("Set", mock.Anything, key, mock.Anything, 10*time.Minute).Return(nil).Once()

	items, err := s.svc.DayView(context.Background(), time.Time{}, nil)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Require().Equal(schedule.ItemDue, items[0].Kind)
	s.Require().Equal("c1", items[0].Customer.CustomerID)

	s.repo.AssertExpectations(s.T())
	s.cache.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestDayView_CacheHit_NoDB_AppliesExpanded() {
	cached := []schedule.DisplayItem{{
		Kind:  schedule.ItemListGroup,
		Group: &schedule.Group{ID: "l1", Name: "Nord"},
	}}
	b, _ := json.Marshal(cached)

	s.cache.On("Get", mock.Anything, generationKey).Return([]byte("7"), true, nil).Once()
	s.cache.On("Get", mock.Anything, "dayview:7:2024-03-05:2024-03-04").Return(b, true, nil).Once()

	items, err := s.svc.DayView(context.Background(), day(time.March, 5).Add(20*time.Hour), []string{"l1"})
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Require().True(items[0].Group.Expanded)

	s.repo.AssertNotCalled(s.T(), "ListCustomers", mock.Anything)
	s.cache.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestDayView_SetFails_StillAnswers() {
	s.cache.On("Get", mock.Anything, generationKey).Return([]byte(nil), false, nil).Once()
	s.cache.On("Get", mock.Anything, mock.Anything).Return([]byte(nil), false, errors.New("redis down")).Once()
	s.repo.On("ListCustomers", mock.Anything).Return([]models.Customer{s.stored}, nil).Once()
	s.repo.On("ListLists", mock.Anything).Return([]models.List(nil), nil).Once()
	s.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("set failed")).Once()

	items, err := s.svc.DayView(context.Background(), time.Time{}, nil)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
}

func (s *ServiceSuite) TestDayView_CacheDisabled_GoesToDB() {
	svc := New(s.repo, s.engine, s.cache, 0)
	s.repo.On("ListCustomers", mock.Anything).Return([]models.Customer{s.stored}, nil).Once()
	s.repo.On("ListLists", mock.Anything).Return([]models.List{}, nil).Once()

	_, err := svc.DayView(context.Background(), time.Time{}, nil)
	s.Require().NoError(err)
	s.cache.AssertNotCalled(s.T(), "Get", mock.Anything, mock.Anything)
	s.cache.AssertNotCalled(s.T(), "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *ServiceSuite) TestDayView_RepoError() {
	svc := New(s.repo, s.engine, nil, 0)
	s.repo.On("ListCustomers", mock.Anything).Return([]models.Customer(nil), errors.New("db down")).Once()

	_, err := svc.DayView(context.Background(), time.Time{}, nil)
	s.Require().Error(err)
}

func (s *ServiceSuite) TestWarmDayView_ReportsComputed() {
	s.cache.On("Get", mock.Anything, generationKey).Return([]byte("3"), true, nil).Twice()
	s.cache.On("Get", mock.Anything, "dayview:3:2024-03-04:2024-03-04").Return([]byte(nil), false, nil).Once()
	s.repo.On("ListCustomers", mock.Anything).Return([]models.Customer{s.stored}, nil).Once()
	s.repo.On("ListLists", mock.Anything).Return([]models.List{}, nil).Once()
	s.cache.On("Set", mock.Anything, "dayview:3:2024-03-04:2024-03-04", mock.Anything, 10*time.Minute).Return(nil).Once()

	computed, err := s.svc.WarmDayView(context.Background(), day(time.March, 4))
	s.Require().NoError(err)
	s.Require().True(computed)

	s.cache.On("Get", mock.Anything, "dayview:3:2024-03-04:2024-03-04").Return([]byte("[]"), true, nil).Once()
	computed, err = s.svc.WarmDayView(context.Background(), day(time.March, 4))
	s.Require().NoError(err)
	s.Require().False(computed)
}

func (s *ServiceSuite) TestShiftOccurrence_Validation_NoRepoCalls() {
	ctx := context.Background()
	s.Require().ErrorIs(s.svc.ShiftOccurrence(ctx, "c1", models.ShiftedOccurrence{Kind: "X", Original: day(time.March, 4), New: day(time.March, 5)}), models.ErrValidation)
	s.Require().ErrorIs(s.svc.ShiftOccurrence(ctx, "c1", models.ShiftedOccurrence{Kind: models.OperationPickup}), models.ErrValidation)
	s.Require().ErrorIs(s.svc.ShiftOccurrence(ctx, "", models.ShiftedOccurrence{Kind: models.OperationPickup, Original: day(time.March, 4), New: day(time.March, 5)}), models.ErrValidation)

	s.repo.AssertNotCalled(s.T(), "UpdateCustomer", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ServiceSuite) TestShiftOccurrence_StoresShiftAndInvalidates() {
	// Заполняем кэш движка, чтобы проверить инвалидацию.
	s.engine.Timeline(s.stored, nil)
	s.Require().Equal(1, s.engine.CacheSize())

	var got models.Customer
	s.expectUpdate(&got)
	s.expectAfterMutation(messages.ChangeShift)

	err := s.svc.ShiftOccurrence(context.Background(), "c1", models.ShiftedOccurrence{
		Original:   day(time.March, 4).Add(11 * time.Hour),
		New:        day(time.March, 6),
		IntervalID: "iv1",
		Kind:       models.OperationPickup,
	})
	s.Require().NoError(err)
	s.Require().Len(got.Shifts, 1)
	s.Require().True(got.Shifts[0].Original.Equal(day(time.March, 4)))
	s.Require().True(got.Shifts[0].New.Equal(day(time.March, 6)))
	s.Require().Equal(0, s.engine.CacheSize())

	s.repo.AssertExpectations(s.T())
	s.cache.AssertExpectations(s.T())
	s.pub.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestShiftOccurrence_UnknownInterval() {
	s.expectUpdate(nil)

	err := s.svc.ShiftOccurrence(context.Background(), "c1", models.ShiftedOccurrence{
		Original:   day(time.March, 4),
		New:        day(time.March, 6),
		IntervalID: "nope",
		Kind:       models.OperationPickup,
	})
	s.Require().ErrorIs(err, models.ErrValidation)
	s.cache.AssertNotCalled(s.T(), "Incr", mock.Anything, mock.Anything)
	s.pub.AssertNotCalled(s.T(), "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *ServiceSuite) TestShiftOccurrence_BackToOriginalRemovesShift() {
	s.stored = s.stored.WithShift(models.ShiftedOccurrence{
		Original: day(time.March, 4), New: day(time.March, 6), IntervalID: "iv1", Kind: models.OperationPickup,
	})
	var got models.Customer
	s.expectUpdate(&got)
	s.expectAfterMutation(messages.ChangeShift)

	err := s.svc.ShiftOccurrence(context.Background(), "c1", models.ShiftedOccurrence{
		Original: day(time.March, 4), New: day(time.March, 4), IntervalID: "iv1", Kind: models.OperationPickup,
	})
	s.Require().NoError(err)
	s.Require().Empty(got.Shifts)
}

func (s *ServiceSuite) TestMarkComplete_DefaultsToNow() {
	var got models.Customer
	s.expectUpdate(&got)
	s.expectAfterMutation(messages.ChangeCompletion)

	s.Require().NoError(s.svc.MarkComplete(context.Background(), "c1", models.OperationPickup, time.Time{}))
	s.Require().True(got.Pickup.Done)
	s.Require().NotNil(got.Pickup.At)
	s.Require().True(got.Pickup.At.Equal(day(time.March, 4).Add(9 * time.Hour)))
}

func (s *ServiceSuite) TestMutation_PublishAndCacheErrorsAreSwallowed() {
	s.expectUpdate(nil)
	s.cache.On("Incr", mock.Anything, generationKey).Return(int64(0), errors.New("redis down")).Once()
	s.pub.On("Publish", mock.Anything, testTopic, []byte("c1"), mock.Anything).Return(errors.New("kafka down")).Once()

	s.Require().NoError(s.svc.DeleteOccurrence(context.Background(), "c1", day(time.March, 4), ""))
}

func (s *ServiceSuite) TestSetVacation_RejectsInvertedRange() {
	err := s.svc.SetVacation(context.Background(), "c1", &models.Vacation{From: day(time.March, 10), To: day(time.March, 1)})
	s.Require().ErrorIs(err, models.ErrValidation)
	s.repo.AssertNotCalled(s.T(), "UpdateCustomer", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ServiceSuite) TestAddInterval_AssignsIDAndClamps() {
	var got models.Customer
	s.expectUpdate(&got)
	s.expectAfterMutation(messages.ChangeInterval)

	iv, err := s.svc.AddInterval(context.Background(), "c1", models.Interval{
		Kind:         models.RuleFixedCycle,
		PickupAnchor: ptr(day(time.March, 4)),
		Cycle:        &models.CycleRule{Days: 1000},
	})
	s.Require().NoError(err)
	s.Require().Equal("new-id", iv.ID)
	s.Require().Equal(models.MaxCycleDays, iv.Cycle.Days)
	s.Require().False(iv.CreatedAt.IsZero())
	s.Require().Len(got.Intervals, 2)
}

func (s *ServiceSuite) TestSaveCustomer_LeavesCallerIntervalsAlone() {
	s.repo.On("SaveCustomer", mock.Anything, mock.MatchedBy(func(c models.Customer) bool {
		return c.ID == "c1" && c.Intervals[0].ID == "new-id"
	})).Return(nil).Once()
	s.expectAfterMutation(messages.ChangeInterval)

	intervals := []models.Interval{{Kind: models.RuleOneOff, PickupAnchor: ptr(day(time.March, 6))}}
	saved, err := s.svc.SaveCustomer(context.Background(), models.Customer{ID: "c1", Name: "Anna", Intervals: intervals})
	s.Require().NoError(err)
	s.Require().Equal("new-id", saved.Intervals[0].ID)
	s.Require().Empty(intervals[0].ID)
	s.Require().True(intervals[0].CreatedAt.IsZero())

	// Rejected on the second interval: the first one is not rewritten either.
	intervals = append(intervals, models.Interval{Kind: models.RuleMonthlyWeekday})
	_, err = s.svc.SaveCustomer(context.Background(), models.Customer{ID: "c1", Name: "Anna", Intervals: intervals})
	s.Require().ErrorIs(err, models.ErrValidation)
	s.Require().Empty(intervals[0].ID)
	s.repo.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestAddInterval_Invalid() {
	_, err := s.svc.AddInterval(context.Background(), "c1", models.Interval{Kind: models.RuleMonthlyWeekday})
	s.Require().ErrorIs(err, models.ErrValidation)
	_, err = s.svc.AddInterval(context.Background(), "c1", models.Interval{Kind: "WEEKLY"})
	s.Require().ErrorIs(err, models.ErrValidation)
}

func (s *ServiceSuite) TestCustomerStatus_NotFound() {
	s.repo.On("GetCustomer", mock.Anything, "missing").Return(models.Customer{}, models.ErrNotFound).Once()

	_, err := s.svc.CustomerStatus(context.Background(), "missing")
	s.Require().ErrorIs(err, models.ErrNotFound)
}

func (s *ServiceSuite) TestCustomerStatus_MissingListIgnored() {
	c := s.stored
	c.ListID = "gone"
	s.repo.On("GetCustomer", mock.Anything, "c1").Return(c, nil).Once()
	s.repo.On("GetList", mock.Anything, "gone").Return((*models.List)(nil), models.ErrNotFound).Once()

	st, err := s.svc.CustomerStatus(context.Background(), "c1")
	s.Require().NoError(err)
	s.Require().False(st.OverdueToday)
	s.Require().NotNil(st.NextDue)
	s.Require().True(st.NextDue.Equal(day(time.March, 4)))
}

func (s *ServiceSuite) TestApplyChangeEvent() {
	ctx := context.Background()
	s.engine.Timeline(s.stored, nil)
	s.Require().Equal(1, s.engine.CacheSize())

	s.cache.On("Incr", mock.Anything, generationKey).Return(int64(5), nil).Twice()
	s.Require().NoError(s.svc.ApplyChangeEvent(ctx, messages.CustomerChanged{CustomerID: "c1", Change: messages.ChangeShift}))
	s.Require().Equal(0, s.engine.CacheSize())

	s.engine.Timeline(s.stored, nil)
	s.Require().NoError(s.svc.ApplyChangeEvent(ctx, messages.CustomerChanged{Change: messages.ChangeRollover}))
	s.Require().Equal(0, s.engine.CacheSize())

	s.Require().ErrorIs(s.svc.ApplyChangeEvent(ctx, messages.CustomerChanged{Change: messages.ChangeShift}), models.ErrValidation)
	s.cache.AssertExpectations(s.T())
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}
