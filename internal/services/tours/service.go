package tours

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/BearBump/TourBox/internal/cache"
	"github.com/BearBump/TourBox/internal/calendar"
	"github.com/BearBump/TourBox/internal/models"
	"github.com/BearBump/TourBox/internal/services/schedule"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	maxOccurrenceDays     = 2 * schedule.DefaultHorizonDays
	defaultOccurrenceDays = 30

	generationKey = "dayview:gen"
)

type Repository interface {
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	ListLists(ctx context.Context) ([]models.List, error)
	GetCustomer(ctx context.Context, id string) (models.Customer, error)
	GetList(ctx context.Context, id string) (*models.List, error)
	SaveCustomer(ctx context.Context, c models.Customer) error
	SaveList(ctx context.Context, l models.List) error
	UpdateCustomer(ctx context.Context, id string, fn func(models.Customer) (models.Customer, error)) (models.Customer, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type Service struct {
	repo       Repository
	engine     *schedule.Engine
	cache      cache.Store
	dayViewTTL time.Duration

	producer Publisher
	topic    string

	// seenGen is the day view generation the engine cache was last synced to.
	genMu   sync.Mutex
	seenGen string

	newID func() string
}

func New(repo Repository, engine *schedule.Engine, c cache.Store, dayViewTTL time.Duration) *Service {
	return &Service{
		repo:       repo,
		engine:     engine,
		cache:      c,
		dayViewTTL: dayViewTTL,
		newID:      uuid.NewString,
	}
}

// WithPublisher enables CustomerChanged events after every mutation.
func (s *Service) WithPublisher(p Publisher, topic string) *Service {
	s.producer = p
	s.topic = topic
	return s
}

func (s *Service) Engine() *schedule.Engine {
	return s.engine
}

func (s *Service) cacheEnabled() bool {
	return s.cache != nil && s.dayViewTTL > 0
}

// DayView returns the projection of viewed (zero means today). Expanded group
// ids are applied after the cache, so they never split cache entries.
func (s *Service) DayView(ctx context.Context, viewed time.Time, expanded []string) ([]schedule.DisplayItem, error) {
	items, _, err := s.dayView(ctx, viewed)
	if err != nil {
		return nil, err
	}
	return applyExpanded(items, expanded), nil
}

// WarmDayView makes sure the projection of viewed is cached. It reports
// whether it had to be computed.
func (s *Service) WarmDayView(ctx context.Context, viewed time.Time) (bool, error) {
	_, hit, err := s.dayView(ctx, viewed)
	return !hit, err
}

func (s *Service) dayView(ctx context.Context, viewed time.Time) ([]schedule.DisplayItem, bool, error) {
	clock := s.engine.Clock()
	today := clock.Today()
	day := today
	if !viewed.IsZero() {
		day = clock.Day(viewed)
	}

	var key string
	if s.cacheEnabled() {
		gen, err := s.generation(ctx)
		if err != nil {
			// Other processes' mutations are invisible without the generation.
			s.engine.InvalidateAll()
		} else {
			s.syncGeneration(gen)
			key = dayViewKey(gen, day, today)
			b, ok, err := s.cache.Get(ctx, key)
			if err == nil && ok {
				var items []schedule.DisplayItem
				if json.Unmarshal(b, &items) == nil {
					return items, true, nil
				}
			}
		}
	}

	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return nil, false, err
	}
	lists, err := s.repo.ListLists(ctx)
	if err != nil {
		return nil, false, err
	}
	items := s.engine.ProjectDay(customers, lists, schedule.DayQuery{Viewed: day, Today: today})

	if key != "" {
		// Кэш "лучшее усилие": ошибки записи не ломают ответ.
		if b, err := json.Marshal(items); err == nil {
			_ = s.cache.Set(ctx, key, b, s.dayViewTTL)
		}
	}
	return items, false, nil
}

func (s *Service) generation(ctx context.Context) (string, error) {
	b, ok, err := s.cache.Get(ctx, generationKey)
	if err != nil {
		return "", err
	}
	if !ok {
		return "0", nil
	}
	if _, err := strconv.ParseInt(string(b), 10, 64); err != nil {
		return "", errors.Wrap(err, "parse day view generation")
	}
	return string(b), nil
}

// syncGeneration drops every cached timeline once the generation moved past
// the one this service last saw. Mutations made by other processes only
// reach this one through the shared counter.
func (s *Service) syncGeneration(gen string) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if gen == s.seenGen {
		return
	}
	s.seenGen = gen
	s.engine.InvalidateAll()
}

// ownBump records a bump made by this service. Nothing else changed in
// between when the counter moved by exactly one, so the per-customer
// invalidation already done is enough.
func (s *Service) ownBump(n int64) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.seenGen == strconv.FormatInt(n-1, 10) {
		s.seenGen = strconv.FormatInt(n, 10)
	}
}

func applyExpanded(items []schedule.DisplayItem, expanded []string) []schedule.DisplayItem {
	set := make(map[string]bool, len(expanded))
	for _, id := range expanded {
		set[id] = true
	}
	for i := range items {
		if g := items[i].Group; g != nil {
			g.Expanded = set[g.ID]
		}
	}
	return items
}

func dayViewKey(gen string, viewed, today time.Time) string {
	return fmt.Sprintf("dayview:%s:%s:%s", gen, calendar.Key(viewed), calendar.Key(today))
}

func (s *Service) customerWithList(ctx context.Context, id string) (models.Customer, *models.List, error) {
	if id == "" {
		return models.Customer{}, nil, models.Invalid("customer id is required")
	}
	c, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return models.Customer{}, nil, err
	}
	if c.ListID == "" {
		return c, nil, nil
	}
	l, err := s.repo.GetList(ctx, c.ListID)
	if errors.Is(err, models.ErrNotFound) {
		slog.Warn("customer references missing list", "customer_id", c.ID, "list_id", c.ListID)
		return c, nil, nil
	}
	if err != nil {
		return models.Customer{}, nil, err
	}
	return c, l, nil
}

func (s *Service) CustomerOccurrences(ctx context.Context, id string, from time.Time, days int) ([]models.Occurrence, error) {
	if days == 0 {
		days = defaultOccurrenceDays
	}
	if days < 0 || days > maxOccurrenceDays {
		return nil, models.Invalid(fmt.Sprintf("days must be within 1..%d", maxOccurrenceDays))
	}
	c, l, err := s.customerWithList(ctx, id)
	if err != nil {
		return nil, err
	}
	if from.IsZero() {
		from = s.engine.Today()
	}
	out := s.engine.Occurrences(c, l, from, days)
	if out == nil {
		out = []models.Occurrence{}
	}
	return out, nil
}

type Status struct {
	CustomerID   string     `json:"customer_id"`
	OverdueToday bool       `json:"overdue_today"`
	NextDue      *time.Time `json:"next_due,omitempty"`
}

func (s *Service) CustomerStatus(ctx context.Context, id string) (Status, error) {
	c, l, err := s.customerWithList(ctx, id)
	if err != nil {
		return Status{}, err
	}
	st := Status{CustomerID: c.ID, OverdueToday: s.engine.IsOverdueToday(c, l)}
	if next, ok := s.engine.NextDueDate(c, l); ok {
		st.NextDue = &next
	}
	return st, nil
}

func (s *Service) HasOccurrence(ctx context.Context, id string, date time.Time, kind models.OperationKind) (bool, error) {
	if date.IsZero() {
		return false, models.Invalid("date is required")
	}
	if !kind.Valid() {
		return false, models.Invalid("kind must be PICKUP or DELIVERY")
	}
	c, l, err := s.customerWithList(ctx, id)
	if err != nil {
		return false, err
	}
	return s.engine.HasOccurrence(c, l, date, kind), nil
}
