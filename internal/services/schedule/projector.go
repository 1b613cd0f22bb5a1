package schedule

import (
	"slices"
	"strings"
	"time"

	"github.com/BearBump/TourBox/internal/calendar"
	"github.com/BearBump/TourBox/internal/models"
)

type ItemKind string

const (
	ItemOverdue        ItemKind = "OVERDUE"
	ItemListGroup      ItemKind = "LIST_GROUP"
	ItemDue            ItemKind = "DUE"
	ItemCompletedGroup ItemKind = "COMPLETED_GROUP"
)

// CompletedGroupID identifies the trailing group of ungrouped completed customers.
const CompletedGroupID = "completed"

type DayQuery struct {
	Viewed time.Time
	Today  time.Time
	// Expanded holds UI group ids. They are only passed through.
	Expanded []string
}

// CustomerEntry is one customer placed on the viewed day.
type CustomerEntry struct {
	CustomerID   string                 `json:"customer_id"`
	Name         string                 `json:"name"`
	ListID       string                 `json:"list_id,omitempty"`
	Kinds        []models.OperationKind `json:"kinds"`
	OverdueSince *time.Time             `json:"overdue_since,omitempty"`
	Completed    bool                   `json:"completed"`
}

type Group struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Expanded  bool            `json:"expanded"`
	Pending   []CustomerEntry `json:"pending"`
	Completed []CustomerEntry `json:"completed"`
}

type DisplayItem struct {
	Kind     ItemKind       `json:"kind"`
	Customer *CustomerEntry `json:"customer,omitempty"`
	Group    *Group         `json:"group,omitempty"`
}

// dayState is the classification of one customer on the viewed day.
type dayState struct {
	overdueKinds []models.OperationKind
	overdueSince time.Time
	relevant     []models.OperationKind
	completed    bool
}

// ProjectDay builds the ordered day view: overdue customers, list groups,
// ungrouped due customers, then the completed group.
func (e *Engine) ProjectDay(customers []models.Customer, lists []models.List, q DayQuery) []DisplayItem {
	viewed := e.clock.Day(q.Viewed)
	today := e.clock.Day(q.Today)
	if q.Today.IsZero() {
		today = e.clock.Today()
	}
	if q.Viewed.IsZero() {
		viewed = today
	}
	expanded := make(map[string]bool, len(q.Expanded))
	for _, id := range q.Expanded {
		expanded[id] = true
	}

	listByID := make(map[string]*models.List, len(lists))
	for i := range lists {
		listByID[lists[i].ID] = e.normalizeList(&lists[i])
	}

	var (
		overdue   []CustomerEntry
		due       []CustomerEntry
		completed []CustomerEntry
		groups    = map[string]*Group{}
	)

	for _, raw := range customers {
		c := e.normalizeCustomer(raw)
		l := listByID[c.ListID]

		st, ok := e.classifyDay(c, l, viewed, today)
		if !ok {
			continue
		}

		entry := CustomerEntry{CustomerID: c.ID, Name: c.Name, ListID: c.ListID}
		if len(st.overdueKinds) > 0 {
			since := st.overdueSince
			entry.Kinds = st.overdueKinds
			entry.OverdueSince = &since
			overdue = append(overdue, entry)
			continue
		}

		entry.Kinds = st.relevant
		entry.Completed = st.completed
		if l != nil {
			g := groups[l.ID]
			if g == nil {
				g = &Group{ID: l.ID, Name: l.Name, Expanded: expanded[l.ID]}
				groups[l.ID] = g
			}
			if st.completed {
				g.Completed = append(g.Completed, entry)
			} else {
				g.Pending = append(g.Pending, entry)
			}
			continue
		}
		if st.completed {
			completed = append(completed, entry)
		} else {
			due = append(due, entry)
		}
	}

	slices.SortStableFunc(overdue, func(a, b CustomerEntry) int {
		if c := a.OverdueSince.Compare(*b.OverdueSince); c != 0 {
			return c
		}
		return compareNames(a.Name, b.Name)
	})
	byName := func(a, b CustomerEntry) int { return compareNames(a.Name, b.Name) }
	slices.SortStableFunc(due, byName)
	slices.SortStableFunc(completed, byName)

	ordered := make([]*Group, 0, len(groups))
	for _, g := range groups {
		slices.SortStableFunc(g.Pending, byName)
		slices.SortStableFunc(g.Completed, byName)
		ordered = append(ordered, g)
	}
	slices.SortFunc(ordered, func(a, b *Group) int {
		if c := compareNames(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	items := make([]DisplayItem, 0, len(overdue)+len(ordered)+len(due)+1)
	for i := range overdue {
		items = append(items, DisplayItem{Kind: ItemOverdue, Customer: &overdue[i]})
	}
	for _, g := range ordered {
		items = append(items, DisplayItem{Kind: ItemListGroup, Group: g})
	}
	for i := range due {
		items = append(items, DisplayItem{Kind: ItemDue, Customer: &due[i]})
	}
	if len(completed) > 0 {
		items = append(items, DisplayItem{Kind: ItemCompletedGroup, Group: &Group{
			ID:        CompletedGroupID,
			Name:      CompletedGroupID,
			Expanded:  expanded[CompletedGroupID],
			Completed: completed,
		}})
	}
	return items
}

// classifyDay decides whether and how c appears on viewed. ok is false when
// the customer has nothing on that day or is on vacation.
func (e *Engine) classifyDay(c models.Customer, l *models.List, viewed, today time.Time) (dayState, bool) {
	from := calendar.AddDays(today, -e.lookback)
	if viewed.Before(from) {
		from = viewed
	}
	to := calendar.MaxDay(viewed, today)
	w := Window{Start: from, End: calendar.AddDays(to, 1)}

	var st dayState
	for _, o := range e.occurrencesIn(c, l, w) {
		complete := IsComplete(c, o.Kind, o.Date)
		if IsOverdue(o.Date, today, complete) {
			// A missed date inside a vacation was never due.
			if ShouldShowOverdue(o.Date, viewed, today) && !onVacation(c, l, o.Date) {
				if st.overdueSince.IsZero() || o.Date.Before(st.overdueSince) {
					st.overdueSince = o.Date
				}
				st.overdueKinds = appendKind(st.overdueKinds, o.Kind)
			}
			continue
		}
		if !o.Date.Equal(viewed) {
			continue
		}
		// Completed on another day: the occurrence is handled and not shown here.
		if complete && !CompletedOn(c, o.Kind, viewed) {
			continue
		}
		st.relevant = appendKind(st.relevant, o.Kind)
	}

	if len(st.overdueKinds) > 0 {
		if onVacation(c, l, viewed) {
			return dayState{}, false
		}
		return st, true
	}
	if len(st.relevant) == 0 || onVacation(c, l, viewed) {
		return dayState{}, false
	}
	st.completed = IsDayCompleted(c, viewed, today, st.relevant)
	return st, true
}

func appendKind(kinds []models.OperationKind, k models.OperationKind) []models.OperationKind {
	if slices.Contains(kinds, k) {
		return kinds
	}
	kinds = append(kinds, k)
	slices.SortFunc(kinds, func(a, b models.OperationKind) int { return a.Rank() - b.Rank() })
	return kinds
}

func compareNames(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
