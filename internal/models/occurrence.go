package models

import "time"

type OperationKind string

const (
	OperationPickup   OperationKind = "PICKUP"
	OperationDelivery OperationKind = "DELIVERY"
)

func (k OperationKind) Valid() bool {
	return k == OperationPickup || k == OperationDelivery
}

// Порядок внутри одного дня: сначала забор, потом доставка.
func (k OperationKind) Rank() int {
	if k == OperationPickup {
		return 0
	}
	return 1
}

type OccurrenceSource string

const (
	SourceInterval        OccurrenceSource = "INTERVAL"
	SourceWeekday         OccurrenceSource = "WEEKDAY"
	SourceAppointment     OccurrenceSource = "APPOINTMENT"
	SourceListAppointment OccurrenceSource = "LIST_APPOINTMENT"
)

type Occurrence struct {
	Date       time.Time        `json:"date"`
	Kind       OperationKind    `json:"kind"`
	IntervalID string           `json:"interval_id,omitempty"`
	Source     OccurrenceSource `json:"source"`
	Shifted    bool             `json:"shifted,omitempty"`
	Original   *time.Time       `json:"original,omitempty"`
}

// ShiftedOccurrence moves one occurrence. Original is its identity.
// An empty IntervalID matches the occurrence of any interval.
type ShiftedOccurrence struct {
	Original   time.Time     `json:"original"`
	New        time.Time     `json:"new"`
	IntervalID string        `json:"interval_id,omitempty"`
	Kind       OperationKind `json:"kind"`
}

// DeletedOccurrence cancels a final (post-shift) date. Empty Kind cancels both kinds.
type DeletedOccurrence struct {
	Date time.Time     `json:"date"`
	Kind OperationKind `json:"kind,omitempty"`
}

// Appointment is a one-off date stored on the customer. ListID is set for
// copies flattened from the customer's list at assignment time.
type Appointment struct {
	Date   time.Time     `json:"date"`
	Kind   OperationKind `json:"kind"`
	ListID string        `json:"list_id,omitempty"`
}

// Vacation is an inclusive day range.
type Vacation struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains expects day, From and To to be normalized to the same zone.
func (v *Vacation) Contains(day time.Time) bool {
	if v == nil || v.From.IsZero() || v.To.IsZero() {
		return false
	}
	return !day.Before(v.From) && !day.After(v.To)
}

type Completion struct {
	Done bool       `json:"done"`
	At   *time.Time `json:"at,omitempty"`
}
