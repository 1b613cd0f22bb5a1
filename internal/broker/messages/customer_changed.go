package messages

import "time"

// Виды изменений клиента.
const (
	ChangeInterval   = "interval"
	ChangeShift      = "shift"
	ChangeDeletion   = "deletion"
	ChangeCompletion = "completion"
	ChangeVacation   = "vacation"
	// ChangeRollover is published by the worker after the business day changed.
	ChangeRollover = "rollover"
)

type CustomerChanged struct {
	CustomerID string    `json:"customer_id,omitempty"`
	ListID     string    `json:"list_id,omitempty"`
	Change     string    `json:"change"`
	ChangedAt  time.Time `json:"changed_at"`
}
