package models

// EventType names a change notification.
type EventType string

const (
	EventBillAdded      EventType = "bill.added"
	EventBillUpdated    EventType = "bill.updated"
	EventBillDeleted    EventType = "bill.deleted"
	EventPaymentAdded   EventType = "payment.added"
	EventPaymentUpdated EventType = "payment.updated"
	EventPaymentDeleted EventType = "payment.deleted"
)

// BillEvent records that a bill or one of its payments changed.
type BillEvent struct {
	// ID is the unique identifier for the event (UUID format).
	ID string

	Type   EventType
	BillID string

	// Status is the bill's settlement status after the change, e.g. "waived 50.00".
	Status string

	// Detail is optional context such as the payment ID.
	Detail string

	// CreatedAt is the Unix timestamp of the change.
	CreatedAt int64
}
