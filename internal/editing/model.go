// Package editing implements the order edit staging engine: allocation
// validation, per-item edit drafts, the staging ledger, and the batch
// payload builder. The engine is pure; transport and storage live in the
// surrounding packages.
package editing

import (
	"strings"
	"time"

	"github.com/orderbench/orderbench/internal/quantity"
)

// SlotStatus represents the lifecycle of a delivery slot.
type SlotStatus string

const (
	SlotStatusScheduled SlotStatus = "scheduled" // Future delivery, editable
	SlotStatusPending   SlotStatus = "pending"   // Awaiting dispatch, editable
	SlotStatusDelivered SlotStatus = "delivered" // Goods received, locked
	SlotStatusCompleted SlotStatus = "completed" // Closed out, locked
	SlotStatusCancelled SlotStatus = "cancelled" // Called off, excluded from allocation
)

// IsValid checks if the status is a known slot status.
func (s SlotStatus) IsValid() bool {
	switch s {
	case SlotStatusScheduled, SlotStatusPending, SlotStatusDelivered, SlotStatusCompleted, SlotStatusCancelled:
		return true
	default:
		return false
	}
}

// Locked checks if the slot has been fulfilled and is immutable history.
func (s SlotStatus) Locked() bool {
	return s == SlotStatusDelivered || s == SlotStatusCompleted
}

// Editable checks if the operator may still change the slot.
func (s SlotStatus) Editable() bool {
	return !s.Locked() && s != SlotStatusCancelled
}

// DefaultSlotTime pre-fills the time of a freshly added delivery slot.
const DefaultSlotTime = "08:00"

// CanonicalTime normalizes a human-typed clock time to zero-padded "HH:mm".
// Blank or unparseable input yields the empty string.
func CanonicalTime(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// The "15:4" layout accepts both padded and unpadded hours and minutes.
	t, err := time.Parse("15:4", s)
	if err != nil {
		return ""
	}
	return t.Format("15:04")
}

// DeliverySlot represents one scheduled or historical fulfilment of part of
// an item's quantity. Slots created in the editor have no ID until the
// backend persists them.
type DeliverySlot struct {
	ID       *int64     `json:"id"`
	Quantity float64    `json:"quantity"`
	Date     string     `json:"delivery_date"`
	Time     string     `json:"delivery_time"`
	Status   SlotStatus `json:"status"`
}

// Locked checks if the slot is immutable delivered history.
func (s DeliverySlot) Locked() bool {
	return s.Status.Locked()
}

// Editable checks if the slot may still be edited and counted toward
// allocation.
func (s DeliverySlot) Editable() bool {
	return s.Status.Editable()
}

// OrderItem is one product line of the order as loaded from the backend of
// record. Originals are never mutated during a session; edits go through a
// Draft.
type OrderItem struct {
	ID          int64          `json:"id"`
	ProductID   int64          `json:"product_id"`
	ProductName string         `json:"product_name,omitempty"`
	Unit        string         `json:"unit_of_measure,omitempty"`
	SupplierID  *int64         `json:"supplier_id,omitempty"`
	Quantity    float64        `json:"quantity"`
	Slots       []DeliverySlot `json:"deliveries"`
}

// DeliveredQuantity sums the quantities of locked slots.
func (it OrderItem) DeliveredQuantity() float64 {
	qs := make([]float64, 0, len(it.Slots))
	for _, s := range it.Slots {
		if s.Locked() {
			qs = append(qs, s.Quantity)
		}
	}
	return quantity.Sum2(qs...)
}

// EditableSlots returns copies of the slots the operator may still change.
func (it OrderItem) EditableSlots() []DeliverySlot {
	out := make([]DeliverySlot, 0, len(it.Slots))
	for _, s := range it.Slots {
		if s.Editable() {
			out = append(out, s)
		}
	}
	return out
}

// LockedSlots returns delivered history for read-only display.
func (it OrderItem) LockedSlots() []DeliverySlot {
	out := make([]DeliverySlot, 0, len(it.Slots))
	for _, s := range it.Slots {
		if s.Locked() {
			out = append(out, s)
		}
	}
	return out
}

// HasLockedSlots checks if any part of the item has already been delivered.
func (it OrderItem) HasLockedSlots() bool {
	for _, s := range it.Slots {
		if s.Locked() {
			return true
		}
	}
	return false
}

// Field identifies an order-level editable field.
type Field string

const (
	FieldContactName   Field = "contact_person_name"
	FieldContactNumber Field = "contact_person_number"
	FieldInstructions  Field = "site_instructions"
)

// IsValid checks if the field is editable at the order level.
func (f Field) IsValid() bool {
	switch f {
	case FieldContactName, FieldContactNumber, FieldInstructions:
		return true
	default:
		return false
	}
}

// Order carries the order-level fields editable during a session.
type Order struct {
	ID            int64  `json:"id"`
	ContactName   string `json:"contact_person_name"`
	ContactNumber string `json:"contact_person_number"`
	Instructions  string `json:"site_instructions"`
}

// FieldValue returns the current value of f on the order.
func (o Order) FieldValue(f Field) string {
	switch f {
	case FieldContactName:
		return o.ContactName
	case FieldContactNumber:
		return o.ContactNumber
	case FieldInstructions:
		return o.Instructions
	default:
		return ""
	}
}

// SlotInstruction is one delivery row of a staged instruction, with the
// time already canonicalized for the wire.
type SlotInstruction struct {
	ID       *int64  `json:"id"`
	Quantity float64 `json:"quantity"`
	Date     string  `json:"delivery_date"`
	Time     *string `json:"delivery_time"`
}

// UpdateInstruction is the staged replacement state for one existing item.
// Deliveries cover editable slots only; locked history is never sent.
type UpdateInstruction struct {
	ItemID     int64             `json:"order_item_id"`
	Quantity   float64           `json:"quantity"`
	Deliveries []SlotInstruction `json:"deliveries"`
}

// NewItemRequest is the staged state for one item to be added fresh to the
// order. All deliveries are transient, so their IDs are null.
type NewItemRequest struct {
	ProductID  int64             `json:"product_id"`
	Quantity   float64           `json:"quantity"`
	Deliveries []SlotInstruction `json:"deliveries"`
}
