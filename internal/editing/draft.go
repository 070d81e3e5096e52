package editing

import (
	"fmt"
	"strings"

	"github.com/orderbench/orderbench/internal/quantity"
)

// Draft is the working copy of one order item during an edit session. The
// item it was opened from stays untouched; the draft either becomes a
// staged instruction or is thrown away. Locked slots are carried for
// display only and never enter the editable working set.
type Draft struct {
	itemID    int64
	productID int64
	newItem   bool
	quantity  float64
	delivered float64
	locked    []DeliverySlot
	slots     []DeliverySlot

	origQuantity float64
	origSlots    []DeliverySlot
	notices      []string
}

// NewDraft opens a draft over an existing order item.
func NewDraft(item OrderItem) *Draft {
	return &Draft{
		itemID:       item.ID,
		productID:    item.ProductID,
		quantity:     quantity.Round2(item.Quantity),
		delivered:    item.DeliveredQuantity(),
		locked:       item.LockedSlots(),
		slots:        item.EditableSlots(),
		origQuantity: quantity.Round2(item.Quantity),
		origSlots:    item.EditableSlots(),
	}
}

// NewItemDraft opens a draft for a product not yet on the order. Nothing
// has shipped, so the delivered floor is zero. When no rows are given the
// draft starts with one pre-filled slot covering the full quantity.
func NewItemDraft(productID int64, qty float64, rows []SlotEdit) *Draft {
	d := &Draft{productID: productID, newItem: true}
	d.SetQuantity(qty)
	if len(rows) == 0 {
		d.AddSlot()
		return d
	}
	for _, r := range rows {
		d.slots = append(d.slots, DeliverySlot{
			Quantity: quantity.Round2(r.Quantity),
			Date:     strings.TrimSpace(r.Date),
			Time:     r.Time,
			Status:   SlotStatusScheduled,
		})
	}
	return d
}

// ItemID returns the id of the item being edited, zero for new items.
func (d *Draft) ItemID() int64 { return d.itemID }

// ProductID returns the product the draft is for.
func (d *Draft) ProductID() int64 { return d.productID }

// NewItem checks if the draft belongs to the add-item flow.
func (d *Draft) NewItem() bool { return d.newItem }

// Quantity returns the current total quantity of the draft.
func (d *Draft) Quantity() float64 { return d.quantity }

// DeliveredQuantity returns the locked quantity the draft cannot go below.
func (d *Draft) DeliveredQuantity() float64 { return d.delivered }

// Slots returns a copy of the editable working set.
func (d *Draft) Slots() []DeliverySlot {
	return append([]DeliverySlot(nil), d.slots...)
}

// LockedSlots returns delivered history for read-only display.
func (d *Draft) LockedSlots() []DeliverySlot {
	return append([]DeliverySlot(nil), d.locked...)
}

// Notices returns the informational messages produced by clamping.
func (d *Draft) Notices() []string {
	return append([]string(nil), d.notices...)
}

// SetQuantity sets the item quantity. Values below the delivered quantity
// are raised to that floor and reported as a notice, not a violation.
func (d *Draft) SetQuantity(q float64) {
	q = quantity.Round2(q)
	if q < d.delivered {
		q = d.delivered
		d.notices = append(d.notices, fmt.Sprintf("minimum quantity is %s, the amount already delivered", quantity.Format(d.delivered)))
	}
	d.quantity = q
}

// Allocation reports the current allocation state of the draft.
func (d *Draft) Allocation() Allocation {
	qs := make([]float64, 0, len(d.slots))
	for _, s := range d.slots {
		qs = append(qs, s.Quantity)
	}
	return Allocate(d.quantity, d.delivered, qs)
}

// AddSlot appends a transient slot and returns its index. The quantity is
// pre-filled with the unallocated remainder when there is one, else 1, so
// a fresh slot starts as close to balanced as possible.
func (d *Draft) AddSlot() int {
	qty := 1.0
	if rem := d.Allocation().Remaining; rem > 0 {
		qty = rem
	}
	d.slots = append(d.slots, DeliverySlot{
		Quantity: qty,
		Time:     DefaultSlotTime,
		Status:   SlotStatusScheduled,
	})
	return len(d.slots) - 1
}

// RemoveSlot deletes the editable slot at ref. A new item always keeps at
// least one slot; an existing item may drop to zero, which is balanced
// only when nothing remains to allocate.
func (d *Draft) RemoveSlot(ref int) error {
	if ref < 0 || ref >= len(d.slots) {
		return ErrSlotNotFound
	}
	if d.newItem && len(d.slots) == 1 {
		return ErrLastSlot
	}
	d.slots = append(d.slots[:ref], d.slots[ref+1:]...)
	return nil
}

// SetSlotQuantity changes the quantity of the editable slot at ref.
func (d *Draft) SetSlotQuantity(ref int, q float64) error {
	if ref < 0 || ref >= len(d.slots) {
		return ErrSlotNotFound
	}
	d.slots[ref].Quantity = quantity.Round2(q)
	return nil
}

// SetSlotDate changes the delivery date of the editable slot at ref.
func (d *Draft) SetSlotDate(ref int, date string) error {
	if ref < 0 || ref >= len(d.slots) {
		return ErrSlotNotFound
	}
	d.slots[ref].Date = strings.TrimSpace(date)
	return nil
}

// SetSlotTime changes the delivery time of the editable slot at ref. The
// raw value is kept; canonicalization happens when the draft is turned
// into an instruction.
func (d *Draft) SetSlotTime(ref int, t string) error {
	if ref < 0 || ref >= len(d.slots) {
		return ErrSlotNotFound
	}
	d.slots[ref].Time = t
	return nil
}

// SlotEdit is one submitted delivery row. A nil ID is a slot created in
// the editor; a non-nil ID must match one of the item's editable slots.
type SlotEdit struct {
	ID       *int64
	Quantity float64
	Date     string
	Time     string
}

// ItemEdit is the full submitted state for one item: the desired quantity
// and the desired editable slot list.
type ItemEdit struct {
	Quantity   float64
	Deliveries []SlotEdit
}

// Apply reconciles the draft with submitted state: rows with a known ID
// update that slot in place, rows without an ID become new transient
// slots, and editable slots missing from the submission are removed.
// Rows addressing locked or unknown slots reject the whole edit.
func (d *Draft) Apply(edit ItemEdit) error {
	lockedIDs := make(map[int64]bool, len(d.locked))
	for _, s := range d.locked {
		if s.ID != nil {
			lockedIDs[*s.ID] = true
		}
	}
	editable := make(map[int64]DeliverySlot, len(d.slots))
	for _, s := range d.slots {
		if s.ID != nil {
			editable[*s.ID] = s
		}
	}

	next := make([]DeliverySlot, 0, len(edit.Deliveries))
	for _, row := range edit.Deliveries {
		if row.ID == nil {
			next = append(next, DeliverySlot{
				Quantity: quantity.Round2(row.Quantity),
				Date:     strings.TrimSpace(row.Date),
				Time:     row.Time,
				Status:   SlotStatusScheduled,
			})
			continue
		}
		if lockedIDs[*row.ID] {
			return fmt.Errorf("delivery %d: %w", *row.ID, ErrSlotLocked)
		}
		cur, ok := editable[*row.ID]
		if !ok {
			return fmt.Errorf("delivery %d: %w", *row.ID, ErrSlotNotFound)
		}
		delete(editable, *row.ID) // a duplicate row may not claim the slot twice
		cur.Quantity = quantity.Round2(row.Quantity)
		cur.Date = strings.TrimSpace(row.Date)
		cur.Time = row.Time
		next = append(next, cur)
	}
	if d.newItem && len(next) == 0 {
		return ErrLastSlot
	}

	d.SetQuantity(edit.Quantity)
	d.slots = next
	return nil
}

// Validate collects every current violation in display order: item-level
// problems first, the allocation verdict next, then per-slot problems.
// An empty result means the draft can produce an instruction.
func (d *Draft) Validate() []string {
	var out []string
	if d.quantity <= 0 {
		out = append(out, "quantity must be greater than zero")
	}
	if v := d.Allocation().Violation(); v != "" {
		out = append(out, v)
	}
	for i, s := range d.slots {
		if strings.TrimSpace(s.Date) == "" {
			out = append(out, fmt.Sprintf("delivery %d: date is required", i+1))
		}
		if s.Quantity <= 0 {
			out = append(out, fmt.Sprintf("delivery %d: quantity must be greater than zero", i+1))
		}
	}
	return out
}

// Changed checks if the draft differs from the state it was opened from,
// comparing the quantity and the canonicalized editable slot list by
// value. Unchanged drafts are not worth staging.
func (d *Draft) Changed() bool {
	if !quantity.Equal(d.quantity, d.origQuantity) {
		return true
	}
	if len(d.slots) != len(d.origSlots) {
		return true
	}
	for i := range d.slots {
		if !slotEquivalent(d.slots[i], d.origSlots[i]) {
			return true
		}
	}
	return false
}

func slotEquivalent(a, b DeliverySlot) bool {
	if (a.ID == nil) != (b.ID == nil) {
		return false
	}
	if a.ID != nil && *a.ID != *b.ID {
		return false
	}
	return quantity.Equal(a.Quantity, b.Quantity) &&
		strings.TrimSpace(a.Date) == strings.TrimSpace(b.Date) &&
		CanonicalTime(a.Time) == CanonicalTime(b.Time)
}

// Instruction converts a valid draft of an existing item into its staged
// update. The violation list is returned instead when validation fails.
func (d *Draft) Instruction() (UpdateInstruction, []string) {
	if v := d.Validate(); len(v) > 0 {
		return UpdateInstruction{}, v
	}
	return UpdateInstruction{
		ItemID:     d.itemID,
		Quantity:   d.quantity,
		Deliveries: d.instructionSlots(),
	}, nil
}

// NewItemInstruction converts a valid new-item draft into its staged
// request.
func (d *Draft) NewItemInstruction() (NewItemRequest, []string) {
	if v := d.Validate(); len(v) > 0 {
		return NewItemRequest{}, v
	}
	return NewItemRequest{
		ProductID:  d.productID,
		Quantity:   d.quantity,
		Deliveries: d.instructionSlots(),
	}, nil
}

func (d *Draft) instructionSlots() []SlotInstruction {
	out := make([]SlotInstruction, 0, len(d.slots))
	for _, s := range d.slots {
		ins := SlotInstruction{
			ID:       s.ID,
			Quantity: quantity.Round2(s.Quantity),
			Date:     strings.TrimSpace(s.Date),
		}
		if ct := CanonicalTime(s.Time); ct != "" {
			ins.Time = &ct
		}
		out = append(out, ins)
	}
	return out
}
