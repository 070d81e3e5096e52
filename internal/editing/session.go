package editing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is one order edit session: the immutable baseline loaded from
// the backend of record plus the ledger of pending edits. Exactly one
// session edits an order at a time; concurrency lives at the store, not
// here.
type Session struct {
	ID        string      `json:"id"`
	Order     Order       `json:"order"`
	Items     []OrderItem `json:"items"`
	Ledger    Ledger      `json:"ledger"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewSession opens an edit session over freshly loaded order state.
func NewSession(order Order, items []OrderItem) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        newSessionID(),
		Order:     order,
		Items:     items,
		Ledger:    *NewLedger(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newSessionID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	return fmt.Sprintf("sess-%d", time.Now().UnixNano())
}

// Item returns the baseline item with the given id.
func (s *Session) Item(itemID int64) (OrderItem, bool) {
	for _, it := range s.Items {
		if it.ID == itemID {
			return it, true
		}
	}
	return OrderItem{}, false
}

// StageResult reports the outcome of one staging attempt. Violations and
// notices are ordered display strings; nothing was staged unless Staged
// is true.
type StageResult struct {
	Staged     bool       `json:"staged"`
	Changed    bool       `json:"changed"`
	Violations []string   `json:"violations,omitempty"`
	Notices    []string   `json:"notices,omitempty"`
	Allocation Allocation `json:"allocation"`
}

// StageItemEdit validates the submitted state for an existing item and
// stages the resulting update instruction. Nothing enters the ledger when
// validation fails. A submission matching the original state clears any
// staged update instead, keeping the ledger a net difference.
func (s *Session) StageItemEdit(itemID int64, edit ItemEdit) (StageResult, error) {
	item, ok := s.Item(itemID)
	if !ok {
		return StageResult{}, ErrItemNotFound
	}
	d := NewDraft(item)
	if err := d.Apply(edit); err != nil {
		return StageResult{}, err
	}
	res := StageResult{Notices: d.Notices(), Allocation: d.Allocation()}
	instr, violations := d.Instruction()
	if len(violations) > 0 {
		res.Violations = violations
		return res, nil
	}
	res.Staged = true
	if !d.Changed() {
		s.Ledger.UnstageUpdate(itemID)
		return res, nil
	}
	res.Changed = true
	s.Ledger.StageUpdate(instr)
	return res, nil
}

// NewItemInput is the submitted state for a product to add to the order.
type NewItemInput struct {
	ProductID  int64
	Quantity   float64
	Deliveries []SlotEdit
}

// StageNewItem validates a fresh product line and appends it to the
// pending additions. Nothing enters the ledger when validation fails.
func (s *Session) StageNewItem(input NewItemInput) (StageResult, error) {
	d := NewItemDraft(input.ProductID, input.Quantity, input.Deliveries)
	res := StageResult{Notices: d.Notices(), Allocation: d.Allocation()}
	var violations []string
	if input.ProductID <= 0 {
		violations = append(violations, "a product must be selected")
	}
	req, more := d.NewItemInstruction()
	violations = append(violations, more...)
	if len(violations) > 0 {
		res.Violations = violations
		return res, nil
	}
	s.Ledger.StageNewItem(req)
	res.Staged = true
	res.Changed = true
	return res, nil
}

// StageRemoval marks an existing item for removal. ErrRemovalBlocked is
// returned when the item has delivered history.
func (s *Session) StageRemoval(itemID int64) error {
	item, ok := s.Item(itemID)
	if !ok {
		return ErrItemNotFound
	}
	return s.Ledger.StageRemoval(item)
}

// UndoRemoval takes a staged removal back.
func (s *Session) UndoRemoval(itemID int64) error {
	if _, ok := s.Item(itemID); !ok {
		return ErrItemNotFound
	}
	s.Ledger.UndoRemoval(itemID)
	return nil
}

// UnstageNewItem deletes a pending addition by its position in the
// additions list.
func (s *Session) UnstageNewItem(index int) error {
	return s.Ledger.UnstageNewItem(index)
}

// StageFieldEdit records an order-level field change as a net difference
// against the session baseline.
func (s *Session) StageFieldEdit(f Field, value string) error {
	return s.Ledger.StageFieldEdit(f, value, s.Order.FieldValue(f))
}

// HasPendingChanges checks if the session holds any staged edit.
func (s *Session) HasPendingChanges() bool {
	return s.Ledger.HasPendingChanges()
}

// PendingChangeCount counts the staged edits across all collections.
func (s *Session) PendingChangeCount() int {
	return s.Ledger.PendingChangeCount()
}

// BuildPayload flattens the ledger into the batch payload, nil when the
// session has no pending changes.
func (s *Session) BuildPayload() *EditOrderPayload {
	return s.Ledger.BuildPayload()
}

// Reset drops every pending edit, keeping the baseline.
func (s *Session) Reset() {
	s.Ledger.Reset()
}

// Rebase adopts fresh server state after a successful save: the new order
// and items become the baseline and the ledger starts over empty.
func (s *Session) Rebase(order Order, items []OrderItem) {
	s.Order = order
	s.Items = items
	s.Ledger.Reset()
}

// Touch refreshes the last-activity timestamp.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now().UTC()
}

// IdleSince reports how long ago the session was last touched.
func (s *Session) IdleSince(now time.Time) time.Duration {
	return now.Sub(s.UpdatedAt)
}
