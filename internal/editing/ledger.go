package editing

// Ledger accumulates the pending edits of one session: order field edits,
// additions, per-item updates, and removals. Every collection holds the
// net difference against the session baseline, never edit history. An item
// id can sit in the update map or the removal set, not both.
type Ledger struct {
	FieldEdits  map[Field]string            `json:"field_edits,omitempty"`
	ItemsAdd    []NewItemRequest            `json:"items_add,omitempty"`
	ItemsUpdate map[int64]UpdateInstruction `json:"items_update,omitempty"`
	ItemsRemove map[int64]bool              `json:"items_remove,omitempty"`
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	l := &Ledger{}
	l.Reset()
	return l
}

// The maps may come back nil after a JSON round trip through the store.
func (l *Ledger) ensure() {
	if l.FieldEdits == nil {
		l.FieldEdits = map[Field]string{}
	}
	if l.ItemsUpdate == nil {
		l.ItemsUpdate = map[int64]UpdateInstruction{}
	}
	if l.ItemsRemove == nil {
		l.ItemsRemove = map[int64]bool{}
	}
}

// StageUpdate records the replacement state for an existing item,
// superseding any staged removal of the same item.
func (l *Ledger) StageUpdate(instr UpdateInstruction) {
	l.ensure()
	delete(l.ItemsRemove, instr.ItemID)
	l.ItemsUpdate[instr.ItemID] = instr
}

// UnstageUpdate drops the pending update for an item. Used when a
// re-submitted draft matches the original state again.
func (l *Ledger) UnstageUpdate(itemID int64) {
	l.ensure()
	delete(l.ItemsUpdate, itemID)
}

// StageRemoval marks an existing item for removal and drops any pending
// update for it. Items with delivered history can never be removed.
func (l *Ledger) StageRemoval(item OrderItem) error {
	if item.HasLockedSlots() {
		return ErrRemovalBlocked
	}
	l.ensure()
	delete(l.ItemsUpdate, item.ID)
	l.ItemsRemove[item.ID] = true
	return nil
}

// UndoRemoval takes an item off the removal list.
func (l *Ledger) UndoRemoval(itemID int64) {
	l.ensure()
	delete(l.ItemsRemove, itemID)
}

// StageNewItem appends a pending addition and returns its index.
func (l *Ledger) StageNewItem(req NewItemRequest) int {
	l.ItemsAdd = append(l.ItemsAdd, req)
	return len(l.ItemsAdd) - 1
}

// UnstageNewItem deletes a pending addition. Pending additions have no
// server id yet, so undo is plain deletion, not a reversal marker.
func (l *Ledger) UnstageNewItem(index int) error {
	if index < 0 || index >= len(l.ItemsAdd) {
		return ErrNewItemNotFound
	}
	l.ItemsAdd = append(l.ItemsAdd[:index], l.ItemsAdd[index+1:]...)
	return nil
}

// StageFieldEdit records the new value of an order field measured against
// the session baseline. Editing a field back to its baseline removes the
// entry again.
func (l *Ledger) StageFieldEdit(f Field, value, baseline string) error {
	if !f.IsValid() {
		return ErrUnknownField
	}
	l.ensure()
	if value == baseline {
		delete(l.FieldEdits, f)
		return nil
	}
	l.FieldEdits[f] = value
	return nil
}

// RemovalStaged checks if the item is currently marked for removal.
func (l *Ledger) RemovalStaged(itemID int64) bool {
	return l.ItemsRemove[itemID]
}

// UpdateFor returns the staged update for an item, if any.
func (l *Ledger) UpdateFor(itemID int64) (UpdateInstruction, bool) {
	in, ok := l.ItemsUpdate[itemID]
	return in, ok
}

// HasPendingChanges checks if any collection holds at least one entry.
func (l *Ledger) HasPendingChanges() bool {
	return len(l.FieldEdits) > 0 || len(l.ItemsAdd) > 0 ||
		len(l.ItemsUpdate) > 0 || len(l.ItemsRemove) > 0
}

// PendingChangeCount sums the collection sizes for "N pending changes"
// messaging.
func (l *Ledger) PendingChangeCount() int {
	return len(l.FieldEdits) + len(l.ItemsAdd) + len(l.ItemsUpdate) + len(l.ItemsRemove)
}

// Reset drops every pending edit.
func (l *Ledger) Reset() {
	l.FieldEdits = map[Field]string{}
	l.ItemsAdd = nil
	l.ItemsUpdate = map[int64]UpdateInstruction{}
	l.ItemsRemove = map[int64]bool{}
}
