package editing

import "errors"

// Domain errors for the editing engine.
var (
	// ErrSessionNotFound indicates the edit session expired or never existed.
	ErrSessionNotFound = errors.New("edit session not found")

	// Draft and slot errors.
	ErrItemNotFound = errors.New("order item not found in session")
	ErrSlotNotFound = errors.New("delivery slot not found")
	ErrSlotLocked   = errors.New("delivery slot is locked after delivery")
	ErrLastSlot     = errors.New("a new item needs at least one delivery slot")

	// Ledger errors.
	ErrRemovalBlocked  = errors.New("item has delivered quantity and cannot be removed")
	ErrNewItemNotFound = errors.New("pending new item not found")
	ErrUnknownField    = errors.New("unknown order field")

	// Save errors.
	ErrNoPendingChanges = errors.New("no pending changes to save")
	ErrSaveInFlight     = errors.New("a save is already in flight for this session")
)
