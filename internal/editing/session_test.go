package editing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionFixture() *Session {
	order := Order{ID: 3, ContactName: "John", ContactNumber: "0812", Instructions: ""}
	return NewSession(order, []OrderItem{itemWithHistory(), scheduledItem()})
}

func TestNewSession(t *testing.T) {
	s := sessionFixture()
	assert.NotEmpty(t, s.ID)
	assert.False(t, s.HasPendingChanges())
	assert.False(t, s.CreatedAt.IsZero())

	_, ok := s.Item(11)
	assert.True(t, ok)
	_, ok = s.Item(999)
	assert.False(t, ok)
}

func TestSession_StageItemEdit(t *testing.T) {
	t.Run("stages a valid changed edit", func(t *testing.T) {
		s := sessionFixture()
		res, err := s.StageItemEdit(11, ItemEdit{
			Quantity:   11,
			Deliveries: []SlotEdit{{ID: idp(42), Quantity: 7, Date: "2025-03-01"}},
		})
		require.NoError(t, err)
		assert.True(t, res.Staged)
		assert.True(t, res.Changed)
		assert.Empty(t, res.Violations)
		assert.True(t, res.Allocation.Balanced)

		instr, ok := s.Ledger.UpdateFor(11)
		require.True(t, ok)
		assert.Equal(t, 11.0, instr.Quantity)
	})

	t.Run("stages an added slot next to delivered history", func(t *testing.T) {
		s := NewSession(Order{ID: 3}, []OrderItem{deliveredOnlyItem()})
		res, err := s.StageItemEdit(11, ItemEdit{
			Quantity:   10,
			Deliveries: []SlotEdit{{Quantity: 6, Date: "2025-03-01"}},
		})
		require.NoError(t, err)
		require.True(t, res.Staged)

		instr, ok := s.Ledger.UpdateFor(11)
		require.True(t, ok)
		assert.Equal(t, int64(11), instr.ItemID)
		assert.Equal(t, 10.0, instr.Quantity)
		require.Len(t, instr.Deliveries, 1)
		assert.Nil(t, instr.Deliveries[0].ID)
		assert.Equal(t, 6.0, instr.Deliveries[0].Quantity)
		assert.Equal(t, "2025-03-01", instr.Deliveries[0].Date)
		assert.Nil(t, instr.Deliveries[0].Time)
	})

	t.Run("violations stage nothing", func(t *testing.T) {
		s := sessionFixture()
		res, err := s.StageItemEdit(11, ItemEdit{
			Quantity:   10,
			Deliveries: []SlotEdit{{ID: idp(42), Quantity: 5, Date: "2025-03-01"}},
		})
		require.NoError(t, err)
		assert.False(t, res.Staged)
		assert.Equal(t, []string{"1 remaining to allocate"}, res.Violations)
		assert.Equal(t, 1.0, res.Allocation.Remaining)
		assert.False(t, s.HasPendingChanges())
	})

	t.Run("clamp notices ride along", func(t *testing.T) {
		s := sessionFixture()
		res, err := s.StageItemEdit(11, ItemEdit{
			Quantity:   2,
			Deliveries: []SlotEdit{{ID: idp(42), Quantity: 6, Date: "2025-03-01"}},
		})
		require.NoError(t, err)
		require.Len(t, res.Notices, 1)
		assert.Equal(t, "minimum quantity is 4, the amount already delivered", res.Notices[0])
		// the clamped quantity of 4 leaves the slot over-allocated
		assert.False(t, res.Staged)
		assert.NotEmpty(t, res.Violations)
	})

	t.Run("resubmitting the original clears the staged update", func(t *testing.T) {
		s := sessionFixture()
		_, err := s.StageItemEdit(11, ItemEdit{
			Quantity:   11,
			Deliveries: []SlotEdit{{ID: idp(42), Quantity: 7, Date: "2025-03-01"}},
		})
		require.NoError(t, err)
		require.True(t, s.HasPendingChanges())

		res, err := s.StageItemEdit(11, ItemEdit{
			Quantity:   10,
			Deliveries: []SlotEdit{{ID: idp(42), Quantity: 6, Date: "2025-03-01"}},
		})
		require.NoError(t, err)
		assert.True(t, res.Staged)
		assert.False(t, res.Changed)
		assert.False(t, s.HasPendingChanges())
	})

	t.Run("unknown item", func(t *testing.T) {
		s := sessionFixture()
		_, err := s.StageItemEdit(999, ItemEdit{Quantity: 1})
		assert.ErrorIs(t, err, ErrItemNotFound)
	})

	t.Run("locked slot reference is an error, not a violation", func(t *testing.T) {
		s := sessionFixture()
		_, err := s.StageItemEdit(11, ItemEdit{
			Quantity:   10,
			Deliveries: []SlotEdit{{ID: idp(41), Quantity: 4, Date: "2025-02-01"}},
		})
		assert.ErrorIs(t, err, ErrSlotLocked)
		assert.False(t, s.HasPendingChanges())
	})
}

func TestSession_StageNewItem(t *testing.T) {
	t.Run("stages a valid addition", func(t *testing.T) {
		s := sessionFixture()
		res, err := s.StageNewItem(NewItemInput{
			ProductID:  7,
			Quantity:   3,
			Deliveries: []SlotEdit{{Quantity: 3, Date: "2025-03-01", Time: "8:00"}},
		})
		require.NoError(t, err)
		assert.True(t, res.Staged)

		require.Len(t, s.Ledger.ItemsAdd, 1)
		added := s.Ledger.ItemsAdd[0]
		assert.Equal(t, int64(7), added.ProductID)
		require.Len(t, added.Deliveries, 1)
		require.NotNil(t, added.Deliveries[0].Time)
		assert.Equal(t, "08:00", *added.Deliveries[0].Time)
	})

	t.Run("a product must be selected", func(t *testing.T) {
		s := sessionFixture()
		res, err := s.StageNewItem(NewItemInput{
			Quantity:   3,
			Deliveries: []SlotEdit{{Quantity: 3, Date: "2025-03-01"}},
		})
		require.NoError(t, err)
		assert.False(t, res.Staged)
		assert.Contains(t, res.Violations, "a product must be selected")
		assert.Empty(t, s.Ledger.ItemsAdd)
	})

	t.Run("violations stage nothing", func(t *testing.T) {
		s := sessionFixture()
		res, err := s.StageNewItem(NewItemInput{
			ProductID:  7,
			Quantity:   3,
			Deliveries: []SlotEdit{{Quantity: 2, Date: ""}},
		})
		require.NoError(t, err)
		assert.False(t, res.Staged)
		assert.Contains(t, res.Violations, "1 remaining to allocate")
		assert.Contains(t, res.Violations, "delivery 1: date is required")
		assert.Empty(t, s.Ledger.ItemsAdd)
	})

	t.Run("unstage deletes a pending addition", func(t *testing.T) {
		s := sessionFixture()
		_, err := s.StageNewItem(NewItemInput{
			ProductID:  7,
			Quantity:   3,
			Deliveries: []SlotEdit{{Quantity: 3, Date: "2025-03-01"}},
		})
		require.NoError(t, err)

		require.NoError(t, s.UnstageNewItem(0))
		assert.Empty(t, s.Ledger.ItemsAdd)
		assert.ErrorIs(t, s.UnstageNewItem(0), ErrNewItemNotFound)
	})
}

func TestSession_Removal(t *testing.T) {
	t.Run("blocked by delivered history", func(t *testing.T) {
		s := sessionFixture()
		err := s.StageRemoval(11)
		require.ErrorIs(t, err, ErrRemovalBlocked)
		assert.Empty(t, s.Ledger.ItemsRemove)
	})

	t.Run("clean items can be removed and restored", func(t *testing.T) {
		s := sessionFixture()
		require.NoError(t, s.StageRemoval(12))
		assert.True(t, s.Ledger.RemovalStaged(12))

		require.NoError(t, s.UndoRemoval(12))
		assert.False(t, s.Ledger.RemovalStaged(12))
		assert.False(t, s.HasPendingChanges())
	})

	t.Run("unknown items", func(t *testing.T) {
		s := sessionFixture()
		assert.ErrorIs(t, s.StageRemoval(999), ErrItemNotFound)
		assert.ErrorIs(t, s.UndoRemoval(999), ErrItemNotFound)
	})
}

func TestSession_FieldEdits(t *testing.T) {
	t.Run("editing back to the baseline clears the entry", func(t *testing.T) {
		s := sessionFixture()
		require.NoError(t, s.StageRemoval(12))
		require.NoError(t, s.StageFieldEdit(FieldContactName, "Jane"))
		assert.Equal(t, 2, s.PendingChangeCount())

		require.NoError(t, s.StageFieldEdit(FieldContactName, "John"))
		assert.NotContains(t, s.Ledger.FieldEdits, FieldContactName)
		// the removal is still pending
		assert.True(t, s.HasPendingChanges())
		assert.Equal(t, 1, s.PendingChangeCount())
	})

	t.Run("unknown field", func(t *testing.T) {
		s := sessionFixture()
		assert.ErrorIs(t, s.StageFieldEdit(Field("color"), "red"), ErrUnknownField)
	})
}

func TestSession_PayloadAndReset(t *testing.T) {
	t.Run("payload is nil only when nothing is pending", func(t *testing.T) {
		s := sessionFixture()
		assert.Nil(t, s.BuildPayload())

		require.NoError(t, s.StageFieldEdit(FieldContactName, "Jane"))
		assert.NotNil(t, s.BuildPayload())
	})

	t.Run("reset restores the empty state regardless of history", func(t *testing.T) {
		s := sessionFixture()
		require.NoError(t, s.StageFieldEdit(FieldContactName, "Jane"))
		require.NoError(t, s.StageRemoval(12))
		_, err := s.StageNewItem(NewItemInput{
			ProductID:  7,
			Quantity:   3,
			Deliveries: []SlotEdit{{Quantity: 3, Date: "2025-03-01"}},
		})
		require.NoError(t, err)

		s.Reset()
		assert.False(t, s.HasPendingChanges())
		assert.Zero(t, s.PendingChangeCount())
		assert.Nil(t, s.BuildPayload())

		s.Reset()
		assert.False(t, s.HasPendingChanges())
	})
}

func TestSession_Rebase(t *testing.T) {
	s := sessionFixture()
	require.NoError(t, s.StageFieldEdit(FieldContactName, "Jane"))

	fresh := Order{ID: 3, ContactName: "Jane", ContactNumber: "0812"}
	s.Rebase(fresh, []OrderItem{scheduledItem()})

	assert.False(t, s.HasPendingChanges())
	assert.Equal(t, "Jane", s.Order.ContactName)
	_, ok := s.Item(11)
	assert.False(t, ok)

	// the baseline is re-armed: staging the old value is now a change
	require.NoError(t, s.StageFieldEdit(FieldContactName, "John"))
	assert.Equal(t, "John", s.Ledger.FieldEdits[FieldContactName])
}
