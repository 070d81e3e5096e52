package editing

import "sort"

// EditOrderPayload is the sparse batch-edit request for the backend of
// record. A key is omitted entirely when its collection is empty, never
// sent as an empty list: presence means "apply this set of operations".
type EditOrderPayload struct {
	Order       map[Field]string    `json:"order,omitempty"`
	ItemsAdd    []NewItemRequest    `json:"items_add,omitempty"`
	ItemsUpdate []UpdateInstruction `json:"items_update,omitempty"`
	ItemsRemove []int64             `json:"items_remove,omitempty"`
}

// BuildPayload flattens the ledger into the wire payload, nil when nothing
// is pending. Updates and removals are emitted in item-id order so the
// same ledger always yields the same payload.
func (l *Ledger) BuildPayload() *EditOrderPayload {
	if !l.HasPendingChanges() {
		return nil
	}
	p := &EditOrderPayload{}
	if len(l.FieldEdits) > 0 {
		p.Order = make(map[Field]string, len(l.FieldEdits))
		for f, v := range l.FieldEdits {
			p.Order[f] = v
		}
	}
	if len(l.ItemsAdd) > 0 {
		p.ItemsAdd = append([]NewItemRequest(nil), l.ItemsAdd...)
	}
	if len(l.ItemsUpdate) > 0 {
		p.ItemsUpdate = make([]UpdateInstruction, 0, len(l.ItemsUpdate))
		for _, in := range l.ItemsUpdate {
			p.ItemsUpdate = append(p.ItemsUpdate, in)
		}
		sort.Slice(p.ItemsUpdate, func(i, j int) bool {
			return p.ItemsUpdate[i].ItemID < p.ItemsUpdate[j].ItemID
		})
	}
	if len(l.ItemsRemove) > 0 {
		p.ItemsRemove = make([]int64, 0, len(l.ItemsRemove))
		for id := range l.ItemsRemove {
			p.ItemsRemove = append(p.ItemsRemove, id)
		}
		sort.Slice(p.ItemsRemove, func(i, j int) bool {
			return p.ItemsRemove[i] < p.ItemsRemove[j]
		})
	}
	return p
}
