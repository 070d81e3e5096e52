package editinghttp

import (
	"time"

	"github.com/orderbench/orderbench/internal/editing"
)

// slotView is one delivery row as rendered to the UI. Locked rows are
// delivered history; the rest reflect the effective editable state.
type slotView struct {
	ID       *int64  `json:"id"`
	Quantity float64 `json:"quantity"`
	Date     string  `json:"delivery_date"`
	Time     string  `json:"delivery_time,omitempty"`
	Status   string  `json:"status,omitempty"`
	Locked   bool    `json:"locked"`
}

// itemView is one order line with its allocation summary and staging state.
type itemView struct {
	ID          int64              `json:"id"`
	ProductID   int64              `json:"product_id"`
	ProductName string             `json:"product_name,omitempty"`
	Unit        string             `json:"unit_of_measure,omitempty"`
	Quantity    float64            `json:"quantity"`
	Delivered   float64            `json:"delivered_quantity"`
	Allocation  editing.Allocation `json:"allocation"`
	Staged      bool               `json:"staged"`
	Removed     bool               `json:"removed"`
	Deliveries  []slotView         `json:"deliveries"`
}

// newItemView is one pending addition, addressed by its index.
type newItemView struct {
	Index      int                `json:"index"`
	ProductID  int64              `json:"product_id"`
	Quantity   float64            `json:"quantity"`
	Allocation editing.Allocation `json:"allocation"`
	Deliveries []slotView         `json:"deliveries"`
}

// sessionView is the full editing state sent back after every call that
// reshapes the session.
type sessionView struct {
	ID             string            `json:"id"`
	Order          editing.Order     `json:"order"`
	StagedFields   map[string]string `json:"staged_fields,omitempty"`
	Items          []itemView        `json:"items"`
	NewItems       []newItemView     `json:"new_items,omitempty"`
	PendingChanges int               `json:"pending_changes"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func buildSessionView(sess *editing.Session) sessionView {
	view := sessionView{
		ID:             sess.ID,
		Order:          sess.Order,
		Items:          make([]itemView, 0, len(sess.Items)),
		PendingChanges: sess.PendingChangeCount(),
		CreatedAt:      sess.CreatedAt,
		UpdatedAt:      sess.UpdatedAt,
	}
	if len(sess.Ledger.FieldEdits) > 0 {
		view.StagedFields = make(map[string]string, len(sess.Ledger.FieldEdits))
		for f, v := range sess.Ledger.FieldEdits {
			view.StagedFields[string(f)] = v
		}
	}
	for _, item := range sess.Items {
		view.Items = append(view.Items, buildItemView(item, &sess.Ledger))
	}
	for i, req := range sess.Ledger.ItemsAdd {
		view.NewItems = append(view.NewItems, buildNewItemView(i, req))
	}
	return view
}

// buildItemView renders the effective state of one item: the staged update
// when one is pending, the untouched baseline otherwise. Delivered history
// always leads the delivery list.
func buildItemView(item editing.OrderItem, ledger *editing.Ledger) itemView {
	delivered := item.DeliveredQuantity()
	view := itemView{
		ID:          item.ID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Unit:        item.Unit,
		Delivered:   delivered,
		Removed:     ledger.RemovalStaged(item.ID),
	}
	for _, s := range item.LockedSlots() {
		view.Deliveries = append(view.Deliveries, slotView{
			ID:       s.ID,
			Quantity: s.Quantity,
			Date:     s.Date,
			Time:     editing.CanonicalTime(s.Time),
			Status:   string(s.Status),
			Locked:   true,
		})
	}

	if instr, ok := ledger.UpdateFor(item.ID); ok {
		view.Staged = true
		view.Quantity = instr.Quantity
		qs := make([]float64, 0, len(instr.Deliveries))
		for _, s := range instr.Deliveries {
			qs = append(qs, s.Quantity)
			view.Deliveries = append(view.Deliveries, instructionSlotView(s))
		}
		view.Allocation = editing.Allocate(instr.Quantity, delivered, qs)
		return view
	}

	view.Quantity = item.Quantity
	editable := item.EditableSlots()
	qs := make([]float64, 0, len(editable))
	for _, s := range editable {
		qs = append(qs, s.Quantity)
		view.Deliveries = append(view.Deliveries, slotView{
			ID:       s.ID,
			Quantity: s.Quantity,
			Date:     s.Date,
			Time:     editing.CanonicalTime(s.Time),
			Status:   string(s.Status),
		})
	}
	view.Allocation = editing.Allocate(item.Quantity, delivered, qs)
	return view
}

func buildNewItemView(index int, req editing.NewItemRequest) newItemView {
	view := newItemView{
		Index:     index,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	}
	qs := make([]float64, 0, len(req.Deliveries))
	for _, s := range req.Deliveries {
		qs = append(qs, s.Quantity)
		view.Deliveries = append(view.Deliveries, instructionSlotView(s))
	}
	view.Allocation = editing.Allocate(req.Quantity, 0, qs)
	return view
}

func instructionSlotView(s editing.SlotInstruction) slotView {
	v := slotView{
		ID:       s.ID,
		Quantity: s.Quantity,
		Date:     s.Date,
	}
	if s.Time != nil {
		v.Time = *s.Time
	}
	return v
}
