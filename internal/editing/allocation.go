package editing

import (
	"fmt"

	"github.com/orderbench/orderbench/internal/quantity"
)

// Allocation is the structured result of comparing an item's editable slot
// quantities against the quantity still to be covered. The same result
// backs inline feedback and save-time validation, so both are blocked by
// the same rule.
type Allocation struct {
	Allocated float64 `json:"allocated"`
	Required  float64 `json:"required"`
	Remaining float64 `json:"remaining"`
	Balanced  bool    `json:"balanced"`
}

// Allocate computes the allocation state for an item. Every term is rounded
// to two decimal places before comparison, and the verdict tolerates
// quantity.Epsilon, so repeated float arithmetic cannot flip it.
func Allocate(total, delivered float64, slotQuantities []float64) Allocation {
	allocated := quantity.Sum2(slotQuantities...)
	required := quantity.Sub2(total, delivered)
	remaining := quantity.Sub2(required, allocated)
	return Allocation{
		Allocated: allocated,
		Required:  required,
		Remaining: remaining,
		Balanced:  quantity.IsZero(remaining),
	}
}

// Violation renders the over/under message for an unbalanced allocation,
// or "" when balanced.
func (a Allocation) Violation() string {
	switch {
	case a.Balanced:
		return ""
	case a.Remaining > 0:
		return fmt.Sprintf("%s remaining to allocate", quantity.Format(a.Remaining))
	default:
		return fmt.Sprintf("over-allocated by %s", quantity.Format(-a.Remaining))
	}
}
