package order

import "fmt"

// Sentinel errors for claim validation.
var (
	ErrEmptyClaim    = fmt.Errorf("claim items required")
	ErrFullyClaimed  = fmt.Errorf("order already fully claimed")
	ErrOrderNotFound = fmt.Errorf("order not found")
)

// UnknownVariationError indicates a claim addressed a variation the order
// does not contain.
type UnknownVariationError struct {
	VariationID int
}

func (e *UnknownVariationError) Error() string {
	return fmt.Sprintf("order has no line for variation %d", e.VariationID)
}

// ClaimExceedsRemainingError indicates a claim requested more units than a
// line has left unclaimed.
type ClaimExceedsRemainingError struct {
	VariationID int
	Requested   int
	Remaining   int
}

func (e *ClaimExceedsRemainingError) Error() string {
	return fmt.Sprintf("claim of %d exceeds %d remaining for variation %d",
		e.Requested, e.Remaining, e.VariationID)
}

// InvalidClaimQuantityError indicates a claim item with a non-positive
// quantity.
type InvalidClaimQuantityError struct {
	VariationID int
}

func (e *InvalidClaimQuantityError) Error() string {
	return fmt.Sprintf("claim quantity must be greater than 0 for variation %d", e.VariationID)
}

// ApplyClaim validates every item against the order's remaining quantities
// and, only if all pass, increments the claimed counters and recomputes the
// status. Items naming the same variation are summed before validation, so a
// request cannot sneak past the remaining count in installments. On any
// validation error the order is left untouched; a claim is all-or-nothing.
func (o *Order) ApplyClaim(items []ClaimItem) error {
	if len(items) == 0 {
		return ErrEmptyClaim
	}
	requested := make(map[int]int, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return &InvalidClaimQuantityError{VariationID: item.VariationID}
		}
		l := o.Line(item.VariationID)
		if l == nil {
			return &UnknownVariationError{VariationID: item.VariationID}
		}
		requested[item.VariationID] += item.Quantity
		if total := requested[item.VariationID]; total > l.Remaining() {
			return &ClaimExceedsRemainingError{
				VariationID: item.VariationID,
				Requested:   total,
				Remaining:   l.Remaining(),
			}
		}
	}
	for id, quantity := range requested {
		o.Line(id).Claimed += quantity
	}
	o.Status = StatusOf(o.Lines)
	return nil
}
