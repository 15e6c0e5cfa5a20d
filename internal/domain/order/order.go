package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status describes how much of an order has been redeemed. It is never stored
// independently: it is always derived from the lines via StatusOf.
type Status string

const (
	// StatusCompleted means the order is paid and no units have been claimed.
	StatusCompleted Status = "COMPLETED"
	// StatusPartiallyClaimed means some but not all units have been claimed.
	StatusPartiallyClaimed Status = "PARTIALLY_CLAIMED"
	// StatusFullyClaimed means every unit of every line has been claimed.
	StatusFullyClaimed Status = "FULLY_CLAIMED"
)

// Event is the snapshot of the event an order was purchased for, frozen at
// purchase time so later catalog edits never rewrite order history.
type Event struct {
	ID       int
	Name     string
	Date     string
	Time     string
	Location string
}

// Line is one product variation entry within an order. Quantity is fixed at
// creation; Claimed only ever grows, and only through a claim accepted by the
// order service.
type Line struct {
	VariationID   int
	ProductName   string
	VariationName string
	Quantity      int
	Claimed       int
	UnitPrice     decimal.Decimal
}

// Remaining returns how many units of the line are still unclaimed.
func (l Line) Remaining() int {
	return l.Quantity - l.Claimed
}

// Order is a completed purchase tracked for redemption.
type Order struct {
	ID        string
	UserID    string
	Event     Event
	Lines     []Line
	Total     decimal.Decimal
	Status    Status
	CreatedAt time.Time
}

// ClaimItem addresses a claim at one line of an order.
type ClaimItem struct {
	VariationID int
	Quantity    int
}

// Line returns the line with the given variation id, or nil.
func (o *Order) Line(variationID int) *Line {
	for i := range o.Lines {
		if o.Lines[i].VariationID == variationID {
			return &o.Lines[i]
		}
	}
	return nil
}

// LineIndex returns the positional index of the line with the given variation
// id, or -1. Individual voucher ids reference lines by this index.
func (o *Order) LineIndex(variationID int) int {
	for i := range o.Lines {
		if o.Lines[i].VariationID == variationID {
			return i
		}
	}
	return -1
}

// UnclaimedItems builds the claim request that would redeem everything still
// outstanding on the order. Fully claimed lines are omitted.
func (o *Order) UnclaimedItems() []ClaimItem {
	var items []ClaimItem
	for _, l := range o.Lines {
		if rem := l.Remaining(); rem > 0 {
			items = append(items, ClaimItem{VariationID: l.VariationID, Quantity: rem})
		}
	}
	return items
}

// Clone returns a deep copy so cached orders can be handed out without
// exposing the store's internal line slices to mutation.
func (o *Order) Clone() *Order {
	c := *o
	c.Lines = make([]Line, len(o.Lines))
	copy(c.Lines, o.Lines)
	return &c
}

// StatusOf derives the order status from the lines' claimed/quantity ratios.
func StatusOf(lines []Line) Status {
	total, claimed := 0, 0
	for _, l := range lines {
		total += l.Quantity
		claimed += l.Claimed
	}
	switch {
	case claimed == 0:
		return StatusCompleted
	case claimed < total:
		return StatusPartiallyClaimed
	default:
		return StatusFullyClaimed
	}
}
