package voucher

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/skipit/redemption/internal/domain/order"
)

// Kind distinguishes a voucher covering a whole order from one covering a
// single unit of a single line.
type Kind string

const (
	// KindGlobal bundles the entire order into one scannable voucher.
	KindGlobal Kind = "GLOBAL"
	// KindIndividual covers exactly one unit of one order line.
	KindIndividual Kind = "INDIVIDUAL"
)

// ID identifies a voucher. A global voucher is identified by the order alone;
// an individual voucher adds the line index and a 1-based per-line sequence
// number that is unique within the order. The structured form is what the
// rest of the code works with; WireString renders the format scanners expect.
type ID struct {
	OrderID string
	Line    int
	Seq     int
}

// GlobalID returns the ID of the order-wide voucher.
func GlobalID(orderID string) ID {
	return ID{OrderID: orderID}
}

// IndividualID returns the ID of the seq-th single-unit voucher of a line.
func IndividualID(orderID string, line, seq int) ID {
	return ID{OrderID: orderID, Line: line, Seq: seq}
}

// Global reports whether the ID names an order-wide voucher.
func (id ID) Global() bool {
	return id.Seq == 0
}

// WireString renders the ID in the scanner-facing format: the bare order id
// for a global voucher, "<orderID>-I<line>-N<seq>" for an individual one.
// Scanners match individual ids with `^(.+)-I(\d+)-N\d+$`, so the suffix
// shape must not change.
func (id ID) WireString() string {
	if id.Global() {
		return id.OrderID
	}
	return fmt.Sprintf("%s-I%d-N%d", id.OrderID, id.Line, id.Seq)
}

// individualIDPattern is anchored at the end so order ids containing dashes
// (e.g. "ORD-DB83346B") parse correctly.
var individualIDPattern = regexp.MustCompile(`^(.+)-I(\d+)-N(\d+)$`)

// ParseWireID parses a scanner-facing voucher id. Ids without the individual
// suffix are treated as global (the id is the order id).
func ParseWireID(s string) (ID, error) {
	if s == "" {
		return ID{}, fmt.Errorf("empty voucher id")
	}
	m := individualIDPattern.FindStringSubmatch(s)
	if m == nil {
		return GlobalID(s), nil
	}
	line, err := strconv.Atoi(m[2])
	if err != nil {
		return ID{}, fmt.Errorf("parse line index %q: %w", m[2], err)
	}
	seq, err := strconv.Atoi(m[3])
	if err != nil {
		return ID{}, fmt.Errorf("parse sequence %q: %w", m[3], err)
	}
	if seq < 1 {
		return ID{}, fmt.Errorf("voucher sequence must be >= 1, got %d", seq)
	}
	return IndividualID(m[1], line, seq), nil
}

// Voucher is an immutable scannable token: either the whole order (global) or
// one unit of one line (individual). Drinks holds display strings like
// "2x Corona Extra (330ml)"; Total is the monetary amount the voucher
// represents.
type Voucher struct {
	Kind      Kind
	ID        ID
	EventName string
	Drinks    []string
	Total     decimal.Decimal
}

// describeLine renders a line content entry for voucher display.
func describeLine(l order.Line, quantity int) string {
	if l.VariationName == "" {
		return fmt.Sprintf("%dx %s", quantity, l.ProductName)
	}
	return fmt.Sprintf("%dx %s (%s)", quantity, l.ProductName, l.VariationName)
}

// NewGlobal builds the order-wide voucher: every line's full purchased
// quantity and the order total. It does not consume any entitlement; the
// claim happens when the voucher is scanned.
func NewGlobal(o *order.Order) Voucher {
	drinks := make([]string, len(o.Lines))
	for i, l := range o.Lines {
		drinks[i] = describeLine(l, l.Quantity)
	}
	return Voucher{
		Kind:      KindGlobal,
		ID:        GlobalID(o.ID),
		EventName: o.Event.Name,
		Drinks:    drinks,
		Total:     o.Total,
	}
}

// NewIndividual builds the seq-th single-unit voucher for the line at the
// given index: one drink entry and the line's unit price as total.
func NewIndividual(o *order.Order, lineIndex, seq int) Voucher {
	l := o.Lines[lineIndex]
	return Voucher{
		Kind:      KindIndividual,
		ID:        IndividualID(o.ID, lineIndex, seq),
		EventName: o.Event.Name,
		Drinks:    []string{describeLine(l, 1)},
		Total:     l.UnitPrice,
	}
}
