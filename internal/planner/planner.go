// Package planner turns "how many of each drink do I want to redeem now"
// into voucher batches. It is the only place claim quantities are chosen, so
// it is also the place that bounds them to what is still unclaimed.
package planner

import (
	"context"

	"github.com/skipit/redemption/internal/domain/order"
	"github.com/skipit/redemption/internal/domain/voucher"
	"github.com/skipit/redemption/internal/store"
)

// Planner manages the claim selection for a single order. Create one each
// time the manage view is opened; the selection always starts at zero and is
// never persisted across sessions.
type Planner struct {
	store    *store.Store
	orderID  string
	selected map[int]int // variation id -> units to claim now
}

// New opens a planner for the given order.
func New(st *store.Store, orderID string) *Planner {
	return &Planner{
		store:    st,
		orderID:  orderID,
		selected: make(map[int]int),
	}
}

// OrderID returns the order this planner manages.
func (p *Planner) OrderID() string {
	return p.orderID
}

// SetClaimAmount records how many units of a line to claim now, clamped to
// [0, remaining]. Lines with nothing remaining are pinned at zero, and
// variations the order does not contain are ignored.
func (p *Planner) SetClaimAmount(variationID, amount int) {
	o, ok := p.store.Order(p.orderID)
	if !ok {
		return
	}
	l := o.Line(variationID)
	if l == nil {
		return
	}
	if amount < 0 {
		amount = 0
	}
	if rem := l.Remaining(); amount > rem {
		amount = rem
	}
	if amount == 0 {
		delete(p.selected, variationID)
		return
	}
	p.selected[variationID] = amount
}

// ClaimAmount returns the currently selected amount for a variation.
func (p *Planner) ClaimAmount(variationID int) int {
	return p.selected[variationID]
}

// TotalSelected sums the selected amounts across all lines.
func (p *Planner) TotalSelected() int {
	total := 0
	for _, n := range p.selected {
		total += n
	}
	return total
}

// PlanGlobalVoucher bundles the whole order into a single voucher and
// registers it as active. No claim is submitted: a global voucher is a
// presentation bundle, the entitlement is spent when the scanner claims it.
func (p *Planner) PlanGlobalVoucher() (voucher.Voucher, error) {
	o, ok := p.store.Order(p.orderID)
	if !ok {
		return voucher.Voucher{}, order.ErrOrderNotFound
	}
	v := voucher.NewGlobal(o)
	p.store.StoreActiveVouchers(o.ID, []voucher.Voucher{v})
	return v, nil
}

// PlanIndividualVouchers claims the selected quantities and mints one
// single-unit voucher per claimed unit, sequence numbers continuing from
// each line's pre-claim count. Vouchers are registered only after the
// service accepts the claim; a rejected claim issues nothing. With nothing
// selected the call is a no-op.
func (p *Planner) PlanIndividualVouchers(ctx context.Context) ([]voucher.Voucher, error) {
	if p.TotalSelected() == 0 {
		return nil, nil
	}
	o, ok := p.store.Order(p.orderID)
	if !ok {
		return nil, order.ErrOrderNotFound
	}

	// Walk the order's lines (not the map) for a stable batch order, and
	// mint vouchers from the pre-claim counters so sequence numbers continue
	// where the line left off.
	var (
		items    []order.ClaimItem
		vouchers []voucher.Voucher
	)
	for i, l := range o.Lines {
		amount := p.selected[l.VariationID]
		if amount == 0 {
			continue
		}
		items = append(items, order.ClaimItem{VariationID: l.VariationID, Quantity: amount})
		for n := 1; n <= amount; n++ {
			vouchers = append(vouchers, voucher.NewIndividual(o, i, l.Claimed+n))
		}
	}

	if _, err := p.store.ClaimItems(ctx, o.ID, items); err != nil {
		return nil, err
	}

	p.store.StoreActiveVouchers(o.ID, vouchers)
	p.selected = make(map[int]int)
	return vouchers, nil
}
