// Package store owns the client-side view of a user's orders and the
// registry of active vouchers. Every mutation of claimed counters goes
// through the order service; the store never fabricates or anticipates a
// claim result, so local state can never show an entitlement the backend
// disagrees with.
package store

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/skipit/redemption/internal/domain/order"
	"github.com/skipit/redemption/internal/domain/voucher"
	"github.com/skipit/redemption/internal/orderservice"
)

// ErrNoSession is returned by write operations when no user is signed in.
// Reads degrade silently instead: RefreshOrders just empties the list.
var ErrNoSession = errors.New("no authenticated session")

// Store caches the current user's orders and holds the active voucher
// registry. Safe for concurrent use. Service calls happen outside the lock,
// so the store stays responsive while a request is in flight; overlapping
// claims are not serialized here, the service arbitrates them.
type Store struct {
	lg *zap.Logger

	mu       sync.Mutex
	svc      orderservice.Service
	orders   []*order.Order
	vouchers map[string][]voucher.Voucher
	loading  bool
	lastErr  string
}

// New creates a store for one user session. A nil service means no user is
// signed in.
func New(svc orderservice.Service, lg *zap.Logger) *Store {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Store{
		lg:       lg,
		svc:      svc,
		vouchers: make(map[string][]voucher.Voucher),
	}
}

// Reset rebinds the store to a new session, dropping cached orders, active
// vouchers and any recorded error. Used on login, logout and user change so
// state never leaks across sessions.
func (s *Store) Reset(svc orderservice.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.svc = svc
	s.orders = nil
	s.vouchers = make(map[string][]voucher.Voucher)
	s.loading = false
	s.lastErr = ""
}

// Orders returns copies of the cached orders, newest first.
func (s *Store) Orders() []*order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*order.Order, len(s.orders))
	for i, o := range s.orders {
		out[i] = o.Clone()
	}
	return out
}

// Order returns a copy of the cached order with the given id.
func (s *Store) Order(orderID string) (*order.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o := s.find(orderID); o != nil {
		return o.Clone(), true
	}
	return nil, false
}

// Loading reports whether a refresh is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last displayable refresh error, empty when the last
// refresh succeeded.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// RefreshOrders fetches the user's orders and replaces the cached list
// wholesale. Without a session the list is emptied and no error is recorded.
// On failure the previous list is kept and the error is recorded for
// display; active vouchers are never touched by a refresh.
func (s *Store) RefreshOrders(ctx context.Context) {
	s.mu.Lock()
	svc := s.svc
	if svc == nil {
		s.orders = nil
		s.lastErr = ""
		s.mu.Unlock()
		return
	}
	s.loading = true
	s.mu.Unlock()

	orders, err := svc.MyOrders(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = "No pudimos cargar tus pedidos. Intenta nuevamente."
		s.lg.Warn("refresh orders failed", zap.Error(err))
		return
	}
	s.orders = orders
	s.lastErr = ""
	s.lg.Debug("orders refreshed", zap.Int("count", len(orders)))
}

// CreateOrder submits a purchase and, on success, prepends the created order
// to the cached list. On failure the list is unchanged and the error is
// returned for user-facing reporting.
func (s *Store) CreateOrder(ctx context.Context, req orderservice.CreateOrderRequest) (*order.Order, error) {
	s.mu.Lock()
	svc := s.svc
	s.mu.Unlock()
	if svc == nil {
		return nil, ErrNoSession
	}

	created, err := svc.CreateOrder(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	s.mu.Lock()
	s.orders = append([]*order.Order{created.Clone()}, s.orders...)
	s.mu.Unlock()

	s.lg.Info("order created", zap.String("order_id", created.ID))
	return created, nil
}

// ClaimItems submits a redemption for the given lines. Callers (the claim
// planner) bound quantities to what remains unclaimed; the store forwards
// the request as-is and lets the service arbitrate. On success the matching
// cached order is replaced with the service's authoritative version; on
// failure nothing changes locally.
func (s *Store) ClaimItems(ctx context.Context, orderID string, items []order.ClaimItem) (*order.Order, error) {
	s.mu.Lock()
	svc := s.svc
	s.mu.Unlock()
	if svc == nil {
		return nil, ErrNoSession
	}

	updated, err := svc.Claim(ctx, orderID, items)
	if err != nil {
		s.lg.Warn("claim failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, errors.Wrap(err, "claim items")
	}

	// Keyed by order id, so a response that arrives after the originating
	// view closed still lands on the right record.
	s.mu.Lock()
	for i, o := range s.orders {
		if o.ID == updated.ID {
			s.orders[i] = updated.Clone()
			break
		}
	}
	s.mu.Unlock()

	s.lg.Info("items claimed",
		zap.String("order_id", orderID),
		zap.Int("lines", len(items)),
		zap.String("status", string(updated.Status)),
	)
	return updated, nil
}

// ClaimFullOrder claims everything still unclaimed across all lines. It is a
// no-op when the order is not cached locally or nothing remains.
func (s *Store) ClaimFullOrder(ctx context.Context, orderID string) (*order.Order, error) {
	s.mu.Lock()
	o := s.find(orderID)
	var items []order.ClaimItem
	if o != nil {
		items = o.UnclaimedItems()
	}
	s.mu.Unlock()

	if o == nil || len(items) == 0 {
		return nil, nil
	}
	return s.ClaimItems(ctx, orderID, items)
}

// StoreActiveVouchers appends the batch to the order's active sequence. The
// call is append-only and does not deduplicate; callers register each minted
// batch exactly once.
func (s *Store) StoreActiveVouchers(orderID string, vouchers []voucher.Voucher) {
	if len(vouchers) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vouchers[orderID] = append(s.vouchers[orderID], vouchers...)
}

// ActiveVouchers returns a copy of the order's active voucher sequence in
// insertion order.
func (s *Store) ActiveVouchers(orderID string) []voucher.Voucher {
	s.mu.Lock()
	defer s.mu.Unlock()
	vs := s.vouchers[orderID]
	out := make([]voucher.Voucher, len(vs))
	copy(out, vs)
	return out
}

// MarkVoucherUsed removes the voucher with the given wire id from its
// order's active sequence. Using a voucher is a client-side visibility
// toggle only; the entitlement itself is spent by the claim the scanner
// performs. Unknown ids are a no-op.
func (s *Store) MarkVoucherUsed(wireID string) {
	id, err := voucher.ParseWireID(wireID)
	if err != nil {
		s.lg.Warn("unparseable voucher id", zap.String("voucher_id", wireID))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	active := s.vouchers[id.OrderID]
	kept := active[:0]
	removed := false
	for _, v := range active {
		if !removed && v.ID.WireString() == wireID {
			removed = true
			continue
		}
		kept = append(kept, v)
	}
	if !removed {
		return
	}
	if len(kept) == 0 {
		delete(s.vouchers, id.OrderID)
	} else {
		s.vouchers[id.OrderID] = kept
	}
	s.lg.Debug("voucher marked used", zap.String("voucher_id", wireID))
}

// find returns the cached order with the given id; caller holds the lock.
func (s *Store) find(orderID string) *order.Order {
	for _, o := range s.orders {
		if o.ID == orderID {
			return o
		}
	}
	return nil
}
