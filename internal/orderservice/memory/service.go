// Package memory implements the order service contract in process: orders
// with server-assigned ids, price and name snapshots, and all-or-nothing
// claim arbitration. It backs the dev server and the test suites; it is the
// stand-in for the production backend that owns the claimed counters.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/skipit/redemption/internal/domain/order"
)

// Variation is a sellable catalog unit the service can snapshot onto orders.
type Variation struct {
	ID            int
	ProductName   string
	VariationName string
	Price         decimal.Decimal
}

// Sentinel errors for order creation.
var (
	ErrEventNotFound     = errors.New("event not found")
	ErrVariationNotFound = errors.New("product variation not found")
)

// Service is an in-memory order service. All operations are safe for
// concurrent use; claims are serialized, so of two overlapping claims for the
// same units exactly one wins.
type Service struct {
	mu         sync.Mutex
	events     map[int]order.Event
	variations map[int]Variation
	orders     map[string]*order.Order
	now        func() time.Time
}

// New returns an empty service. Seed events and variations before creating
// orders.
func New() *Service {
	return &Service{
		events:     make(map[int]order.Event),
		variations: make(map[int]Variation),
		orders:     make(map[string]*order.Order),
		now:        time.Now,
	}
}

// AddEvent registers an event orders can be placed against.
func (s *Service) AddEvent(e order.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
}

// AddVariation registers a catalog variation.
func (s *Service) AddVariation(v Variation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variations[v.ID] = v
}

// CatalogSize returns the number of registered variations. The dev server's
// readiness probe uses it to hold traffic until the catalog is seeded.
func (s *Service) CatalogSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.variations)
}

// AddOrder inserts a pre-built order, for seeding known fixtures.
func (s *Service) AddOrder(o *order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o.Clone()
}

// newOrderID mints ids in the backend's "ORD-XXXXXXXX" shape.
func newOrderID() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "ORD-" + raw[:8]
}

// CreateOrder validates the event and every variation, snapshots names and
// prices, computes the total server-side, and stores the order with zero
// claimed counters and COMPLETED status.
func (s *Service) CreateOrder(userID string, eventID int, items []order.ClaimItem) (*order.Order, error) {
	if len(items) == 0 {
		return nil, order.ErrEmptyClaim
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[eventID]
	if !ok {
		return nil, ErrEventNotFound
	}

	lines := make([]order.Line, len(items))
	total := decimal.Zero
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, &order.InvalidClaimQuantityError{VariationID: item.VariationID}
		}
		v, ok := s.variations[item.VariationID]
		if !ok {
			return nil, errors.Wrapf(ErrVariationNotFound, "variation %d", item.VariationID)
		}
		lines[i] = order.Line{
			VariationID:   v.ID,
			ProductName:   v.ProductName,
			VariationName: v.VariationName,
			Quantity:      item.Quantity,
			UnitPrice:     v.Price,
		}
		total = total.Add(v.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	o := &order.Order{
		ID:        newOrderID(),
		UserID:    userID,
		Event:     ev,
		Lines:     lines,
		Total:     total,
		Status:    order.StatusCompleted,
		CreatedAt: s.now(),
	}
	s.orders[o.ID] = o
	return o.Clone(), nil
}

// OrdersForUser returns the user's orders, newest first.
func (s *Service) OrdersForUser(userID string) []*order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*order.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// OrderByID returns a copy of the order, or order.ErrOrderNotFound.
func (s *Service) OrderByID(orderID string) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return o.Clone(), nil
}

// Claim applies the items to the order all-or-nothing and returns the updated
// order. A rejected claim leaves the stored order byte-for-byte unchanged.
func (s *Service) Claim(orderID string, items []order.ClaimItem) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	if err := o.ApplyClaim(items); err != nil {
		return nil, err
	}
	return o.Clone(), nil
}
