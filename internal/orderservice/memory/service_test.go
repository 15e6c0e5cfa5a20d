package memory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skipit/redemption/internal/domain/order"
)

func newTestService() *Service {
	s := New()
	s.AddEvent(order.Event{ID: 1, Name: "Fiesta Primavera"})
	s.AddVariation(Variation{ID: 104, ProductName: "Pisco Sour", VariationName: "Tradicional", Price: decimal.NewFromInt(7000)})
	s.AddVariation(Variation{ID: 101, ProductName: "Corona Extra", VariationName: "330ml", Price: decimal.NewFromInt(4500)})
	return s
}

func TestCreateOrder(t *testing.T) {
	s := newTestService()

	o, err := s.CreateOrder("u1", 1, []order.ClaimItem{
		{VariationID: 104, Quantity: 2},
		{VariationID: 101, Quantity: 1},
	})
	require.NoError(t, err)

	assert.Regexp(t, `^ORD-[0-9A-F]{8}$`, o.ID)
	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, order.StatusCompleted, o.Status)
	require.Len(t, o.Lines, 2)
	assert.Equal(t, "Pisco Sour", o.Lines[0].ProductName)
	assert.Equal(t, 0, o.Lines[0].Claimed)
	// Total is computed server-side from the price snapshots.
	assert.True(t, o.Total.Equal(decimal.NewFromInt(18500)), "total %s", o.Total)
}

func TestCreateOrder_Validation(t *testing.T) {
	s := newTestService()

	_, err := s.CreateOrder("u1", 99, []order.ClaimItem{{VariationID: 104, Quantity: 1}})
	require.ErrorIs(t, err, ErrEventNotFound)

	_, err = s.CreateOrder("u1", 1, []order.ClaimItem{{VariationID: 999, Quantity: 1}})
	require.ErrorIs(t, err, ErrVariationNotFound)

	_, err = s.CreateOrder("u1", 1, nil)
	require.ErrorIs(t, err, order.ErrEmptyClaim)

	_, err = s.CreateOrder("u1", 1, []order.ClaimItem{{VariationID: 104, Quantity: 0}})
	var invalid *order.InvalidClaimQuantityError
	require.ErrorAs(t, err, &invalid)
}

func TestOrdersForUser_NewestFirst(t *testing.T) {
	s := newTestService()

	first, err := s.CreateOrder("u1", 1, []order.ClaimItem{{VariationID: 104, Quantity: 1}})
	require.NoError(t, err)
	second, err := s.CreateOrder("u1", 1, []order.ClaimItem{{VariationID: 101, Quantity: 1}})
	require.NoError(t, err)
	_, err = s.CreateOrder("u2", 1, []order.ClaimItem{{VariationID: 101, Quantity: 1}})
	require.NoError(t, err)

	orders := s.OrdersForUser("u1")
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
}

func TestClaim(t *testing.T) {
	s := newTestService()
	o, err := s.CreateOrder("u1", 1, []order.ClaimItem{{VariationID: 104, Quantity: 3}})
	require.NoError(t, err)

	updated, err := s.Claim(o.ID, []order.ClaimItem{{VariationID: 104, Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Lines[0].Claimed)
	assert.Equal(t, order.StatusPartiallyClaimed, updated.Status)

	updated, err = s.Claim(o.ID, []order.ClaimItem{{VariationID: 104, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, order.StatusFullyClaimed, updated.Status)
}

func TestClaim_RejectedLeavesOrderUnchanged(t *testing.T) {
	s := newTestService()
	o, err := s.CreateOrder("u1", 1, []order.ClaimItem{{VariationID: 104, Quantity: 2}})
	require.NoError(t, err)

	_, err = s.Claim(o.ID, []order.ClaimItem{{VariationID: 104, Quantity: 3}})
	var exceeds *order.ClaimExceedsRemainingError
	require.ErrorAs(t, err, &exceeds)

	stored, err := s.OrderByID(o.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Lines[0].Claimed)
	assert.Equal(t, order.StatusCompleted, stored.Status)
}

func TestClaim_RepeatedVariationRejected(t *testing.T) {
	s := newTestService()
	o, err := s.CreateOrder("u1", 1, []order.ClaimItem{{VariationID: 104, Quantity: 2}})
	require.NoError(t, err)

	// One request naming the line twice must be judged on the summed
	// quantity, not item by item.
	_, err = s.Claim(o.ID, []order.ClaimItem{
		{VariationID: 104, Quantity: 2},
		{VariationID: 104, Quantity: 1},
	})
	var exceeds *order.ClaimExceedsRemainingError
	require.ErrorAs(t, err, &exceeds)
	assert.Equal(t, 3, exceeds.Requested)

	stored, err := s.OrderByID(o.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Lines[0].Claimed)
	assert.Equal(t, order.StatusCompleted, stored.Status)
}

func TestClaim_OverlappingSecondLoses(t *testing.T) {
	s := newTestService()
	o, err := s.CreateOrder("u1", 1, []order.ClaimItem{{VariationID: 104, Quantity: 2}})
	require.NoError(t, err)

	// Both requests target the same two units; the service arbitrates.
	_, err = s.Claim(o.ID, []order.ClaimItem{{VariationID: 104, Quantity: 2}})
	require.NoError(t, err)
	_, err = s.Claim(o.ID, []order.ClaimItem{{VariationID: 104, Quantity: 2}})
	var exceeds *order.ClaimExceedsRemainingError
	require.ErrorAs(t, err, &exceeds)
	assert.Equal(t, 0, exceeds.Remaining)
}

func TestClaim_OrderNotFound(t *testing.T) {
	s := newTestService()
	_, err := s.Claim("ORD-MISSING1", []order.ClaimItem{{VariationID: 104, Quantity: 1}})
	require.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestClone_CallersCannotMutateStore(t *testing.T) {
	s := newTestService()
	o, err := s.CreateOrder("u1", 1, []order.ClaimItem{{VariationID: 104, Quantity: 2}})
	require.NoError(t, err)

	o.Lines[0].Claimed = 2

	stored, err := s.OrderByID(o.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Lines[0].Claimed)
}
