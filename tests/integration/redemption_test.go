// Package integration exercises the full wallet flow against a dev server:
// purchase, partial redemption with per-unit vouchers, scanning, and the
// client-side voucher registry.
package integration

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/skipit/redemption/internal/devserver"
	"github.com/skipit/redemption/internal/domain/order"
	"github.com/skipit/redemption/internal/domain/voucher"
	"github.com/skipit/redemption/internal/orderservice"
	"github.com/skipit/redemption/internal/orderservice/memory"
	"github.com/skipit/redemption/internal/planner"
	"github.com/skipit/redemption/internal/qr"
	"github.com/skipit/redemption/internal/store"
)

type env struct {
	svc *memory.Service
	url string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	svc := memory.New()
	svc.AddEvent(order.Event{ID: 1, Name: "Fiesta Primavera", Date: "2026-09-18", Location: "Club Hípico"})
	svc.AddVariation(memory.Variation{ID: 101, ProductName: "Corona Extra", VariationName: "330ml", Price: decimal.NewFromInt(4500)})
	svc.AddVariation(memory.Variation{ID: 104, ProductName: "Pisco Sour", VariationName: "Tradicional", Price: decimal.NewFromInt(7000)})

	mux := http.NewServeMux()
	devserver.NewHandler(svc).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &env{svc: svc, url: srv.URL}
}

// session builds the client-side stack a signed-in wallet runs on.
func (e *env) session(t *testing.T, user string) *store.Store {
	t.Helper()
	c, err := orderservice.NewClient(orderservice.ClientConfig{BaseURL: e.url, Token: user})
	require.NoError(t, err)
	return store.New(c, zaptest.NewLogger(t))
}

func TestWalletFlow(t *testing.T) {
	e := newEnv(t)
	st := e.session(t, "maria")
	ctx := context.Background()

	// Purchase: 3 pisco sours and 2 beers.
	created, err := st.CreateOrder(ctx, orderservice.CreateOrderRequest{
		EventID: 1,
		Items: []orderservice.ClaimItemDTO{
			{VariationID: 104, Quantity: 3},
			{VariationID: 101, Quantity: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, created.Status)
	assert.True(t, created.Total.Equal(decimal.NewFromInt(30000)))

	// Redeem 2 of the pisco sours at the bar.
	p := planner.New(st, created.ID)
	p.SetClaimAmount(104, 2)
	vouchers, err := p.PlanIndividualVouchers(ctx)
	require.NoError(t, err)
	require.Len(t, vouchers, 2)
	assert.Equal(t, created.ID+"-I0-N1", vouchers[0].ID.WireString())
	assert.Equal(t, created.ID+"-I0-N2", vouchers[1].ID.WireString())
	assert.Equal(t, []string{"1x Pisco Sour (Tradicional)"}, vouchers[0].Drinks)

	got, ok := st.Order(created.ID)
	require.True(t, ok)
	assert.Equal(t, order.StatusPartiallyClaimed, got.Status)
	assert.Equal(t, 2, got.Lines[0].Claimed)

	// The vouchers sit in the active registry until shown and marked used.
	assert.Len(t, st.ActiveVouchers(created.ID), 2)
	st.MarkVoucherUsed(vouchers[0].ID.WireString())
	remaining := st.ActiveVouchers(created.ID)
	require.Len(t, remaining, 1)
	assert.Equal(t, created.ID+"-I0-N2", remaining[0].ID.WireString())

	// Marking used changes visibility only: the backend counters are untouched.
	fresh, err := e.svc.OrderByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.Lines[0].Claimed)

	// A fresh session sees the authoritative state right away.
	st2 := e.session(t, "maria")
	st2.RefreshOrders(ctx)
	require.Empty(t, st2.Err())
	orders := st2.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, 2, orders[0].Lines[0].Claimed)
	assert.Empty(t, st2.ActiveVouchers(created.ID), "registry is per session")
}

func TestOverlappingClaims(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	stA := e.session(t, "maria")
	created, err := stA.CreateOrder(ctx, orderservice.CreateOrderRequest{
		EventID: 1,
		Items:   []orderservice.ClaimItemDTO{{VariationID: 104, Quantity: 1}},
	})
	require.NoError(t, err)

	// The same user on a second device, both trying to redeem the last unit.
	stB := e.session(t, "maria")
	stB.RefreshOrders(ctx)

	pA := planner.New(stA, created.ID)
	pA.SetClaimAmount(104, 1)
	vouchersA, err := pA.PlanIndividualVouchers(ctx)
	require.NoError(t, err)
	require.Len(t, vouchersA, 1)

	pB := planner.New(stB, created.ID)
	pB.SetClaimAmount(104, 1)
	vouchersB, err := pB.PlanIndividualVouchers(ctx)
	var rejected *orderservice.ClaimRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Empty(t, vouchersB, "the losing claim must issue nothing")
	assert.Empty(t, stB.ActiveVouchers(created.ID))
}

func TestGlobalVoucherScan(t *testing.T) {
	e := newEnv(t)
	st := e.session(t, "maria")
	ctx := context.Background()

	created, err := st.CreateOrder(ctx, orderservice.CreateOrderRequest{
		EventID: 1,
		Items: []orderservice.ClaimItemDTO{
			{VariationID: 104, Quantity: 2},
			{VariationID: 101, Quantity: 1},
		},
	})
	require.NoError(t, err)

	// A global voucher bundles the whole order without consuming anything.
	p := planner.New(st, created.ID)
	global, err := p.PlanGlobalVoucher()
	require.NoError(t, err)
	assert.Equal(t, voucher.KindGlobal, global.Kind)
	assert.Equal(t, created.ID, global.ID.WireString())

	fresh, err := e.svc.OrderByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, fresh.Status)

	// Render, then decode what a bar scanner would read off the QR payload.
	png, err := qr.NewPresenter().Render(global)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte{0x89, 'P', 'N', 'G'}))

	scanned, err := voucher.DecodeWire(global.EncodeWire())
	require.NoError(t, err)
	assert.Equal(t, voucher.KindGlobal, scanned.Kind)
	assert.Equal(t, []string{"2x Pisco Sour (Tradicional)", "1x Corona Extra (330ml)"}, scanned.Drinks)
	assert.True(t, scanned.Total.Equal(decimal.NewFromInt(18500)))

	id, err := voucher.DecodeScanned(string(global.EncodeWire()))
	require.NoError(t, err)
	assert.True(t, id.Global())

	// The scanner resolves the order from the voucher id and claims it whole.
	scanner, err := orderservice.NewClient(orderservice.ClientConfig{BaseURL: e.url, Token: "bar-staff"})
	require.NoError(t, err)
	target, err := scanner.OrderByID(ctx, id.OrderID)
	require.NoError(t, err)
	claimed, err := scanner.Claim(ctx, target.ID, target.UnclaimedItems())
	require.NoError(t, err)
	assert.Equal(t, order.StatusFullyClaimed, claimed.Status)

	// Presenting the same bundle again has nothing left to claim.
	_, err = scanner.Claim(ctx, target.ID, []order.ClaimItem{{VariationID: 104, Quantity: 1}})
	require.ErrorAs(t, err, new(*orderservice.ClaimRejectedError))
}

func TestClaimAllOutstanding(t *testing.T) {
	e := newEnv(t)
	st := e.session(t, "maria")
	ctx := context.Background()

	created, err := st.CreateOrder(ctx, orderservice.CreateOrderRequest{
		EventID: 1,
		Items: []orderservice.ClaimItemDTO{
			{VariationID: 104, Quantity: 2},
			{VariationID: 101, Quantity: 2},
		},
	})
	require.NoError(t, err)

	// Redeem one beer first, then everything still outstanding.
	p := planner.New(st, created.ID)
	p.SetClaimAmount(101, 1)
	_, err = p.PlanIndividualVouchers(ctx)
	require.NoError(t, err)

	updated, err := st.ClaimFullOrder(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, order.StatusFullyClaimed, updated.Status)

	// Nothing outstanding means no request at all.
	again, err := st.ClaimFullOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, again)
}
