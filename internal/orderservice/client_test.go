package orderservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skipit/redemption/internal/domain/order"
)

func testOrderDTO() OrderDTO {
	return OrderDTO{
		OrderID: "ORD-DB83346B",
		UserID:  "u1",
		Event:   EventDTO{ID: 1, Name: "Fiesta Primavera"},
		Items: []LineDTO{
			{VariationID: 104, ProductName: "Pisco Sour", VariationName: "Tradicional", Quantity: 2, Claimed: 1, Price: 7000},
		},
		Total:  14000,
		Status: "PARTIALLY_CLAIMED",
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(ClientConfig{
		BaseURL:    srv.URL,
		Token:      "token-u1",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(ClientConfig{BaseURL: "not a url"})
	require.Error(t, err)

	_, err = NewClient(ClientConfig{BaseURL: ""})
	require.Error(t, err)
}

func TestMyOrders(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/orders/my-history", r.URL.Path)
		assert.Equal(t, "Bearer token-u1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]OrderDTO{testOrderDTO()})
	}))

	orders, err := c.MyOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)

	o := orders[0]
	assert.Equal(t, "ORD-DB83346B", o.ID)
	assert.Equal(t, "Fiesta Primavera", o.Event.Name)
	require.Len(t, o.Lines, 1)
	assert.Equal(t, 1, o.Lines[0].Claimed)
	assert.True(t, o.Lines[0].UnitPrice.Equal(decimal.NewFromInt(7000)))
	assert.True(t, o.Total.Equal(decimal.NewFromInt(14000)))
	assert.Equal(t, order.StatusPartiallyClaimed, o.Status)
}

func TestCreateOrder(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 1, req.EventID)
		require.Len(t, req.Items, 1)
		assert.Equal(t, 104, req.Items[0].VariationID)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(testOrderDTO())
	}))

	o, err := c.CreateOrder(context.Background(), CreateOrderRequest{
		EventID: 1,
		Items:   []ClaimItemDTO{{VariationID: 104, Quantity: 2}},
		Total:   14000,
		UserID:  "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-DB83346B", o.ID)
}

func TestClaim(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/ORD-DB83346B/claim", r.URL.Path)

		var req ClaimRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []ClaimItemDTO{{VariationID: 104, Quantity: 1}}, req.Items)

		dto := testOrderDTO()
		dto.Items[0].Claimed = 2
		dto.Status = "FULLY_CLAIMED"
		_ = json.NewEncoder(w).Encode(dto)
	}))

	o, err := c.Claim(context.Background(), "ORD-DB83346B", []order.ClaimItem{{VariationID: 104, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, o.Lines[0].Claimed)
	assert.Equal(t, order.StatusFullyClaimed, o.Status)
}

func TestClaim_RejectionMapped(t *testing.T) {
	for _, status := range []int{http.StatusConflict, http.StatusUnprocessableEntity} {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(ErrorResponse{Code: status, Message: "claim of 3 exceeds 1 remaining"})
		}))

		_, err := c.Claim(context.Background(), "ORD-DB83346B", []order.ClaimItem{{VariationID: 104, Quantity: 3}})
		var rejected *ClaimRejectedError
		require.ErrorAs(t, err, &rejected, "status %d", status)
		assert.Equal(t, "ORD-DB83346B", rejected.OrderID)
		assert.Contains(t, rejected.Message, "exceeds")
	}
}

func TestErrorMapping(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orders/ORD-GONE":
			http.Error(w, "not found", http.StatusNotFound)
		case "/orders/my-history":
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))

	_, err := c.OrderByID(context.Background(), "ORD-GONE")
	require.ErrorIs(t, err, order.ErrOrderNotFound)

	_, err = c.MyOrders(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.OrderByID(context.Background(), "ORD-OTHER")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Status)
}

func TestErrorBodyParsed(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Code: 400, Message: "items required"})
	}))

	_, err := c.CreateOrder(context.Background(), CreateOrderRequest{})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "items required", se.Message)
}

func TestContextCancellation(t *testing.T) {
	block := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	t.Cleanup(func() { close(block) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.MyOrders(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
