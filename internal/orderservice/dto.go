package orderservice

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/skipit/redemption/internal/domain/order"
)

// Wire DTOs for the order service API. The backend speaks snake_case JSON
// with plain numbers for money; amounts are converted to decimal.Decimal at
// this boundary and nowhere else. The same shapes are used by the HTTP
// client and by the dev server, so both sides cannot drift apart.

// EventDTO is the event snapshot carried on an order.
type EventDTO struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Date     string `json:"date,omitempty"`
	Time     string `json:"time,omitempty"`
	Location string `json:"location,omitempty"`
}

// LineDTO is one order line on the wire.
type LineDTO struct {
	VariationID   int     `json:"variation_id"`
	ProductName   string  `json:"product_name"`
	VariationName string  `json:"variation_name"`
	Quantity      int     `json:"quantity"`
	Claimed       int     `json:"claimed"`
	Price         float64 `json:"price_at_purchase"`
}

// OrderDTO is an order on the wire.
type OrderDTO struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Event     EventDTO  `json:"event"`
	Items     []LineDTO `json:"items"`
	Total     float64   `json:"total"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ClaimItemDTO addresses one line in a claim or create request.
type ClaimItemDTO struct {
	VariationID int `json:"variation_id"`
	Quantity    int `json:"quantity"`
}

// ClaimRequest is the body of POST /orders/{id}/claim.
type ClaimRequest struct {
	Items []ClaimItemDTO `json:"items"`
}

// CreateOrderRequest is the body of POST /orders/.
type CreateOrderRequest struct {
	EventID int            `json:"event_id"`
	Items   []ClaimItemDTO `json:"items"`
	Total   float64        `json:"total"`
	UserID  string         `json:"user_id"`
}

// ErrorResponse is the error body the service returns for non-2xx statuses.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ToDomain converts a wire order to the domain representation.
func (d OrderDTO) ToDomain() *order.Order {
	lines := make([]order.Line, len(d.Items))
	for i, item := range d.Items {
		lines[i] = order.Line{
			VariationID:   item.VariationID,
			ProductName:   item.ProductName,
			VariationName: item.VariationName,
			Quantity:      item.Quantity,
			Claimed:       item.Claimed,
			UnitPrice:     decimal.NewFromFloat(item.Price),
		}
	}
	return &order.Order{
		ID:     d.OrderID,
		UserID: d.UserID,
		Event: order.Event{
			ID:       d.Event.ID,
			Name:     d.Event.Name,
			Date:     d.Event.Date,
			Time:     d.Event.Time,
			Location: d.Event.Location,
		},
		Lines:     lines,
		Total:     decimal.NewFromFloat(d.Total),
		Status:    order.Status(d.Status),
		CreatedAt: d.CreatedAt,
	}
}

// OrderToDTO converts a domain order to its wire representation.
func OrderToDTO(o *order.Order) OrderDTO {
	items := make([]LineDTO, len(o.Lines))
	for i, l := range o.Lines {
		items[i] = LineDTO{
			VariationID:   l.VariationID,
			ProductName:   l.ProductName,
			VariationName: l.VariationName,
			Quantity:      l.Quantity,
			Claimed:       l.Claimed,
			Price:         l.UnitPrice.InexactFloat64(),
		}
	}
	return OrderDTO{
		OrderID: o.ID,
		UserID:  o.UserID,
		Event: EventDTO{
			ID:       o.Event.ID,
			Name:     o.Event.Name,
			Date:     o.Event.Date,
			Time:     o.Event.Time,
			Location: o.Event.Location,
		},
		Items:     items,
		Total:     o.Total.InexactFloat64(),
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
	}
}

// ClaimItemsToDTO converts domain claim items to wire form.
func ClaimItemsToDTO(items []order.ClaimItem) []ClaimItemDTO {
	out := make([]ClaimItemDTO, len(items))
	for i, item := range items {
		out[i] = ClaimItemDTO{VariationID: item.VariationID, Quantity: item.Quantity}
	}
	return out
}

// ClaimItemsFromDTO converts wire claim items to domain form.
func ClaimItemsFromDTO(items []ClaimItemDTO) []order.ClaimItem {
	out := make([]order.ClaimItem, len(items))
	for i, item := range items {
		out[i] = order.ClaimItem{VariationID: item.VariationID, Quantity: item.Quantity}
	}
	return out
}
