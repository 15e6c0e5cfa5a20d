package devserver

import (
	"github.com/shopspring/decimal"

	"github.com/skipit/redemption/internal/domain/order"
	"github.com/skipit/redemption/internal/orderservice/memory"
)

// SeedDemo loads a small catalog and one half-claimed order so the wallet
// and storefront have something to show against a fresh server.
func SeedDemo(svc *memory.Service) {
	svc.AddEvent(order.Event{
		ID:       1,
		Name:     "Fiesta Primavera",
		Date:     "2025-11-21",
		Time:     "22:00",
		Location: "Club Subterráneo, Santiago",
	})
	svc.AddEvent(order.Event{
		ID:       2,
		Name:     "Techno Warehouse",
		Date:     "2025-12-05",
		Time:     "23:30",
		Location: "Bodega Norte, Valparaíso",
	})

	for _, v := range []memory.Variation{
		{ID: 101, ProductName: "Corona Extra", VariationName: "330ml", Price: decimal.NewFromInt(4500)},
		{ID: 104, ProductName: "Pisco Sour", VariationName: "Tradicional", Price: decimal.NewFromInt(7000)},
		{ID: 105, ProductName: "Mojito", VariationName: "Tradicional", Price: decimal.NewFromInt(6500)},
		{ID: 106, ProductName: "Caipirinha", VariationName: "Tradicional", Price: decimal.NewFromInt(6000)},
		{ID: 109, ProductName: "Jägermeister", VariationName: "Shot", Price: decimal.NewFromInt(4000)},
	} {
		svc.AddVariation(v)
	}

	demo := &order.Order{
		ID:     "ORD-DEMO0001",
		UserID: "demo",
		Event: order.Event{
			ID: 1, Name: "Fiesta Primavera",
			Date: "2025-11-21", Time: "22:00", Location: "Club Subterráneo, Santiago",
		},
		Lines: []order.Line{
			{VariationID: 104, ProductName: "Pisco Sour", VariationName: "Tradicional", Quantity: 2, Claimed: 1, UnitPrice: decimal.NewFromInt(7000)},
			{VariationID: 101, ProductName: "Corona Extra", VariationName: "330ml", Quantity: 1, Claimed: 0, UnitPrice: decimal.NewFromInt(4500)},
		},
		Total: decimal.NewFromInt(18500),
	}
	demo.Status = order.StatusOf(demo.Lines)
	svc.AddOrder(demo)
}
