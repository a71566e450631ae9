package cart

import (
	"github.com/shopspring/decimal"

	"naija-meals/internal/domain"
)

// ServiceFee is the flat charge added to every order.
var ServiceFee = decimal.RequireFromString("1.50")

type Totals struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	ServiceFee  decimal.Decimal
	Total       decimal.Decimal
	ItemCount   int
}

// Compute derives the order pricing from lines and a delivery fee.
func Compute(lines []domain.CartLine, deliveryFee decimal.Decimal) Totals {
	t := Totals{Subtotal: decimal.Zero, DeliveryFee: deliveryFee, ServiceFee: ServiceFee}
	for _, l := range lines {
		t.Subtotal = t.Subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		t.ItemCount += l.Quantity
	}
	t.Total = t.Subtotal.Add(deliveryFee).Add(ServiceFee)
	return t
}

// Format renders an amount in pounds with two decimals.
func Format(d decimal.Decimal) string { return "£" + d.StringFixed(2) }
