package cart

import (
	"github.com/angelmondragon/storefront/internal/voucher"
	"github.com/shopspring/decimal"
)

// SubtotalSource says where the subtotal came from.
type SubtotalSource string

const (
	SubtotalFromServer SubtotalSource = "server"
	SubtotalComputed   SubtotalSource = "computed"
)

// Totals is the derived money summary of a cart.
type Totals struct {
	Currency       string          `json:"currency"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	SubtotalSource SubtotalSource  `json:"subtotal_source"`

	// SubtotalMismatch is set when the server subtotal disagrees with the sum of lines.
	SubtotalMismatch bool            `json:"subtotal_mismatch,omitempty"`
	ShippingFee      decimal.Decimal `json:"shipping_fee"`
	Discount         decimal.Decimal `json:"discount"`
	GrandTotal       decimal.Decimal `json:"grand_total"`

	// PricesComplete is false when at least one line price is unknown.
	PricesComplete bool `json:"prices_complete"`
}

// Subtotal prefers the server-supplied value and otherwise sums line subtotals.
func Subtotal(items []LineItem, serverSubtotal *decimal.Decimal) (decimal.Decimal, SubtotalSource, bool) {
	sum := decimal.Zero
	for _, item := range items {
		if item.Quantity > 0 {
			sum = sum.Add(item.LineSubtotal)
		}
	}
	if serverSubtotal == nil {
		return sum, SubtotalComputed, false
	}
	return *serverSubtotal, SubtotalFromServer, !serverSubtotal.Equal(sum)
}

// GrandTotal is max(0, subtotal + shipping - discount).
func GrandTotal(subtotal, shipping, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(shipping).Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// Calculate derives totals from the lines and an already evaluated voucher application.
func Calculate(items []LineItem, serverSubtotal *decimal.Decimal, shipping decimal.Decimal, currency string, app voucher.Application) Totals {
	subtotal, source, mismatch := Subtotal(items, serverSubtotal)

	discount := decimal.Zero
	if app.State == voucher.StateApplied {
		discount = app.Discount
	}

	complete := true
	for _, item := range items {
		if !item.PriceKnown {
			complete = false
			break
		}
	}

	return Totals{
		Currency:         currency,
		Subtotal:         subtotal,
		SubtotalSource:   source,
		SubtotalMismatch: mismatch,
		ShippingFee:      shipping,
		Discount:         discount,
		GrandTotal:       GrandTotal(subtotal, shipping, discount),
		PricesComplete:   complete,
	}
}
