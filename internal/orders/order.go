package orders

import (
	"strings"
	"time"

	"github.com/angelmondragon/storefront/internal/address"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/commerce"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// Backend timestamps come either as "15:04:05 02/01/2006" in shop time or as RFC 3339.
var placedAtLayouts = []string{
	"15:04:05 02/01/2006",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// Order is the customer-facing order read model.
type Order struct {
	ID            string              `json:"order_id"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status,omitempty"`
	Items         []cart.LineItem     `json:"items"`
	Count         int                 `json:"count"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	ShippingFee   decimal.Decimal     `json:"shipping_fee"`
	Tax           decimal.Decimal     `json:"tax"`
	Total         decimal.Decimal     `json:"total"`
	Currency      string              `json:"currency"`
	PlacedAt      *time.Time          `json:"placed_at,omitempty"`
	ShipTo        *address.Address    `json:"ship_to,omitempty"`

	// Repayable is set while the order is still open and its payment pending.
	Repayable bool `json:"repayable"`
}

// Payment is the outcome of restarting payment on an order.
type Payment struct {
	OrderID     string `json:"order_id"`
	RedirectURL string `json:"redirect_url,omitempty"`
	Message     string `json:"message,omitempty"`
}

// FromRecord maps a raw backend order. Lines go through the cart normalizer so
// prices and attributes read the same as in the cart.
func FromRecord(rec commerce.Order, currency string, loc *time.Location) Order {
	order := Order{
		ID:            rec.OrderID.String(),
		Status:        enums.OrderStatus(strings.ToLower(strings.TrimSpace(rec.OrderStatus))),
		PaymentStatus: enums.PaymentStatus(strings.ToLower(strings.TrimSpace(rec.PaymentStatus))),
		Currency:      currency,
		Items:         []cart.LineItem{},
	}

	for _, detail := range rec.Lines() {
		if detail.ProductVariants == nil {
			continue
		}
		order.Items = append(order.Items, cart.Normalize(detail.CartDetail()))
	}
	order.Count = cart.Count(order.Items)
	order.Subtotal, _, _ = cart.Subtotal(order.Items, nil)

	order.ShippingFee = amount(rec.ShippingFee)
	order.Tax = amount(rec.Tax)
	if total, ok := rec.TotalPrice.Decimal(); ok {
		order.Total = total
	} else {
		order.Total = order.Subtotal.Add(order.ShippingFee).Add(order.Tax)
	}

	order.PlacedAt = parsePlacedAt(rec.CreatedAt, loc)
	order.ShipTo = recipient(rec)
	order.Repayable = order.Status.Open() && order.PaymentStatus.Awaiting()
	return order
}

func amount(n commerce.Number) decimal.Decimal {
	if d, ok := n.Decimal(); ok {
		return d
	}
	return decimal.Zero
}

func parsePlacedAt(raw string, loc *time.Location) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range placedAtLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return &t
		}
	}
	return nil
}

func recipient(rec commerce.Order) *address.Address {
	if rec.Addresses != nil {
		addr := address.FromRecord(*rec.Addresses)
		return &addr
	}
	if ship := rec.ShippingAddress; ship != nil {
		return &address.Address{
			ConsigneeName: strings.TrimSpace(ship.FullName),
			Phone:         strings.TrimSpace(ship.Phone),
			Line:          address.JoinLine(ship.Address, ship.Ward, ship.District, ship.City),
			Ward:          strings.TrimSpace(ship.Ward),
			District:      strings.TrimSpace(ship.District),
			Province:      strings.TrimSpace(ship.City),
		}
	}
	return nil
}
