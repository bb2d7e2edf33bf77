package cart

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// LineItem is the canonical cart line. Raw backend payloads never get past Normalize.
type LineItem struct {
	Key          string          `json:"key"`
	ProductID    string          `json:"product_id"`
	VariantID    string          `json:"variant_id,omitempty"`
	SKU          string          `json:"sku,omitempty"`
	Name         string          `json:"name,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LineSubtotal decimal.Decimal `json:"line_subtotal"`

	// PriceKnown is false when a price failed to parse or could not be resolved and was zeroed.
	PriceKnown bool   `json:"price_known"`
	Size       string `json:"size,omitempty"`
	Color      string `json:"color,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
	Barcode    string `json:"barcode,omitempty"`
}

// Key builds the composite line key "{productId}_{variantId-or-sku}".
func Key(productID, variantKey string) string {
	productID = strings.TrimSpace(productID)
	variantKey = strings.TrimSpace(variantKey)
	if variantKey == "" {
		return productID
	}
	return productID + "_" + variantKey
}

// LineKey keys a resolved variant by SKU, falling back to its variant id, so a
// line lands under the same key however the variant was addressed.
func LineKey(productID, sku, variantID string) string {
	variantKey := strings.TrimSpace(sku)
	if variantKey == "" {
		variantKey = variantID
	}
	return Key(productID, variantKey)
}

// SplitKey reverses Key. Everything after the first underscore is the variant key.
func SplitKey(key string) (productID, variantKey string) {
	productID, variantKey, _ = strings.Cut(strings.TrimSpace(key), "_")
	return productID, variantKey
}

// GuestItems is the persisted guest cart: line key to quantity.
type GuestItems map[string]int

// Clone copies the map so a failed write-through leaves the original untouched.
func (g GuestItems) Clone() GuestItems {
	out := make(GuestItems, len(g))
	for k, v := range g {
		out[k] = v
	}
	return out
}

// Set stores qty under key, removing the key when qty is zero or less.
func (g GuestItems) Set(key string, qty int) {
	if qty <= 0 {
		delete(g, key)
		return
	}
	g[key] = qty
}

// Keys returns the keys in stable order.
func (g GuestItems) Keys() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Count sums the positive quantities.
func Count(items []LineItem) int {
	total := 0
	for _, item := range items {
		if item.Quantity > 0 {
			total += item.Quantity
		}
	}
	return total
}

// Find returns the line stored under key.
func Find(items []LineItem, key string) (LineItem, bool) {
	for _, item := range items {
		if item.Key == key {
			return item, true
		}
	}
	return LineItem{}, false
}
