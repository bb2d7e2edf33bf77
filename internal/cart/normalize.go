package cart

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/commerce"
	"github.com/shopspring/decimal"
)

var (
	sizeKeys  = []string{"size", "kích cỡ"}
	colorKeys = []string{"màu", "color"}
)

// Normalize maps one raw cart detail onto a LineItem. It performs no I/O and
// does not modify detail.
func Normalize(detail commerce.CartDetail) LineItem {
	item := LineItem{PriceKnown: true}

	if qty, ok := detail.Quantity.Int(); ok && qty > 0 {
		item.Quantity = int(qty)
	}

	variant := detail.VariantRecord()
	if variant == nil {
		item.PriceKnown = false
		item.LineSubtotal = decimal.Zero
		item.UnitPrice = decimal.Zero
		return item
	}

	item.ProductID = variant.ProductID.String()
	item.VariantID = variant.VariantID.String()
	item.SKU = variant.SKU
	item.Barcode = variant.Barcode
	if ref := variant.ProductSummary(); ref != nil {
		item.Name = ref.ProductName
		if item.ProductID == "" {
			item.ProductID = ref.ProductID.String()
		}
	}

	item.Key = LineKey(item.ProductID, item.SKU, item.VariantID)

	unit, unitKnown := variant.BasePrice.Decimal()
	if !variant.BasePrice.Present() {
		unit, unitKnown = variant.Price.Decimal()
	}
	item.UnitPrice = unit
	if !unitKnown {
		item.PriceKnown = false
	}

	// a server-supplied line subtotal is authoritative
	if detail.SubPrice.Present() {
		sub, ok := detail.SubPrice.Decimal()
		if !ok {
			item.PriceKnown = false
		}
		item.LineSubtotal = sub
	} else {
		item.LineSubtotal = unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
	}

	item.Size = resolveSize(variant)
	item.Color = attribute(variant.Attribute, colorKeys...)
	item.ImageURL = resolveImage(variant.VariantAssets)
	return item
}

// NormalizeCart maps a raw server cart. Lines with quantity zero or no variant are dropped and a
// repeated key keeps the last reported line. serverSubtotal is nil when total_price
// is absent or unparseable.
func NormalizeCart(raw *commerce.Cart) (items []LineItem, serverSubtotal *decimal.Decimal) {
	if raw == nil {
		return nil, nil
	}

	lines := raw.Lines()
	items = make([]LineItem, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, detail := range lines {
		item := Normalize(detail)
		if item.Quantity <= 0 || item.Key == "" {
			continue
		}
		if pos, ok := index[item.Key]; ok {
			items[pos] = item
			continue
		}
		index[item.Key] = len(items)
		items = append(items, item)
	}

	if total, ok := raw.TotalPrice.Decimal(); ok {
		serverSubtotal = &total
	}
	return items, serverSubtotal
}

// GuestLine prices a guest line from the catalog. product and variant may be nil when
// the catalog no longer knows the key, in which case the line is kept with an unknown price.
func GuestLine(key string, qty int, product *catalog.Product, variant *catalog.Variant) LineItem {
	productID, variantKey := SplitKey(key)
	item := LineItem{
		Key:          key,
		ProductID:    productID,
		Quantity:     qty,
		UnitPrice:    decimal.Zero,
		LineSubtotal: decimal.Zero,
	}
	if variant == nil {
		item.SKU = variantKey
	}

	if product != nil {
		item.Name = product.Name
		item.UnitPrice = product.OfferPrice
		item.PriceKnown = len(product.Variants) > 0 && product.Variants[0].PriceKnown
	}
	if variant != nil {
		item.VariantID = variant.VariantID
		item.SKU = variant.SKU
		item.UnitPrice = variant.Price
		item.PriceKnown = variant.PriceKnown
		item.Size = variant.Size
		item.Color = variant.Color
		item.ImageURL = variant.Image
	}

	item.LineSubtotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
	return item
}

func resolveSize(variant *commerce.Variant) string {
	if size := attribute(variant.Attribute, sizeKeys...); size != "" {
		return size
	}
	if id := attribute(variant.Attribute, "size_id"); id != "" {
		return "Size " + id
	}
	if id, ok := variant.SizeID.Int(); ok {
		return fmt.Sprintf("Size %d", id)
	}
	return ""
}

// attribute returns the first non-empty value among keys, trying an exact key match
// before a case-insensitive one.
func attribute(attrs map[string]any, keys ...string) string {
	if len(attrs) == 0 {
		return ""
	}
	for _, key := range keys {
		if v := stringify(attrs[key]); v != "" {
			return v
		}
		for k, raw := range attrs {
			if strings.EqualFold(k, key) {
				if v := stringify(raw); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return decimal.NewFromFloat(val).String()
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

func resolveImage(assets []commerce.Asset) string {
	for _, asset := range assets {
		if asset.IsPrimary && asset.Link() != "" {
			return asset.Link()
		}
	}
	for _, asset := range assets {
		if link := asset.Link(); link != "" {
			return link
		}
	}
	return ""
}
