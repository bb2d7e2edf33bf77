package catalog

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/pkg/commerce"
	"github.com/shopspring/decimal"
)

// Product groups the sellable variants of one catalog product.
type Product struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Brand      string          `json:"brand,omitempty"`
	BrandID    string          `json:"brand_id,omitempty"`
	Category   string          `json:"category,omitempty"`
	CategoryID string          `json:"category_id,omitempty"`
	Status     string          `json:"status,omitempty"`
	OfferPrice decimal.Decimal `json:"offer_price"`
	Variants   []Variant       `json:"variants"`
}

// Variant is one purchasable option of a product.
type Variant struct {
	VariantID  string          `json:"variant_id,omitempty"`
	SKU        string          `json:"sku"`
	Price      decimal.Decimal `json:"price"`
	PriceKnown bool            `json:"price_known"`
	Size       string          `json:"size,omitempty"`
	Color      string          `json:"color,omitempty"`
	Image      string          `json:"image,omitempty"`
}

// Variant resolves a variant by variant id or SKU.
func (p *Product) Variant(key string) (*Variant, bool) {
	key = strings.TrimSpace(key)
	if p == nil || key == "" {
		return nil, false
	}
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.VariantID == key || v.SKU == key {
			return v, true
		}
	}
	return nil, false
}

// Group folds the flattened GET /products rows into products, keeping first-seen order.
func Group(rows []commerce.ProductRow) []Product {
	index := make(map[string]int, len(rows))
	products := make([]Product, 0, len(rows))

	for _, row := range rows {
		id := row.ProductID.String()
		if id == "" {
			continue
		}
		pos, ok := index[id]
		if !ok {
			p := Product{
				ID:     id,
				Name:   row.ProductName,
				Status: statusString(row.Status),
			}
			if row.Brand != nil {
				p.Brand = row.Brand.BrandName
				p.BrandID = row.Brand.BrandID.String()
			}
			if row.Category != nil {
				p.Category = row.Category.CategoryName
				p.CategoryID = row.Category.CategoryID.String()
			}
			products = append(products, p)
			pos = len(products) - 1
			index[id] = pos
		}

		price, known := row.Price.Decimal()
		products[pos].Variants = append(products[pos].Variants, Variant{
			VariantID:  row.VariantID.String(),
			SKU:        row.SKU,
			Price:      price,
			PriceKnown: known,
			Size:       row.Size,
			Color:      row.Color,
			Image:      row.Image,
		})
	}

	for i := range products {
		products[i].OfferPrice = offerPrice(products[i].Variants)
	}
	return products
}

// FromDetail maps GET /products/{id}.
func FromDetail(detail *commerce.ProductDetail) *Product {
	if detail == nil {
		return nil
	}
	p := &Product{
		ID:   detail.ProductID.String(),
		Name: detail.ProductName,
	}
	if detail.Brand != nil {
		p.Brand = detail.Brand.BrandName
		p.BrandID = detail.Brand.BrandID.String()
	}
	if detail.Category != nil {
		p.Category = detail.Category.CategoryName
		p.CategoryID = detail.Category.CategoryID.String()
	}
	p.Variants = make([]Variant, 0, len(detail.Variants))
	for _, opt := range detail.Variants {
		price, known := opt.Price.Decimal()
		p.Variants = append(p.Variants, Variant{
			VariantID:  opt.VariantID.String(),
			SKU:        opt.SKU,
			Price:      price,
			PriceKnown: known,
			Size:       opt.Size,
			Color:      opt.Color,
			Image:      opt.Image,
		})
	}
	p.OfferPrice = offerPrice(p.Variants)
	return p
}

func offerPrice(variants []Variant) decimal.Decimal {
	if len(variants) == 0 {
		return decimal.Zero
	}
	return variants[0].Price
}

func statusString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
