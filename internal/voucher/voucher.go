package voucher

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/commerce"
	"github.com/shopspring/decimal"
)

// WindowLayout is the backend format of start_date/end_date.
const WindowLayout = "15:04:05 02/01/2006"

// DiscountType selects how the discount value is applied.
type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// Rejection reasons shown to the customer.
const (
	ReasonNotFound      = "code not found"
	ReasonInactive      = "voucher expired or inactive"
	ReasonOutsideWindow = "outside active window"
	ReasonBelowMinimum  = "below minimum order value"
)

var hundred = decimal.NewFromInt(100)

// Voucher is a redeemable discount code.
type Voucher struct {
	ID            string           `json:"id,omitempty"`
	Code          string           `json:"code"`
	Description   string           `json:"description,omitempty"`
	Type          DiscountType     `json:"discount_type"`
	Value         decimal.Decimal  `json:"discount_value"`
	MaxDiscount   *decimal.Decimal `json:"max_discount,omitempty"`
	MinOrderValue *decimal.Decimal `json:"min_order_value,omitempty"`
	StartsAt      *time.Time       `json:"starts_at,omitempty"`
	EndsAt        *time.Time       `json:"ends_at,omitempty"`
	Active        bool             `json:"active"`
}

// Matches reports whether code redeems this voucher, ignoring case and surrounding space.
func (v Voucher) Matches(code string) bool {
	return strings.EqualFold(strings.TrimSpace(v.Code), strings.TrimSpace(code))
}

// Result is the outcome of evaluating a voucher against a subtotal.
type Result struct {
	Applicable bool
	Discount   decimal.Decimal
	Reason     string
}

// Evaluate checks eligibility then computes the clamped discount.
func Evaluate(v *Voucher, subtotal decimal.Decimal, now time.Time) Result {
	if v == nil {
		return Result{Discount: decimal.Zero, Reason: ReasonNotFound}
	}
	if !v.Active {
		return Result{Discount: decimal.Zero, Reason: ReasonInactive}
	}
	if v.StartsAt != nil && now.Before(*v.StartsAt) {
		return Result{Discount: decimal.Zero, Reason: ReasonOutsideWindow}
	}
	if v.EndsAt != nil && now.After(*v.EndsAt) {
		return Result{Discount: decimal.Zero, Reason: ReasonOutsideWindow}
	}
	if v.MinOrderValue != nil && subtotal.LessThan(*v.MinOrderValue) {
		return Result{Discount: decimal.Zero, Reason: ReasonBelowMinimum}
	}
	return Result{Applicable: true, Discount: Discount(*v, subtotal)}
}

// Discount computes the raw discount and clamps it to [0, min(subtotal, maxDiscount)].
func Discount(v Voucher, subtotal decimal.Decimal) decimal.Decimal {
	var raw decimal.Decimal
	switch v.Type {
	case DiscountPercent:
		raw = subtotal.Mul(v.Value).Div(hundred)
	case DiscountFixed:
		raw = v.Value
	default:
		return decimal.Zero
	}

	ceiling := decimal.Max(subtotal, decimal.Zero)
	if v.MaxDiscount != nil && v.MaxDiscount.LessThan(ceiling) {
		ceiling = *v.MaxDiscount
	}
	if raw.GreaterThan(ceiling) {
		raw = ceiling
	}
	if raw.IsNegative() {
		return decimal.Zero
	}
	return raw
}

// FromRecord converts a backend voucher record. Window timestamps are read in loc.
func FromRecord(rec commerce.Voucher, loc *time.Location) (Voucher, error) {
	code := strings.TrimSpace(rec.Title)
	if code == "" {
		return Voucher{}, fmt.Errorf("voucher %s has no title", rec.VoucherID)
	}

	kind, err := parseDiscountType(rec.DiscountType)
	if err != nil {
		return Voucher{}, fmt.Errorf("voucher %q: %w", code, err)
	}

	value, ok := rec.DiscountValue.Decimal()
	if !ok || value.IsNegative() {
		return Voucher{}, fmt.Errorf("voucher %q: invalid discount value", code)
	}

	v := Voucher{
		ID:          rec.VoucherID.String(),
		Code:        code,
		Description: rec.Description,
		Type:        kind,
		Value:       value,
		Active:      isActive(rec),
	}

	// a zero or missing cap means uncapped
	if maxDiscount, ok := rec.MaxDiscount.Decimal(); ok && maxDiscount.IsPositive() {
		v.MaxDiscount = &maxDiscount
	}
	if minOrder, ok := rec.MinOrderValue.Decimal(); ok && minOrder.IsPositive() {
		v.MinOrderValue = &minOrder
	}

	if loc == nil {
		loc = time.UTC
	}
	if v.StartsAt, err = parseWindow(rec.StartDate, loc); err != nil {
		return Voucher{}, fmt.Errorf("voucher %q start_date: %w", code, err)
	}
	if v.EndsAt, err = parseWindow(rec.EndDate, loc); err != nil {
		return Voucher{}, fmt.Errorf("voucher %q end_date: %w", code, err)
	}
	return v, nil
}

func parseDiscountType(raw string) (DiscountType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "percent", "percentage", "%":
		return DiscountPercent, nil
	case "fixed", "amount", "fixed_amount":
		return DiscountFixed, nil
	}
	return "", fmt.Errorf("unknown discount type %q", raw)
}

func parseWindow(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(WindowLayout, raw, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func isActive(rec commerce.Voucher) bool {
	if rec.IsActive != nil {
		return *rec.IsActive
	}
	if rec.Status != nil {
		return *rec.Status
	}
	return true
}

// LoadLocation resolves the voucher timezone, falling back to UTC+7 when tzdata is unavailable.
func LoadLocation(name string) *time.Location {
	if strings.TrimSpace(name) == "" {
		return time.UTC
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.FixedZone("ICT", 7*60*60)
}
