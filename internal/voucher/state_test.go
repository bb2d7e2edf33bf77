package voucher

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestApplicationTransitions(t *testing.T) {
	app := None()
	if app.State != StateNone || app.Pending() {
		t.Fatalf("expected initial NoVoucher, got %+v", app)
	}

	app = app.Enter("  SALE50 ")
	if app.State != StateValidating || app.Code != "SALE50" || !app.Pending() {
		t.Fatalf("expected Validating with trimmed code, got %+v", app)
	}

	v := &Voucher{Code: "SALE50", Type: DiscountFixed, Value: decimal.NewFromInt(10000), Active: true}
	applied := app.Resolve(v, Result{Applicable: true, Discount: decimal.NewFromInt(10000)})
	if applied.State != StateApplied || applied.Reason != "" || !applied.Discount.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("expected Applied, got %+v", applied)
	}

	rejected := app.Resolve(nil, Result{Discount: decimal.Zero, Reason: ReasonNotFound})
	if rejected.State != StateRejected || rejected.Reason != ReasonNotFound || !rejected.Discount.IsZero() {
		t.Fatalf("expected Rejected, got %+v", rejected)
	}

	for _, from := range []Application{applied, rejected} {
		if cleared := from.Enter(""); cleared.State != StateNone || cleared.Code != "" {
			t.Fatalf("clearing the code must return to NoVoucher, got %+v", cleared)
		}
		if cleared := from.Clear(); cleared.State != StateNone {
			t.Fatalf("Clear must return to NoVoucher, got %+v", cleared)
		}
	}
}

func TestResolveWithoutCodeStaysNone(t *testing.T) {
	got := None().Resolve(nil, Result{Applicable: true, Discount: decimal.NewFromInt(5)})
	if got.State != StateNone {
		t.Fatalf("expected NoVoucher, got %+v", got)
	}
}
