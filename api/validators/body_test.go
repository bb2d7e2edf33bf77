package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type sample struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0,lte=99"`
}

func decode(body string) (sample, error) {
	var dest sample
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	err := DecodeJSONBody(req, &dest)
	return dest, err
}

func TestDecodeJSONBodyValid(t *testing.T) {
	got, err := decode(`{"product_id":"7","quantity":2}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ProductID != "7" || got.Quantity != 2 {
		t.Fatalf("unexpected value %+v", got)
	}
}

func TestDecodeJSONBodyFieldErrors(t *testing.T) {
	_, err := decode(`{"quantity":120}`)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details %T", typed.Details())
	}
	if details["product_id"] != "is required" || details["quantity"] != "must be at most 99" {
		t.Fatalf("unexpected details %+v", details)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	if _, err := decode(`{"product_id":"7","extra":true}`); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  SALE10  ", 4); got != "SALE" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SanitizeString(" x ", 0); got != "x" {
		t.Fatalf("unexpected %q", got)
	}
}
