package commerce

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNumberDecimalShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"json number", `100000`, "100000", true},
		{"numeric string", `"250000.50"`, "250000.5", true},
		{"decimal object integer", `{"s":1,"e":5,"d":[200000]}`, "200000", true},
		{"decimal object fraction", `{"s":1,"e":2,"d":[123,4500000]}`, "123.45", true},
		{"decimal object below one", `{"s":1,"e":-1,"d":[5000000]}`, "0.5", true},
		{"decimal object negative", `{"s":-1,"e":7,"d":[1,2345678]}`, "-12345678", true},
		{"garbage string", `"abc"`, "0", false},
		{"null", `null`, "0", false},
		{"broken object", `{"d":[1]}`, "0", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var n Number
			if err := json.Unmarshal([]byte(tc.raw), &n); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			got, ok := n.Decimal()
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestNumberMissingField(t *testing.T) {
	var payload struct {
		Price Number `json:"price"`
	}
	if err := json.Unmarshal([]byte(`{}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Price.Present() {
		t.Fatal("missing field should not be present")
	}
	if _, ok := payload.Price.Decimal(); ok {
		t.Fatal("missing field should not parse")
	}
}

func TestNumberIntTruncates(t *testing.T) {
	n := NumberOf(decimal.RequireFromString("3.9"))
	if v, ok := n.Int(); !ok || v != 3 {
		t.Fatalf("expected 3, got %d ok=%v", v, ok)
	}
}
