package commerce

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Number holds a raw numeric field as the backend sent it: a JSON number, a numeric
// string, or a serialized decimal object {"s":1,"e":5,"d":[200000]}.
type Number []byte

// UnmarshalJSON keeps the raw bytes; parsing happens in Decimal.
func (n *Number) UnmarshalJSON(data []byte) error {
	if n == nil {
		return fmt.Errorf("commerce.Number: UnmarshalJSON on nil pointer")
	}
	*n = append((*n)[:0], data...)
	return nil
}

// MarshalJSON writes the raw bytes back out.
func (n Number) MarshalJSON() ([]byte, error) {
	if len(n) == 0 {
		return []byte("null"), nil
	}
	return n, nil
}

// NumberOf builds a Number from a decimal, mainly for fixtures.
func NumberOf(d decimal.Decimal) Number {
	return Number(strconv.Quote(d.String()))
}

// Present reports whether the field was sent with a non-null value.
func (n Number) Present() bool {
	trimmed := bytes.TrimSpace(n)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Decimal parses the raw value. ok is false when the field is missing or unparseable.
func (n Number) Decimal() (decimal.Decimal, bool) {
	if !n.Present() {
		return decimal.Zero, false
	}
	raw := bytes.TrimSpace(n)

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, false
		}
		return parseDecimalString(s)
	case '{':
		var obj decimalObject
		if err := json.Unmarshal(raw, &obj); err != nil {
			return decimal.Zero, false
		}
		return obj.decimal()
	default:
		return parseDecimalString(string(raw))
	}
}

// Int parses the value as an integer, truncating any fraction.
func (n Number) Int() (int64, bool) {
	d, ok := n.Decimal()
	if !ok {
		return 0, false
	}
	return d.IntPart(), true
}

func parseDecimalString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// decimalObject is the decimal.js wire form: sign, exponent of the leading digit,
// and base 1e7 digit groups with the first group unpadded.
type decimalObject struct {
	S *int    `json:"s"`
	E *int    `json:"e"`
	D []int64 `json:"d"`
}

const decimalGroupWidth = 7

func (o decimalObject) decimal() (decimal.Decimal, bool) {
	if o.S == nil || o.E == nil || len(o.D) == 0 {
		return decimal.Zero, false
	}

	var digits strings.Builder
	for i, group := range o.D {
		if group < 0 {
			return decimal.Zero, false
		}
		part := strconv.FormatInt(group, 10)
		if i > 0 {
			if len(part) > decimalGroupWidth {
				return decimal.Zero, false
			}
			part = strings.Repeat("0", decimalGroupWidth-len(part)) + part
		}
		digits.WriteString(part)
	}

	coefficient, err := decimal.NewFromString(digits.String())
	if err != nil {
		return decimal.Zero, false
	}
	if coefficient.IsZero() {
		return decimal.Zero, true
	}

	// shift so the leading digit lands at 10^e
	leading := len(strconv.FormatInt(o.D[0], 10))
	shift := *o.E - (leading - 1) - decimalGroupWidth*(len(o.D)-1)
	value := coefficient.Shift(int32(shift))
	if *o.S < 0 {
		value = value.Neg()
	}
	return value, true
}
