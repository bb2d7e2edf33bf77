package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod is how the customer settles an order.
type PaymentMethod string

const (
	PaymentMethodCOD          PaymentMethod = "COD"
	PaymentMethodVNPayQR      PaymentMethod = "VNPAY_QR"
	PaymentMethodMoMo         PaymentMethod = "MOMO"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCOD,
	PaymentMethodVNPayQR,
	PaymentMethodMoMo,
	PaymentMethodBankTransfer,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// Redirects reports whether the backend answers with a payment page URL.
func (p PaymentMethod) Redirects() bool {
	return p == PaymentMethodVNPayQR || p == PaymentMethodMoMo
}

// ParsePaymentMethod converts raw input into a PaymentMethod. Matching ignores case.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	value = strings.TrimSpace(value)
	for _, candidate := range validPaymentMethods {
		if strings.EqualFold(string(candidate), value) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
