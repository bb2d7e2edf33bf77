package voucher

import (
	"strings"

	"github.com/shopspring/decimal"
)

// State is the voucher application state of one cart session.
type State string

const (
	StateNone       State = "no_voucher"
	StateValidating State = "validating"
	StateApplied    State = "applied"
	StateRejected   State = "rejected"
)

// Application tracks the code a customer entered and the last evaluation of it.
type Application struct {
	State    State           `json:"state"`
	Code     string          `json:"code,omitempty"`
	Discount decimal.Decimal `json:"discount"`
	Reason   string          `json:"reason,omitempty"`
	Voucher  *Voucher        `json:"voucher,omitempty"`
}

// None is the initial state.
func None() Application {
	return Application{State: StateNone, Discount: decimal.Zero}
}

// Enter records a newly entered code. A blank code clears the application.
func (a Application) Enter(code string) Application {
	code = strings.TrimSpace(code)
	if code == "" {
		return a.Clear()
	}
	return Application{State: StateValidating, Code: code, Discount: decimal.Zero}
}

// Resolve settles a Validating application with an evaluation result.
func (a Application) Resolve(v *Voucher, res Result) Application {
	if a.State == StateNone || a.Code == "" {
		return None()
	}
	if !res.Applicable {
		return Application{State: StateRejected, Code: a.Code, Discount: decimal.Zero, Reason: res.Reason, Voucher: v}
	}
	return Application{State: StateApplied, Code: a.Code, Discount: res.Discount, Voucher: v}
}

// Clear returns to NoVoucher.
func (a Application) Clear() Application {
	return None()
}

// Pending reports whether a code is entered and needs evaluating.
func (a Application) Pending() bool {
	return a.State != StateNone && a.Code != ""
}
