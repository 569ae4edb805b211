// Package money handles currency amounts as integer minor units (cents).
// All ledger arithmetic happens on Cents so that conservation properties
// hold exactly; decimal strings only appear at the API edge.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is a signed amount in minor currency units.
type Cents int64

// MaxAmount is the sane upper bound for a single transaction amount.
const MaxAmount Cents = 1_000_000_000_000_000

var (
	ErrInvalidAmount  = errors.New("invalid money amount")
	ErrTooManyDecimal = errors.New("amount has more than two decimal places")
)

var hundred = decimal.NewFromInt(100)

// Parse converts a user-entered decimal string (e.g. "12.34") to Cents.
// Amounts with more than two decimal places are rejected rather than rounded.
func Parse(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	scaled := d.Mul(hundred)
	if !scaled.IsInteger() {
		return 0, ErrTooManyDecimal
	}
	c := Cents(scaled.IntPart())
	if c > MaxAmount || c < -MaxAmount {
		return 0, fmt.Errorf("%w: %q exceeds maximum", ErrInvalidAmount, s)
	}
	return c, nil
}

// String renders the amount as a plain decimal string ("12.34", "-0.05").
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON renders Cents as a decimal JSON string.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON accepts a decimal JSON string.
func (c *Cents) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("%w: expected decimal string", ErrInvalidAmount)
	}
	parsed, err := Parse(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
