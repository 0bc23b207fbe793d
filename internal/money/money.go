// Package money represents currency amounts as integer minor units (cents).
//
// Amounts enter the system as decimal strings or floats and are rounded once,
// half away from zero, to two decimal places. After that every sum and
// comparison is exact integer arithmetic.
package money

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for negative, NaN, infinite, oversized or
// unparsable amounts and quantities.
var ErrInvalidAmount = errors.New("invalid amount")

// Scale is the number of decimal places kept in an Amount.
const Scale = 2

// maxAmount bounds parsed amounts so that sums of many of them stay well
// inside int64.
const maxAmount = Amount(1_000_000_000_000_00)

// maxQuantity bounds line item quantities.
var maxQuantity = decimal.NewFromInt(1_000_000_000)

var hundred = decimal.NewFromInt(100)

// groupedNumber matches a number that uses commas only as thousands
// separators, e.g. "1,250.50" or "12,000".
var groupedNumber = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)

// Amount is a signed quantity of minor currency units. Parsed inputs are
// never negative; derived values such as a remaining balance may be.
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// Parse reads a non-negative decimal string such as "1250.5" or "1,250.50".
// Surrounding whitespace is ignored. Commas are accepted only as thousands
// separators, so a decimal comma like "12,50" is rejected.
func Parse(s string) (Amount, error) {
	clean, err := stripGrouping(s)
	if err != nil {
		return 0, err
	}
	if clean == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// MustParse is Parse for constants and tests. It panics on invalid input.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromDecimal rounds d to minor units.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, d.String())
	}
	cents := d.Round(Scale).Mul(hundred)
	if cents.GreaterThan(decimal.NewFromInt(int64(maxAmount))) {
		return 0, fmt.Errorf("%w: %s is too large", ErrInvalidAmount, d.String())
	}
	return Amount(cents.IntPart()), nil
}

// FromFloat converts a float, rejecting NaN, infinities and negatives.
func FromFloat(f float64) (Amount, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, f)
	}
	return FromDecimal(decimal.NewFromFloat(f))
}

// FromCents wraps a raw minor-unit count, e.g. one loaded from storage.
func FromCents(c int64) Amount {
	return Amount(c)
}

// Cents returns the raw minor-unit count.
func (a Amount) Cents() int64 {
	return int64(a)
}

// Decimal returns a as an exact decimal with two places.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// Float64 is for display and interop only.
func (a Amount) Float64() float64 {
	f, _ := a.Decimal().Float64()
	return f
}

// String formats a with exactly two decimals, e.g. "1000.00" or "-30.00".
func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

// Neg returns -a.
func (a Amount) Neg() Amount {
	return -a
}

// Times multiplies a unit price by a quantity and rounds half away from zero
// to minor units. A negative product or one above the largest parseable
// amount is rejected.
func (a Amount) Times(qty decimal.Decimal) (Amount, error) {
	cents := a.Decimal().Mul(qty).Round(Scale).Mul(hundred)
	if cents.IsNegative() {
		return 0, fmt.Errorf("%w: %s x %s is negative", ErrInvalidAmount, a, qty.String())
	}
	if cents.GreaterThan(decimal.NewFromInt(int64(maxAmount))) {
		return 0, fmt.Errorf("%w: %s x %s is too large", ErrInvalidAmount, a, qty.String())
	}
	return Amount(cents.IntPart()), nil
}

// Sum adds amounts.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total += a
	}
	return total
}

// ParseQuantity reads a non-negative decimal quantity such as "2.5".
func ParseQuantity(s string) (decimal.Decimal, error) {
	clean, err := stripGrouping(s)
	if err != nil {
		return decimal.Zero, err
	}
	if clean == "" {
		return decimal.Zero, fmt.Errorf("%w: empty quantity", ErrInvalidAmount)
	}
	q, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: quantity %q", ErrInvalidAmount, s)
	}
	if err := ValidateQuantity(q); err != nil {
		return decimal.Zero, err
	}
	return q, nil
}

// ValidateQuantity rejects negative quantities and those above one billion.
func ValidateQuantity(q decimal.Decimal) error {
	if q.IsNegative() {
		return fmt.Errorf("%w: quantity %s is negative", ErrInvalidAmount, q.String())
	}
	if q.GreaterThan(maxQuantity) {
		return fmt.Errorf("%w: quantity %s is too large", ErrInvalidAmount, q.String())
	}
	return nil
}

// stripGrouping trims s and removes thousands separators. Any other use of a
// comma is an error.
func stripGrouping(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if !strings.Contains(trimmed, ",") {
		return trimmed, nil
	}
	if !groupedNumber.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q is not a valid grouped number", ErrInvalidAmount, s)
	}
	return strings.ReplaceAll(trimmed, ",", ""), nil
}
