// Package money provides checked arithmetic for smallest-unit amounts.
//
// All prices, payments, balances and revenue figures are uint64 counts of the
// smallest currency unit. Arithmetic never wraps: an addition that would
// overflow returns an error and leaves the operands untouched.
package money

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrOverflow is returned when an addition exceeds the uint64 range.
var ErrOverflow = errors.New("arithmetic overflow")

// Add returns a+b or ErrOverflow.
func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%d + %d: %w", a, b, ErrOverflow)
	}
	return sum, nil
}
