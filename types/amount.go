// Package types provides common types used across the stream ledger.
package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Amount is a quantity of the ledger's asset in its smallest unit.
// All arithmetic is integer-only; the Checked* methods report overflow
// instead of wrapping.
type Amount int64

// MaxAmount is the largest representable Amount.
const MaxAmount Amount = math.MaxInt64

// Arithmetic operations

// CheckedAdd returns a+b and false if the sum overflows.
func (a Amount) CheckedAdd(b Amount) (Amount, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}

// CheckedSub returns a-b and false if the difference overflows.
func (a Amount) CheckedSub(b Amount) (Amount, bool) {
	diff := a - b
	if (b > 0 && diff > a) || (b < 0 && diff < a) {
		return 0, false
	}
	return diff, true
}

// CheckedMul multiplies the amount by n and reports false on overflow.
func (a Amount) CheckedMul(n int64) (Amount, bool) {
	if a == 0 || n == 0 {
		return 0, true
	}
	x := int64(a)
	if (x == -1 && n == math.MinInt64) || (n == -1 && x == math.MinInt64) {
		return 0, false
	}
	p := x * n
	if p/n != x {
		return 0, false
	}
	return Amount(p), true
}

// Clamp bounds the amount to the closed interval [lo, hi].
func (a Amount) Clamp(lo, hi Amount) Amount {
	if a < lo {
		return lo
	}
	if a > hi {
		return hi
	}
	return a
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool { return a == 0 }

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool { return a > 0 }

// IsNegative returns true if the amount is less than zero.
func (a Amount) IsNegative() bool { return a < 0 }

// Min returns the smaller of two amounts.
func (a Amount) Min(other Amount) Amount {
	if a < other {
		return a
	}
	return other
}

// Max returns the larger of two amounts.
func (a Amount) Max(other Amount) Amount {
	if a > other {
		return a
	}
	return other
}

// Formatting methods

// Format renders the amount in major units with the given number of
// decimal places: Amount(4900).Format(2) == "49.00".
func (a Amount) Format(decimals int) string {
	if decimals <= 0 {
		return strconv.FormatInt(int64(a), 10)
	}

	divisor := uint64(1)
	for i := 0; i < decimals; i++ {
		divisor *= 10
	}

	// Handle sign separately; MinInt64 has no positive counterpart in int64.
	isNegative := a < 0
	abs := uint64(a)
	if isNegative {
		abs = uint64(-(a + 1)) + 1
	}

	major := abs / divisor
	minor := abs % divisor

	result := fmt.Sprintf("%d.%0*d", major, decimals, minor)
	if isNegative {
		return "-" + result
	}
	return result
}

// String returns the amount in smallest units.
func (a Amount) String() string {
	return strconv.FormatInt(int64(a), 10)
}

// MarshalJSON encodes the amount as a JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(a))
}

// Sum adds amounts and reports false if any partial sum overflows.
func Sum(values ...Amount) (Amount, bool) {
	var total Amount
	for _, v := range values {
		var ok bool
		total, ok = total.CheckedAdd(v)
		if !ok {
			return 0, false
		}
	}
	return total, true
}
