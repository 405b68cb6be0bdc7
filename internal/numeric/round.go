package numeric

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// Round rounds v to the given number of decimal places, resolving halves to
// even the way array-oriented numeric libraries do (2.5 -> 2, 0.625 -> 0.62).
func Round(v float64, places int) float64 {
	if !Finite(v) {
		return v
	}
	return scalar.RoundEven(v, places)
}

// Finite reports whether v is neither NaN nor an infinity.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// OrZero returns v, or 0 when v is not finite.
func OrZero(v float64) float64 {
	if !Finite(v) {
		return 0
	}
	return v
}
