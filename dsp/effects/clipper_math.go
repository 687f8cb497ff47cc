//go:build !fastmath

package effects

import "math"

// mathPow computes x^y for x > 0 using standard library math.
func mathPow(x, y float64) float64 {
	return math.Pow(x, y)
}
