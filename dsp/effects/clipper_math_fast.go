//go:build fastmath

package effects

import (
	"github.com/meko-christian/algo-approx"
)

// mathPow computes x^y for x > 0 as exp(y*ln(x)) using fast approximations.
func mathPow(x, y float64) float64 {
	if x <= 0 {
		return 0
	}

	return approx.FastExp(y * approx.FastLog(x))
}
