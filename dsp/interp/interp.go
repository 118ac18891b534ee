// Package interp provides fractional-sample interpolation helpers.
package interp

// Linear interpolates between x0 and x1 at position t in [0,1].
func Linear(t, x0, x1 float64) float64 {
	return x0 + t*(x1-x0)
}
