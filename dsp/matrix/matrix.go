// Package matrix provides stateless energy-preserving mixing transforms
// used by feedback-delay-network reverbs.
package matrix

import "fmt"

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// HadamardInPlace applies the unnormalized Hadamard transform to frame by
// recursive (a+b, a-b) butterflies. Applying it twice returns the original
// frame scaled by len(frame). The total sum of squares is scaled by
// len(frame), so callers compensate with an overall gain.
//
// Panics if len(frame) is not a power of two.
func HadamardInPlace(frame []float64) {
	if !IsPowerOfTwo(len(frame)) {
		panic(fmt.Sprintf("matrix: hadamard frame length must be a power of two: %d", len(frame)))
	}
	hadamardRecursive(frame)
}

func hadamardRecursive(frame []float64) {
	if len(frame) <= 1 {
		return
	}
	d := len(frame) / 2
	hadamardRecursive(frame[:d])
	hadamardRecursive(frame[d:])
	for i := 0; i < d; i++ {
		a := frame[i]
		b := frame[i+d]
		frame[i] = a + b
		frame[i+d] = a - b
	}
}

// HouseholderInPlace reflects frame about its mean: it adds
// s = -2/N * sum(frame) to every element. The transform is self-inverse and
// preserves the sum of squares exactly (up to rounding), which makes it a
// cheap full-mix feedback matrix for any channel count.
func HouseholderInPlace(frame []float64) {
	if len(frame) == 0 {
		return
	}

	sum := 0.0
	for _, v := range frame {
		sum += v
	}
	sum *= -2.0 / float64(len(frame))

	for i := range frame {
		frame[i] += sum
	}
}
