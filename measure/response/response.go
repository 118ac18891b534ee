// Package response captures impulse responses from block processors and
// derives their frequency-domain magnitude, for characterizing reverb
// engines without audio I/O.
package response

import (
	"errors"
	"fmt"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

// Errors returned by response functions.
var (
	ErrEmptyIR          = errors.New("response: impulse response is empty")
	ErrInvalidLength    = errors.New("response: length must be positive")
	ErrInvalidBlockSize = errors.New("response: block size must be positive")
)

// Capture drives a mono block processor with a unit impulse and returns
// the first length samples of its response. The process callback is
// invoked once per block with an input and an output slice of blockSize
// samples, exactly as a host audio graph would drive it.
func Capture(process func(input, output []float64), length, blockSize int) ([]float64, error) {
	if length <= 0 {
		return nil, ErrInvalidLength
	}

	if blockSize <= 0 {
		return nil, ErrInvalidBlockSize
	}

	blocks := (length + blockSize - 1) / blockSize
	response := make([]float64, blocks*blockSize)
	input := make([]float64, blockSize)
	input[0] = 1

	for b := 0; b < blocks; b++ {
		process(input, response[b*blockSize:(b+1)*blockSize])

		if b == 0 {
			input[0] = 0
		}
	}

	return response[:length], nil
}

// Magnitude returns the single-sided magnitude spectrum of an impulse
// response, zero-padded to fftSize bins. A non-positive fftSize selects
// the next power of two that fits the response. The result has
// fftSize/2+1 bins from DC to Nyquist.
func Magnitude(ir []float64, fftSize int) ([]float64, error) {
	if len(ir) == 0 {
		return nil, ErrEmptyIR
	}

	if fftSize <= 0 {
		fftSize = nextPowerOfTwo(len(ir))
	}

	if fftSize < len(ir) {
		return nil, fmt.Errorf("response: FFT size %d smaller than response length %d", fftSize, len(ir))
	}

	inData := make([]complex128, fftSize)
	for i, v := range ir {
		inData[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("response: FFT plan: %w", err)
	}

	out := make([]complex128, fftSize)

	err = plan.Forward(out, inData)
	if err != nil {
		return nil, fmt.Errorf("response: FFT: %w", err)
	}

	mag := make([]float64, fftSize/2+1)
	for i := range mag {
		mag[i] = cmplx.Abs(out[i])
	}

	return mag, nil
}

func nextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size *= 2
	}

	return size
}
