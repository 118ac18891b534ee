// Package onepole provides a one-pole low-pass filter whose cutoff is a
// per-sample control signal, suitable for continuously varying damping and
// tone controls inside feedback loops.
package onepole

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-reverb/dsp/core"
)

// LPF is a one-pole low-pass filter. The zero value is ready to use.
//
// The smoothing coefficient is derived from the instantaneous cutoff on
// every sample: coeff = 1 - exp(-2*pi*fc/sr), y += coeff*(x - y). There is
// no smoothing beyond what the filter itself provides.
type LPF struct {
	state float64
}

// ProcessSample filters one sample with the given cutoff in Hz.
func (f *LPF) ProcessSample(input, cutoffHz, sampleRate float64) float64 {
	f.state = core.FlushDenormals(f.state + coefficient(cutoffHz, sampleRate)*(input-f.state))
	return f.state
}

// ProcessBlock filters input into output using one cutoff value per sample.
// Input, cutoffHz and output must have equal lengths; output may alias
// input. Panics on length mismatch.
func (f *LPF) ProcessBlock(input, cutoffHz, output []float64, sampleRate float64) {
	if len(cutoffHz) != len(input) || len(output) != len(input) {
		panic(fmt.Sprintf("onepole: block length mismatch: input %d, cutoff %d, output %d",
			len(input), len(cutoffHz), len(output)))
	}

	state := f.state
	for i := range input {
		state = core.FlushDenormals(state + coefficient(cutoffHz[i], sampleRate)*(input[i]-state))
		output[i] = state
	}
	f.state = state
}

// Reset clears filter state.
func (f *LPF) Reset() {
	f.state = 0
}

// coefficient maps an instantaneous cutoff to the one-pole smoothing
// coefficient. Past x = -37 the exponential underflows the coefficient's
// precision, so the filter passes the input through exactly.
func coefficient(cutoffHz, sampleRate float64) float64 {
	x := -2 * math.Pi * cutoffHz / sampleRate
	if x < -37 {
		return 1
	}
	return core.Clamp(1-mathExp(x), 0, 1)
}
