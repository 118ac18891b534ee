package ir

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-reverb/dsp/core"
)

// Errors returned by decay analysis functions.
var (
	ErrEmptyIR           = errors.New("ir: impulse response is empty")
	ErrInvalidSampleRate = errors.New("ir: sample rate must be positive")
	ErrNoDecay           = errors.New("ir: insufficient decay for RT calculation")
)

// Metrics holds decay analysis results for a reverb impulse response.
type Metrics struct {
	RT60      float64 // reverberation time in seconds (extrapolated from T30 or T20)
	EDT       float64 // early decay time in seconds (0 to -10 dB)
	T20       float64 // RT from -5 to -25 dB slope
	T30       float64 // RT from -5 to -35 dB slope
	PeakIndex int     // sample index of IR peak (absolute maximum)
}

// Analyzer computes decay metrics from impulse response data.
type Analyzer struct {
	SampleRate float64
}

// NewAnalyzer creates an analyzer with the given sample rate.
func NewAnalyzer(sampleRate float64) *Analyzer {
	return &Analyzer{SampleRate: sampleRate}
}

// Analyze computes all decay metrics from an impulse response, measured
// from the response peak onward.
func (a *Analyzer) Analyze(ir []float64) (Metrics, error) {
	if len(ir) == 0 {
		return Metrics{}, ErrEmptyIR
	}

	if a.SampleRate <= 0 {
		return Metrics{}, ErrInvalidSampleRate
	}

	peakIdx := findPeak(ir)
	schroeder := a.schroederIntegral(ir[peakIdx:])

	m := Metrics{
		PeakIndex: peakIdx,
		EDT:       a.reverbTime(schroeder, 0, -10),
		T20:       a.reverbTime(schroeder, -5, -25),
		T30:       a.reverbTime(schroeder, -5, -35),
	}

	// RT60: prefer T30 (more robust), fall back to T20.
	if m.T30 > 0 {
		m.RT60 = m.T30
	} else {
		m.RT60 = m.T20
	}

	return m, nil
}

// RT60 computes the reverberation time (time for -60 dB decay).
// Uses T30 extrapolation when possible, falls back to T20.
func (a *Analyzer) RT60(ir []float64) (float64, error) {
	if len(ir) == 0 {
		return 0, ErrEmptyIR
	}

	if a.SampleRate <= 0 {
		return 0, ErrInvalidSampleRate
	}

	schroeder := a.schroederIntegral(ir)

	rt := a.reverbTime(schroeder, -5, -35)
	if rt > 0 {
		return rt, nil
	}

	rt = a.reverbTime(schroeder, -5, -25)
	if rt > 0 {
		return rt, nil
	}

	return 0, ErrNoDecay
}

// SchroederIntegral computes the Schroeder backward integration of the
// squared impulse response, returned in dB.
//
//	S(t) = 10*log10( ∫_t^∞ h²(τ) dτ / ∫_0^∞ h²(τ) dτ )
//
// This converts the noisy IR energy decay into a smooth decay curve
// suitable for reverberation time estimation.
func (a *Analyzer) SchroederIntegral(ir []float64) ([]float64, error) {
	if len(ir) == 0 {
		return nil, ErrEmptyIR
	}

	return a.schroederIntegral(ir), nil
}

// schroederIntegral computes the Schroeder integral (unchecked).
func (a *Analyzer) schroederIntegral(ir []float64) []float64 {
	n := len(ir)
	result := make([]float64, n)

	// Backward cumulative sum of squared IR.
	var cumSum float64
	for i := n - 1; i >= 0; i-- {
		cumSum += ir[i] * ir[i]
		result[i] = cumSum
	}

	totalEnergy := result[0]
	if totalEnergy <= 0 {
		return result
	}

	for i := range result {
		ratio := result[i] / totalEnergy
		if ratio <= 0 {
			result[i] = -200 // floor
		} else {
			result[i] = core.LinearPowerToDB(ratio)
		}
	}

	return result
}

// reverbTime calculates reverberation time by linear regression on the
// Schroeder curve between startDB and endDB, extrapolated to -60 dB.
func (a *Analyzer) reverbTime(schroeder []float64, startDB, endDB float64) float64 {
	if len(schroeder) == 0 || a.SampleRate <= 0 {
		return 0
	}

	startIdx := -1
	endIdx := -1

	for i, v := range schroeder {
		if startIdx < 0 && v <= startDB {
			startIdx = i
		}

		if startIdx >= 0 && v <= endDB {
			endIdx = i
			break
		}
	}

	if startIdx < 0 || endIdx <= startIdx {
		return 0
	}

	n := endIdx - startIdx + 1
	if n < 2 {
		return 0
	}

	// Linear regression, y = dB values, x = sample indices.
	var sumX, sumY, sumXX, sumXY float64

	for i := startIdx; i <= endIdx; i++ {
		x := float64(i - startIdx)
		y := schroeder[i]
		sumX += x
		sumY += y
		sumXX += x * x
		sumXY += x * y
	}

	nf := float64(n)

	denom := nf*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}

	slope := (nf*sumXY - sumX*sumY) / denom
	if slope >= 0 {
		return 0 // no decay
	}

	rt := -60.0 / (slope * a.SampleRate)
	if rt < 0 {
		return 0
	}

	return rt
}

// findPeak returns the index of the absolute maximum in the IR.
func findPeak(ir []float64) int {
	peakIdx := 0
	peakVal := 0.0

	for i, v := range ir {
		av := math.Abs(v)
		if av > peakVal {
			peakVal = av
			peakIdx = i
		}
	}

	return peakIdx
}
