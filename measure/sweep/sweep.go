package sweep

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
)

// Errors returned by sweep functions.
var (
	ErrInvalidFrequency  = errors.New("sweep: frequency must be positive")
	ErrInvalidDuration   = errors.New("sweep: duration must be positive")
	ErrInvalidSampleRate = errors.New("sweep: sample rate must be positive")
	ErrInvalidBlockSize  = errors.New("sweep: block size must be positive")
	ErrInvalidTail       = errors.New("sweep: tail length must not be negative")
	ErrFrequencyOrder    = errors.New("sweep: start frequency must be less than end frequency")
	ErrEmptyResponse     = errors.New("sweep: response signal is empty")
)

// LogSweep describes a logarithmic sine sweep excitation and recovers
// impulse responses from recorded sweep responses.
type LogSweep struct {
	StartFreq  float64 // start frequency in Hz
	EndFreq    float64 // end frequency in Hz
	Duration   float64 // sweep duration in seconds
	SampleRate float64 // sample rate in Hz
}

// Validate checks the sweep parameters.
func (s *LogSweep) Validate() error {
	if s.StartFreq <= 0 || s.EndFreq <= 0 {
		return ErrInvalidFrequency
	}

	if s.StartFreq >= s.EndFreq {
		return ErrFrequencyOrder
	}

	if s.Duration <= 0 {
		return ErrInvalidDuration
	}

	if s.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}

	return nil
}

// samples returns the sweep length in samples.
func (s *LogSweep) samples() int {
	return int(math.Round(s.Duration * s.SampleRate))
}

// Generate creates the sweep signal. The instantaneous frequency rises
// exponentially from StartFreq to EndFreq:
//
//	x(t) = sin(2π * f1 * T / ln(f2/f1) * (exp(t/T * ln(f2/f1)) - 1))
func (s *LogSweep) Generate() ([]float64, error) {
	err := s.Validate()
	if err != nil {
		return nil, err
	}

	out := make([]float64, s.samples())

	T := s.Duration
	lnRatio := math.Log(s.EndFreq / s.StartFreq)

	for i := range out {
		t := float64(i) / s.SampleRate
		phase := 2 * math.Pi * s.StartFreq * T / lnRatio * (math.Exp(t/T*lnRatio) - 1)
		out[i] = math.Sin(phase)
	}

	return out, nil
}

// InverseFilter creates the deconvolution filter: the time-reversed sweep
// with 6 dB/octave amplitude compensation, normalized so that convolving
// the sweep with its inverse yields a unit impulse.
func (s *LogSweep) InverseFilter() ([]float64, error) {
	sweepSignal, err := s.Generate()
	if err != nil {
		return nil, err
	}

	n := len(sweepSignal)
	T := s.Duration
	lnRatio := math.Log(s.EndFreq / s.StartFreq)

	inv := make([]float64, n)
	for i := range inv {
		j := n - 1 - i
		t := float64(j) / s.SampleRate

		// Compensate the sweep's rising energy per frequency band.
		fInst := s.StartFreq * math.Exp(t/T*lnRatio)
		inv[i] = sweepSignal[j] * s.StartFreq / fInst
	}

	norm := T * s.StartFreq / lnRatio * s.SampleRate
	if norm > 0 {
		scale := 1 / norm
		for i := range inv {
			inv[i] *= scale
		}
	}

	return inv, nil
}

// Deconvolve recovers the impulse response from a recorded sweep response
// by FFT convolution with the inverse filter. The causal response begins
// at offset len(sweep)-1 of the returned signal; [LogSweep.Measure] trims
// that alignment automatically.
func (s *LogSweep) Deconvolve(response []float64) ([]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	if len(response) == 0 {
		return nil, ErrEmptyResponse
	}

	inv, err := s.InverseFilter()
	if err != nil {
		return nil, err
	}

	return fftConvolve(response, inv)
}

// Measure drives a mono block processor with the sweep followed by
// tailSeconds of silence, deconvolves the output and returns the impulse
// response aligned so that index 0 is the direct arrival. The process
// callback is invoked once per block with input and output slices of
// blockSize samples, exactly as a host audio graph would drive it.
func (s *LogSweep) Measure(process func(input, output []float64), blockSize int, tailSeconds float64) ([]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	if blockSize <= 0 {
		return nil, ErrInvalidBlockSize
	}

	if tailSeconds < 0 {
		return nil, ErrInvalidTail
	}

	excitation, err := s.Generate()
	if err != nil {
		return nil, err
	}

	length := len(excitation) + int(math.Round(tailSeconds*s.SampleRate))
	blocks := (length + blockSize - 1) / blockSize

	drive := make([]float64, blocks*blockSize)
	copy(drive, excitation)

	response := make([]float64, blocks*blockSize)
	for b := 0; b < blocks; b++ {
		process(drive[b*blockSize:(b+1)*blockSize], response[b*blockSize:(b+1)*blockSize])
	}

	deconv, err := s.Deconvolve(response[:length])
	if err != nil {
		return nil, err
	}

	// The linear response of a causal system starts at the inverse filter
	// length; everything before it is pre-ringing and distortion products.
	onset := len(excitation) - 1

	return deconv[onset:], nil
}

// fftConvolve returns the full linear convolution of a and b.
func fftConvolve(a, b []float64) ([]float64, error) {
	n := len(a) + len(b) - 1
	fftSize := nextPowerOf2(n)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("sweep: failed to create FFT plan: %w", err)
	}

	aPadded := make([]complex128, fftSize)
	for i, v := range a {
		aPadded[i] = complex(v, 0)
	}

	aFreq := make([]complex128, fftSize)
	if err := plan.Forward(aFreq, aPadded); err != nil {
		return nil, fmt.Errorf("sweep: forward FFT failed: %w", err)
	}

	bPadded := make([]complex128, fftSize)
	for i, v := range b {
		bPadded[i] = complex(v, 0)
	}

	bFreq := make([]complex128, fftSize)
	if err := plan.Forward(bFreq, bPadded); err != nil {
		return nil, fmt.Errorf("sweep: forward FFT failed: %w", err)
	}

	for i := range aFreq {
		aFreq[i] *= bFreq[i]
	}

	resultTime := make([]complex128, fftSize)
	if err := plan.Inverse(resultTime, aFreq); err != nil {
		return nil, fmt.Errorf("sweep: inverse FFT failed: %w", err)
	}

	result := make([]float64, n)
	for i := range result {
		result[i] = real(resultTime[i])
	}

	return result, nil
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p *= 2
	}

	return p
}
