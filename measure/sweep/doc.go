// Package sweep measures reverb impulse responses with logarithmic sine
// sweeps.
//
// A log sweep spends equal time in every octave, which gives uniform SNR
// across frequency and makes it the standard excitation for reverberation
// measurements. Its inverse filter is analytically known (the time-reversed
// sweep with 6 dB/octave amplitude compensation), so the impulse response
// is recovered by a single FFT convolution.
//
// # Usage
//
// Drive a block processor directly:
//
//	s := &sweep.LogSweep{
//	    StartFreq: 20, EndFreq: 20000,
//	    Duration: 2, SampleRate: 48000,
//	}
//	ir, err := s.Measure(func(in, out []float64) {
//	    engine.ProcessBlock(in, out, lowpass, damping)
//	}, 64, 3.0)
//
// The extra tail seconds keep recording after the sweep ends so the reverb
// decay is fully captured before deconvolution.
package sweep
