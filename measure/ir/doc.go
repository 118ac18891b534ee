// Package ir provides impulse response decay analysis for reverberation
// engines.
//
// The metrics derive from the Schroeder backward integration of the
// squared impulse response:
//
//   - RT60: reverberation time (time for -60 dB decay)
//   - EDT: early decay time (extrapolated from 0 to -10 dB)
//   - T20, T30: reverberation time from -5 to -25 dB and -5 to -35 dB
//
// # Usage
//
//	analyzer := ir.NewAnalyzer(48000) // sample rate
//	metrics, err := analyzer.Analyze(impulseResponse)
//	fmt.Printf("RT60 = %.2f s\n", metrics.RT60)
package ir
