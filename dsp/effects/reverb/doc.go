// Package reverb provides reusable non-I/O reverberation engines.
//
// Included processors:
//   - LuffVerb: multichannel feedback-delay-network reverb built from
//     cascaded Hadamard diffuser stages and a Householder feedback tail.
//   - Galactic: stereo nested-delay reverb ported from the Airwindows
//     Galactic plugin.
//
// Both engines are block processors driven by a host audio graph: the host
// calls Init once per sample-rate or block-size change (allocation happens
// here), then ProcessBlock once per audio block on the real-time thread.
// ProcessBlock never allocates, locks or blocks.
package reverb
