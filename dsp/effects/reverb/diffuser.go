package reverb

import (
	"fmt"
	"math/rand/v2"

	"github.com/cwbudde/algo-reverb/dsp/delay"
	"github.com/cwbudde/algo-reverb/dsp/matrix"
)

// Diffuser decorrelates a multichannel frame through a bank of delay lines
// with randomized lengths, per-channel polarity flips and a Hadamard mix.
// Total frame energy is preserved up to the Hadamard scale factor.
//
// Each delay length is drawn from a disjoint stratum of the configured
// range (stratum i covers [range*i/N, range*(i+1)/N)), so no two channels
// can land on coinciding lengths and cause a resonance. Cascading several
// independently seeded diffusers multiplies the number of distinct path
// lengths, which is what builds echo density quickly.
type Diffuser struct {
	delays   []*delay.Line
	polarity []float64
	frame    []float64
}

// NewDiffuser creates a diffuser with the given channel count and delay
// range in samples. The channel count must be a power of two; the range
// must leave at least two samples per stratum. A nil rng falls back to a
// randomly seeded generator.
func NewDiffuser(channels, maxDelaySamples int, rng *rand.Rand) (*Diffuser, error) {
	if !matrix.IsPowerOfTwo(channels) {
		return nil, fmt.Errorf("reverb: diffuser channel count must be a power of two: %d", channels)
	}

	stratum := maxDelaySamples / channels
	if stratum < 2 {
		return nil, fmt.Errorf("reverb: diffuser delay range too small for %d channels: %d", channels, maxDelaySamples)
	}

	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	d := &Diffuser{
		delays:   make([]*delay.Line, channels),
		polarity: make([]float64, channels),
		frame:    make([]float64, channels),
	}

	for i := range d.delays {
		lo := stratum*i + 1
		hi := stratum * (i + 1)

		line, err := delay.New(lo + rng.IntN(hi-lo))
		if err != nil {
			return nil, err
		}

		d.delays[i] = line
	}

	// Exactly half the channels invert, in random order.
	for i := range d.polarity {
		d.polarity[i] = -1
		if i >= channels/2 {
			d.polarity[i] = 1
		}
	}
	rng.Shuffle(channels, func(i, j int) {
		d.polarity[i], d.polarity[j] = d.polarity[j], d.polarity[i]
	})

	return d, nil
}

// Channels returns the frame width the diffuser processes.
func (d *Diffuser) Channels() int {
	return len(d.delays)
}

// ProcessBlock decorrelates input into output, one multichannel frame per
// sample index. Both buffers must hold Channels() slices of equal length;
// output must not alias input. Panics on shape mismatch.
func (d *Diffuser) ProcessBlock(input, output [][]float64) {
	if len(input) != len(d.delays) || len(output) != len(d.delays) {
		panic(fmt.Sprintf("reverb: diffuser expects %d channels: input %d, output %d",
			len(d.delays), len(input), len(output)))
	}

	blockSize := len(input[0])
	for f := 0; f < blockSize; f++ {
		for c, line := range d.delays {
			d.frame[c] = line.Read() * d.polarity[c]
			line.WriteAndAdvance(input[c][f])
		}

		matrix.HadamardInPlace(d.frame)

		for c := range output {
			output[c][f] = d.frame[c]
		}
	}
}

// Reset clears all delay state.
func (d *Diffuser) Reset() {
	for _, line := range d.delays {
		line.Reset()
	}
}
