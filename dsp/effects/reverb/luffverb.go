package reverb

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-reverb/dsp/core"
	"github.com/cwbudde/algo-reverb/dsp/filter/onepole"
)

// earlyReflectionsGain scales the summed diffuser output that forms the
// early, non-periodic part of the response.
const earlyReflectionsGain = 0.5

// LuffVerb is a feedback-delay-network reverb: an input tone filter, a
// cascade of Hadamard diffuser stages and a Householder feedback tail,
// mixed down to a mono output. The tail contribution is scaled by
// 1/(channels*diffusers) so that channel and stage counts do not change
// the perceived loudness.
//
// A LuffVerb is a free-running block transform: it has no terminal state
// and returns [Continue] from every ProcessBlock call.
type LuffVerb struct {
	diffusers []*Diffuser
	tail      *Tail
	inputLPF  onepole.LPF

	sampleRate float64
	blockSize  int

	// Ping-pong frame buffers reused across diffuser stages.
	buf0, buf1 [][]float64
	tailSum    []float64

	compensationGain float64
}

// NewLuffVerb creates a LuffVerb with the given tail delay in samples and
// feedback gain in [0, 1). Each diffuser stage draws its delay lengths
// from an independently seeded range of tailDelay/(2*stages) samples.
func NewLuffVerb(tailDelay int, feedback float64, opts ...Option) (*LuffVerb, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	if feedback < 0 || feedback >= 1 || math.IsNaN(feedback) {
		return nil, fmt.Errorf("reverb: luffverb feedback gain must be in [0, 1): %f", feedback)
	}

	diffuserRange := tailDelay / (cfg.diffusers * 2)
	if diffuserRange/cfg.channels < 2 {
		return nil, fmt.Errorf("reverb: tail delay %d too short for %d channels and %d diffusers",
			tailDelay, cfg.channels, cfg.diffusers)
	}

	v := &LuffVerb{
		diffusers:        make([]*Diffuser, cfg.diffusers),
		compensationGain: 1 / float64(cfg.channels*cfg.diffusers),
	}

	for i := range v.diffusers {
		v.diffusers[i], err = NewDiffuser(cfg.channels, diffuserRange, cfg.rng)
		if err != nil {
			return nil, err
		}
	}

	v.tail, err = NewTail(tailDelay, feedback, cfg.channels, cfg.rng)
	if err != nil {
		return nil, err
	}

	return v, nil
}

// Init sizes all internal block buffers for the given sample rate and
// block size. It must run before the first ProcessBlock call and after any
// sample-rate or block-size change. Init allocates and is not safe to call
// concurrently with ProcessBlock.
func (v *LuffVerb) Init(sampleRate float64, blockSize int) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("reverb: luffverb sample rate must be > 0: %f", sampleRate)
	}

	err := v.tail.Init(blockSize)
	if err != nil {
		return err
	}

	channels := v.Channels()
	if v.buf0 == nil {
		v.buf0 = make([][]float64, channels)
		v.buf1 = make([][]float64, channels)
	}

	for c := 0; c < channels; c++ {
		v.buf0[c] = core.EnsureLen(v.buf0[c], blockSize)
		v.buf1[c] = core.EnsureLen(v.buf1[c], blockSize)
	}

	v.tailSum = core.EnsureLen(v.tailSum, blockSize)
	v.sampleRate = sampleRate
	v.blockSize = blockSize

	return nil
}

// ProcessBlock consumes one mono input block and produces one mono output
// block. The lowpass slice supplies the input-filter cutoff in Hz per
// sample; the damping slice supplies the tail low-pass cutoff in Hz per
// sample. Panics if Init has not been called or any slice length differs
// from the configured block size.
func (v *LuffVerb) ProcessBlock(input, output, lowpass, damping []float64) State {
	if v.blockSize == 0 {
		panic("reverb: luffverb used before Init")
	}

	if len(input) != v.blockSize || len(output) != v.blockSize ||
		len(lowpass) != v.blockSize || len(damping) != v.blockSize {
		panic(fmt.Sprintf("reverb: luffverb block length mismatch: input %d, output %d, lowpass %d, damping %d, want %d",
			len(input), len(output), len(lowpass), len(damping), v.blockSize))
	}

	// Tone-filter the input, using output as scratch, and broadcast it
	// identically across all channels of the first working buffer.
	v.inputLPF.ProcessBlock(input, lowpass, output, v.sampleRate)

	in, out := v.buf0, v.buf1
	for c := range in {
		core.CopyInto(in[c], output)
	}

	for _, d := range v.diffusers {
		d.ProcessBlock(in, out)
		in, out = out, in
	}

	// After the swap above, in holds the last diffuser output. It is both
	// the early-reflections source and the tail input.
	diffused := in
	scratch := out

	core.Zero(output)
	for c := range diffused {
		vecmath.AddBlockInPlace(output, diffused[c])
	}
	vecmath.ScaleBlock(output, output, earlyReflectionsGain)

	v.tail.ProcessBlock(diffused, scratch, damping, v.sampleRate)

	core.Zero(v.tailSum)
	for c := range scratch {
		vecmath.AddBlockInPlace(v.tailSum, scratch[c])
	}
	vecmath.ScaleBlock(v.tailSum, v.tailSum, v.compensationGain)
	vecmath.AddBlockInPlace(output, v.tailSum)

	return Continue
}

// Channels returns the internal channel count.
func (v *LuffVerb) Channels() int {
	return v.diffusers[0].Channels()
}

// Diffusers returns the number of cascaded diffuser stages.
func (v *LuffVerb) Diffusers() int {
	return len(v.diffusers)
}

// FeedbackGain returns the tail feedback gain.
func (v *LuffVerb) FeedbackGain() float64 {
	return v.tail.FeedbackGain()
}

// SetFeedbackGain updates the tail feedback gain, keeping the [0, 1)
// bounded-energy contract.
func (v *LuffVerb) SetFeedbackGain(gain float64) error {
	if gain < 0 || gain >= 1 || math.IsNaN(gain) {
		return fmt.Errorf("reverb: luffverb feedback gain must be in [0, 1): %f", gain)
	}

	return v.tail.SetFeedbackGain(gain)
}

// Reset clears all delay and filter state.
func (v *LuffVerb) Reset() {
	for _, d := range v.diffusers {
		d.Reset()
	}

	v.tail.Reset()
	v.inputLPF.Reset()
}
