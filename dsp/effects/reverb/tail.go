package reverb

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-reverb/dsp/core"
	"github.com/cwbudde/algo-reverb/dsp/delay"
	"github.com/cwbudde/algo-reverb/dsp/filter/onepole"
	"github.com/cwbudde/algo-reverb/dsp/matrix"
)

// Tail is the sustained-decay stage of a reverb: a bank of feedback delay
// lines mixed through a Householder reflection, scaled by a feedback gain
// and damped by one one-pole low-pass per channel.
//
// Each ProcessBlock call emits the pre-update loop content, so an impulse
// fed into a channel with delay length L reappears at the output exactly L
// samples later. Bounded-energy operation requires a feedback gain below 1;
// the gain is not capped here so that lossless loops remain expressible,
// which makes the caller responsible for the bound (LuffVerb enforces it).
type Tail struct {
	feedbackGain float64
	delays       []*delay.Line
	lowpasses    []onepole.LPF
	scratch      [][]float64
	frame        []float64
	minDelay     int
}

// NewTail creates a tail whose per-channel delay lengths are drawn from
// [delaySamples/10, delaySamples). A nil rng falls back to a randomly
// seeded generator.
func NewTail(delaySamples int, feedback float64, channels int, rng *rand.Rand) (*Tail, error) {
	if channels < 1 {
		return nil, fmt.Errorf("reverb: tail channel count must be >= 1: %d", channels)
	}

	if delaySamples < 2 {
		return nil, fmt.Errorf("reverb: tail delay must be >= 2 samples: %d", delaySamples)
	}

	if feedback < 0 || math.IsNaN(feedback) || math.IsInf(feedback, 0) {
		return nil, fmt.Errorf("reverb: tail feedback gain must be >= 0 and finite: %f", feedback)
	}

	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	t := &Tail{
		feedbackGain: feedback,
		delays:       make([]*delay.Line, channels),
		lowpasses:    make([]onepole.LPF, channels),
		frame:        make([]float64, channels),
		minDelay:     delaySamples,
	}

	lo := delaySamples / 10
	if lo < 1 {
		lo = 1
	}

	for i := range t.delays {
		line, err := delay.New(lo + rng.IntN(delaySamples-lo))
		if err != nil {
			return nil, err
		}

		t.delays[i] = line
		if line.Len() < t.minDelay {
			t.minDelay = line.Len()
		}
	}

	return t, nil
}

// Init sizes the internal block buffers. Must be called before the first
// ProcessBlock and after any block-size change; not safe to call
// concurrently with ProcessBlock.
func (t *Tail) Init(blockSize int) error {
	if blockSize < 1 {
		return fmt.Errorf("reverb: tail block size must be >= 1: %d", blockSize)
	}

	if blockSize > t.minDelay {
		return fmt.Errorf("reverb: tail block size %d exceeds shortest delay length %d", blockSize, t.minDelay)
	}

	if t.scratch == nil {
		t.scratch = make([][]float64, len(t.delays))
	}

	for i := range t.scratch {
		t.scratch[i] = core.EnsureLen(t.scratch[i], blockSize)
	}

	return nil
}

// ProcessBlock consumes one multichannel input block and writes the
// current loop content to output, then mixes, damps and re-injects the
// loop for the next call. The damping slice supplies one low-pass cutoff
// in Hz per sample. Panics if Init has not been called or block shapes
// mismatch.
func (t *Tail) ProcessBlock(input, output [][]float64, damping []float64, sampleRate float64) {
	channels := len(t.delays)
	if len(input) != channels || len(output) != channels {
		panic(fmt.Sprintf("reverb: tail expects %d channels: input %d, output %d",
			channels, len(input), len(output)))
	}

	if t.scratch == nil || len(t.scratch[0]) != len(input[0]) {
		panic(fmt.Sprintf("reverb: tail not initialized for block size %d", len(input[0])))
	}

	// Emit the pre-update loop content.
	for i, line := range t.delays {
		line.ReadBlock(t.scratch[i])
		core.CopyInto(output[i], t.scratch[i])
	}

	// Full mix across channels, one frame at a time.
	blockSize := len(input[0])
	for f := 0; f < blockSize; f++ {
		t.mixFrame(f)
	}

	// Feedback gain, damping, fresh input, back into the loop.
	for i := range t.scratch {
		vecmath.ScaleBlock(t.scratch[i], t.scratch[i], t.feedbackGain)
		t.lowpasses[i].ProcessBlock(t.scratch[i], damping, t.scratch[i], sampleRate)
		vecmath.AddBlockInPlace(t.scratch[i], input[i])
		t.delays[i].WriteBlockAndAdvance(t.scratch[i])
	}
}

// DelayLengths returns the per-channel delay lengths in samples.
func (t *Tail) DelayLengths() []int {
	lengths := make([]int, len(t.delays))
	for i, line := range t.delays {
		lengths[i] = line.Len()
	}

	return lengths
}

// FeedbackGain returns the current feedback gain.
func (t *Tail) FeedbackGain() float64 {
	return t.feedbackGain
}

// SetFeedbackGain updates the feedback gain.
func (t *Tail) SetFeedbackGain(gain float64) error {
	if gain < 0 || math.IsNaN(gain) || math.IsInf(gain, 0) {
		return fmt.Errorf("reverb: tail feedback gain must be >= 0 and finite: %f", gain)
	}

	t.feedbackGain = gain

	return nil
}

// Reset clears all delay and filter state.
func (t *Tail) Reset() {
	for _, line := range t.delays {
		line.Reset()
	}

	for i := range t.lowpasses {
		t.lowpasses[i].Reset()
	}
}

func (t *Tail) mixFrame(f int) {
	// Gather the frame across channel scratch buffers, reflect, scatter.
	for c := range t.scratch {
		t.frame[c] = t.scratch[c][f]
	}

	matrix.HouseholderInPlace(t.frame)

	for c := range t.scratch {
		t.scratch[c][f] = t.frame[c]
	}
}
