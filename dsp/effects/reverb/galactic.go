package reverb

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-reverb/dsp/delay"
)

// Reference delay lengths in samples at 44100 Hz, rescaled at Init. The
// twelve lines per channel form three cascaded 4-line blocks.
var galacticDelayTimes = [12]int{
	6480, 3660, 1720, 680, 9700, 6000, 2320, 940, 15220, 8460, 4540, 3200,
}

const (
	galacticReferenceRate = 44100.0
	// Fixed length of the modulated pre-delay used for the detune effect.
	galacticDetuneLength = 256

	// Inputs below this magnitude are replaced by a dither-derived value
	// to keep denormals out of the feedback network.
	denormalThreshold = 1.18e-23
	denormalScale     = 1.18e-17
)

// Galactic is a stereo nested-delay reverb ported from the Airwindows
// Galactic plugin. Unlike LuffVerb it feeds each channel's late output
// back into the opposite channel's loop, and it modulates a short
// pre-delay for detune/chorus movement instead of relying only on
// randomized fixed lengths.
//
// All control parameters are plugin-style 0..1 values, read once per
// block. Galactic is free-running and returns [Continue] from every
// ProcessBlock call.
type Galactic struct {
	sampleRate float64

	delaysLeft  [12]*delay.Line
	delaysRight [12]*delay.Line
	detuneLeft  *delay.Line
	detuneRight *delay.Line

	// Cross-channel feedback from the previous sample's last block.
	feedback [2][4]float64

	iirAL, iirAR float64
	iirBL, iirBR float64

	fpdL, fpdR xorshift32
	oldfpd     float64
	vibM       float64

	denormalGuard bool
}

// NewGalactic creates a Galactic engine configured for the given sample
// rate. The dither generators are seeded from the engine's rand source
// (see [WithRNG] for reproducibility).
func NewGalactic(sampleRate float64, opts ...Option) (*Galactic, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	g := &Galactic{
		fpdL:          xorshift32{state: 16386 + cfg.rng.Uint32N(math.MaxUint32-16386)},
		fpdR:          xorshift32{state: 16386 + cfg.rng.Uint32N(math.MaxUint32-16386)},
		oldfpd:        429496.7295,
		vibM:          3,
		denormalGuard: cfg.denormalGuard,
	}

	err = g.Init(sampleRate)
	if err != nil {
		return nil, err
	}

	return g, nil
}

// Init rebuilds the delay lines for a new sample rate, scaling the
// reference lengths from their 44100 Hz design values, and clears filter
// state. It allocates and is not safe to call concurrently with
// ProcessBlock.
func (g *Galactic) Init(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("reverb: galactic sample rate must be > 0: %f", sampleRate)
	}

	scale := sampleRate / galacticReferenceRate
	for i, reference := range galacticDelayTimes {
		length := int(float64(reference) * scale)
		if length < 1 {
			length = 1
		}

		left, err := delay.New(length)
		if err != nil {
			return err
		}

		right, err := delay.New(length)
		if err != nil {
			return err
		}

		g.delaysLeft[i] = left
		g.delaysRight[i] = right
	}

	var err error

	g.detuneLeft, err = delay.New(galacticDetuneLength)
	if err != nil {
		return err
	}

	g.detuneRight, err = delay.New(galacticDetuneLength)
	if err != nil {
		return err
	}

	g.iirAL, g.iirAR = 0, 0
	g.iirBL, g.iirBR = 0, 0
	g.sampleRate = sampleRate

	return nil
}

// ProcessBlock consumes one stereo block plus one block per control
// parameter and produces one stereo output block. Control values are read
// at control rate (first element of each slice): size scales all delay
// lengths, replace sets the regeneration amount, brightness the low-pass
// tone, detune the pre-delay modulation depth and mix the wet/dry
// balance, each in 0..1. Panics if any slice is empty or the buffer
// lengths differ.
func (g *Galactic) ProcessBlock(
	left, right []float64,
	size, replace, brightness, detune, mix []float64,
	leftOut, rightOut []float64,
) State {
	if len(right) != len(left) || len(leftOut) != len(left) || len(rightOut) != len(left) {
		panic(fmt.Sprintf("reverb: galactic buffer length mismatch: in %d/%d, out %d/%d",
			len(left), len(right), len(leftOut), len(rightOut)))
	}

	if len(size) == 0 || len(replace) == 0 || len(brightness) == 0 || len(detune) == 0 || len(mix) == 0 {
		panic("reverb: galactic control parameter block is empty")
	}

	overallScale := g.sampleRate / galacticReferenceRate

	regen := 0.0625 + (1-replace[0])*0.0625
	attenuate := (1 - regen/0.125) * 1.333
	lp := 1.00001 - (1 - brightness[0])
	lowpass := lp * lp / mathSqrt(overallScale)
	drift := detune[0] * detune[0] * detune[0] * 0.001
	sizeFraction := size[0]*0.9 + 0.1
	m := 1 - mix[0]
	wet := 1 - m*m*m

	for i := range g.delaysLeft {
		g.delaysLeft[i].SetLengthFraction(sizeFraction)
		g.delaysRight[i].SetLengthFraction(sizeFraction)
	}

	for f := range left {
		inL := left[f]
		inR := right[f]

		if g.denormalGuard {
			if math.Abs(inL) < denormalThreshold {
				inL = float64(g.fpdL.state) * denormalScale
			}
			if math.Abs(inR) < denormalThreshold {
				inR = float64(g.fpdR.state) * denormalScale
			}
		}

		dryL := inL
		dryR := inR

		// The modulation phase advances at a rate set by the detune
		// control and the dither state captured at the last wrap.
		g.vibM += g.oldfpd * drift
		if g.vibM > 2*math.Pi {
			g.vibM = 0
			g.oldfpd = 0.4294967295 + float64(g.fpdL.state)*0.0000000000618
		}

		g.detuneLeft.WriteAndAdvance(inL * attenuate)
		g.detuneRight.WriteAndAdvance(inR * attenuate)

		// Quadrature taps sweep the pre-delay for the detune effect.
		offsetL := (math.Sin(g.vibM) + 1) * 127
		offsetR := (math.Sin(g.vibM+math.Pi/2) + 1) * 127
		inL = g.detuneLeft.ReadAt(offsetL)
		inR = g.detuneRight.ReadAt(offsetR)

		g.iirAL = g.iirAL*(1-lowpass) + inL*lowpass
		inL = g.iirAL
		g.iirAR = g.iirAR*(1-lowpass) + inR*lowpass
		inR = g.iirAR

		// Block 0 injects the input plus the opposite channel's feedback.
		for i := 0; i < 4; i++ {
			g.delaysLeft[i].WriteAndAdvance(g.feedback[1][i]*regen + inL)
			g.delaysRight[i].WriteAndAdvance(g.feedback[0][i]*regen + inR)
		}

		var block0L, block0R [4]float64
		for i := 0; i < 4; i++ {
			block0L[i] = g.delaysLeft[i].Read()
			block0R[i] = g.delaysRight[i].Read()
		}

		for i := 0; i < 4; i++ {
			g.delaysLeft[i+4].WriteAndAdvance(differenceMix(block0L, i))
			g.delaysRight[i+4].WriteAndAdvance(differenceMix(block0R, i))
		}

		var block1L, block1R [4]float64
		for i := 0; i < 4; i++ {
			block1L[i] = g.delaysLeft[i+4].Read()
			block1R[i] = g.delaysRight[i+4].Read()
		}

		for i := 0; i < 4; i++ {
			g.delaysLeft[i+8].WriteAndAdvance(differenceMix(block1L, i))
			g.delaysRight[i+8].WriteAndAdvance(differenceMix(block1R, i))
		}

		var block2L, block2R [4]float64
		for i := 0; i < 4; i++ {
			block2L[i] = g.delaysLeft[i+8].Read()
			block2R[i] = g.delaysRight[i+8].Read()
		}

		// The last block's mix becomes the next sample's cross-channel
		// feedback and, summed, the wet signal.
		for i := 0; i < 4; i++ {
			g.feedback[0][i] = differenceMix(block2L, i)
			g.feedback[1][i] = differenceMix(block2R, i)
		}

		inL = (block2L[0] + block2L[1] + block2L[2] + block2L[3]) * 0.125
		inR = (block2R[0] + block2R[1] + block2R[2] + block2R[3]) * 0.125

		g.iirBL = g.iirBL*(1-lowpass) + inL*lowpass
		inL = g.iirBL
		g.iirBR = g.iirBR*(1-lowpass) + inR*lowpass
		inR = g.iirBR

		if wet < 1 {
			inL = inL*wet + dryL*(1-wet)
			inR = inR*wet + dryR*(1-wet)
		}

		if g.denormalGuard {
			inL = g.ditherL(inL)
			inR = g.ditherR(inR)
		}

		leftOut[f] = inL
		rightOut[f] = inR
	}

	return Continue
}

// SampleRate returns the configured sample rate in Hz.
func (g *Galactic) SampleRate() float64 {
	return g.sampleRate
}

// Reset clears all delay, filter and feedback state. Dither and
// modulation state are preserved.
func (g *Galactic) Reset() {
	for i := range g.delaysLeft {
		g.delaysLeft[i].Reset()
		g.delaysRight[i].Reset()
	}

	g.detuneLeft.Reset()
	g.detuneRight.Reset()
	g.feedback = [2][4]float64{}
	g.iirAL, g.iirAR = 0, 0
	g.iirBL, g.iirBR = 0, 0
}

// differenceMix subtracts the other three block outputs from output i, the
// 4-point difference mix the nested blocks are built from.
func differenceMix(block [4]float64, i int) float64 {
	return block[i] - (block[(i+1)%4] + block[(i+2)%4] + block[(i+3)%4])
}

// ditherL applies the exponent-scaled floating-point dither that keeps
// very low signal levels from locking onto repeating bit patterns. The
// noise amplitude follows the sample's floating-point exponent, so the
// dither sits just below the signal's own quantization step.
func (g *Galactic) ditherL(sample float64) float64 {
	_, exp := math.Frexp(sample)
	return sample + (float64(g.fpdL.next())-float64(0x7fffffff))*5.5e-36*math.Ldexp(1, exp+62)
}

func (g *Galactic) ditherR(sample float64) float64 {
	_, exp := math.Frexp(sample)
	return sample + (float64(g.fpdR.next())-float64(0x7fffffff))*5.5e-36*math.Ldexp(1, exp+62)
}
