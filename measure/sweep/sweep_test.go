package sweep

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-reverb/dsp/delay"
	"github.com/cwbudde/algo-reverb/internal/testutil"
)

func testSweep() *LogSweep {
	return &LogSweep{
		StartFreq:  50,
		EndFreq:    18000,
		Duration:   0.5,
		SampleRate: 48000,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*LogSweep)
		want   error
	}{
		{"valid", func(s *LogSweep) {}, nil},
		{"zero start", func(s *LogSweep) { s.StartFreq = 0 }, ErrInvalidFrequency},
		{"negative end", func(s *LogSweep) { s.EndFreq = -1 }, ErrInvalidFrequency},
		{"order", func(s *LogSweep) { s.StartFreq, s.EndFreq = 200, 100 }, ErrFrequencyOrder},
		{"duration", func(s *LogSweep) { s.Duration = 0 }, ErrInvalidDuration},
		{"sample rate", func(s *LogSweep) { s.SampleRate = 0 }, ErrInvalidSampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSweep()
			tt.modify(s)
			if err := s.Validate(); err != tt.want {
				t.Fatalf("got %v want %v", err, tt.want)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	s := testSweep()

	sig, err := s.Generate()
	if err != nil {
		t.Fatal(err)
	}

	if len(sig) != 24000 {
		t.Fatalf("length: got %d want 24000", len(sig))
	}

	if sig[0] != 0 {
		t.Fatalf("sweep must start at zero phase, got %v", sig[0])
	}

	for i, v := range sig {
		if math.Abs(v) > 1 {
			t.Fatalf("index %d: amplitude %v above unity", i, v)
		}
	}
}

func TestDeconvolveErrors(t *testing.T) {
	s := testSweep()

	if _, err := s.Deconvolve(nil); err != ErrEmptyResponse {
		t.Fatalf("got %v want ErrEmptyResponse", err)
	}

	s.Duration = -1
	if _, err := s.Deconvolve([]float64{1}); err != ErrInvalidDuration {
		t.Fatalf("got %v want ErrInvalidDuration", err)
	}
}

// Deconvolving the sweep itself must collapse it to a single sharp peak at
// the causal onset.
func TestDeconvolveSelfGivesImpulse(t *testing.T) {
	s := testSweep()

	sig, err := s.Generate()
	if err != nil {
		t.Fatal(err)
	}

	deconv, err := s.Deconvolve(sig)
	if err != nil {
		t.Fatal(err)
	}

	onset := len(sig) - 1

	peakIdx := 0
	peak := 0.0
	for i, v := range deconv {
		if av := math.Abs(v); av > peak {
			peak = av
			peakIdx = i
		}
	}

	if d := peakIdx - onset; d < -2 || d > 2 {
		t.Fatalf("peak at %d, want within 2 samples of %d", peakIdx, onset)
	}

	// The peak must stand far above the average energy floor.
	var sum float64
	for _, v := range deconv {
		sum += v * v
	}
	avg := sum / float64(len(deconv))

	if ratio := 10 * math.Log10(peak*peak/avg); ratio < 15 {
		t.Fatalf("peak-to-average ratio %.1f dB, want >= 15 dB", ratio)
	}
}

func TestMeasureErrors(t *testing.T) {
	identity := func(input, output []float64) { copy(output, input) }
	s := testSweep()

	if _, err := s.Measure(identity, 0, 1); err != ErrInvalidBlockSize {
		t.Fatalf("got %v want ErrInvalidBlockSize", err)
	}

	if _, err := s.Measure(identity, 64, -1); err != ErrInvalidTail {
		t.Fatalf("got %v want ErrInvalidTail", err)
	}
}

func TestMeasureIdentityProcessor(t *testing.T) {
	s := testSweep()

	ir, err := s.Measure(func(input, output []float64) { copy(output, input) }, 64, 0.1)
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireFinite(t, ir)

	// The direct arrival of a pass-through sits at index 0.
	peakIdx := 0
	peak := 0.0
	for i, v := range ir {
		if av := math.Abs(v); av > peak {
			peak = av
			peakIdx = i
		}
	}

	if peakIdx > 2 {
		t.Fatalf("direct arrival at %d, want near 0", peakIdx)
	}
}

func TestMeasureRecoversDelayAndGain(t *testing.T) {
	const (
		delaySamples = 480
		gain         = 0.5
	)

	line, err := delay.New(delaySamples)
	if err != nil {
		t.Fatal(err)
	}

	s := testSweep()

	reference, err := s.Measure(func(input, output []float64) { copy(output, input) }, 64, 0.1)
	if err != nil {
		t.Fatal(err)
	}

	ir, err := s.Measure(func(input, output []float64) {
		for i, v := range input {
			output[i] = line.Read() * gain
			line.WriteAndAdvance(v)
		}
	}, 64, 0.1)
	if err != nil {
		t.Fatal(err)
	}

	peakIdx := 0
	peak := 0.0
	for i, v := range ir {
		if av := math.Abs(v); av > peak {
			peak = av
			peakIdx = i
		}
	}

	if d := peakIdx - delaySamples; d < -2 || d > 2 {
		t.Fatalf("arrival at %d, want within 2 samples of %d", peakIdx, delaySamples)
	}

	// Amplitude is meaningful relative to a pass-through measurement.
	refPeak := 0.0
	for _, v := range reference {
		if av := math.Abs(v); av > refPeak {
			refPeak = av
		}
	}

	if ratio := peak / refPeak; math.Abs(ratio-gain) > 0.05 {
		t.Fatalf("arrival amplitude ratio %v, want about %v", ratio, gain)
	}
}

func BenchmarkDeconvolve(b *testing.B) {
	s := testSweep()

	sig, err := s.Generate()
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Deconvolve(sig); err != nil {
			b.Fatal(err)
		}
	}
}
