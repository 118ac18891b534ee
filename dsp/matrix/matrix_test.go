package matrix

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-reverb/internal/testutil"
)

func TestIsPowerOfTwo(t *testing.T) {
	for _, n := range []int{1, 2, 4, 8, 16, 1024} {
		if !IsPowerOfTwo(n) {
			t.Fatalf("IsPowerOfTwo(%d) = false", n)
		}
	}

	for _, n := range []int{0, -1, -4, 3, 6, 12, 1000} {
		if IsPowerOfTwo(n) {
			t.Fatalf("IsPowerOfTwo(%d) = true", n)
		}
	}
}

func TestHadamardTwiceScalesByN(t *testing.T) {
	for _, n := range []int{1, 2, 4, 16} {
		frame := testutil.DeterministicNoise(uint64(n), 1, n)
		original := append([]float64(nil), frame...)

		HadamardInPlace(frame)
		HadamardInPlace(frame)

		// H*H = N*I for the unnormalized transform.
		for i := range frame {
			want := original[i] * float64(n)
			if math.Abs(frame[i]-want) > 1e-12 {
				t.Fatalf("n=%d index %d: got %v want %v", n, i, frame[i], want)
			}
		}
	}
}

func TestHadamardSize1IsIdentity(t *testing.T) {
	frame := []float64{0.25}
	HadamardInPlace(frame)
	if frame[0] != 0.25 {
		t.Fatalf("got %v want 0.25", frame[0])
	}
}

func TestHadamardSize2Butterfly(t *testing.T) {
	frame := []float64{3, 1}
	HadamardInPlace(frame)
	if frame[0] != 4 || frame[1] != 2 {
		t.Fatalf("got %v want [4 2]", frame)
	}
}

func TestHadamardEnergyScaling(t *testing.T) {
	frame := testutil.DeterministicNoise(7, 1, 8)
	before := testutil.Energy(frame)

	HadamardInPlace(frame)

	after := testutil.Energy(frame)
	if math.Abs(after-8*before) > 1e-10 {
		t.Fatalf("energy: got %v want %v", after, 8*before)
	}
}

func TestHadamardNonPowerOfTwoPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for length 3")
		}
	}()

	HadamardInPlace(make([]float64, 3))
}

func TestHouseholderPreservesEnergy(t *testing.T) {
	for _, n := range []int{1, 2, 4, 8} {
		frame := testutil.DeterministicNoise(uint64(n)+100, 1, n)
		before := testutil.Energy(frame)

		HouseholderInPlace(frame)

		after := testutil.Energy(frame)
		if math.Abs(after-before) > 1e-12 {
			t.Fatalf("n=%d: energy %v changed to %v", n, before, after)
		}
	}
}

func TestHouseholderSelfInverse(t *testing.T) {
	frame := testutil.DeterministicNoise(42, 1, 8)
	original := append([]float64(nil), frame...)

	HouseholderInPlace(frame)
	HouseholderInPlace(frame)

	testutil.RequireSliceNearlyEqual(t, frame, original, 1e-12)
}

func TestHouseholderSize1FlipsSign(t *testing.T) {
	frame := []float64{0.5}
	HouseholderInPlace(frame)
	if frame[0] != -0.5 {
		t.Fatalf("got %v want -0.5", frame[0])
	}
}

func TestHouseholderEmptyFrame(t *testing.T) {
	HouseholderInPlace(nil) // must not panic
}

func BenchmarkHadamard16(b *testing.B) {
	frame := testutil.DeterministicNoise(1, 1, 16)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		HadamardInPlace(frame)
	}
}

func BenchmarkHouseholder16(b *testing.B) {
	frame := testutil.DeterministicNoise(1, 1, 16)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		HouseholderInPlace(frame)
	}
}
