package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		value, min, max, want float64
	}{
		{0.5, 0, 1, 0.5},
		{-1, 0, 1, 0},
		{2, 0, 1, 1},
		{0.5, 1, 0, 0.5}, // swapped bounds
		{0, 0, 0, 0},
	}

	for _, tt := range tests {
		if got := Clamp(tt.value, tt.min, tt.max); got != tt.want {
			t.Fatalf("Clamp(%v, %v, %v) = %v, want %v", tt.value, tt.min, tt.max, got, tt.want)
		}
	}
}

func TestNearlyEqual(t *testing.T) {
	if !NearlyEqual(1, 1+1e-13, 1e-12) {
		t.Fatal("expected nearly equal")
	}

	if NearlyEqual(1, 1.1, 1e-12) {
		t.Fatal("expected not nearly equal")
	}

	// Relative comparison for large magnitudes.
	if !NearlyEqual(1e12, 1e12+1, 1e-9) {
		t.Fatal("expected relatively equal")
	}

	// Non-positive eps falls back to the default epsilon.
	if !NearlyEqual(1, 1, 0) {
		t.Fatal("expected equal with default epsilon")
	}
}

func TestFlushDenormals(t *testing.T) {
	if got := FlushDenormals(1e-31); got != 0 {
		t.Fatalf("got %v want 0", got)
	}

	if got := FlushDenormals(-1e-31); got != 0 {
		t.Fatalf("got %v want 0", got)
	}

	if got := FlushDenormals(1e-20); got != 1e-20 {
		t.Fatalf("got %v want 1e-20", got)
	}

	if got := FlushDenormals(-0.5); got != -0.5 {
		t.Fatalf("got %v want -0.5", got)
	}
}

func TestLinearToDBRoundTrip(t *testing.T) {
	for _, lin := range []float64{1, 0.5, 2, 1e-3} {
		db := LinearToDB(lin)
		back := DBToLinear(db)
		if math.Abs(back-lin) > 1e-12*lin {
			t.Fatalf("round trip %v: got %v", lin, back)
		}
	}

	if LinearToDB(1) != 0 {
		t.Fatal("0 dB expected for unity")
	}

	if !math.IsInf(LinearToDB(0), -1) {
		t.Fatal("-Inf expected for zero")
	}

	if !math.IsNaN(LinearToDB(-1)) {
		t.Fatal("NaN expected for negative")
	}
}

func TestLinearPowerToDB(t *testing.T) {
	if LinearPowerToDB(1) != 0 {
		t.Fatal("0 dB expected for unity power")
	}

	if got := LinearPowerToDB(0.1); math.Abs(got+10) > 1e-12 {
		t.Fatalf("got %v want -10", got)
	}

	if !math.IsInf(LinearPowerToDB(0), -1) {
		t.Fatal("-Inf expected for zero")
	}

	if !math.IsNaN(LinearPowerToDB(-1)) {
		t.Fatal("NaN expected for negative")
	}
}
