package ir_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-reverb/measure/ir"
)

func ExampleAnalyzer_Analyze() {
	// Create a synthetic exponential decay IR with RT60 = 1.0 s
	sampleRate := 48000.0
	rt60 := 1.0
	decayRate := 6.9078 / rt60 // ensures -60 dB at rt60

	irData := make([]float64, int(sampleRate*3))
	for i := range irData {
		t := float64(i) / sampleRate
		irData[i] = math.Exp(-decayRate * t)
	}

	analyzer := ir.NewAnalyzer(sampleRate)

	metrics, err := analyzer.Analyze(irData)
	if err != nil {
		panic(err)
	}

	fmt.Printf("RT60 = %.2f s\n", metrics.RT60)
	fmt.Printf("EDT  = %.2f s\n", metrics.EDT)

	// Output:
	// RT60 = 1.00 s
	// EDT  = 1.00 s
}
