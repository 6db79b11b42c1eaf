package pitch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/0xlemi/tunacore/internal/dsp"
)

// Test_Orchestrator_TracksFrequencySweepWithBoundedError drives the
// orchestrator through a slow linear sweep from 220Hz to 880Hz (one block
// retunes the tracker at a time, as a FixedFreqMode host would for a
// synthesized calibration tone) and checks that the mean error of the
// detected frequency stays within 5% once the filter/DLL have settled.
func Test_Orchestrator_TracksFrequencySweepWithBoundedError(t *testing.T) {
	const sampleRate = 44100.0
	var o = newTestOrchestrator(dsp.VariantTuner)

	var block = make([]float32, 512)
	var out = make([]float32, 512)
	var n float64

	var errorsPct []float64
	for b := 0; b < 200; b++ {
		var freq = 220 + 660*float64(b)/200

		for j := range block {
			block[j] = float32(0.8 * math.Sin(2*math.Pi*freq*n/sampleRate))
			n++
		}

		var result = o.Process(block, out, 440, dsp.FixedFreqMode(freq))
		if b > 20 && result.HasSignal {
			errorsPct = append(errorsPct, math.Abs(result.FreqHz-freq)/freq*100)
		}
	}

	require.NotEmpty(t, errorsPct, "expected locked readings once warmup settles")
	var mean = floats.Sum(errorsPct) / float64(len(errorsPct))
	assert.Less(t, mean, 5.0, "mean tracking error should stay within 5%% across the sweep")
}
