package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_FindFundamental_LocksOntoFundamentalWithOvertones(t *testing.T) {
	var cfg = DefaultConfig(VariantTuner, 44100)
	var ring = NewRingFFT(cfg)

	const k0 = 40
	for _, mult := range []int{1, 2, 4, 8} {
		ring.power[k0*mult] = 1.0
	}

	var freq = FindFundamental(ring, 0.01)

	var freqPerBin = ring.sampleRate / float64(ring.halfN) / 2
	assert.InDelta(t, freqPerBin*k0, freq, freqPerBin*2)
}

func Test_FindFundamental_RejectsCandidateWithoutOvertones(t *testing.T) {
	var cfg = DefaultConfig(VariantTuner, 44100)
	var ring = NewRingFFT(cfg)
	ring.power[40] = 1.0

	var freq = FindFundamental(ring, 0.01)

	assert.Zero(t, freq)
}

func Test_FindFundamental_SilentSpectrumYieldsZero(t *testing.T) {
	var cfg = DefaultConfig(VariantTuner, 44100)
	var ring = NewRingFFT(cfg)

	var freq = FindFundamental(ring, 0.01)

	assert.Zero(t, freq)
}

func Test_ScanOvertones_StopsAtUnboundedDepth(t *testing.T) {
	var power = make([]float64, 2000)
	// fundamental candidate bin 10, every octave confirmed up to the walk
	// bound: this must terminate rather than loop forever.
	for _, mult := range []int{2, 4, 8, 16} {
		power[10*mult] = 1.0
	}

	octave, _ := scanOvertones(power, 1.0, 0.01, 10)

	assert.GreaterOrEqual(t, octave, 16)
}
