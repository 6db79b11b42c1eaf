package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_DefaultConfig_VariantsDivergeOnFFTDivisor(t *testing.T) {
	var tuner = DefaultConfig(VariantTuner, 44100)
	var fftOnly = DefaultConfig(VariantFFTOnly, 44100)
	var midi = DefaultConfig(VariantMIDI, 44100)

	assert.Equal(t, 15.0, tuner.FFTDivisor)
	assert.Equal(t, 8.0, fftOnly.FFTDivisor)
	assert.Equal(t, 15.0, midi.FFTDivisor)
	assert.Equal(t, 2, tuner.EdgesPerPeriod)
}

func Test_Config_BandwidthFor_FloorsAtLowFrequency(t *testing.T) {
	var cfg = DefaultConfig(VariantTuner, 44100)

	assert.Equal(t, cfg.FilterBandwidthFloor, cfg.BandwidthFor(10))
	assert.Greater(t, cfg.BandwidthFor(1000), cfg.FilterBandwidthFloor)
}

func Test_Config_PostFilterRatio_LowerBelow50Hz(t *testing.T) {
	var cfg = DefaultConfig(VariantTuner, 44100)

	assert.Less(t, cfg.PostFilterRatio(40), cfg.PostFilterRatio(440))
}

func Test_Variant_String(t *testing.T) {
	assert.Equal(t, "tuner", VariantTuner.String())
	assert.Equal(t, "fft-only", VariantFFTOnly.String())
	assert.Equal(t, "midi", VariantMIDI.String())
}
