// Package dsp implements the per-sample signal-processing pipeline of the
// pitch detector: ring-buffered FFT, overtone-ladder peak picking, an
// adaptive Butterworth band-pass, a phase-locked delay line and an RMS
// gate. Nothing in this package allocates after construction, except
// RingFFT.Run on the calls that compute a spectrum: the FFT library call it
// makes allocates its output.
package dsp

import "fmt"

// Variant selects which set of constants and output shape the detector
// uses: a single construction-time value standing in for what used to be
// separate build-time targets.
type Variant int

const (
	// VariantTuner runs the full FFT+filter+DLL pipeline and reports
	// scalar frequency/note/cents/error/rms outputs.
	VariantTuner Variant = iota
	// VariantFFTOnly reports the raw FFT peak estimate and skips the
	// filter/DLL tracking stage entirely.
	VariantFFTOnly
	// VariantMIDI runs the full pipeline and reports debounced note-on/
	// note-off events alongside the scalar outputs.
	VariantMIDI
)

func (v Variant) String() string {
	switch v {
	case VariantTuner:
		return "tuner"
	case VariantFFTOnly:
		return "fft-only"
	case VariantMIDI:
		return "midi"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// Config bundles the constants that vary by Variant into a single record,
// built once at construction and never mutated.
type Config struct {
	Variant Variant

	// SampleRate is fixed for the lifetime of the detector.
	SampleRate float64

	// FFTDivisor yields N_fft = nextPow2(max(8192, SampleRate/FFTDivisor)),
	// clamped to 32768. 8 for FFT-only mode, 15 otherwise.
	FFTDivisor float64

	// RMSThresholdFactor scales rms_signal to derive the FFT peak
	// threshold (T = max(rms_signal*alpha, T_floor)).
	RMSThresholdFactor float64

	// FilterBandwidthFloor is the minimum band-pass bandwidth in Hz.
	FilterBandwidthFloor float64

	// FilterOrder is the Butterworth cascade order (2 or 4).
	FilterOrder int

	// EdgesPerPeriod is 1 (rising edges only) or 2 (both halves of the
	// period). The DLL's frequency formulas and the orchestrator's edge
	// detection use it; the note/cent mapper works on the DLL's frequency
	// output and takes no edge setting of its own.
	EdgesPerPeriod int

	// FFTStabilityShort/Long/Max are the fft_note_count comparands that
	// arbitrate between the tracked frequency and a fresh FFT proposal.
	// Tuned empirically, parameterized so they can vary by variant.
	FFTStabilityShort float64 // ~a few hundred samples (DLL-uninitialized warmup)
	FFTStabilityLong  float64 // ~1-2k samples
	FFTStabilityMax   float64 // sampleRate/8
}

// DefaultConfig returns the constants for the given variant at the given
// sample rate.
func DefaultConfig(variant Variant, sampleRate float64) Config {
	cfg := Config{
		Variant:              variant,
		SampleRate:           sampleRate,
		RMSThresholdFactor:   1e-3,
		FilterBandwidthFloor: 15,
		FilterOrder:          2,
		EdgesPerPeriod:       2,
		FFTStabilityShort:    768,
		FFTStabilityLong:     1536,
		FFTStabilityMax:      sampleRate / 8,
	}
	switch variant {
	case VariantFFTOnly:
		cfg.FFTDivisor = 8
	case VariantMIDI:
		cfg.FFTDivisor = 15
		cfg.FilterBandwidthFloor = 10
	default:
		cfg.FFTDivisor = 15
	}
	return cfg
}

// RMSSignalThreshold is the squared-amplitude gate below which the
// pipeline is considered untracked (~ -70 dBFS squared).
const RMSSignalThreshold = 1e-7

// PostFilterRatio returns the minimum ratio of post-filter RMS to
// pre-filter RMS required to keep the DLL alive.
func (c Config) PostFilterRatio(fc float64) float64 {
	if fc < 50 {
		return 0.003
	}
	return 0.01
}

// BandwidthFor returns the band-pass bandwidth for a center frequency:
// bw = max(bw_min, fc*k_bw).
func (c Config) BandwidthFor(fc float64) float64 {
	const kBW = 0.15
	bw := fc * kBW
	if bw < c.FilterBandwidthFloor {
		return c.FilterBandwidthFloor
	}
	return bw
}
