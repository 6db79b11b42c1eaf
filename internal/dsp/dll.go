package dsp

import "math"

// DLL is a second-order delay-locked loop that tracks the period of
// a filtered signal by time-stamping zero crossings.
type DLL struct {
	edgesPerPeriod int

	initialized bool
	t0, t1      float64
	e0, e2      float64
	b, c        float64
}

// NewDLL builds an uninitialized delay-locked loop using the configured
// edge convention (1 = rising edges only, 2 = both halves of a period).
func NewDLL(edgesPerPeriod int) *DLL {
	return &DLL{edgesPerPeriod: edgesPerPeriod}
}

// Retune recomputes the loop coefficients for a new center frequency and
// invalidates the loop: b = sqrt(2)*omega, c = omega^2, omega =
// k_omega*pi*fc/rate with k_omega = 4 (6 when fc < 50Hz).
func (d *DLL) Retune(fc, sampleRate float64) {
	kOmega := 4.0
	if fc < 50 {
		kOmega = 6.0
	}
	omega := kOmega * math.Pi * fc / sampleRate
	d.b = math.Sqrt2 * omega
	d.c = omega * omega
	d.initialized = false
}

// Invalidate marks the loop uninitialized, e.g. on loss-of-signal, a
// retune, or an out-of-band frequency proposal.
func (d *DLL) Invalidate() { d.initialized = false }

// Initialized reports whether the loop has a valid phase lock.
func (d *DLL) Initialized() bool { return d.initialized }

// PhaseError returns the last computed phase error e0, in samples.
func (d *DLL) PhaseError() float64 { return d.e0 }

// Update processes a zero crossing observed at absolute sample index x
// (monotonic_cnt + n), given the currently tracked center frequency fc
// and sample rate. It returns the instantaneous frequency estimate for
// this crossing.
func (d *DLL) Update(x, fc, sampleRate float64) float64 {
	edges := float64(d.edgesPerPeriod)

	if !d.initialized {
		d.initialized = true
		d.e0 = 0
		d.t0 = 0
		d.e2 = sampleRate / fc / edges
		d.t1 = x + d.e2
		return fc
	}

	d.e0 = x - d.t1
	d.t0 = d.t1
	d.t1 = d.t1 + d.b*d.e0 + d.e2
	d.e2 = d.e2 + d.c*d.e0

	fEdge := sampleRate / (d.t1 - d.t0) / edges
	fPeriod := sampleRate / d.e2 / edges

	if math.Abs(d.e0*fc/sampleRate) > 0.02 {
		return fEdge
	}
	return fPeriod
}
