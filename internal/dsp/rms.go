package dsp

import "math"

// rmsBias keeps the one-pole squared-signal average denormal-safe.
const rmsBias = 1e-20

// Gate tracks two single-pole envelopes of squared signal (pre- and
// post-filter) plus the gating decisions that drive the orchestrator's
// state machine.
type Gate struct {
	omega float64 // 1 - exp(-2*pi*fcEnv/sampleRate), fcEnv ~= 15Hz

	preSq  float64 // rms_sq
	postSq float64 // rms_post_sq
}

// NewGate builds a gate for the given sample rate with an envelope
// corner frequency of ~15Hz, computed once.
func NewGate(sampleRate float64) *Gate {
	const fcEnv = 15.0
	return &Gate{omega: 1 - math.Exp(-2*math.Pi*fcEnv/sampleRate)}
}

// UpdatePre advances the pre-filter envelope with a new input sample.
func (g *Gate) UpdatePre(x float64) {
	g.preSq += g.omega*(x*x-g.preSq) + rmsBias
}

// UpdatePost advances the post-filter envelope with a new filtered
// sample.
func (g *Gate) UpdatePost(x float64) {
	g.postSq += g.omega*(x*x-g.postSq) + rmsBias
}

// ResetPost zeroes the post-filter envelope, used while the filter is
// warming up after a retune.
func (g *Gate) ResetPost() { g.postSq = 0 }

// PreSq returns the current pre-filter squared-signal average.
func (g *Gate) PreSq() float64 { return g.preSq }

// PostSq returns the current post-filter squared-signal average.
func (g *Gate) PostSq() float64 { return g.postSq }

// SignalPresent reports whether the pre-filter envelope is above the
// untracked-state threshold.
func (g *Gate) SignalPresent() bool {
	return g.preSq >= RMSSignalThreshold
}

// PostFilterPresent reports whether the post-filter envelope carries
// enough energy relative to the pre-filter envelope and the given ratio
// threshold, i.e. the tracked band isn't starved.
func (g *Gate) PostFilterPresent(ratio float64) bool {
	return g.postSq >= g.preSq*ratio
}

// DB returns 10*log10(preSq), clamped at -100dB.
func (g *Gate) DB() float64 {
	if g.preSq <= 1e-10 {
		return -100
	}
	db := 10 * math.Log10(g.preSq)
	if db < -100 {
		return -100
	}
	return db
}
