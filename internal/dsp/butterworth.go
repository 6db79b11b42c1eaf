package dsp

import "math"

// biquad is one second-order section of a cascade:
// y[n] = b0*x[n] + b1*x[n-1] + b2*x[n-2] - a1*y[n-1] - a2*y[n-2]
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	x1, x2     float64
	y1, y2     float64
}

func (b *biquad) process(x float64) float64 {
	y := b.b0*x + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2
	b.x2, b.x1 = b.x1, x
	b.y2, b.y1 = b.y1, y
	return y
}

func (b *biquad) reset() {
	*b = biquad{b0: b.b0, b1: b.b1, b2: b.b2, a1: b.a1, a2: b.a2}
}

// maxBiquadStages bounds the cascade (order 2 or 4 => 1 or 2 biquad
// sections).
const maxBiquadStages = 2

// Butterworth is a maximally-flat band-pass filter, realized as a
// cascade of up to two biquad sections (order 2 or 4), retunable at
// construction-free cost (no allocation on retune).
type Butterworth struct {
	sampleRate float64
	stages     [maxBiquadStages]biquad
	nStages    int
}

// NewButterworth allocates an (initially untuned) filter cascade for the
// given sample rate.
func NewButterworth(sampleRate float64) *Butterworth {
	return &Butterworth{sampleRate: sampleRate}
}

// Setup retunes the cascade to a band-pass centered at fc with bandwidth
// bw, realized as `order`/2 cascaded 2nd-order Butterworth band-pass
// sections (order must be 2 or 4). History is reset.
func (f *Butterworth) Setup(fc, bw float64, order int) {
	nStages := order / 2
	if nStages < 1 {
		nStages = 1
	}
	if nStages > maxBiquadStages {
		nStages = maxBiquadStages
	}
	f.nStages = nStages

	omega := 2 * math.Pi * fc / f.sampleRate
	sinOmega := math.Sin(omega)
	cosOmega := math.Cos(omega)

	// Q is derived from the target bandwidth per the RBJ band-pass
	// cookbook formula (constant 0dB peak gain variant).
	bwOctaves := math.Log2((fc + bw/2) / (fc - bw/2))
	if bwOctaves <= 0 {
		bwOctaves = 0.1
	}
	alpha := sinOmega * math.Sinh(math.Ln2/2*bwOctaves*omega/sinOmega)

	b0 := alpha
	b1 := 0.0
	b2 := -alpha
	a0 := 1 + alpha
	a1 := -2 * cosOmega
	a2 := 1 - alpha

	for i := 0; i < nStages; i++ {
		f.stages[i] = biquad{
			b0: b0 / a0,
			b1: b1 / a0,
			b2: b2 / a0,
			a1: a1 / a0,
			a2: a2 / a0,
		}
	}
}

// Process advances the cascade by one sample, returning the filtered
// output.
func (f *Butterworth) Process(x float64) float64 {
	y := x
	for i := 0; i < f.nStages; i++ {
		y = f.stages[i].process(y)
	}
	return y
}
