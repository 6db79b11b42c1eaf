package dsp

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// minFFTSize and maxFFTSize bound the transform size the ring buffer ever picks.
const (
	minFFTSize = 8192
	maxFFTSize = 32768
)

// nextPow2 rounds n up to the next power of two.
func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// fftSizeFor picks N_fft: the smallest power of two >= max(8192,
// rate/divisor) and <= 32768.
func fftSizeFor(sampleRate, divisor float64) int {
	n := int(sampleRate / divisor)
	if n < minFFTSize {
		n = minFFTSize
	}
	n = nextPow2(n)
	if n > maxFFTSize {
		n = maxFFTSize
	}
	return n
}

// RingFFT accumulates samples into a ring buffer and, at most
// once per block, produces a Hann-windowed power spectrum.
type RingFFT struct {
	sampleRate float64
	n          int // N_fft
	halfN      int // N_fft/2, the power spectrum length

	hann []float64

	ring    []float64
	ringOff int

	scratch []float64    // reused FFT input buffer, length n
	windowed []float64   // reused windowed buffer, length n
	complexIn []complex128 // reused FFT input, length n

	power []float64 // length halfN

	afpvf     float64 // samples accumulated since last spectrum
	everyN    float64 // sampleRate/30
	lastReady bool
}

// NewRingFFT builds a ring buffer and precomputed Hann window sized for
// the given config. All buffers are allocated here and never again.
func NewRingFFT(cfg Config) *RingFFT {
	n := fftSizeFor(cfg.SampleRate, cfg.FFTDivisor)
	half := n / 2

	r := &RingFFT{
		sampleRate: cfg.SampleRate,
		n:          n,
		halfN:      half,
		hann:       make([]float64, n),
		ring:       make([]float64, n),
		scratch:    make([]float64, n),
		windowed:   make([]float64, n),
		complexIn:  make([]complex128, n),
		power:      make([]float64, half),
		everyN:     cfg.SampleRate / 30,
	}
	r.buildHannWindow()
	return r
}

// buildHannWindow precomputes a Hann window normalized so that Σw = N/2,
// so that bin magnitudes read as linear signal amplitude.
func (r *RingFFT) buildHannWindow() {
	sum := 0.0
	for i := range r.hann {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(len(r.hann)))
		r.hann[i] = w
		sum += w
	}
	scale := float64(len(r.hann)) / 2 / sum
	for i := range r.hann {
		r.hann[i] *= scale
	}
}

// Size returns N_fft.
func (r *RingFFT) Size() int { return r.n }

// HalfSize returns N_fft/2, the number of usable power bins.
func (r *RingFFT) HalfSize() int { return r.halfN }

// BinFrequency converts a bin index to a frequency in Hz.
// freq(k) = k * sampleRate / N_fft.
func (r *RingFFT) BinFrequency(k int) float64 {
	return float64(k) * r.sampleRate / float64(r.n)
}

// Power returns the most recently computed power spectrum. Valid only
// after Run returns true; the returned slice is owned by RingFFT and is
// overwritten on the next spectrum.
func (r *RingFFT) Power() []float64 { return r.power }

// Reset clears the ring, the power buffer and the block accumulator.
func (r *RingFFT) Reset() {
	for i := range r.ring {
		r.ring[i] = 0
	}
	for i := range r.power {
		r.power[i] = 0
	}
	r.ringOff = 0
	r.afpvf = 0
}

// Run copies nSamples of data into the ring buffer and, once per at most
// 30Hz, computes a fresh power spectrum. It reports whether a spectrum
// was produced this call.
func (r *RingFFT) Run(data []float64) bool {
	nSamples := len(data)
	n := r.n
	off := r.ringOff

	for i, s := range data {
		r.ring[(i+off)%n] = s
	}
	r.ringOff = (off + nSamples) % n

	r.afpvf += float64(nSamples)
	if r.afpvf < r.everyN {
		return false
	}
	r.afpvf = 0

	// Copy all N_fft samples of the ring into the FFT input buffer, oldest
	// first, with two memcpy-equivalent runs around the wrap. p0 is the
	// position of the oldest sample still in the ring (the write cursor
	// right after the loop above), so r.ring[p0:] followed by r.ring[:p0]
	// is the ring's full contents in logical order, including the
	// nSamples just written above.
	p0 := r.ringOff
	n1 := n - p0
	copy(r.scratch[:n1], r.ring[p0:])
	copy(r.scratch[n1:], r.ring[:p0])

	r.analyze()
	return true
}

// analyze applies the Hann window, runs a real FFT and computes the
// power spectrum for bins 1..halfN-2 inclusive (DC and Nyquist unused).
func (r *RingFFT) analyze() {
	for i, s := range r.scratch {
		r.windowed[i] = s * r.hann[i]
	}
	for i, s := range r.windowed {
		r.complexIn[i] = complex(s, 0)
	}
	spectrum := fft.FFT(r.complexIn)

	for k := 1; k < r.halfN-1; k++ {
		c := spectrum[k]
		re := real(c)
		im := imag(c)
		r.power[k] = re*re + im*im
	}
}
