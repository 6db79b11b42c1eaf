package pitch

import (
	"math"

	"github.com/0xlemi/tunacore/internal/dsp"
	"github.com/0xlemi/tunacore/internal/midi"
)

// Logger is the optional structured-logging hook the orchestrator calls
// for diagnostics. The core package takes no logging dependency beyond
// this interface; a nil Logger means silence.
type Logger interface {
	Debugf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}

// Result is the per-block output of the orchestrator.
type Result struct {
	FreqHz        float64
	Note          Note
	PhaseErrorPct float64
	RMSdB         float64
	Strobe        float64
	HasSignal     bool
	MIDIEvents    []midi.Event
}

// Orchestrator composes the ring FFT, overtone analyzer, band-pass
// filter, DLL and gate into the per-block pitch-tracking state machine.
type Orchestrator struct {
	cfg dsp.Config
	log Logger

	ring   *dsp.RingFFT
	filter *dsp.Butterworth
	dll    *dsp.DLL
	gate   *dsp.Gate
	midi   *midi.Decider // nil unless cfg.Variant == VariantMIDI

	trackedFc    float64
	filterWarmup int
	prevSample   float64
	monotonicCnt float64

	fftNote      int
	fftNoteCount float64

	lastResult Result

	// scratch is a reused float32->float64 conversion buffer for the
	// ring FFT stage. It grows only if a block larger than any seen so
	// far arrives; real hosts use a fixed block size for the session,
	// so in practice this never grows after the first block.
	scratch []float64
}

// NewOrchestrator builds a detector for the given config and optional
// logger. All buffers are allocated here. Once the first block has sized
// the scratch buffer, Process allocates only on blocks where the ring FFT
// computes a spectrum (the FFT library call allocates) and, in the MIDI
// variant, when it returns note events.
func NewOrchestrator(cfg dsp.Config, log Logger) *Orchestrator {
	if log == nil {
		log = noopLogger{}
	}
	o := &Orchestrator{
		cfg:    cfg,
		log:    log,
		ring:   dsp.NewRingFFT(cfg),
		filter: dsp.NewButterworth(cfg.SampleRate),
		dll:    dsp.NewDLL(cfg.EdgesPerPeriod),
		gate:   dsp.NewGate(cfg.SampleRate),
		// first-run defaults: no frequency locked yet, A4 as the
		// nominal note, -100% phase error.
		lastResult: Result{
			Note:          Note{MIDINumber: 69, Octave: 4, PitchClass: 9, Name: "A", NoteFreq: 440},
			PhaseErrorPct: -100,
		},
	}
	if cfg.Variant == dsp.VariantMIDI {
		o.midi = midi.NewDecider()
	}
	return o
}

// Spectrum returns the most recent power spectrum computed by the ring FFT
// stage along with its bin width in Hz, for the host's spectrum publisher.
// The returned slice is owned by the orchestrator and overwritten on the
// next spectrum.
func (o *Orchestrator) Spectrum() (power []float64, binHz float64) {
	return o.ring.Power(), o.ring.BinFrequency(1)
}

func (o *Orchestrator) ensureScratch(n int) {
	if cap(o.scratch) >= n {
		o.scratch = o.scratch[:n]
		return
	}
	o.scratch = make([]float64, n)
}

// Process runs one host audio block through the detector. in and out may
// alias the same backing array; audio is copied through only when they
// don't.
func (o *Orchestrator) Process(in, out []float32, tuning float64, mode dsp.Mode) Result {
	nSamples := len(in)
	if nSamples > 0 && len(out) > 0 && &in[0] != &out[0] {
		copy(out, in)
	}

	freq := o.trackedFc
	fftRanThisBlock := false

	if mode.Kind == dsp.ModeAuto {
		o.ensureScratch(nSamples)
		for i, s := range in {
			o.scratch[i] = float64(s)
		}
		fftRanThisBlock = o.ring.Run(o.scratch[:nSamples])
	} else {
		freq = mode.Resolve(tuning)
	}

	fftProcessedThisBlock := false
	var detectedSum float64
	var detectedCount int
	var midiEvents []midi.Event
	var fftOnlyFreq float64
	fftOnlyActive := false

	for n := 0; n < nSamples; n++ {
		x := float64(in[n])
		o.gate.UpdatePre(x)

		if !o.gate.SignalPresent() {
			o.dll.Invalidate()
			o.fftNoteCount = 0
			o.prevSample = 0
			if o.midi != nil {
				midiEvents = append(midiEvents, o.midi.NoteOff(n)...)
			}
			continue
		}

		if mode.Kind == dsp.ModeAuto && fftRanThisBlock && !fftProcessedThisBlock {
			fftProcessedThisBlock = true
			peak := o.runFFTArbitration(tuning, nSamples, &freq)
			if o.cfg.Variant == dsp.VariantFFTOnly && o.fftNoteCount > 1 {
				fftOnlyFreq = peak
				fftOnlyActive = true
			}
		}

		if o.cfg.Variant == dsp.VariantFFTOnly {
			// FFT-only mode never tracks via filter/DLL; just keep
			// accumulating RMS for the next block's threshold.
			continue
		}

		if freq < 20 || freq > 10000 {
			o.dll.Invalidate()
			o.prevSample = 0
			if o.midi != nil {
				midiEvents = append(midiEvents, o.midi.NoteOff(n)...)
			}
			continue
		}

		if freq != o.trackedFc {
			o.trackedFc = freq
			o.dll.Retune(freq, o.cfg.SampleRate)
			bw := o.cfg.BandwidthFor(freq)
			o.filter.Setup(freq, bw, o.cfg.FilterOrder)
			o.filterWarmup = 16
		}

		signal := o.filter.Process(x)

		if o.filterWarmup > 0 {
			o.filterWarmup--
			o.gate.ResetPost()
			if o.midi != nil {
				midiEvents = append(midiEvents, o.midi.NoteOff(n)...)
			}
			continue
		}

		o.gate.UpdatePost(signal)
		if !o.gate.PostFilterPresent(o.cfg.PostFilterRatio(o.trackedFc)) {
			o.dll.Invalidate()
			o.prevSample = 0
			if o.midi != nil {
				midiEvents = append(midiEvents, o.midi.NoteOff(n)...)
			}
			continue
		}

		rising := signal >= 0 && o.prevSample < 0
		falling := signal <= 0 && o.prevSample > 0
		crossed := rising || (o.cfg.EdgesPerPeriod == 2 && falling)

		if crossed {
			absIndex := o.monotonicCnt + float64(n)
			dfreq := o.dll.Update(absIndex, o.trackedFc, o.cfg.SampleRate)
			detectedSum += dfreq
			detectedCount++
			if o.midi != nil {
				midiEvents = append(midiEvents, o.midi.NoteOn(dfreq, o.gate.PreSq(), o.dll.PhaseError(), tuning, o.cfg.SampleRate, n)...)
			}
		}
		o.prevSample = signal
	}

	trackingActive := o.dll.Initialized()
	if o.cfg.Variant == dsp.VariantFFTOnly {
		trackingActive = fftOnlyActive
	}

	switch {
	case o.cfg.Variant == dsp.VariantFFTOnly && fftOnlyActive:
		note := MapFrequency(fftOnlyFreq, tuning)
		o.lastResult = Result{FreqHz: fftOnlyFreq, Note: note, HasSignal: true}
	case detectedCount > 0:
		freqAvg := detectedSum / float64(detectedCount)
		note := MapFrequency(freqAvg, tuning)
		o.lastResult = Result{
			FreqHz:        freqAvg,
			Note:          note,
			PhaseErrorPct: PhaseErrorPercent(o.dll.PhaseError(), note.NoteFreq, o.cfg.SampleRate),
			HasSignal:     true,
		}
	case !o.dll.Initialized():
		o.lastResult = Result{FreqHz: 0, PhaseErrorPct: -100, HasSignal: false}
		// else: no change this block (short cycle with no fresh crossing
		// but the loop remains locked); keep the previous result.
	}

	if trackingActive {
		o.monotonicCnt += float64(nSamples)
	} else {
		o.monotonicCnt = 0
	}

	o.lastResult.RMSdB = o.gate.DB()
	o.lastResult.Strobe = o.monotonicCnt / o.cfg.SampleRate
	o.lastResult.MIDIEvents = midiEvents
	return o.lastResult
}

// runFFTArbitration runs the overtone-ladder fundamental finder once per
// block (on the first in-gate sample) and decides whether to accept its
// proposal over the currently tracked frequency. It returns the raw FFT
// peak frequency for variants (FFT-only) that bypass filter/DLL tracking
// entirely.
func (o *Orchestrator) runFFTArbitration(tuning float64, nSamples int, freq *float64) float64 {
	threshold := o.gate.PreSq() * o.cfg.RMSThresholdFactor
	if threshold < dsp.RMSSignalThreshold {
		threshold = dsp.RMSSignalThreshold
	}
	fftPeakFreq := dsp.FindFundamental(o.ring, threshold)

	if fftPeakFreq < 20 {
		o.fftNoteCount = 0
		return fftPeakFreq
	}

	note := int(math.Round(12*math.Log2(fftPeakFreq/tuning) + 69))
	noteFreq := tuning * math.Pow(2, float64(note-69)/12)

	if note == o.fftNote {
		o.fftNoteCount += float64(nSamples)
	} else {
		o.fftNoteCount = 0
	}
	o.fftNote = note

	o.log.Debugf("fft peak=%.1fHz note=%d noteFreq=%.1fHz count=%.0f", fftPeakFreq, note, noteFreq, o.fftNoteCount)

	if o.cfg.Variant == dsp.VariantFFTOnly {
		return fftPeakFreq
	}
	if !(note >= 0 && note < 128) || *freq == noteFreq {
		return fftPeakFreq
	}

	accept := *freq < 20
	if !o.dll.Initialized() && o.fftNoteCount > o.cfg.FFTStabilityShort {
		accept = true
	}
	overtoneGuard := math.Abs(2*(*freq)-noteFreq) <= 10
	if !overtoneGuard && o.fftNoteCount > o.cfg.FFTStabilityLong && math.Abs(*freq-noteFreq) > math.Max(5, *freq*0.05) {
		accept = true
	}
	if o.fftNoteCount > o.cfg.FFTStabilityMax {
		accept = true
	}

	if accept {
		o.log.Debugf("FFT adjust %.1fHz -> %.1fHz (midi %d)", *freq, noteFreq, note)
		*freq = noteFreq
	}
	return fftPeakFreq
}
