// Package pitch implements the detection orchestrator (C6) and the
// note/cent mapper (C7): composing the dsp package's FFT, filter and DLL
// stages into per-block frequency, note and cents estimates.
package pitch

import "math"

// PitchClassNames is the fixed 12-element chromatic table, C at index 0.
var PitchClassNames = [12]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

const (
	semitoneDown = 0.9438743126816935 // 2^(-1/12)
	semitoneUp   = 1.0594630943592953 // 2^(+1/12)
)

// Note is the C7 output for a detected frequency: MIDI number-derived
// octave/pitch-class plus the cents deviation from equal temperament.
type Note struct {
	MIDINumber  int
	Octave      int
	PitchClass  int
	Name        string
	NoteFreq    float64 // the equal-tempered frequency note_freq
	Cents       float64
}

// MapFrequency maps a detected frequency f > 0 and a tuning reference A
// (typically 440) to the nearest MIDI note, its octave/pitch-class/name,
// the tempered frequency, and the cents deviation linearized around the
// local semitone ratio.
func MapFrequency(f, tuning float64) Note {
	m := int(math.Round(12*math.Log2(f/tuning) + 69))
	octave := m/12 - 1
	pitchClass := ((m % 12) + 12) % 12
	noteFreq := tuning * math.Pow(2, float64(m-69)/12)

	var cents float64
	if noteFreq > 0 {
		ratio := f / noteFreq
		if f < noteFreq {
			cents = 100 * (ratio - 1) / (1 - semitoneDown)
		} else {
			cents = 100 * (ratio - 1) / (semitoneUp - 1)
		}
	}

	return Note{
		MIDINumber: m,
		Octave:     octave,
		PitchClass: pitchClass,
		Name:       PitchClassNames[pitchClass],
		NoteFreq:   noteFreq,
		Cents:      cents,
	}
}

// PhaseErrorPercent converts a DLL phase error e0 (in samples) to a
// percentage of the expected period for the tempered note frequency,
// reported on a ±100% scale.
func PhaseErrorPercent(e0, noteFreq, sampleRate float64) float64 {
	return 100 * e0 * noteFreq / sampleRate
}
