package pitch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_MapFrequency_A4IsExact(t *testing.T) {
	var note = MapFrequency(440, 440)

	assert.Equal(t, 69, note.MIDINumber)
	assert.Equal(t, 4, note.Octave)
	assert.Equal(t, "A", note.Name)
	assert.InDelta(t, 440, note.NoteFreq, 1e-9)
	assert.InDelta(t, 0, note.Cents, 1e-6)
}

func Test_MapFrequency_OneOctaveUpDoublesFrequency(t *testing.T) {
	var a5 = MapFrequency(880, 440)

	assert.Equal(t, 5, a5.Octave)
	assert.Equal(t, "A", a5.Name)
}

func Test_MapFrequency_SlightlyFlatStaysOnNearestSemitone(t *testing.T) {
	// 438Hz is a few cents flat of A4 (440Hz), not far enough to round
	// down to G#4.
	var note = MapFrequency(438, 440)

	assert.Equal(t, "A", note.Name)
	assert.Less(t, note.Cents, 0.0)
}

func Test_MapFrequency_RoundTripThroughNoteFreqIsStable(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var midi = rapid.IntRange(24, 108).Draw(t, "midi")
		var tuning = rapid.Float64Range(220, 880).Draw(t, "tuning")

		var freq = tuning * math.Pow(2, float64(midi-69)/12)
		var note = MapFrequency(freq, tuning)

		assert.Equal(t, midi, note.MIDINumber)
		assert.InDelta(t, 0, note.Cents, 1e-6)
	})
}

func Test_MapFrequency_PitchClassAlwaysInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var freq = rapid.Float64Range(20, 10000).Draw(t, "freq")
		var tuning = rapid.Float64Range(220, 880).Draw(t, "tuning")

		var note = MapFrequency(freq, tuning)

		assert.GreaterOrEqual(t, note.PitchClass, 0)
		assert.Less(t, note.PitchClass, 12)
		assert.Equal(t, PitchClassNames[note.PitchClass], note.Name)
	})
}

func Test_PhaseErrorPercent_ZeroErrorIsZeroPercent(t *testing.T) {
	assert.Equal(t, 0.0, PhaseErrorPercent(0, 440, 44100))
}
