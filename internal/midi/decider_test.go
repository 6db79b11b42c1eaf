package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sampleRate = 44100.0
	tuning     = 440.0
)

// feedNoteOn drives NoteOn with a steady in-tune crossing stream at freq until
// an event fires (the dwell debounce requires several identical-key
// crossings in a row) or a generous cap is hit.
func feedNoteOn(d *Decider, freq float64, n int) []Event {
	var events []Event
	for i := 0; i < n; i++ {
		events = append(events, d.NoteOn(freq, 1.0, 0, tuning, sampleRate, i)...)
		if len(events) > 0 {
			break
		}
	}
	return events
}

func Test_Decider_DebouncesBeforeFirstNoteOn(t *testing.T) {
	var d = NewDecider()

	// A single crossing should never fire immediately: the dwell clock
	// must run first.
	var events = d.NoteOn(440, 1.0, 0, tuning, sampleRate, 0)

	assert.Empty(t, events)
}

func Test_Decider_EventuallyFiresNoteOnForAnHeldTone(t *testing.T) {
	var d = NewDecider()

	var events = feedNoteOn(d, 440, 2000)

	require.NotEmpty(t, events, "expected a note-on within the dwell window")
	assert.Equal(t, byte(0x90), events[0].Status)
	assert.Equal(t, byte(69), events[0].Key)
	assert.Equal(t, byte(127), events[0].Velocity)
}

func Test_Decider_DoesNotRepeatNoteOnForTheSameHeldKey(t *testing.T) {
	var d = NewDecider()
	feedNoteOn(d, 440, 2000)

	var more = d.NoteOn(440, 1.0, 0, tuning, sampleRate, 0)

	assert.Empty(t, more)
}

func Test_Decider_ChangingKeyEmitsOffThenOn(t *testing.T) {
	var d = NewDecider()
	feedNoteOn(d, 440, 2000) // A4, key 69

	var events = feedNoteOn(d, 494, 2000) // B4, key 71

	require.Len(t, events, 2)
	assert.Equal(t, byte(0x80), events[0].Status)
	assert.Equal(t, byte(69), events[0].Key)
	assert.Equal(t, byte(0x90), events[1].Status)
	assert.Equal(t, byte(71), events[1].Key)
}

func Test_Decider_ExcessivePhaseErrorVetoesTheCrossing(t *testing.T) {
	var d = NewDecider()

	// e0 chosen so that 100*e0*freq/sampleRate exceeds the 30%% veto
	// threshold.
	var events = d.NoteOn(440, 1.0, 100, tuning, sampleRate, 0)

	assert.Empty(t, events)
}

func Test_Decider_NoteOff_IsDebouncedAndIdempotentWhenNothingSounding(t *testing.T) {
	var d = NewDecider()

	assert.Empty(t, d.NoteOff(0))
}

func Test_Decider_NoteOff_EventuallyReleasesAHeldNote(t *testing.T) {
	var d = NewDecider()
	feedNoteOn(d, 440, 2000)

	var events []Event
	for i := 0; i < 50000; i++ {
		events = d.NoteOff(0)
		if len(events) > 0 {
			break
		}
	}

	require.Len(t, events, 1)
	assert.Equal(t, byte(0x80), events[0].Status)
	assert.Equal(t, byte(69), events[0].Key)
}
