// Package midi implements the debounced MIDI note-on/note-off decider
// (C8): it turns a stream of per-crossing frequency estimates into
// discrete note events with hysteresis.
package midi

import "math"

// Event is a single 3-byte MIDI message with a block-relative sample
// timestamp. Velocity is always 127 for note-on, 0 for note-off.
type Event struct {
	Status       byte // 0x90 NoteOn, 0x80 NoteOff
	Key          byte
	Velocity     byte
	SampleOffset int
}

const noCandidate = -1

// Decider produces debounced note-on/off with velocity, dwell counters and
// a phase-error veto.
type Decider struct {
	lastKey, lastVel int
	candidateKey     int
	candidateDwell   int
}

// NewDecider returns a decider with no note currently sounding.
func NewDecider() *Decider {
	return &Decider{candidateKey: noCandidate}
}

// NoteOn processes one DLL-updated zero crossing. freq and rms are the
// instantaneous frequency and squared signal level for this crossing; e0
// is the DLL phase error in samples; tuning is the reference A;
// sampleRate is the audio sample rate; offset is the sample offset
// within the current block.
func (d *Decider) NoteOn(freq, rms, e0, tuning, sampleRate float64, offset int) []Event {
	key := int(math.Round(12*math.Log2(freq/tuning) + 69))

	// excessive phase error vetoes this crossing entirely.
	if math.Abs(100*e0*freq/sampleRate) > 30 {
		return nil
	}

	if key != d.candidateKey {
		// first sighting of this key; ignore and start the dwell clock.
		d.candidateKey = key
		d.candidateDwell = 1
		return nil
	}

	dwellGate := float64(127-key) / 5
	if float64(d.candidateDwell) < dwellGate {
		d.candidateDwell++
		return nil
	}

	if d.lastKey == key && d.lastVel == 127 {
		return nil
	}

	var events []Event
	if d.lastVel != 0 && d.lastKey != key {
		events = append(events, Event{Status: 0x80, Key: byte(d.lastKey), SampleOffset: offset})
	}
	key &= 0x7f
	events = append(events, Event{Status: 0x90, Key: byte(key), Velocity: 127, SampleOffset: offset})
	d.lastKey = key
	d.lastVel = 127
	return events
}

// NoteOff processes a gate closure (silence, or loss of tracking). It
// debounces the release so a brief gap doesn't immediately cut a held
// note; higher notes release faster than lower ones.
func (d *Decider) NoteOff(offset int) []Event {
	if d.lastVel == 0 || d.lastKey == 0 {
		return nil
	}

	if d.candidateKey != 255 {
		// first off-call after a sounding note; ignore and start the
		// dwell clock.
		d.candidateKey = 255
		d.candidateDwell = 1
		return nil
	}
	d.candidateDwell++

	if float64(d.candidateDwell) < 9*float64(200-d.lastKey) {
		return nil
	}

	events := []Event{{Status: 0x80, Key: byte(d.lastKey), SampleOffset: offset}}
	d.lastKey = 0
	d.lastVel = 0
	d.candidateKey = noCandidate
	d.candidateDwell = 0
	return events
}
