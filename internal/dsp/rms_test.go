package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Gate_SilenceNeverCrossesSignalThreshold(t *testing.T) {
	var g = NewGate(44100)

	for i := 0; i < 4096; i++ {
		g.UpdatePre(0)
	}

	assert.False(t, g.SignalPresent())
	assert.Equal(t, -100.0, g.DB())
}

func Test_Gate_LoudToneCrossesSignalThreshold(t *testing.T) {
	var g = NewGate(44100)

	for i := 0; i < 4096; i++ {
		g.UpdatePre(0.5)
	}

	assert.True(t, g.SignalPresent())
	assert.Greater(t, g.DB(), -20.0)
}

func Test_Gate_PostFilterPresent_ComparesAgainstPreRatio(t *testing.T) {
	var g = NewGate(44100)

	for i := 0; i < 4096; i++ {
		g.UpdatePre(0.5)
		g.UpdatePost(0.5)
	}

	assert.True(t, g.PostFilterPresent(0.01))

	g.ResetPost()
	assert.False(t, g.PostFilterPresent(0.01))
}
