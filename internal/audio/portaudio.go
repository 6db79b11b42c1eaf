package audio

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// PortAudioCapturer drives a BlockHandler from a real-time PortAudio input
// callback: one block at a time, synchronously, on the audio thread.
// Multi-channel input is downmixed to mono before the handler runs.
type PortAudioCapturer struct {
	stream *portaudio.Stream

	framesPerBuffer int
	sampleRate      float64
	channels        int
	deviceIndex     int
	gain            float32
	isCapturing     bool

	mono    []float32
	scratch []float32 // passthrough output buffer handed to the handler
	handler BlockHandler
}

// NewPortAudioCapturer initializes PortAudio and returns a capturer for the
// given block size, sample rate and channel count. deviceIndex < 0 selects
// the host's default input device.
func NewPortAudioCapturer(framesPerBuffer int, sampleRate float64, channels, deviceIndex int) (*PortAudioCapturer, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audio: portaudio init: %w", err)
	}
	return &PortAudioCapturer{
		framesPerBuffer: framesPerBuffer,
		sampleRate:      sampleRate,
		channels:        channels,
		deviceIndex:     deviceIndex,
		gain:            1.0,
		mono:            make([]float32, framesPerBuffer),
		scratch:         make([]float32, framesPerBuffer),
	}, nil
}

// SetGain sets the input gain multiplier applied before the block handler
// runs; values below 0.1 are clamped.
func (c *PortAudioCapturer) SetGain(gain float32) {
	if gain < 0.1 {
		gain = 0.1
	}
	c.gain = gain
}

// Start opens the input stream and begins invoking handler once per block.
func (c *PortAudioCapturer) Start(handler BlockHandler) error {
	if c.isCapturing {
		return errors.New("audio: capture already started")
	}
	c.handler = handler

	var (
		stream *portaudio.Stream
		err    error
	)
	if c.deviceIndex < 0 {
		stream, err = portaudio.OpenDefaultStream(c.channels, 0, c.sampleRate, c.framesPerBuffer, c.processAudio)
	} else {
		devices, derr := portaudio.Devices()
		if derr != nil {
			return fmt.Errorf("audio: list devices: %w", derr)
		}
		if c.deviceIndex >= len(devices) {
			return fmt.Errorf("audio: device index %d out of range (have %d)", c.deviceIndex, len(devices))
		}
		params := portaudio.LowLatencyParameters(devices[c.deviceIndex], nil)
		params.Input.Channels = c.channels
		params.SampleRate = c.sampleRate
		params.FramesPerBuffer = c.framesPerBuffer
		stream, err = portaudio.OpenStream(params, c.processAudio)
	}
	if err != nil {
		return fmt.Errorf("audio: open stream: %w", err)
	}
	c.stream = stream

	if err := c.stream.Start(); err != nil {
		c.stream.Close()
		return fmt.Errorf("audio: start stream: %w", err)
	}
	c.isCapturing = true
	return nil
}

// Stop closes the stream and terminates PortAudio.
func (c *PortAudioCapturer) Stop() error {
	if !c.isCapturing {
		return errors.New("audio: capture not started")
	}
	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("audio: stop stream: %w", err)
	}
	if err := c.stream.Close(); err != nil {
		return fmt.Errorf("audio: close stream: %w", err)
	}
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("audio: terminate: %w", err)
	}
	c.isCapturing = false
	return nil
}

// IsCapturing reports whether the stream is open.
func (c *PortAudioCapturer) IsCapturing() bool { return c.isCapturing }

// processAudio is the PortAudio callback. It downmixes to mono, applies
// gain, and calls the block handler synchronously; c.mono and c.scratch are
// sized once at construction so this never allocates.
func (c *PortAudioCapturer) processAudio(in, _ []float32) {
	var frames int
	if c.channels > 1 {
		frames = len(in) / c.channels
		for i := 0; i < frames; i++ {
			var sum float32
			for ch := 0; ch < c.channels; ch++ {
				sum += in[i*c.channels+ch]
			}
			c.mono[i] = (sum / float32(c.channels)) * c.gain
		}
	} else {
		frames = len(in)
		for i, s := range in {
			c.mono[i] = s * c.gain
		}
	}
	if c.handler != nil {
		c.handler(c.mono[:frames], c.scratch[:frames])
	}
}
