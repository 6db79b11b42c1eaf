// Package audio wires a real-time input device to the detector core. It
// carries no DSP of its own: a BlockHandler is just the synchronous entry
// point an Orchestrator exposes for one host audio block.
package audio

// BlockHandler processes one block of mono input samples, writing an
// optional passthrough signal into out. Implementations (the pitch package's
// Orchestrator.Process) must not allocate here; this is the real-time
// audio thread.
type BlockHandler func(in, out []float32)

// Capturer is the audio input abstraction cmd/tunacore wires to a
// BlockHandler. Implementations own the device lifecycle; Start returns
// once the stream is running, and the handler is then invoked from the
// audio thread until Stop is called.
type Capturer interface {
	// Start opens the input device and begins invoking handler once per
	// block until Stop is called.
	Start(handler BlockHandler) error

	// Stop closes the input device.
	Stop() error

	// IsCapturing reports whether the device is currently open.
	IsCapturing() bool
}
