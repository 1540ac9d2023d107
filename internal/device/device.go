// Package device abstracts the satellite's peripherals behind small
// interfaces so the pipeline stays hardware-independent. Real deployments
// bind these to I2S/GPIO drivers; tests and the bundled stubs satisfy them
// in memory.
package device

// Mic is the microphone input peripheral. Read blocks until up to len(p)
// bytes of PCM are available and returns the count actually filled. There is
// no partial-chunk timeout at this layer.
type Mic interface {
	Read(p []byte) (int, error)
}

// Speaker is the audio output peripheral. Write blocks until the peripheral
// accepts the bytes. ClearPending flushes the pending output queue so stale
// samples do not linger after playback.
type Speaker interface {
	Write(p []byte) (int, error)
	ClearPending() error
}

// Trigger is the push-to-talk control line. Pressed reads the current
// debounced level: true while the button is held (the raw line is active
// low with a pull-up; implementations hide that convention).
type Trigger interface {
	Pressed() bool
}

// Network reports whether the hub is reachable. Association and
// reconnection policy live outside this module.
type Network interface {
	IsUp() bool
}
