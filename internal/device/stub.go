package device

import "time"

// Stub peripherals let the satellite run on machines without the real
// hardware bindings: the mic produces paced silence, the speaker discards,
// the trigger stays released and the network reports up.

// SilenceMic yields zeroed samples at the real-time pace of the given byte
// rate, imitating a blocking DMA read.
type SilenceMic struct {
	byteRate int
}

// NewSilenceMic returns a mic producing silence at byteRate bytes/second.
func NewSilenceMic(byteRate int) *SilenceMic {
	return &SilenceMic{byteRate: byteRate}
}

func (m *SilenceMic) Read(p []byte) (int, error) {
	if m.byteRate > 0 {
		time.Sleep(time.Duration(len(p)) * time.Second / time.Duration(m.byteRate))
	}
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

// DiscardSpeaker accepts and drops all output.
type DiscardSpeaker struct{}

func (DiscardSpeaker) Write(p []byte) (int, error) { return len(p), nil }
func (DiscardSpeaker) ClearPending() error         { return nil }

// StaticTrigger reports a fixed trigger level.
type StaticTrigger bool

func (t StaticTrigger) Pressed() bool { return bool(t) }

// AlwaysUpNetwork reports the hub as reachable.
type AlwaysUpNetwork struct{}

func (AlwaysUpNetwork) IsUp() bool { return true }
