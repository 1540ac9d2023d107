// Package playback drains a received container's PCM payload to the output
// peripheral.
package playback

import (
	"fmt"
	"time"

	"github.com/voice-satellite-lab/internal/audio"
	"github.com/voice-satellite-lab/internal/device"
	"github.com/voice-satellite-lab/internal/logging"
)

// Pipeline writes payload bytes to the speaker in bounded chunks. Bytes go
// out verbatim; the reply's format is validated by the session beforehand.
type Pipeline struct {
	spk    device.Speaker
	format audio.Format
	chunk  int
}

// New returns a pipeline writing chunkBytes per blocking call.
func New(spk device.Speaker, format audio.Format, chunkBytes int) *Pipeline {
	return &Pipeline{spk: spk, format: format, chunk: chunkBytes}
}

// Play writes buf[HeaderSize:total] to the speaker, each write blocking
// until the peripheral accepts it, then clears the pending output queue.
// It returns the played duration for diagnostics.
func (p *Pipeline) Play(buf *audio.Buffer, total int) (time.Duration, error) {
	payload := buf.Payload(total)
	offset := 0
	for offset < len(payload) {
		toWrite := p.chunk
		if rest := len(payload) - offset; rest < toWrite {
			toWrite = rest
		}
		n, err := p.spk.Write(payload[offset : offset+toWrite])
		if err != nil {
			return 0, fmt.Errorf("playback: speaker write at offset %d: %w", offset, err)
		}
		offset += n
	}
	if err := p.spk.ClearPending(); err != nil {
		return 0, fmt.Errorf("playback: clear pending output: %w", err)
	}

	d := p.format.Duration(len(payload))
	logging.Infow("playback complete", "payload_bytes", len(payload), "duration_ms", d.Milliseconds())
	return d, nil
}
