// Package capture moves microphone samples into the sample buffer while a
// recording is open.
package capture

import (
	"errors"
	"fmt"

	"github.com/voice-satellite-lab/internal/audio"
	"github.com/voice-satellite-lab/internal/device"
)

// ErrTruncated is reported when the sample buffer fills mid-recording. The
// session must leave the recording state; the captured payload up to this
// point is still valid.
var ErrTruncated = errors.New("capture: recording truncated, buffer full")

// Pipeline pulls fixed-size chunks from the microphone into a sample buffer.
// Bytes are forwarded verbatim: no resampling, filtering or gain control.
type Pipeline struct {
	mic   device.Mic
	buf   *audio.Buffer
	chunk []byte
}

// New returns a pipeline reading chunkBytes per blocking call.
func New(mic device.Mic, buf *audio.Buffer, chunkBytes int) *Pipeline {
	return &Pipeline{mic: mic, buf: buf, chunk: make([]byte, chunkBytes)}
}

// CaptureChunk performs one blocking microphone read and appends the bytes
// to the buffer. The read suspends the caller until the chunk is ready;
// there is no partial-chunk timeout at this layer.
func (p *Pipeline) CaptureChunk() error {
	n, err := p.mic.Read(p.chunk)
	if err != nil {
		return fmt.Errorf("capture: mic read: %w", err)
	}
	if n == 0 {
		return nil
	}
	if err := p.buf.Append(p.chunk[:n]); err != nil {
		if errors.Is(err, audio.ErrBufferFull) {
			return ErrTruncated
		}
		return err
	}
	return nil
}
