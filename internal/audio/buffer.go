package audio

import (
	"errors"
	"fmt"
)

// ErrBufferFull is reported by Append when the incoming chunk does not fit.
// The buffer is left unchanged; capture must stop.
var ErrBufferFull = errors.New("audio: buffer full")

// Buffer is a fixed-capacity byte region holding one recording: a reserved
// 44-byte header region followed by the PCM payload. It is allocated once at
// startup and reused for every capture/send/receive/play cycle; it never
// grows. The owning state machine guarantees single-writer access.
type Buffer struct {
	data []byte
	pos  int
}

// BufferCapacity returns the byte capacity needed for maxSeconds of
// recording in format f, header included.
func BufferCapacity(f Format, maxSeconds int) int {
	return f.ByteRate()*maxSeconds + HeaderSize
}

// NewBuffer allocates a buffer of the given capacity. The capacity must at
// least hold the container header.
func NewBuffer(capacity int) (*Buffer, error) {
	if capacity < HeaderSize {
		return nil, fmt.Errorf("audio: capacity %d smaller than header size %d", capacity, HeaderSize)
	}
	return &Buffer{data: make([]byte, capacity), pos: HeaderSize}, nil
}

// Reset prepares the buffer for a new recording. The header region is
// reserved immediately; its contents stay stale until Finalize.
func (b *Buffer) Reset() {
	b.pos = HeaderSize
}

// Append copies p at the write cursor and advances it. When p does not fit
// it returns ErrBufferFull without copying anything.
func (b *Buffer) Append(p []byte) error {
	if b.pos+len(p) > len(b.data) {
		return ErrBufferFull
	}
	copy(b.data[b.pos:], p)
	b.pos += len(p)
	return nil
}

// Finalize writes the container header for the current payload in place.
// Called once, when recording stops.
func (b *Buffer) Finalize(f Format) error {
	return EncodeHeader(b.data, f, uint32(b.PayloadLen()))
}

// Len returns the write cursor: header size plus payload bytes written.
func (b *Buffer) Len() int { return b.pos }

// Cap returns the fixed byte capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// PayloadLen returns the number of payload bytes recorded so far.
func (b *Buffer) PayloadLen() int { return b.pos - HeaderSize }

// Bytes returns the container bytes written so far (header + payload).
func (b *Buffer) Bytes() []byte { return b.data[:b.pos] }

// Storage exposes the full backing region. The transport exchange streams a
// received container into it from offset 0; nothing else may use it.
func (b *Buffer) Storage() []byte { return b.data }

// SetLen moves the write cursor after the transport exchange has replaced
// the buffer contents with a received container of n bytes.
func (b *Buffer) SetLen(n int) error {
	if n < HeaderSize || n > len(b.data) {
		return fmt.Errorf("audio: length %d out of range [%d, %d]", n, HeaderSize, len(b.data))
	}
	b.pos = n
	return nil
}

// Payload returns the PCM bytes of a container occupying the first total
// bytes of the buffer.
func (b *Buffer) Payload(total int) []byte {
	return b.data[HeaderSize:total]
}
