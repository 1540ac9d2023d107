package audio

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	// HeaderSize is the fixed length of the RIFF/WAVE container header.
	HeaderSize = 44

	// MIMEType is the content type label for the container on the wire.
	MIMEType = "audio/wav"

	// pcmFormatTag is the fmt-chunk tag for uncompressed PCM.
	pcmFormatTag = 1
)

// Format describes the PCM sample format carried by a container.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// ByteRate returns the PCM byte rate (bytes of payload per second).
func (f Format) ByteRate() int {
	return f.SampleRate * f.Channels * f.BitsPerSample / 8
}

// BlockAlign returns the size of one sample frame in bytes.
func (f Format) BlockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

// Duration returns the play time of payloadBytes of PCM in this format.
func (f Format) Duration(payloadBytes int) time.Duration {
	br := f.ByteRate()
	if br <= 0 {
		return 0
	}
	return time.Duration(payloadBytes) * time.Second / time.Duration(br)
}

// EncodeHeader writes the 44-byte RIFF/WAVE header for a PCM payload of
// payloadSize bytes into dst[0:44]. All multi-byte fields are little-endian.
func EncodeHeader(dst []byte, f Format, payloadSize uint32) error {
	if len(dst) < HeaderSize {
		return fmt.Errorf("audio: header destination too small: %d bytes", len(dst))
	}
	if f.SampleRate <= 0 || f.Channels <= 0 || f.BitsPerSample <= 0 {
		return fmt.Errorf("audio: invalid format %+v", f)
	}

	copy(dst[0:4], "RIFF")
	binary.LittleEndian.PutUint32(dst[4:8], payloadSize+HeaderSize-8)
	copy(dst[8:12], "WAVE")

	copy(dst[12:16], "fmt ")
	binary.LittleEndian.PutUint32(dst[16:20], 16)
	binary.LittleEndian.PutUint16(dst[20:22], pcmFormatTag)
	binary.LittleEndian.PutUint16(dst[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(dst[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(dst[28:32], uint32(f.ByteRate()))
	binary.LittleEndian.PutUint16(dst[32:34], uint16(f.BlockAlign()))
	binary.LittleEndian.PutUint16(dst[34:36], uint16(f.BitsPerSample))

	copy(dst[36:40], "data")
	binary.LittleEndian.PutUint32(dst[40:44], payloadSize)
	return nil
}

// DecodeHeader parses a 44-byte RIFF/WAVE header and returns the sample
// format and declared payload size. It rejects anything that is not a
// canonical uncompressed-PCM container.
func DecodeHeader(b []byte) (Format, uint32, error) {
	if len(b) < HeaderSize {
		return Format{}, 0, fmt.Errorf("audio: container too short: need %d bytes, got %d", HeaderSize, len(b))
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return Format{}, 0, fmt.Errorf("audio: missing RIFF/WAVE magic")
	}
	if string(b[12:16]) != "fmt " {
		return Format{}, 0, fmt.Errorf("audio: missing fmt chunk")
	}
	if string(b[36:40]) != "data" {
		return Format{}, 0, fmt.Errorf("audio: missing data chunk")
	}
	if tag := binary.LittleEndian.Uint16(b[20:22]); tag != pcmFormatTag {
		return Format{}, 0, fmt.Errorf("audio: unsupported format tag %d (only PCM)", tag)
	}

	f := Format{
		SampleRate:    int(binary.LittleEndian.Uint32(b[24:28])),
		Channels:      int(binary.LittleEndian.Uint16(b[22:24])),
		BitsPerSample: int(binary.LittleEndian.Uint16(b[34:36])),
	}
	if f.SampleRate <= 0 || f.Channels <= 0 || f.BitsPerSample <= 0 {
		return Format{}, 0, fmt.Errorf("audio: malformed format fields %+v", f)
	}
	payloadSize := binary.LittleEndian.Uint32(b[40:44])
	return f, payloadSize, nil
}
