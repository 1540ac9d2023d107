// Package devicetest provides in-memory peripheral fakes for pipeline and
// session tests.
package devicetest

import "io"

// ScriptMic serves a fixed byte sequence in whatever chunk sizes the caller
// asks for, then reports io.EOF.
type ScriptMic struct {
	Data []byte
	off  int
}

func (m *ScriptMic) Read(p []byte) (int, error) {
	if m.off >= len(m.Data) {
		return 0, io.EOF
	}
	n := copy(p, m.Data[m.off:])
	m.off += n
	return n, nil
}

// MemorySpeaker records every write so tests can assert chunk boundaries.
type MemorySpeaker struct {
	Chunks  [][]byte
	Cleared int
}

func (s *MemorySpeaker) Write(p []byte) (int, error) {
	s.Chunks = append(s.Chunks, append([]byte(nil), p...))
	return len(p), nil
}

func (s *MemorySpeaker) ClearPending() error {
	s.Cleared++
	return nil
}

// Written returns all chunks concatenated.
func (s *MemorySpeaker) Written() []byte {
	var out []byte
	for _, c := range s.Chunks {
		out = append(out, c...)
	}
	return out
}

// SeqTrigger replays a scripted sequence of trigger levels, one per poll.
// Once exhausted it keeps returning the last level.
type SeqTrigger struct {
	Levels []bool
	idx    int
}

func (t *SeqTrigger) Pressed() bool {
	if len(t.Levels) == 0 {
		return false
	}
	if t.idx >= len(t.Levels) {
		return t.Levels[len(t.Levels)-1]
	}
	v := t.Levels[t.idx]
	t.idx++
	return v
}

// Network reports a settable reachability state.
type Network struct {
	Up bool
}

func (n *Network) IsUp() bool { return n.Up }
