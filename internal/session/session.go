// Package session drives the push-to-talk cycle: a state machine polled at
// a fixed cadence that owns the sample buffer and hands it between the
// capture, transport and playback stages.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/voice-satellite-lab/internal/audio"
	"github.com/voice-satellite-lab/internal/capture"
	"github.com/voice-satellite-lab/internal/device"
	"github.com/voice-satellite-lab/internal/logging"
	"github.com/voice-satellite-lab/internal/metrics"
	"github.com/voice-satellite-lab/internal/playback"
	"github.com/voice-satellite-lab/internal/transport"
)

// State enumerates the machine's states. The mutual exclusivity of states
// is what keeps the buffer single-writer: only one of capture, transport
// and playback ever touches it.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateSending
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateSending:
		return "sending"
	case StatePlaying:
		return "playing"
	}
	return "unknown"
}

// Params wires a session together.
type Params struct {
	Buffer   *audio.Buffer
	Trigger  device.Trigger
	Capture  *capture.Pipeline
	Exchange *transport.Exchange
	Playback *playback.Pipeline
	Format   audio.Format

	// MinSendDuration is the threshold a recording must exceed to be sent.
	MinSendDuration time.Duration

	// PollInterval is the tick cadence; it doubles as the trigger debounce
	// window since the raw level is sampled once per tick.
	PollInterval time.Duration

	Metrics *metrics.Pipeline
}

// Session is the recording state machine. It is not safe for concurrent
// use; Run drives it from a single goroutine.
type Session struct {
	buf      *audio.Buffer
	trigger  device.Trigger
	capture  *capture.Pipeline
	exchange *transport.Exchange
	playback *playback.Pipeline
	format   audio.Format
	minSend  time.Duration
	poll     time.Duration
	metrics  *metrics.Pipeline

	state       State
	lastPressed bool
}

// New returns a session in the idle state.
func New(p Params) *Session {
	m := p.Metrics
	if m == nil {
		m = metrics.NewPipeline(prometheus.NewRegistry())
	}
	return &Session{
		buf:      p.Buffer,
		trigger:  p.Trigger,
		capture:  p.Capture,
		exchange: p.Exchange,
		playback: p.Playback,
		format:   p.Format,
		minSend:  p.MinSendDuration,
		poll:     p.PollInterval,
		metrics:  m,
		state:    StateIdle,
	}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Run polls the trigger at the configured cadence until ctx is cancelled.
// The machine cycles indefinitely; there is no terminal state.
func (s *Session) Run(ctx context.Context) error {
	logging.Infow("session ready, hold the trigger to record",
		"poll_ms", s.poll.Milliseconds(), "buffer_bytes", s.buf.Cap())
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick performs one poll step: sample the trigger level, detect edges
// against the previous sample, and advance the machine. Capture, transport
// and playback all run inline; their blocking is the execution model.
func (s *Session) Tick(ctx context.Context) {
	pressed := s.trigger.Pressed()
	defer func() { s.lastPressed = pressed }()

	switch s.state {
	case StateIdle:
		if pressed && !s.lastPressed {
			s.buf.Reset()
			s.state = StateRecording
			s.metrics.RecordingsStarted.Inc()
			logging.Infow("recording started")
		}

	case StateRecording:
		if !pressed && s.lastPressed {
			s.finishRecording(ctx, false)
			return
		}
		if !pressed {
			return
		}
		if err := s.capture.CaptureChunk(); err != nil {
			if errors.Is(err, capture.ErrTruncated) {
				s.metrics.RecordingsTruncated.Inc()
				logging.Warnw("buffer full, stopping recording early",
					logging.RecordingFields(s.buf.PayloadLen(), int(s.duration().Milliseconds()))...)
				s.finishRecording(ctx, true)
				return
			}
			logging.Errorw("capture failed, discarding recording", "err", err)
			s.state = StateIdle
		}
	}
}

func (s *Session) duration() time.Duration {
	return s.format.Duration(s.buf.PayloadLen())
}

// finishRecording closes the open recording and, when it is long enough,
// runs the full send/receive/play sequence before returning to idle.
func (s *Session) finishRecording(ctx context.Context, truncated bool) {
	dur := s.duration()
	logging.Infow("recording stopped",
		append(logging.RecordingFields(s.buf.PayloadLen(), int(dur.Milliseconds())), "truncated", truncated)...)

	if dur <= s.minSend {
		s.metrics.RecordingsDiscarded.Inc()
		logging.Infow("recording too short, discarding", "duration_ms", dur.Milliseconds())
		s.state = StateIdle
		return
	}

	if err := s.buf.Finalize(s.format); err != nil {
		logging.Errorw("header finalize failed", "err", err)
		s.state = StateIdle
		return
	}
	s.metrics.RecordingSeconds.Observe(dur.Seconds())

	s.state = StateSending
	s.metrics.ExchangeRequests.Inc()
	res, err := s.exchange.Do(ctx, s.buf)
	if err != nil {
		s.metrics.ExchangeFailures.WithLabelValues(failureReason(err)).Inc()
		logging.Warnw("exchange failed", "err", err)
		s.state = StateIdle
		return
	}

	if res.Class == transport.ClassText {
		s.metrics.RepliesText.Inc()
		logging.Infow("hub reply", "correlation_id", res.CorrelationID, "text", res.Text)
		s.state = StateIdle
		return
	}

	s.metrics.RepliesAudio.Inc()
	s.state = StatePlaying
	s.playReply(res)
	s.state = StateIdle
}

// playReply validates the received container against the device's fixed
// output format and plays it. A mismatched reply is skipped rather than
// mis-played at the wrong rate.
func (s *Session) playReply(res *transport.Result) {
	f, _, err := audio.DecodeHeader(s.buf.Bytes())
	if err != nil {
		logging.Warnw("reply container malformed, skipping playback",
			"correlation_id", res.CorrelationID, "err", err)
		return
	}
	if f != s.format {
		logging.Warnw("reply format mismatches output configuration, skipping playback",
			"correlation_id", res.CorrelationID,
			"reply_rate", f.SampleRate, "reply_bits", f.BitsPerSample, "reply_channels", f.Channels,
			"device_rate", s.format.SampleRate)
		return
	}
	d, err := s.playback.Play(s.buf, res.Total)
	if err != nil {
		logging.Errorw("playback failed", "correlation_id", res.CorrelationID, "err", err)
		return
	}
	s.metrics.PlaybackSeconds.Observe(d.Seconds())
}

func failureReason(err error) string {
	var se *transport.StatusError
	switch {
	case errors.Is(err, transport.ErrNetworkUnavailable):
		return "network_unavailable"
	case errors.Is(err, transport.ErrReplyTooLarge):
		return "reply_too_large"
	case errors.As(err, &se):
		return "status"
	default:
		return "transport"
	}
}
