// Package config provides the configuration schema and loader for the
// voice satellite daemon and its processing hub.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader]; [Default] returns the built-in
// values matching the reference hardware (16 kHz mono 16-bit, 15 s buffer).
type Config struct {
	Audio     AudioConfig     `yaml:"audio"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
	Playback  PlaybackConfig  `yaml:"playback"`
	Hub       HubConfig       `yaml:"hub"`
}

// AudioConfig fixes the capture and playback sample format. The same format
// is used on both sides; replies that disagree are not played.
type AudioConfig struct {
	SampleRate    int `yaml:"sample_rate"`
	Channels      int `yaml:"channels"`
	BitsPerSample int `yaml:"bits_per_sample"`
}

// BytesPerSecond returns the PCM byte rate of the configured format.
func (a AudioConfig) BytesPerSecond() int {
	return a.SampleRate * a.Channels * a.BitsPerSample / 8
}

// RecordingConfig bounds a single push-to-talk recording.
type RecordingConfig struct {
	// MaxSeconds is the longest recording the buffer can hold. The sample
	// buffer is sized once at startup from this value.
	MaxSeconds int `yaml:"max_seconds"`

	// MinSendMs is the minimum recording duration, in milliseconds, worth
	// sending to the hub. Shorter recordings are discarded silently.
	MinSendMs int `yaml:"min_send_ms"`

	// ChunkBytes is the size of one blocking peripheral read or write.
	ChunkBytes int `yaml:"chunk_bytes"`

	// PollMs is the trigger poll cadence in milliseconds. It doubles as the
	// debounce window: the trigger level is only sampled once per tick.
	PollMs int `yaml:"poll_ms"`
}

// MinSendDuration returns the minimum sendable recording duration.
func (r RecordingConfig) MinSendDuration() time.Duration {
	return time.Duration(r.MinSendMs) * time.Millisecond
}

// PollInterval returns the trigger poll cadence.
func (r RecordingConfig) PollInterval() time.Duration {
	return time.Duration(r.PollMs) * time.Millisecond
}

// TransportConfig describes the exchange with the processing hub.
type TransportConfig struct {
	// ServerURL is the hub endpoint receiving recordings
	// (e.g. http://192.168.1.100:8000/api/voice).
	ServerURL string `yaml:"server_url"`

	// TimeoutSeconds bounds one full request/response exchange.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// MetricsAddr, when non-empty, exposes prometheus metrics on this
	// address (e.g. ":9090").
	MetricsAddr string `yaml:"metrics_addr"`
}

// Timeout returns the exchange deadline.
func (t TransportConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// PlaybackConfig bounds the output side.
type PlaybackConfig struct {
	// ChunkBytes is the size of one blocking write to the output peripheral.
	ChunkBytes int `yaml:"chunk_bytes"`
}

// HubConfig configures the processing hub server.
type HubConfig struct {
	// ListenAddr is the TCP address the hub listens on (e.g. ":8000").
	ListenAddr string `yaml:"listen_addr"`

	// STTURL, when set, forwards received recordings to an external
	// speech-to-text service and replies with the transcript. When empty
	// the hub runs in echo mode and replies with the received audio.
	STTURL string `yaml:"stt_url"`

	// STTTimeoutSeconds bounds one STT request.
	STTTimeoutSeconds int `yaml:"stt_timeout_seconds"`

	// STTMaxRetries is the number of attempts for transient STT failures.
	STTMaxRetries int `yaml:"stt_max_retries"`
}

// STTTimeout returns the STT request deadline.
func (h HubConfig) STTTimeout() time.Duration {
	return time.Duration(h.STTTimeoutSeconds) * time.Second
}

// Default returns the configuration matching the reference hardware setup.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate:    16000,
			Channels:      1,
			BitsPerSample: 16,
		},
		Recording: RecordingConfig{
			MaxSeconds: 15,
			MinSendMs:  300,
			ChunkBytes: 1024,
			PollMs:     10,
		},
		Transport: TransportConfig{
			ServerURL:      "http://localhost:8000/api/voice",
			TimeoutSeconds: 30,
		},
		Playback: PlaybackConfig{
			ChunkBytes: 1024,
		},
		Hub: HubConfig{
			ListenAddr:        ":8000",
			STTTimeoutSeconds: 30,
			STTMaxRetries:     3,
		},
	}
}

// Validate checks that c contains a coherent set of values.
func (c *Config) Validate() error {
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}
	if err := c.Recording.Validate(); err != nil {
		return fmt.Errorf("recording config: %w", err)
	}
	if err := c.Transport.Validate(); err != nil {
		return fmt.Errorf("transport config: %w", err)
	}
	if err := c.Playback.Validate(); err != nil {
		return fmt.Errorf("playback config: %w", err)
	}
	if err := c.Hub.Validate(); err != nil {
		return fmt.Errorf("hub config: %w", err)
	}
	return nil
}

// Validate checks the sample format.
func (a AudioConfig) Validate() error {
	if a.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", a.SampleRate)
	}
	if a.Channels != 1 {
		return fmt.Errorf("channels must be 1 (mono), got %d", a.Channels)
	}
	if a.BitsPerSample != 16 {
		return fmt.Errorf("bits_per_sample must be 16, got %d", a.BitsPerSample)
	}
	return nil
}

// Validate checks the recording bounds.
func (r RecordingConfig) Validate() error {
	if r.MaxSeconds <= 0 {
		return fmt.Errorf("max_seconds must be positive, got %d", r.MaxSeconds)
	}
	if r.MinSendMs < 0 {
		return fmt.Errorf("min_send_ms must not be negative, got %d", r.MinSendMs)
	}
	if r.ChunkBytes <= 0 {
		return fmt.Errorf("chunk_bytes must be positive, got %d", r.ChunkBytes)
	}
	if r.PollMs <= 0 {
		return fmt.Errorf("poll_ms must be positive, got %d", r.PollMs)
	}
	return nil
}

// Validate checks the transport settings.
func (t TransportConfig) Validate() error {
	if t.ServerURL == "" {
		return fmt.Errorf("server_url must not be empty")
	}
	if t.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", t.TimeoutSeconds)
	}
	return nil
}

// Validate checks the playback settings.
func (p PlaybackConfig) Validate() error {
	if p.ChunkBytes <= 0 {
		return fmt.Errorf("chunk_bytes must be positive, got %d", p.ChunkBytes)
	}
	return nil
}

// Validate checks the hub settings.
func (h HubConfig) Validate() error {
	if h.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if h.STTTimeoutSeconds <= 0 {
		return fmt.Errorf("stt_timeout_seconds must be positive, got %d", h.STTTimeoutSeconds)
	}
	if h.STTMaxRetries < 1 {
		return fmt.Errorf("stt_max_retries must be at least 1, got %d", h.STTMaxRetries)
	}
	return nil
}
