// Package metrics defines prometheus instrumentation for the satellite
// pipeline and the processing hub.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline holds the satellite-side metrics.
type Pipeline struct {
	RecordingsStarted   prometheus.Counter
	RecordingsDiscarded prometheus.Counter
	RecordingsTruncated prometheus.Counter
	RecordingSeconds    prometheus.Histogram

	ExchangeRequests prometheus.Counter
	ExchangeFailures *prometheus.CounterVec
	RepliesAudio     prometheus.Counter
	RepliesText      prometheus.Counter

	PlaybackSeconds prometheus.Histogram
}

// NewPipeline creates and registers the satellite metrics on reg.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	factory := promauto.With(reg)
	return &Pipeline{
		RecordingsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "satellite_recordings_started_total",
			Help: "Recordings opened by a trigger press",
		}),
		RecordingsDiscarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "satellite_recordings_discarded_total",
			Help: "Recordings discarded for falling under the minimum duration",
		}),
		RecordingsTruncated: factory.NewCounter(prometheus.CounterOpts{
			Name: "satellite_recordings_truncated_total",
			Help: "Recordings stopped early because the sample buffer filled",
		}),
		RecordingSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "satellite_recording_duration_seconds",
			Help:    "Duration of recordings handed to the transport exchange",
			Buckets: prometheus.LinearBuckets(0.5, 1.5, 10),
		}),
		ExchangeRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "satellite_exchange_requests_total",
			Help: "Transport exchanges attempted",
		}),
		ExchangeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "satellite_exchange_failures_total",
			Help: "Transport exchanges failed, by reason",
		}, []string{"reason"}),
		RepliesAudio: factory.NewCounter(prometheus.CounterOpts{
			Name: "satellite_replies_audio_total",
			Help: "Exchange replies classified as audio",
		}),
		RepliesText: factory.NewCounter(prometheus.CounterOpts{
			Name: "satellite_replies_text_total",
			Help: "Exchange replies classified as text",
		}),
		PlaybackSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "satellite_playback_duration_seconds",
			Help:    "Duration of audio played back from replies",
			Buckets: prometheus.LinearBuckets(0.5, 1.5, 10),
		}),
	}
}

// Hub holds the processing-hub metrics.
type Hub struct {
	RequestsReceived  prometheus.Counter
	RequestsRejected  prometheus.Counter
	STTRequests       prometheus.Counter
	STTFailures       prometheus.Counter
	EchoReplies       prometheus.Counter
	RequestDurationMs prometheus.Histogram
}

// NewHub creates and registers the hub metrics on reg.
func NewHub(reg prometheus.Registerer) *Hub {
	factory := promauto.With(reg)
	return &Hub{
		RequestsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "hub_voice_requests_total",
			Help: "Voice requests received",
		}),
		RequestsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "hub_voice_rejected_total",
			Help: "Voice requests rejected as malformed",
		}),
		STTRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "hub_stt_requests_total",
			Help: "Requests forwarded to the STT service",
		}),
		STTFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "hub_stt_failures_total",
			Help: "STT forwards that failed after all retries",
		}),
		EchoReplies: factory.NewCounter(prometheus.CounterOpts{
			Name: "hub_echo_replies_total",
			Help: "Replies served in echo mode",
		}),
		RequestDurationMs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hub_voice_request_duration_ms",
			Help:    "Voice request handling time in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}
}
