// Package hub implements the processing endpoint the satellite talks to:
// it accepts one recording per request and replies with either audio (echo
// mode) or text (transcript mode), exercising both reply shapes of the
// exchange protocol.
package hub

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voice-satellite-lab/internal/audio"
	"github.com/voice-satellite-lab/internal/config"
	"github.com/voice-satellite-lab/internal/logging"
	"github.com/voice-satellite-lab/internal/metrics"
)

// Server handles voice requests from satellites.
type Server struct {
	stt      *STTClient
	metrics  *metrics.Hub
	registry *prometheus.Registry
}

// New builds a server from cfg. When cfg.STTURL is set, received audio is
// transcribed and the reply is text; otherwise the hub echoes the received
// container back, which satellites will play.
func New(cfg config.HubConfig) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		metrics:  metrics.NewHub(reg),
		registry: reg,
	}
	if cfg.STTURL != "" {
		s.stt = NewSTTClient(cfg.STTURL, cfg.STTTimeout(), cfg.STTMaxRetries)
	}
	return s
}

// Mode names the active reply pipeline.
func (s *Server) Mode() string {
	if s.stt != nil {
		return "stt"
	}
	return "echo"
}

// Handler returns the hub's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/voice", s.handleVoice)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		s.metrics.RequestDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	}()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.metrics.RequestsReceived.Inc()
	cid := r.Header.Get("X-Correlation-ID")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.metrics.RequestsRejected.Inc()
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "unreadable body"})
		return
	}
	if len(body) < audio.HeaderSize {
		s.metrics.RequestsRejected.Inc()
		logging.Warnw("audio too small", "bytes", len(body), "correlation_id", cid)
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "audio too small"})
		return
	}

	if f, payloadSize, err := audio.DecodeHeader(body); err != nil {
		logging.Warnw("could not parse container header", "err", err, "correlation_id", cid)
	} else {
		logging.Infow("received recording",
			"bytes", len(body), "sample_rate", f.SampleRate, "bits", f.BitsPerSample,
			"channels", f.Channels, "duration_ms", f.Duration(int(payloadSize)).Milliseconds(),
			"correlation_id", cid)
	}

	if s.stt == nil {
		// Echo mode: reply with the received container so the satellite
		// plays the recording back.
		s.metrics.EchoReplies.Inc()
		w.Header().Set("Content-Type", audio.MIMEType)
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	s.metrics.STTRequests.Inc()
	transcript, err := s.stt.Transcribe(r.Context(), body, cid)
	if err != nil {
		s.metrics.STTFailures.Inc()
		logging.Errorw("stt failed", "err", err, "correlation_id", cid)
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{"error": err.Error()})
		return
	}
	logging.Infow("transcript ready", "transcript", transcript, "correlation_id", cid)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transcript":    transcript,
		"pipeline":      s.Mode(),
		"processing_ms": time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"mode":   s.Mode(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
