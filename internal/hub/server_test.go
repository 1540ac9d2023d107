package hub

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voice-satellite-lab/internal/audio"
	"github.com/voice-satellite-lab/internal/config"
)

func hubConfig(sttURL string) config.HubConfig {
	return config.HubConfig{
		ListenAddr:        ":8000",
		STTURL:            sttURL,
		STTTimeoutSeconds: 5,
		STTMaxRetries:     1,
	}
}

func validContainer(t *testing.T, payloadBytes int) []byte {
	t.Helper()
	f := audio.Format{SampleRate: 16000, Channels: 1, BitsPerSample: 16}
	body := make([]byte, audio.HeaderSize+payloadBytes)
	if err := audio.EncodeHeader(body[:audio.HeaderSize], f, uint32(payloadBytes)); err != nil {
		t.Fatalf("EncodeHeader: %v", err)
	}
	for i := audio.HeaderSize; i < len(body); i++ {
		body[i] = byte(i)
	}
	return body
}

func TestVoiceEchoesContainer(t *testing.T) {
	s := New(hubConfig(""))
	if got := s.Mode(); got != "echo" {
		t.Fatalf("mode: want=echo got=%q", got)
	}

	body := validContainer(t, 2048)
	req := httptest.NewRequest(http.MethodPost, "/api/voice", bytes.NewReader(body))
	req.Header.Set("Content-Type", audio.MIMEType)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != audio.MIMEType {
		t.Fatalf("reply content type: want=%q got=%q", audio.MIMEType, got)
	}
	if !bytes.Equal(rec.Body.Bytes(), body) {
		t.Fatal("echoed container differs from the received one")
	}
}

func TestVoiceRejectsUndersizedBody(t *testing.T) {
	s := New(hubConfig(""))
	req := httptest.NewRequest(http.MethodPost, "/api/voice", bytes.NewReader(make([]byte, audio.HeaderSize-1)))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
	var out map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if out["error"] != "audio too small" {
		t.Fatalf("error message: want=%q got=%v", "audio too small", out["error"])
	}
}

func TestVoiceRejectsNonPost(t *testing.T) {
	s := New(hubConfig(""))
	req := httptest.NewRequest(http.MethodGet, "/api/voice", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status: want=405 got=%d", rec.Code)
	}
}

func TestVoiceTranscribesViaSTT(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" hello world "}`))
	}))
	defer upstream.Close()

	s := New(hubConfig(upstream.URL))
	if got := s.Mode(); got != "stt" {
		t.Fatalf("mode: want=stt got=%q", got)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/voice", bytes.NewReader(validContainer(t, 1024)))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
	var out map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if out["transcript"] != "hello world" {
		t.Fatalf("transcript: want=%q got=%v", "hello world", out["transcript"])
	}
	if out["pipeline"] != "stt" {
		t.Fatalf("pipeline: want=stt got=%v", out["pipeline"])
	}
}

func TestVoiceSurfacesSTTFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	s := New(hubConfig(upstream.URL))
	req := httptest.NewRequest(http.MethodPost, "/api/voice", bytes.NewReader(validContainer(t, 1024)))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status: want=502 got=%d", rec.Code)
	}
}

func TestHealthReportsMode(t *testing.T) {
	s := New(hubConfig(""))
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
	var out map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if out["status"] != "ok" || out["mode"] != "echo" {
		t.Fatalf("health body: got=%v", out)
	}
}

func TestMetricsEndpointServes(t *testing.T) {
	s := New(hubConfig(""))
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
}
