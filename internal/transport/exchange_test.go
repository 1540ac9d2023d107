package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/voice-satellite-lab/internal/audio"
	"github.com/voice-satellite-lab/internal/device"
	"github.com/voice-satellite-lab/internal/device/devicetest"
)

var testFormat = audio.Format{SampleRate: 16000, Channels: 1, BitsPerSample: 16}

// recordingBuffer returns a buffer holding a finalized container with
// payloadBytes of PCM, sized to hold capacity bytes in total.
func recordingBuffer(t *testing.T, payloadBytes, capacity int) *audio.Buffer {
	t.Helper()
	buf, err := audio.NewBuffer(capacity)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	buf.Reset()
	payload := make([]byte, payloadBytes)
	for i := range payload {
		payload[i] = byte(i)
	}
	if err := buf.Append(payload); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := buf.Finalize(testFormat); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return buf
}

func newExchange(url string, net device.Network) *Exchange {
	return New(url, 5*time.Second, net)
}

func TestDoSendsContainerAndClassifiesText(t *testing.T) {
	buf := recordingBuffer(t, 2048, audio.HeaderSize+8192)
	sent := append([]byte(nil), buf.Bytes()...)

	var gotBody []byte
	var gotContentType, gotCorrelationID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotCorrelationID = r.Header.Get("X-Correlation-ID")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("turn on the lights"))
	}))
	defer srv.Close()

	res, err := newExchange(srv.URL, &devicetest.Network{Up: true}).Do(context.Background(), buf)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if res.Class != ClassText {
		t.Fatalf("classification: want=ClassText got=%v", res.Class)
	}
	if res.Text != "turn on the lights" {
		t.Fatalf("reply text: want=%q got=%q", "turn on the lights", res.Text)
	}
	if res.CorrelationID == "" || res.CorrelationID != gotCorrelationID {
		t.Fatalf("correlation id not propagated: result=%q header=%q", res.CorrelationID, gotCorrelationID)
	}
	if gotContentType != audio.MIMEType {
		t.Fatalf("request content type: want=%q got=%q", audio.MIMEType, gotContentType)
	}
	if !bytes.Equal(gotBody, sent) {
		t.Fatalf("request body mismatch: want=%d bytes got=%d bytes", len(sent), len(gotBody))
	}
	// The text path never writes into the buffer.
	if !bytes.Equal(buf.Bytes(), sent) {
		t.Fatal("buffer modified by a text exchange")
	}
}

func TestDoStreamsAudioReplyIntoBuffer(t *testing.T) {
	buf := recordingBuffer(t, 2048, audio.HeaderSize+8192)

	reply := make([]byte, 4000)
	if err := audio.EncodeHeader(reply[:audio.HeaderSize], testFormat, uint32(len(reply)-audio.HeaderSize)); err != nil {
		t.Fatalf("EncodeHeader: %v", err)
	}
	for i := audio.HeaderSize; i < len(reply); i++ {
		reply[i] = byte(i)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", audio.MIMEType)
		w.Header().Set("Content-Length", strconv.Itoa(len(reply)))
		_, _ = w.Write(reply)
	}))
	defer srv.Close()

	res, err := newExchange(srv.URL, &devicetest.Network{Up: true}).Do(context.Background(), buf)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if res.Class != ClassAudio {
		t.Fatalf("classification: want=ClassAudio got=%v", res.Class)
	}
	if res.Total != len(reply) {
		t.Fatalf("reply total: want=%d got=%d", len(reply), res.Total)
	}
	if got := buf.Len(); got != len(reply) {
		t.Fatalf("buffer length after audio reply: want=%d got=%d", len(reply), got)
	}
	if !bytes.Equal(buf.Bytes(), reply) {
		t.Fatal("buffer contents differ from the reply container")
	}
}

func TestDoTreatsHeaderOnlyAudioAsText(t *testing.T) {
	buf := recordingBuffer(t, 2048, audio.HeaderSize+8192)
	sent := append([]byte(nil), buf.Bytes()...)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var hdr [audio.HeaderSize]byte
		_ = audio.EncodeHeader(hdr[:], testFormat, 0)
		w.Header().Set("Content-Type", audio.MIMEType)
		w.Header().Set("Content-Length", strconv.Itoa(len(hdr)))
		_, _ = w.Write(hdr[:])
	}))
	defer srv.Close()

	res, err := newExchange(srv.URL, &devicetest.Network{Up: true}).Do(context.Background(), buf)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if res.Class != ClassText {
		t.Fatalf("classification: want=ClassText got=%v", res.Class)
	}
	if !bytes.Equal(buf.Bytes(), sent) {
		t.Fatal("buffer modified by a header-only reply")
	}
}

func TestDoRejectsOversizedReply(t *testing.T) {
	buf := recordingBuffer(t, 2048, audio.HeaderSize+8192)
	sent := append([]byte(nil), buf.Bytes()...)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", audio.MIMEType)
		w.Header().Set("Content-Length", strconv.Itoa(buf.Cap()+1))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := newExchange(srv.URL, &devicetest.Network{Up: true}).Do(context.Background(), buf)
	if !errors.Is(err, ErrReplyTooLarge) {
		t.Fatalf("Do: want=ErrReplyTooLarge got=%v", err)
	}
	// Rejected before a single byte is written.
	if !bytes.Equal(buf.Bytes(), sent) {
		t.Fatal("buffer modified by a rejected oversized reply")
	}
}

func TestDoSurfacesStatusError(t *testing.T) {
	buf := recordingBuffer(t, 2048, audio.HeaderSize+8192)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newExchange(srv.URL, &devicetest.Network{Up: true}).Do(context.Background(), buf)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Do: want=StatusError got=%v", err)
	}
	if se.Code != http.StatusServiceUnavailable {
		t.Fatalf("status code: want=503 got=%d", se.Code)
	}
}

func TestDoSkipsExchangeWhenNetworkDown(t *testing.T) {
	buf := recordingBuffer(t, 2048, audio.HeaderSize+8192)

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	_, err := newExchange(srv.URL, &devicetest.Network{Up: false}).Do(context.Background(), buf)
	if !errors.Is(err, ErrNetworkUnavailable) {
		t.Fatalf("Do: want=ErrNetworkUnavailable got=%v", err)
	}
	if hits != 0 {
		t.Fatalf("server hits with network down: want=0 got=%d", hits)
	}
}
