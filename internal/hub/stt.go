package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/voice-satellite-lab/internal/audio"
	"github.com/voice-satellite-lab/internal/logging"
)

// STTClient forwards received containers to an external speech-to-text
// service. Transient failures are retried with exponential backoff; the
// satellite itself never retries, so the hub absorbs flakiness here.
type STTClient struct {
	url        string
	client     *http.Client
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
}

// NewSTTClient returns a client for the given endpoint.
func NewSTTClient(url string, timeout time.Duration, maxRetries int) *STTClient {
	return &STTClient{
		url:        url,
		client:     &http.Client{},
		timeout:    timeout,
		maxRetries: maxRetries,
		backoff:    time.Second,
	}
}

// Transcribe posts wav to the STT service and returns the transcript from
// the JSON "text" field of the reply.
func (c *STTClient) Transcribe(ctx context.Context, wav []byte, correlationID string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(c.backoff * time.Duration(1<<(attempt-1)))
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.url, bytes.NewReader(wav))
		if err != nil {
			cancel()
			return "", fmt.Errorf("hub: build stt request: %w", err)
		}
		req.Header.Set("Content-Type", audio.MIMEType)
		if correlationID != "" {
			req.Header.Set("X-Correlation-ID", correlationID)
		}

		resp, err := c.client.Do(req)
		cancel()
		if err != nil {
			lastErr = err
			logging.Warnw("stt request failed", "err", err, "attempt", attempt, "correlation_id", correlationID)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("hub: stt server status %d", resp.StatusCode)
			logging.Warnw("stt server error", "status", resp.StatusCode, "attempt", attempt, "correlation_id", correlationID)
			continue
		}
		if resp.StatusCode >= 300 {
			resp.Body.Close()
			return "", fmt.Errorf("hub: stt returned status %d", resp.StatusCode)
		}

		var out map[string]interface{}
		err = json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("hub: decode stt reply: %w", err)
		}
		text, _ := out["text"].(string)
		return strings.TrimSpace(text), nil
	}
	return "", fmt.Errorf("hub: stt failed after %d attempts: %w", c.maxRetries, lastErr)
}
