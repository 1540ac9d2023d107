// Package transport carries one recording to the processing hub and
// classifies whatever comes back.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voice-satellite-lab/internal/audio"
	"github.com/voice-satellite-lab/internal/device"
	"github.com/voice-satellite-lab/internal/logging"
)

var (
	// ErrNetworkUnavailable is reported when the hub is not reachable; the
	// exchange is skipped entirely.
	ErrNetworkUnavailable = errors.New("transport: network unavailable")

	// ErrReplyTooLarge is reported when an audio reply declares more bytes
	// than the sample buffer can hold. The buffer is left untouched.
	ErrReplyTooLarge = errors.New("transport: reply exceeds buffer capacity")
)

// StatusError reports a non-success HTTP status from the hub.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("transport: hub returned status %d", e.Code)
}

// Classification is the reply shape of one exchange.
type Classification int

const (
	// ClassText replies carry a character payload surfaced verbatim.
	ClassText Classification = iota
	// ClassAudio replies carry a container streamed back into the buffer.
	ClassAudio
)

// Result describes one completed exchange. For ClassAudio, Total is the
// container length now occupying the buffer; for ClassText, Text holds the
// reply body.
type Result struct {
	Class         Classification
	Text          string
	Total         int
	CorrelationID string
}

// Exchange posts recordings to the hub. At most one exchange is in flight;
// the single-threaded session guarantees that.
type Exchange struct {
	url         string
	client      *http.Client
	net         device.Network
	timeout     time.Duration
	idleBackoff time.Duration
}

// New returns an exchange targeting url with the given per-exchange bound.
func New(url string, timeout time.Duration, net device.Network) *Exchange {
	return &Exchange{
		url:         url,
		client:      &http.Client{},
		net:         net,
		timeout:     timeout,
		idleBackoff: time.Millisecond,
	}
}

// Do sends the buffer contents as one request and classifies the reply.
// Audio replies fully replace the buffer contents; the text path never
// writes into the buffer. No retries: any failure surfaces to the caller
// and the session returns to idle.
func (e *Exchange) Do(ctx context.Context, buf *audio.Buffer) (*Result, error) {
	if e.net != nil && !e.net.IsUp() {
		return nil, ErrNetworkUnavailable
	}

	cid := uuid.NewString()
	body := buf.Bytes()

	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Content-Type", audio.MIMEType)
	req.Header.Set("X-Correlation-ID", cid)

	logging.Debugw("sending recording to hub", logging.ExchangeFields(cid, len(body))...)
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	declared := int(resp.ContentLength)

	if strings.HasPrefix(contentType, audio.MIMEType) && declared > audio.HeaderSize {
		if declared > buf.Cap() {
			return nil, ErrReplyTooLarge
		}
		if err := e.receiveAudio(resp.Body, buf, declared); err != nil {
			return nil, err
		}
		logging.Debugw("audio reply received", logging.ExchangeFields(cid, declared)...)
		return &Result{Class: ClassAudio, Total: declared, CorrelationID: cid}, nil
	}

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transport: read text reply: %w", err)
	}
	return &Result{Class: ClassText, Text: string(text), CorrelationID: cid}, nil
}

// receiveAudio streams exactly declared bytes of the reply into the buffer
// from offset 0, in whatever chunk sizes the transport yields, backing off
// briefly when no bytes are currently available.
func (e *Exchange) receiveAudio(r io.Reader, buf *audio.Buffer, declared int) error {
	storage := buf.Storage()
	received := 0
	for received < declared {
		n, err := r.Read(storage[received:declared])
		received += n
		if err != nil {
			if err == io.EOF && received == declared {
				break
			}
			return fmt.Errorf("transport: reply body ended after %d of %d bytes: %w", received, declared, err)
		}
		if n == 0 {
			time.Sleep(e.idleBackoff)
		}
	}
	return buf.SetLen(declared)
}
