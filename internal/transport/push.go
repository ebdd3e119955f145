package transport

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jo-hoe/pixelframe/internal/dither"
)

const (
	defaultPushTimeout = 30 * time.Second
	retryBackoff       = 2 * time.Second
)

// PushError distinguishes a timeout from a fatal HTTP status, both of
// which abort the scheduler tick per §7 TransportError taxonomy.
type PushError struct {
	Timeout    bool
	StatusCode int
	Err        error
}

func (e *PushError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("transport: push timeout: %v", e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport: device returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("transport: push failed: %v", e.Err)
}

func (e *PushError) Unwrap() error { return e.Err }

// Pusher posts encoded device frames to their configured endpoint, with one
// retry on a transport-level error (not on a 4xx/5xx, which is fatal for
// the tick per §4.8).
type Pusher struct {
	http    *http.Client
	timeout time.Duration
	backoff time.Duration
}

// NewPusher builds a pusher with the default ≥30s timeout.
func NewPusher() *Pusher {
	return &Pusher{
		http:    &http.Client{},
		timeout: defaultPushTimeout,
		backoff: retryBackoff,
	}
}

// WithTimeout overrides the per-request timeout (still clamped to the
// spec's 30s floor).
func (p *Pusher) WithTimeout(d time.Duration) *Pusher {
	if d < defaultPushTimeout {
		d = defaultPushTimeout
	}
	p.timeout = d
	return p
}

// Push encodes img as BMP and POSTs it to endpoint. It retries exactly once
// on a transport-level error (connection refused, timeout) with a fixed
// backoff; any HTTP 4xx/5xx response is returned immediately as fatal.
func (p *Pusher) Push(ctx context.Context, endpoint string, img *dither.Indexed) error {
	payload, err := EncodeBMP(img)
	if err != nil {
		return fmt.Errorf("transport: encode: %w", err)
	}

	err = p.attempt(ctx, endpoint, payload)
	if err == nil {
		return nil
	}
	if pushErr, ok := err.(*PushError); ok && pushErr.StatusCode != 0 {
		return err // fatal HTTP status: no retry
	}

	select {
	case <-time.After(p.backoff):
	case <-ctx.Done():
		return ctx.Err()
	}
	return p.attempt(ctx, endpoint, payload)
}

func (p *Pusher) attempt(ctx context.Context, endpoint string, payload []byte) error {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Content-Type", "image/bmp")

	resp, err := p.http.Do(req)
	if err != nil {
		if reqCtx.Err() != nil {
			return &PushError{Timeout: true, Err: err}
		}
		return &PushError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &PushError{StatusCode: resp.StatusCode}
	}
	return nil
}
