// Package inference talks to the model server that hosts the tokenizer and
// the sequence-classification weights.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"bookgenre/pkg/genre"
)

// StatusError is returned when the model server answers with a non-2xx code.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("model server returned status %d", e.Code)
	}
	return fmt.Sprintf("model server returned status %d: %s", e.Code, e.Body)
}

// Retryable reports whether the request may succeed if sent again.
func (e *StatusError) Retryable() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// Options configures a Client.
type Options struct {
	Endpoint string
	Timeout  time.Duration
	Retry    RetryStrategy
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client implements genre.Classifier against an HTTP model server.
type Client struct {
	endpoint string
	client   *http.Client
	retry    RetryStrategy
	sleep    func(context.Context, time.Duration) error
}

// NewClient creates a model server client.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	retry := opts.Retry
	if retry == nil {
		retry = &ExponentialBackoff{}
	}
	return &Client{endpoint: opts.Endpoint, client: hc, retry: retry, sleep: sleepCtx}
}

type predictRequest struct {
	Inputs     string                `json:"inputs"`
	Parameters genre.TokenizerConfig `json:"parameters"`
}

// Logits sends text to the model server and returns the logits of its single
// sequence. Server errors and transport failures are retried; client errors are not.
func (c *Client) Logits(ctx context.Context, text string, tok genre.TokenizerConfig) ([]float64, error) {
	body, err := json.Marshal(predictRequest{Inputs: text, Parameters: tok})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model request: %w", err)
	}

	for attempt := 0; ; attempt++ {
		logits, err := c.do(ctx, body)
		if err == nil {
			return logits, nil
		}
		if !retryable(err) || ctx.Err() != nil {
			return nil, err
		}
		backoff := c.retry.NextBackoff(attempt)
		if backoff < 0 {
			return nil, fmt.Errorf("giving up after %d attempts: %w", attempt+1, err)
		}
		log.WithError(err).WithFields(log.Fields{
			"attempt":    attempt + 1,
			"backoff_ms": backoff,
		}).Warn("Model server request failed, retrying")
		if err := c.sleep(ctx, time.Duration(backoff)*time.Millisecond); err != nil {
			return nil, err
		}
	}
}

func (c *Client) do(ctx context.Context, body []byte) ([]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create model request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &transportError{err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
	}
	return ParseLogits(raw)
}

// ParseLogits accepts {"logits": [[...]]}, {"logits": [...]}, a bare [[...]]
// or a bare [...] and returns the logits of the first sequence.
func ParseLogits(raw []byte) ([]float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var wrapped struct {
			Logits json.RawMessage `json:"logits"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("failed to decode model response: %w", err)
		}
		if len(wrapped.Logits) == 0 {
			return nil, errors.New("model response has no logits")
		}
		raw = wrapped.Logits
	}

	var batch [][]float64
	if err := json.Unmarshal(raw, &batch); err == nil {
		if len(batch) == 0 {
			return nil, nil
		}
		return batch[0], nil
	}
	var single []float64
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("failed to decode model logits: %w", err)
	}
	return single, nil
}

type transportError struct{ err error }

func (e *transportError) Error() string { return "model server request failed: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	var te *transportError
	return errors.As(err, &te)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ genre.Classifier = (*Client)(nil)
