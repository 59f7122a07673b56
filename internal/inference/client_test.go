package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookgenre/pkg/genre"
)

func noSleep(context.Context, time.Duration) error { return nil }

func newTestClient(url string, retries int) *Client {
	c := NewClient(Options{
		Endpoint: url,
		Timeout:  time.Second,
		Retry:    &ExponentialBackoff{MaxRetries: retries, BaseDelayMs: 10},
	})
	c.sleep = noSleep
	return c
}

func TestLogitsSendsTokenizerSettings(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"logits": [[0.1, 2.5, -1.0]]}`))
	}))
	defer srv.Close()

	logits, err := newTestClient(srv.URL, 0).Logits(context.Background(), "Dune by Frank Herbert: desert", genre.DefaultTokenizer())
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 2.5, -1.0}, logits)

	assert.Equal(t, "Dune by Frank Herbert: desert", got["inputs"])
	assert.Equal(t, map[string]any{
		"max_length": float64(256),
		"truncation": true,
		"padding":    "max_length",
	}, got["parameters"])
}

func TestLogitsRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[1, 2]`))
	}))
	defer srv.Close()

	logits, err := newTestClient(srv.URL, 2).Logits(context.Background(), "x", genre.DefaultTokenizer())
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, logits)
	assert.EqualValues(t, 3, calls.Load())
}

func TestLogitsGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2).Logits(context.Background(), "x", genre.DefaultTokenizer())
	require.Error(t, err)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.EqualValues(t, 3, calls.Load())
}

func TestLogitsDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad input", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).Logits(context.Background(), "x", genre.DefaultTokenizer())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "bad input", se.Body)
	assert.EqualValues(t, 1, calls.Load())
}

func TestLogitsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url, 1).Logits(context.Background(), "x", genre.DefaultTokenizer())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "giving up after 2 attempts")
}

func TestParseLogits(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []float64
		wantErr bool
	}{
		{name: "wrapped batch", raw: `{"logits": [[1.5, -2]]}`, want: []float64{1.5, -2}},
		{name: "wrapped single", raw: `{"logits": [3, 4]}`, want: []float64{3, 4}},
		{name: "bare batch", raw: `[[0.5, 0.25]]`, want: []float64{0.5, 0.25}},
		{name: "bare single", raw: ` [7] `, want: []float64{7}},
		{name: "empty batch", raw: `[]`, want: nil},
		{name: "missing logits", raw: `{"scores": [1]}`, wantErr: true},
		{name: "garbage", raw: `"hello"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLogits([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExponentialBackoff(t *testing.T) {
	s := &ExponentialBackoff{MaxRetries: 4, BaseDelayMs: 500, MaxDelayMs: 1500}
	assert.Equal(t, int64(500), s.NextBackoff(0))
	assert.Equal(t, int64(1000), s.NextBackoff(1))
	assert.Equal(t, int64(1500), s.NextBackoff(2))
	assert.Equal(t, int64(1500), s.NextBackoff(3))
	assert.Equal(t, int64(-1), s.NextBackoff(4))

	assert.Equal(t, int64(-1), (&ExponentialBackoff{}).NextBackoff(0))
}
