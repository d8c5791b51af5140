package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(Config{
		URL:            url,
		Model:          "test-model",
		Temperature:    0.7,
		TopP:           0.9,
		ReadTimeout:    time.Second,
		ConnectTimeout: time.Second,
	})
}

func TestOpenStreamsReplyVerbatim(t *testing.T) {
	var got CompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "true", r.Header.Get("ngrok-skip-browser-warning"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, line := range []string{`{"message":{"content":"Hel"}}`, `{"message":{"content":"lo"},"done":true}`} {
			_, _ = io.WriteString(w, line+"\n")
			w.(http.Flusher).Flush()
		}
	}))
	defer srv.Close()

	msgs := []Message{{Role: RoleSystem, Content: "ctx"}, {Role: RoleUser, Content: "hi"}}
	stream, err := newTestClient(srv.URL).Open(context.Background(), msgs)
	require.NoError(t, err)
	defer stream.Close()

	var out bytes.Buffer
	_, err = stream.WriteTo(&out, nil)
	require.NoError(t, err)

	assert.Equal(t, "application/x-ndjson", stream.ContentType())
	assert.Equal(t, "{\"message\":{\"content\":\"Hel\"}}\n{\"message\":{\"content\":\"lo\"},\"done\":true}\n", out.String())
	assert.Equal(t, "test-model", got.Model)
	assert.True(t, got.Stream)
	assert.Equal(t, msgs, got.Messages)
	assert.InDelta(t, 0.9, got.Options.TopP, 1e-9)
}

func TestOpenUpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Open(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "model not found")
}

func TestOpenUpstreamUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).Open(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestOpenFailsWhenUpstreamDiesBeforeFirstByte(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Open(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestStreamEndsQuietlyAfterTenBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "0123456789")
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	}))
	defer srv.Close()

	stream, err := newTestClient(srv.URL).Open(context.Background(), nil)
	require.NoError(t, err)
	defer stream.Close()

	var out bytes.Buffer
	n, err := stream.WriteTo(&out, nil)
	assert.Equal(t, int64(10), n)
	assert.Equal(t, "0123456789", out.String())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrClientGone)
}

func TestStreamIdleTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = io.WriteString(w, "first")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	client.cfg.ReadTimeout = 50 * time.Millisecond

	stream, err := client.Open(context.Background(), nil)
	require.NoError(t, err)
	defer stream.Close()

	var out bytes.Buffer
	_, err = stream.WriteTo(&out, nil)
	assert.ErrorIs(t, err, ErrReadTimeout)
	assert.Equal(t, "first", out.String())
}

func TestStreamCloseCancelsUpstream(t *testing.T) {
	cancelled := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = io.WriteString(w, "first")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
		close(cancelled)
	}))
	defer srv.Close()

	stream, err := newTestClient(srv.URL).Open(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, stream.Close())

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("upstream request was not cancelled")
	}
}
