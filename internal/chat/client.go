package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// ErrUpstream wraps every failure to obtain a stream from the chat backend.
var ErrUpstream = errors.New("chat upstream unavailable")

const (
	defaultContentType = "text/event-stream"
	errorBodyLimit     = 512
)

// Config describes the upstream chat completion endpoint.
type Config struct {
	URL            string
	Model          string
	Temperature    float64
	TopP           float64
	ReadTimeout    time.Duration
	ConnectTimeout time.Duration
}

// Options are the sampling parameters sent upstream.
type Options struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

// CompletionRequest is the upstream request body.
type CompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  Options   `json:"options"`
}

// Client opens streamed chat completions. It makes exactly one attempt per
// call.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a client with dial and response-header timeouts. There is
// no overall timeout since replies stream for as long as the model talks.
func NewClient(cfg Config) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.ConnectTimeout > 0 {
		transport.DialContext = (&net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: 30 * time.Second}).DialContext
		transport.ResponseHeaderTimeout = cfg.ConnectTimeout
	}
	return &Client{cfg: cfg, http: &http.Client{Transport: transport}}
}

// Open posts the conversation and waits for the first chunk of the reply, so
// that every failure up to that point can still be reported as an error.
// The returned stream must be closed; cancelling ctx aborts it.
func (c *Client) Open(ctx context.Context, messages []Message) (*Stream, error) {
	body, err := json.Marshal(CompletionRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   true,
		Options:  Options{Temperature: c.cfg.Temperature, TopP: c.cfg.TopP},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: build request: %w", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("ngrok-skip-browser-warning", "true")

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	stream := &Stream{
		contentType: resp.Header.Get("Content-Type"),
		body:        resp.Body,
		reader:      newIdleTimeoutReader(resp.Body, c.cfg.ReadTimeout, cancel),
		cancel:      cancel,
	}
	if err := stream.prime(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return stream, nil
}

// Stream is an open upstream reply whose first chunk has been read.
type Stream struct {
	contentType string
	first       []byte
	done        bool
	body        io.Closer
	reader      io.Reader
	cancel      context.CancelFunc
}

func (s *Stream) prime() error {
	buf := make([]byte, chunkSize)
	for {
		n, err := s.reader.Read(buf)
		if n > 0 {
			s.first = buf[:n]
			return nil
		}
		if errors.Is(err, io.EOF) {
			s.done = true
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// ContentType returns the upstream content type, defaulting to an event
// stream.
func (s *Stream) ContentType() string {
	if s.contentType == "" {
		return defaultContentType
	}
	return s.contentType
}

// WriteTo forwards the reply verbatim to w, flushing after every chunk. A
// failed flush means the caller is gone and stops the upstream read.
func (s *Stream) WriteTo(w io.Writer, flush func() error) (int64, error) {
	var written int64
	if len(s.first) > 0 {
		n, err := w.Write(s.first)
		written += int64(n)
		if err == nil && flush != nil {
			err = flush()
		}
		if err != nil {
			return written, fmt.Errorf("%w: %w", ErrClientGone, err)
		}
	}
	if s.done {
		return written, nil
	}
	n, err := Pipe(w, flush, s.reader)
	return written + n, err
}

// Close cancels the upstream request and releases the connection.
func (s *Stream) Close() error {
	s.cancel()
	return s.body.Close()
}
