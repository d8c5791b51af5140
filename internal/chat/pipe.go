package chat

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// ErrClientGone marks a write or flush toward the caller that failed,
// normally because the caller disconnected.
var ErrClientGone = errors.New("client connection closed")

// ErrReadTimeout is returned when upstream produced nothing for too long.
var ErrReadTimeout = errors.New("upstream read timed out")

const chunkSize = 4 * 1024

// Pipe copies src to dst one read at a time, flushing after each write, so
// every chunk reaches the caller as soon as upstream produces it and the next
// read only starts once the caller has taken the previous chunk. io.EOF ends
// the copy cleanly. Write and flush failures are wrapped in ErrClientGone.
func Pipe(dst io.Writer, flush func() error, src io.Reader) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			w, werr := dst.Write(buf[:n])
			written += int64(w)
			if werr == nil && w < n {
				werr = io.ErrShortWrite
			}
			if werr == nil && flush != nil {
				werr = flush()
			}
			if werr != nil {
				return written, fmt.Errorf("%w: %w", ErrClientGone, werr)
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return written, nil
			}
			return written, rerr
		}
	}
}

// idleTimeoutReader calls onTimeout when a single Read blocks longer than
// timeout. onTimeout is expected to cancel the request so the Read returns.
// Each Read arms its own timer; a timer that fires after its Read has
// returned is ignored, so a healthy upstream is never cancelled.
type idleTimeoutReader struct {
	r         io.Reader
	timeout   time.Duration
	onTimeout func()

	mu       sync.Mutex
	seq      uint64
	reading  bool
	timedOut bool
}

func newIdleTimeoutReader(r io.Reader, timeout time.Duration, onTimeout func()) io.Reader {
	if timeout <= 0 {
		return r
	}
	return &idleTimeoutReader{r: r, timeout: timeout, onTimeout: onTimeout}
}

func (ir *idleTimeoutReader) Read(p []byte) (int, error) {
	ir.mu.Lock()
	if ir.timedOut {
		ir.mu.Unlock()
		return 0, ir.timeoutErr()
	}
	ir.seq++
	seq := ir.seq
	ir.reading = true
	ir.mu.Unlock()

	timer := time.AfterFunc(ir.timeout, func() { ir.expire(seq) })
	n, err := ir.r.Read(p)
	timer.Stop()

	ir.mu.Lock()
	ir.reading = false
	timedOut := ir.timedOut
	ir.mu.Unlock()

	if err != nil && timedOut {
		return n, ir.timeoutErr()
	}
	return n, err
}

// expire cancels upstream only if Read number seq is still blocked.
func (ir *idleTimeoutReader) expire(seq uint64) {
	ir.mu.Lock()
	if !ir.reading || ir.seq != seq || ir.timedOut {
		ir.mu.Unlock()
		return
	}
	ir.timedOut = true
	ir.mu.Unlock()
	ir.onTimeout()
}

func (ir *idleTimeoutReader) timeoutErr() error {
	return fmt.Errorf("%w after %s", ErrReadTimeout, ir.timeout)
}
