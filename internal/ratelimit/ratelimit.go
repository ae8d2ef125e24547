// Package ratelimit throttles data channel transfers to a fixed number of
// bytes per second. It is a thin io.Reader/io.Writer layer over
// golang.org/x/time/rate.
package ratelimit

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// maxChunk bounds a single read or write so that waits stay short and the
// burst of the underlying token bucket is never exceeded.
const maxChunk = 32 * 1024

// Limiter limits the rate of data transfer to a specified bytes per second.
// A single Limiter may be shared by several transfers; they then split the
// budget between them.
type Limiter struct {
	lim *rate.Limiter
}

// New creates a limiter allowing bytesPerSecond with a burst of at most one second
// worth of data. It returns nil (unlimited) for non-positive rates.
func New(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	burst := int(bytesPerSecond)
	if burst > maxChunk {
		burst = maxChunk
	}
	return &Limiter{lim: rate.NewLimiter(rate.Limit(bytesPerSecond), burst)}
}

// chunk returns how many bytes may be moved in one call.
func (l *Limiter) chunk(n int) int {
	if b := l.lim.Burst(); n > b {
		return b
	}
	return n
}

func (l *Limiter) wait(ctx context.Context, n int) error {
	return l.lim.WaitN(ctx, n)
}

type reader struct {
	ctx     context.Context
	r       io.Reader
	limiter *Limiter
}

// NewReader creates a new rate-limited reader. Waiting for tokens stops
// when ctx is done. If limiter is nil, r is returned unchanged.
func NewReader(ctx context.Context, r io.Reader, limiter *Limiter) io.Reader {
	if limiter == nil {
		return r
	}
	return &reader{ctx: ctx, r: r, limiter: limiter}
}

// Read implements io.Reader. Tokens are reserved for the full chunk before
// reading so a slow consumer never builds up credit.
func (r *reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	p = p[:r.limiter.chunk(len(p))]
	if err := r.limiter.wait(r.ctx, len(p)); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

type writer struct {
	ctx     context.Context
	w       io.Writer
	limiter *Limiter
}

// NewWriter creates a new rate-limited writer. If limiter is nil, w is
// returned unchanged.
func NewWriter(ctx context.Context, w io.Writer, limiter *Limiter) io.Writer {
	if limiter == nil {
		return w
	}
	return &writer{ctx: ctx, w: w, limiter: limiter}
}

// Write implements io.Writer, splitting p into chunks no larger than the
// limiter's burst.
func (w *writer) Write(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n := w.limiter.chunk(len(p) - total)
		if err := w.limiter.wait(w.ctx, n); err != nil {
			return total, err
		}
		written, err := w.w.Write(p[total : total+n])
		total += written
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
