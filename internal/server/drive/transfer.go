package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// ErrIdleTimeout is the cancel cause of a transfer that made no progress for
// its idle window. It matches context.DeadlineExceeded.
var ErrIdleTimeout = fmt.Errorf("drive transfer stalled: %w", context.DeadlineExceeded)

// Transfer bounds a streaming upload or download by inactivity instead of
// total duration. Its context is cancelled once no bytes moved for the idle
// window; every read that returns data pushes the deadline forward.
type Transfer struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	idle   time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewTransfer starts the idle clock. A non-positive idle only adds
// cancellation. Stop must be called once the transfer is over.
func NewTransfer(parent context.Context, idle time.Duration) *Transfer {
	ctx, cancel := context.WithCancelCause(parent)
	t := &Transfer{ctx: ctx, cancel: cancel, idle: idle}
	if idle > 0 {
		t.timer = time.AfterFunc(idle, func() { cancel(ErrIdleTimeout) })
	}
	return t
}

func (t *Transfer) Context() context.Context { return t.ctx }

// Touch records progress and restarts the idle window.
func (t *Transfer) Touch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer == nil || t.ctx.Err() != nil {
		return
	}
	t.timer.Reset(t.idle)
}

func (t *Transfer) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.mu.Unlock()
	t.cancel(nil)
}

// Err reports err as an idle timeout when the transfer was cut for
// inactivity. Backends often surface that as a plain cancellation.
func (t *Transfer) Err(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(context.Cause(t.ctx), ErrIdleTimeout) && !errors.Is(err, ErrIdleTimeout) {
		return fmt.Errorf("%w: %v", ErrIdleTimeout, err)
	}
	return err
}

// Reader wraps r so that every read returning data counts as progress.
func (t *Transfer) Reader(r io.Reader) io.Reader {
	return &transferReader{t: t, r: r}
}

// ReadCloser is Reader for a response body. Close also stops the transfer.
func (t *Transfer) ReadCloser(rc io.ReadCloser) io.ReadCloser {
	return &transferReadCloser{transferReader: transferReader{t: t, r: rc}, c: rc}
}

type transferReader struct {
	t *Transfer
	r io.Reader
}

func (tr *transferReader) Read(p []byte) (int, error) {
	if err := tr.t.ctx.Err(); err != nil {
		return 0, tr.t.Err(context.Cause(tr.t.ctx))
	}
	n, err := tr.r.Read(p)
	if n > 0 {
		tr.t.Touch()
	}
	if err != nil && !errors.Is(err, io.EOF) {
		err = tr.t.Err(err)
	}
	return n, err
}

type transferReadCloser struct {
	transferReader
	c io.Closer
}

func (tr *transferReadCloser) Close() error {
	defer tr.t.Stop()
	return tr.c.Close()
}
