package drive

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowReader hands out one chunk per read, sleeping before each.
type slowReader struct {
	chunks []string
	delay  time.Duration
}

func (r *slowReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	time.Sleep(r.delay)
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	return n, nil
}

// stallReader sends one chunk, then blocks until ctx is done.
type stallReader struct {
	ctx  context.Context
	sent bool
}

func (r *stallReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		return copy(p, "x"), nil
	}
	<-r.ctx.Done()
	return 0, r.ctx.Err()
}

func TestTransfer_SlowButSteadyCompletes(t *testing.T) {
	tr := NewTransfer(context.Background(), 100*time.Millisecond)
	defer tr.Stop()

	src := &slowReader{chunks: []string{"aa", "bb", "cc", "dd", "ee"}, delay: 60 * time.Millisecond}
	var dst bytes.Buffer
	n, err := CopyChunks(tr.Context(), &dst, tr.Reader(src), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.Equal(t, "aabbccddee", dst.String())
}

func TestTransfer_StallIsDeadline(t *testing.T) {
	tr := NewTransfer(context.Background(), 50*time.Millisecond)
	defer tr.Stop()

	var dst bytes.Buffer
	_, err := CopyChunks(tr.Context(), &dst, tr.Reader(&stallReader{ctx: tr.Context()}), 1)
	assert.ErrorIs(t, err, ErrIdleTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "x", dst.String())
}

func TestTransfer_NoProgressCancels(t *testing.T) {
	tr := NewTransfer(context.Background(), 20*time.Millisecond)
	defer tr.Stop()

	select {
	case <-tr.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("idle transfer was not cancelled")
	}
	assert.ErrorIs(t, context.Cause(tr.Context()), ErrIdleTimeout)
	assert.ErrorIs(t, tr.Err(context.Canceled), context.DeadlineExceeded)
}

func TestTransfer_StopIsNotIdle(t *testing.T) {
	tr := NewTransfer(context.Background(), time.Hour)
	tr.Stop()

	assert.ErrorIs(t, tr.Context().Err(), context.Canceled)
	assert.ErrorIs(t, tr.Err(context.Canceled), context.Canceled)
	assert.NotErrorIs(t, tr.Err(context.Canceled), context.DeadlineExceeded)
}

func TestTransfer_ZeroIdle(t *testing.T) {
	tr := NewTransfer(context.Background(), 0)
	tr.Touch()

	b, err := io.ReadAll(tr.Reader(strings.NewReader("abc")))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))
	assert.NoError(t, tr.Context().Err())

	tr.Stop()
	assert.Error(t, tr.Context().Err())
}

type closeRecorder struct {
	io.Reader
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestTransfer_ReadCloserStops(t *testing.T) {
	tr := NewTransfer(context.Background(), time.Hour)
	body := &closeRecorder{Reader: strings.NewReader("payload")}

	rc := tr.ReadCloser(body)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(b))

	require.NoError(t, rc.Close())
	assert.True(t, body.closed)
	assert.Error(t, tr.Context().Err())
}
