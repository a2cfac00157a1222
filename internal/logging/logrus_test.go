package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_TextUsesLogrus(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "text", "debug")

	_, ok := log.(*LogrusLogger)
	assert.True(t, ok)

	log.With("module", "files").Warn(context.Background(), "remote delete failed", "drive_id", "abc")

	out := buf.String()
	assert.Contains(t, out, "level=warning")
	assert.Contains(t, out, `msg="remote delete failed"`)
	assert.Contains(t, out, "module=files")
	assert.Contains(t, out, "drive_id=abc")
}

func TestNew_DefaultIsSlogJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "json", "warn")

	_, ok := log.(*SlogLogger)
	assert.True(t, ok)

	log.Info(context.Background(), "hidden")
	log.Error(context.Background(), "shown", "k", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":1`)
}

func TestFields_DanglingKey(t *testing.T) {
	f := fields([]any{"a", 1, "b"})
	assert.Equal(t, 1, f["a"])
	assert.Equal(t, "b", f["!BADKEY"])
}

func TestNop(t *testing.T) {
	var l Logger = Nop{}
	l.With("a", 1).Info(context.Background(), "ignored")
}

func TestLogrusLogger_RequestIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "text", "info")

	log.Info(WithRequestID(context.Background(), "r-7"), "login", "user_id", "u1")

	assert.Contains(t, buf.String(), "request_id=r-7")
	assert.Contains(t, buf.String(), "user_id=u1")
}
