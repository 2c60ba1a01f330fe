package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureCtx(buf *bytes.Buffer) context.Context {
	l := zerolog.New(buf)
	return l.WithContext(context.Background())
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestErrorLog_ErrorArgument(t *testing.T) {
	var buf bytes.Buffer
	ErrorLog(captureCtx(&buf), "save settings failed: %v", errors.New("connection reset"))

	line := decodeLine(t, &buf)
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "save settings failed: connection reset", line["message"])
	assert.Equal(t, "connection reset", line["error"])
}

func TestErrorLog_PlainArguments(t *testing.T) {
	var buf bytes.Buffer
	ErrorLog(captureCtx(&buf), "%s %s %d", "GET", "/api/settings", 500)

	line := decodeLine(t, &buf)
	assert.Equal(t, "GET /api/settings 500", line["message"])
	assert.NotContains(t, line, "error")
}

func TestWithLogger_AddsFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(captureCtx(&buf), map[string]interface{}{"request_id": "abc"})
	InfoLog(ctx, "hello %s", "world")

	line := decodeLine(t, &buf)
	assert.Equal(t, "abc", line["request_id"])
	assert.Equal(t, "hello world", line["message"])
}
