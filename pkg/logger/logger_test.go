package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func Test_ContextHandler_AddsRequestID(t *testing.T) {
	// given
	var buf bytes.Buffer
	log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil))).With("component", "rest")
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	// when
	log.InfoContext(ctx, "hello")
	// then
	record := decode(t, &buf)
	assert.Equal(t, "req-42", record["request_id"])
	assert.Equal(t, "rest", record["component"])
	assert.NotContains(t, record, "trace_id")
}

func Test_ContextHandler_WithoutContextValues(t *testing.T) {
	// given
	var buf bytes.Buffer
	log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil))).WithGroup("g")
	// when
	log.Info("plain", "k", "v")
	// then
	record := decode(t, &buf)
	assert.NotContains(t, record, "request_id")
	assert.Equal(t, map[string]any{"k": "v"}, record["g"])
}
