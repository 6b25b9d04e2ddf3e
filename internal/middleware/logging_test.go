package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	var buf bytes.Buffer
	Logger = slog.New(&ctxHandler{slog.NewJSONHandler(&buf, nil)})
	return &buf
}

func TestCtxHandler_AddsContextAttributes(t *testing.T) {
	buf := captureLogger(t)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = WithUserID(ctx, 7)
	ctx = context.WithValue(ctx, TraceIDKey, "trace-1")
	Logger.With("component", "test").InfoContext(ctx, "hello")

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"user_id":7`)
	assert.Contains(t, out, `"trace_id":"trace-1"`)
	assert.Contains(t, out, `"component":"test"`)
}

func TestStructuredLogger_LogsRequest(t *testing.T) {
	buf := captureLogger(t)

	app := fiber.New()
	app.Use(requestid.New())
	app.Use(ContextMiddleware())
	app.Use(StructuredLogger())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	out := buf.String()
	assert.Contains(t, out, `"msg":"request processed"`)
	assert.Contains(t, out, `"path":"/ping"`)
	assert.Contains(t, out, `"request_id":"`+resp.Header.Get("X-Request-ID")+`"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestMetricsMiddleware_SkipsProbes(t *testing.T) {
	prom := InitMetrics("socialnest-test")
	assert.Same(t, prom, InitMetrics("socialnest-test"))

	app := fiber.New()
	app.Use(MetricsMiddleware(prom))
	app.Get("/health/live", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
