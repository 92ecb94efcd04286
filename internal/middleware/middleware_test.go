package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/tofscope/tofscope/internal/pkg/errors"
)

func decodeError(t *testing.T, body io.Reader) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "not found",
			err:        apperrors.NotFound("run"),
			wantStatus: 404,
			wantCode:   apperrors.CodeNotFound,
			wantMsg:    "run not found",
		},
		{
			name:       "undefined momentum",
			err:        fmt.Errorf("event 3: %w", apperrors.UndefinedMomentum("superluminal")),
			wantStatus: 422,
			wantCode:   apperrors.CodeUndefinedMomentum,
			wantMsg:    "momentum is undefined",
		},
		{
			name:       "fiber error",
			err:        fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded"),
			wantStatus: 429,
			wantCode:   "RATE_LIMITED",
			wantMsg:    "rate limit exceeded",
		},
		{
			name:       "internal message is hidden",
			err:        errors.New("pq: connection refused"),
			wantStatus: 500,
			wantCode:   apperrors.CodeInternal,
			wantMsg:    "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop(), false)})
			app.Use(RequestID())
			app.Get("/test", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decodeError(t, resp.Body)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantMsg, body.Error.Message)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestErrorHandler_Details(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop(), false)})
	app.Get("/test", func(c *fiber.Ctx) error {
		return apperrors.UndefinedMomentum("zero_time_of_flight")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)

	body := decodeError(t, resp.Body)
	assert.Equal(t, "zero_time_of_flight", body.Error.Details["reason"])
}

func TestRecoverWithSentry(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	app := fiber.New()
	app.Use(RequestID())
	app.Use(RecoverWithSentry(zap.New(core), false))
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("accumulator corrupted")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/panic", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)

	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	entry := logs.FilterMessage("panic recovered").All()[0]
	assert.Equal(t, "accumulator corrupted", entry.ContextMap()["error"])
}

func TestInitSentry_Disabled(t *testing.T) {
	enabled, err := InitSentry(SentryConfig{})
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestLoggerMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	app := fiber.New()
	app.Use(RequestID())
	app.Use(NewLoggerMiddleware(DefaultLoggerConfig(zap.New(core))).Handler())
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendStatus(200) })
	app.Get("/api/v1/runs/:id", func(c *fiber.Ctx) error { return c.SendStatus(404) })

	_, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Zero(t, logs.Len(), "health checks are not logged")

	_, err = app.Test(httptest.NewRequest("GET", "/api/v1/runs/abc", nil))
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())

	entry := logs.All()[0]
	assert.Equal(t, zap.WarnLevel, entry.Level)
	assert.Equal(t, "abc", entry.ContextMap()["run_id"])
	assert.Equal(t, int64(404), entry.ContextMap()["status"])
}

func TestMetricsMiddleware_RoutePath(t *testing.T) {
	var label string
	app := fiber.New()
	m := NewMetricsMiddleware(MetricsConfig{
		PathLabel: func(c *fiber.Ctx) string {
			label = RoutePath(c)
			return label
		},
	})
	app.Use(m.Handler())
	app.Post("/api/v1/runs/:id/events", func(c *fiber.Ctx) error { return c.SendStatus(201) })

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/runs/1234/events", nil))
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "/api/v1/runs/:id/events", label)
}

func TestCORSMiddleware(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://dashboard.example.org", "*.lab.example.org"}

	app := fiber.New()
	app.Use(NewCORSMiddleware(cfg).Handler())
	app.Get("/test", func(c *fiber.Ctx) error { return c.SendStatus(200) })

	tests := []struct {
		origin string
		want   string
	}{
		{"https://dashboard.example.org", "https://dashboard.example.org"},
		{"https://tracker.lab.example.org", "https://tracker.lab.example.org"},
		{"https://evil.example.com", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Origin", tt.origin)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tt.want, resp.Header.Get("Access-Control-Allow-Origin"), tt.origin)
	}

	req := httptest.NewRequest("OPTIONS", "/test", nil)
	req.Header.Set("Origin", "https://dashboard.example.org")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)
	assert.Equal(t, "86400", resp.Header.Get("Access-Control-Max-Age"))
}

func TestRateLimitMiddleware(t *testing.T) {
	host := os.Getenv("REDIS_TEST_HOST")
	if host == "" {
		t.Skip("REDIS_TEST_HOST not set")
	}

	client := redis.NewClient(&redis.Options{Addr: host + ":6379"})
	defer client.Close()

	runID := fmt.Sprintf("ratelimit-test-%d", time.Now().UnixNano())
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop(), false)})
	limiter := NewRateLimitMiddleware(client, zap.NewNop(), RateLimitConfig{Max: 2, Window: time.Minute})
	app.Post("/runs/:id/events", limiter.Handler(), func(c *fiber.Ctx) error { return c.SendStatus(201) })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/runs/"+runID+"/events", nil))
		require.NoError(t, err)
		assert.Equal(t, 201, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("POST", "/runs/"+runID+"/events", nil))
	require.NoError(t, err)
	assert.Equal(t, 429, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
}
