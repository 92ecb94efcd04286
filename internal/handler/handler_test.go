package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/domain"
	"github.com/tofscope/tofscope/internal/geometry"
	"github.com/tofscope/tofscope/internal/middleware"
	"github.com/tofscope/tofscope/internal/physics"
	"github.com/tofscope/tofscope/internal/repository/memory"
	"github.com/tofscope/tofscope/internal/run"
	"github.com/tofscope/tofscope/internal/service"
	"github.com/tofscope/tofscope/internal/testutil"
	"github.com/tofscope/tofscope/internal/worker"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: fmt.Sprintf("%s-%d", task.Type(), len(f.tasks))}, nil
}

type testEnv struct {
	app      *fiber.App
	runs     *service.RunService
	recorder *testutil.MomentumRecorder
	registry *run.Registry
	enqueuer *fakeEnqueuer
}

type envOption func(*service.RunServiceConfig, *EventsHandlerConfig)

func withQueue(e *fakeEnqueuer) envOption {
	return func(_ *service.RunServiceConfig, ec *EventsHandlerConfig) { ec.Enqueuer = e }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	det, err := geometry.NewBuilder(geometry.DefaultDetectorParams(), zap.NewNop()).Build()
	require.NoError(t, err)

	logger := zap.NewNop()
	registry := run.NewRegistry()
	recorder := &testutil.MomentumRecorder{}

	var rc service.RunServiceConfig
	var ec EventsHandlerConfig
	for _, opt := range opts {
		opt(&rc, &ec)
	}
	rc.Detector = det

	runs := service.NewRunService(logger, memory.NewRunRepository(), registry, rc)
	events := service.NewEventService(logger, physics.DefaultConstants(), recorder, registry, service.WithDetector(det))

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger, false)})
	api := app.Group("/api/v1")

	var enq worker.Enqueuer
	fe, _ := ec.Enqueuer.(*fakeEnqueuer)
	if fe != nil {
		enq = fe
	}
	NewRunsHandler(runs, enq, logger).RegisterRoutes(api)
	NewEventsHandler(events, runs, logger, ec).RegisterRoutes(api)
	NewGeometryHandler(det).RegisterRoutes(api)

	return &testEnv{app: app, runs: runs, recorder: recorder, registry: registry, enqueuer: fe}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) createRun(t *testing.T) *domain.Run {
	t.Helper()
	r, err := e.runs.Create(context.Background(), &domain.RunInput{Name: "handler-test"})
	require.NoError(t, err)
	return r
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}
