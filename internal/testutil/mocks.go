// Package testutil provides shared test doubles and fixtures.
package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/mock"

	"github.com/tofscope/tofscope/internal/domain"
)

// MomentumRecorder is an in-memory momentum log
type MomentumRecorder struct {
	mu     sync.Mutex
	values []float64
	Err    error
}

// Append records the value unless Err is set
func (r *MomentumRecorder) Append(ctx context.Context, momentum float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.values = append(r.values, momentum)
	return nil
}

// Values returns a copy of the recorded values
func (r *MomentumRecorder) Values() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(r.values))
	copy(out, r.values)
	return out
}

// MockEventRepository mocks event summary storage
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, e *domain.EventSummary) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEventRepository) CreateBatch(ctx context.Context, events []*domain.EventSummary) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *MockEventRepository) ListByRun(ctx context.Context, runID uuid.UUID, limit, offset int) ([]domain.EventSummary, error) {
	args := m.Called(ctx, runID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EventSummary), args.Error(1)
}

func (m *MockEventRepository) MomentumStats(ctx context.Context, runID uuid.UUID) (*domain.MomentumStats, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MomentumStats), args.Error(1)
}

// MockRunRepository mocks run storage
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) Create(ctx context.Context, run *domain.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Run), args.Error(1)
}

func (m *MockRunRepository) List(ctx context.Context, limit, offset int) ([]domain.Run, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Run), args.Error(1)
}

func (m *MockRunRepository) Finish(ctx context.Context, id uuid.UUID, status domain.RunStatus, stats domain.RunStats, message string) (*domain.Run, error) {
	args := m.Called(ctx, id, status, stats, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Run), args.Error(1)
}

// MockDetectorRepository mocks detector snapshot storage
type MockDetectorRepository struct {
	mock.Mock
}

func (m *MockDetectorRepository) Save(ctx context.Context, snap *domain.DetectorSnapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

func (m *MockDetectorRepository) GetByRunID(ctx context.Context, runID uuid.UUID) (*domain.DetectorSnapshot, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DetectorSnapshot), args.Error(1)
}

// MockRunCounters mocks the live run counters
type MockRunCounters struct {
	mock.Mock
}

func (m *MockRunCounters) Add(ctx context.Context, runID uuid.UUID, summary *domain.EventSummary) error {
	args := m.Called(ctx, runID, summary)
	return args.Error(0)
}

func (m *MockRunCounters) Get(ctx context.Context, runID uuid.UUID) (domain.RunStats, error) {
	args := m.Called(ctx, runID)
	return args.Get(0).(domain.RunStats), args.Error(1)
}

func (m *MockRunCounters) Delete(ctx context.Context, runID uuid.UUID) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}

// MockObjectStore mocks the object storage client
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucket, object, filePath, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}
