package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/pkg/circuitbreaker"
)

// ObjectStore is the subset of the object storage client used for archives
type ObjectStore interface {
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ArchiveService copies the momentum log to object storage
type ArchiveService struct {
	store   ObjectStore
	bucket  string
	logPath string
	breaker *circuitbreaker.Breaker
	logger  *zap.Logger
}

// NewArchiveService creates a new ArchiveService. Uploads go through the
// "object-storage" circuit breaker so that an unreachable store fails fast.
func NewArchiveService(logger *zap.Logger, store ObjectStore, bucket, logPath string) *ArchiveService {
	return &ArchiveService{
		store:   store,
		bucket:  bucket,
		logPath: logPath,
		breaker: circuitbreaker.For("object-storage"),
		logger:  logger.Named("archive"),
	}
}

// ObjectName returns the object key of a run's archived momentum log
func ObjectName(runID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("runs/%s/momentum-%s.txt", runID, at.UTC().Format("20060102T150405Z"))
}

// SnapshotObjectName returns the object key of a periodic log snapshot
func SnapshotObjectName(at time.Time) string {
	return fmt.Sprintf("snapshots/momentum-%s.txt", at.UTC().Format("20060102T150405Z"))
}

// Archive uploads the current momentum log for a run and returns the object key
func (s *ArchiveService) Archive(ctx context.Context, runID uuid.UUID) (string, error) {
	object := ObjectName(runID, time.Now())
	if err := s.upload(ctx, object, map[string]string{"run-id": runID.String()}); err != nil {
		return "", err
	}
	return object, nil
}

// Snapshot uploads the current momentum log independently of any run
func (s *ArchiveService) Snapshot(ctx context.Context) (string, error) {
	object := SnapshotObjectName(time.Now())
	if err := s.upload(ctx, object, nil); err != nil {
		return "", err
	}
	return object, nil
}

func (s *ArchiveService) upload(ctx context.Context, object string, meta map[string]string) error {
	info, err := circuitbreaker.Do(s.breaker, ctx, func() (minio.UploadInfo, error) {
		return s.store.FPutObject(ctx, s.bucket, object, s.logPath, minio.PutObjectOptions{
			ContentType:  "text/plain",
			UserMetadata: meta,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to archive momentum log: %w", err)
	}

	s.logger.Info("momentum log archived",
		zap.String("bucket", s.bucket),
		zap.String("object", object),
		zap.Int64("size", info.Size),
	)
	return nil
}
