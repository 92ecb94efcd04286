package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/testutil"
)

func TestObjectName(t *testing.T) {
	id := uuid.MustParse("7f1c1c2e-4e0a-4c5e-9a1b-0d7c8e2f3a41")
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	assert.Equal(t, "runs/7f1c1c2e-4e0a-4c5e-9a1b-0d7c8e2f3a41/momentum-20260304T050607Z.txt", ObjectName(id, at))
}

func TestArchiveService_Archive(t *testing.T) {
	store := new(testutil.MockObjectStore)
	svc := NewArchiveService(zap.NewNop(), store, "tofscope-momentum", "/var/lib/tofscope/momentum.txt")
	runID := uuid.New()

	store.On("FPutObject", mock.Anything, "tofscope-momentum",
		mock.MatchedBy(func(object string) bool {
			return strings.HasPrefix(object, "runs/"+runID.String()+"/momentum-")
		}),
		"/var/lib/tofscope/momentum.txt",
		mock.MatchedBy(func(opts minio.PutObjectOptions) bool {
			return opts.UserMetadata["run-id"] == runID.String()
		}),
	).Return(minio.UploadInfo{Size: 128}, nil).Once()

	object, err := svc.Archive(context.Background(), runID)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(object, ".txt"))
	store.AssertExpectations(t)
}

func TestArchiveService_ArchiveError(t *testing.T) {
	store := new(testutil.MockObjectStore)
	svc := NewArchiveService(zap.NewNop(), store, "bucket", "momentum.txt")

	store.On("FPutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("no such bucket")).Once()

	_, err := svc.Archive(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such bucket")
}

func TestArchiveService_Snapshot(t *testing.T) {
	store := new(testutil.MockObjectStore)
	svc := NewArchiveService(zap.NewNop(), store, "bucket", "momentum.txt")

	store.On("FPutObject", mock.Anything, "bucket",
		mock.MatchedBy(func(object string) bool { return strings.HasPrefix(object, "snapshots/momentum-") }),
		"momentum.txt", mock.Anything,
	).Return(minio.UploadInfo{Size: 10}, nil).Once()

	object, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(object, "snapshots/"))
	store.AssertExpectations(t)
}
