package replay

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type handled struct {
	mu    sync.Mutex
	paths []string
	ch    chan string
}

func newHandled() *handled {
	return &handled{ch: make(chan string, 16)}
}

func (h *handled) handle(ctx context.Context, path string) error {
	h.mu.Lock()
	h.paths = append(h.paths, path)
	h.mu.Unlock()
	h.ch <- path
	return nil
}

func (h *handled) wait(t *testing.T) string {
	t.Helper()
	select {
	case p := <-h.ch:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event file")
		return ""
	}
}

func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-errc)
	})
}

func TestWatcher_ReplaysNewFiles(t *testing.T) {
	dir := t.TempDir()
	h := newHandled()
	w := NewWatcher(dir, h.handle, zap.NewNop(), WithSettle(20*time.Millisecond))
	startWatcher(t, w)

	// give the watcher time to register the directory
	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(dir, "run-1.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.jsonl"), []byte("{}\n"), 0o644))

	assert.Equal(t, path, h.wait(t))

	// a second write to an already replayed file is ignored
	require.NoError(t, os.WriteFile(path, []byte("{}\n{}\n"), 0o644))
	time.Sleep(100 * time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, []string{path}, h.paths)
}

func TestWatcher_ReplaysExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "existing.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	h := newHandled()
	w := NewWatcher(dir, h.handle, zap.NewNop(), WithSettle(10*time.Millisecond), WithExisting())
	startWatcher(t, w)

	assert.Equal(t, path, h.wait(t))
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing"), newHandled().handle, zap.NewNop())
	err := w.Run(context.Background())
	assert.Error(t, err)
}

func TestIsEventFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"run.jsonl", true},
		{"/data/in/run-2.jsonl", true},
		{".run.jsonl", false},
		{"run.json", false},
		{"run.jsonl.tmp", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isEventFile(tt.name), tt.name)
	}
}
