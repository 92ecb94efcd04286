// Package sink persists per-event momentum estimates as an append-only text log.
//
// The log has one line per event, "Momentum: <value>", with no header. A single
// goroutine owns the file; every worker hands its line to that goroutine, so
// lines from concurrent events are never interleaved.
package sink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tofscope/tofscope/internal/pkg/metrics"
)

// ErrClosed is returned when appending to a closed log
var ErrClosed = errors.New("momentum log is closed")

// Writer accepts momentum values for durable storage
type Writer interface {
	Append(ctx context.Context, momentum float64) error
}

type appendRequest struct {
	line string
	done chan error
}

// MomentumLog is an append-only momentum log backed by a single file
type MomentumLog struct {
	path   string
	logger *zap.Logger
	file   *os.File
	buf    *bufio.Writer
	sync   bool

	requests chan appendRequest
	closing  chan struct{}
	stopped  chan struct{}
	wg       sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// Options configures a MomentumLog
type Options struct {
	// QueueSize bounds the number of pending lines
	QueueSize int
	// Fsync forces an fsync after every line
	Fsync bool
}

// Open opens (or creates) the log at path in append mode and starts its writer
func Open(path string, logger *zap.Logger, opts Options) (*MomentumLog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create momentum log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open momentum log %s: %w", path, err)
	}

	l := &MomentumLog{
		path:     path,
		logger:   logger,
		file:     f,
		buf:      bufio.NewWriter(f),
		sync:     opts.Fsync,
		requests: make(chan appendRequest, opts.QueueSize),
		closing:  make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	l.wg.Add(1)
	go l.writeLoop()

	return l, nil
}

// Path returns the file path of the log
func (l *MomentumLog) Path() string {
	return l.path
}

// Append writes one momentum line and waits until it has been flushed
func (l *MomentumLog) Append(ctx context.Context, momentum float64) error {
	req := appendRequest{
		line: FormatLine(momentum) + "\n",
		done: make(chan error, 1),
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-l.closing:
		return ErrClosed
	default:
	}

	// once queued the line is written, so the outcome comes from the writer
	select {
	case l.requests <- req:
	case <-l.closing:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.done:
		return err
	case <-l.stopped:
		// queued after the writer drained
		select {
		case err := <-req.done:
			return err
		default:
			return ErrClosed
		}
	}
}

// Close drains pending lines, flushes and closes the file
func (l *MomentumLog) Close() error {
	l.closeOnce.Do(func() {
		close(l.closing)
		l.wg.Wait()
		if err := l.buf.Flush(); err != nil {
			l.closeErr = fmt.Errorf("failed to flush momentum log: %w", err)
		}
		if err := l.file.Close(); err != nil && l.closeErr == nil {
			l.closeErr = fmt.Errorf("failed to close momentum log: %w", err)
		}
	})
	return l.closeErr
}

func (l *MomentumLog) writeLoop() {
	defer l.wg.Done()
	defer close(l.stopped)
	for {
		select {
		case req := <-l.requests:
			req.done <- l.write(req.line)
		case <-l.closing:
			// drain what was queued before Close
			for {
				select {
				case req := <-l.requests:
					req.done <- l.write(req.line)
				default:
					return
				}
			}
		}
	}
}

func (l *MomentumLog) write(line string) error {
	start := time.Now()
	defer func() {
		metrics.RecordSinkWrite(time.Since(start))
	}()

	if _, err := l.buf.WriteString(line); err != nil {
		metrics.RecordSinkError()
		l.logger.Error("failed to write momentum line", zap.String("path", l.path), zap.Error(err))
		return fmt.Errorf("failed to write momentum line: %w", err)
	}
	if err := l.buf.Flush(); err != nil {
		metrics.RecordSinkError()
		l.logger.Error("failed to flush momentum log", zap.String("path", l.path), zap.Error(err))
		return fmt.Errorf("failed to flush momentum log: %w", err)
	}
	if l.sync {
		if err := l.file.Sync(); err != nil {
			metrics.RecordSinkError()
			return fmt.Errorf("failed to sync momentum log: %w", err)
		}
	}
	return nil
}
