// Package replay feeds recorded events into the event service. Events are
// stored one JSON object per line (JSON lines), in the order the host
// simulation closed them.
package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tofscope/tofscope/internal/domain"
)

// maxLineSize bounds a single encoded event
const maxLineSize = 16 << 20

// Reader streams events from a JSON lines file.
// It implements service.EventSource.
type Reader struct {
	name    string
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
	events  int64
}

// NewReader creates a Reader over r. The name is used in error messages.
func NewReader(r io.Reader, name string) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Reader{
		name:    name,
		scanner: scanner,
	}
}

// Open opens an event file for reading
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event file: %w", err)
	}
	r := NewReader(f, path)
	r.closer = f
	return r, nil
}

// Next decodes the next event. It returns io.EOF after the last one.
func (r *Reader) Next(ctx context.Context) (domain.EventInput, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.EventInput{}, err
		}
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return domain.EventInput{}, fmt.Errorf("%s:%d: %w", r.name, r.line+1, err)
			}
			return domain.EventInput{}, io.EOF
		}
		r.line++

		line := strings.TrimSpace(r.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var in domain.EventInput
		if err := json.Unmarshal([]byte(line), &in); err != nil {
			return domain.EventInput{}, fmt.Errorf("%s:%d: invalid event: %w", r.name, r.line, err)
		}
		r.events++
		return in, nil
	}
}

// Events returns the number of events decoded so far
func (r *Reader) Events() int64 {
	return r.events
}

// Close closes the underlying file, if any
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// WriteEvents encodes events as JSON lines
func WriteEvents(w io.Writer, events []domain.EventInput) error {
	enc := json.NewEncoder(w)
	for i := range events {
		if err := enc.Encode(&events[i]); err != nil {
			return fmt.Errorf("failed to encode event %d: %w", events[i].EventNumber, err)
		}
	}
	return nil
}
