package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RequestIDLength is the number of random bytes of a request ID
const RequestIDLength = 8

var (
	randReader = rand.Reader

	requestIDPool = sync.Pool{
		New: func() any {
			b := make([]byte, RequestIDLength)
			return &b
		},
	}
)

// New returns a time-ordered UUID (version 7). It falls back to a random
// UUID when the clock-based generator fails.
func New() uuid.UUID {
	u, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return u
}

// Parse parses a UUID in any of the forms accepted by uuid.Parse
func Parse(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// NewRequestID generates a request ID (16 hex characters)
func NewRequestID() string {
	bufPtr := requestIDPool.Get().(*[]byte)
	defer requestIDPool.Put(bufPtr)
	buf := *bufPtr

	if _, err := randReader.Read(buf); err != nil {
		return fmt.Sprintf("%016x", time.Now().UnixNano())
	}

	return hex.EncodeToString(buf)
}

// ValidateRequestID reports whether s looks like a generated request ID
func ValidateRequestID(s string) bool {
	if len(s) != 2*RequestIDLength {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
