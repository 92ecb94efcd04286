package id

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IsTimeOrdered(t *testing.T) {
	a := New()
	b := New()

	assert.Equal(t, 7, int(a.Version()))
	assert.NotEqual(t, a, b)
	assert.Less(t, a.String(), b.String())
}

func TestParse(t *testing.T) {
	u := New()
	got, err := Parse(u.String())
	require.NoError(t, err)
	assert.Equal(t, u, got)

	_, err = Parse("not-a-uuid")
	assert.Error(t, err)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestNewRequestID(t *testing.T) {
	rid := NewRequestID()
	assert.True(t, ValidateRequestID(rid))

	t.Run("falls back to the clock", func(t *testing.T) {
		orig := randReader
		randReader = failingReader{}
		defer func() { randReader = orig }()

		assert.True(t, ValidateRequestID(NewRequestID()))
	})
}

func TestValidateRequestID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0123456789abcdef", true},
		{"0123456789abcde", false},
		{"0123456789abcdeg", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateRequestID(tt.in), tt.in)
	}
}

func TestNewRequestID_Concurrent(t *testing.T) {
	const n = 200
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- NewRequestID()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool, n)
	for rid := range ids {
		assert.False(t, seen[rid], "duplicate request ID %s", rid)
		seen[rid] = true
	}
}

func BenchmarkNewRequestID(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = NewRequestID()
	}
}

func BenchmarkNew(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = New()
	}
}
