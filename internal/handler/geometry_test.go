package handler

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tofscope/tofscope/internal/geometry"
)

func TestGeometryHandler(t *testing.T) {
	env := newTestEnv(t)

	t.Run("json", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/v1/geometry", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		summary := decode[geometry.Summary](t, resp)
		assert.NotEmpty(t, summary.Volumes)
	})

	t.Run("yaml", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/v1/geometry?format=yaml", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var summary geometry.Summary
		require.NoError(t, yaml.Unmarshal(raw, &summary))
		assert.NotEmpty(t, summary.Volumes)
	})

	t.Run("unsupported", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/v1/geometry?format=xml", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
