package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "brokerage/pkg/domainerrors"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteError(t *testing.T) {
	t.Run("internal detail stays hidden outside debug mode", func(t *testing.T) {
		SetDebug(false)
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "internal server error", body["error"])
		assert.NotContains(t, body, "detail")
	})

	t.Run("debug mode exposes internal detail", func(t *testing.T) {
		SetDebug(true)
		defer SetDebug(false)
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		body := decodeBody(t, w)
		assert.Contains(t, body["detail"], "db failed")
	})

	t.Run("expected conditions carry their message", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeNotFound, "client not found"))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "client not found", decodeBody(t, w)["error"])
	})
}

func TestNewPagination(t *testing.T) {
	t.Run("a middle page links both neighbours", func(t *testing.T) {
		p := NewPagination(45, 2, 10)
		assert.Equal(t, 5, p.TotalPages)
		assert.True(t, p.HasNextPage)
		assert.True(t, p.HasPrevPage)
		require.NotNil(t, p.Next)
		assert.Equal(t, 3, p.Next.Page)
		require.NotNil(t, p.Prev)
		assert.Equal(t, 1, p.Prev.Page)
	})

	t.Run("the last page has no next link", func(t *testing.T) {
		p := NewPagination(45, 5, 10)
		assert.False(t, p.HasNextPage)
		assert.Nil(t, p.Next)
	})

	t.Run("an empty result has no pages", func(t *testing.T) {
		p := NewPagination(0, 1, 10)
		assert.Equal(t, 0, p.TotalPages)
		assert.False(t, p.HasNextPage)
		assert.False(t, p.HasPrevPage)
	})
}

func TestDecodeJSON(t *testing.T) {
	t.Run("malformed body becomes a bad request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{nope"))
		var dst map[string]any
		err := DecodeJSON(req, &dst)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("valid body decodes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ok"}`))
		var dst struct {
			Name string `json:"name"`
		}
		require.NoError(t, DecodeJSON(req, &dst))
		assert.Equal(t, "ok", dst.Name)
	})
}
