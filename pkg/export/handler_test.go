package export

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(h *Handler, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.Export(rr, httptest.NewRequest(http.MethodPost, path, nil))
	return rr
}

func TestHandler_Export(t *testing.T) {
	handler := NewHandler(setupExporter(&fakeSurface{}, nil), time.UTC)

	t.Run("download", func(t *testing.T) {
		rr := post(handler, "/api/export?view=month&date=2025-01-15")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="month-enero-2025.png"`, rr.Header().Get("Content-Disposition"))
		assert.Equal(t, "png:month", rr.Body.String())
	})

	t.Run("share", func(t *testing.T) {
		rr := post(handler, "/api/export?view=agenda&date=2025-01-15&action=share")

		require.Equal(t, http.StatusOK, rr.Code)
		var dto ShareDTO
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&dto))
		assert.Equal(t, "agenda-enero-2025.png", dto.Filename)
		assert.Equal(t, "Calendario Los Monteros Racket Club - enero 2025", dto.Title)
		assert.Equal(t, []byte("png:agenda"), dto.Image)
	})

	t.Run("bad input", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, post(handler, "/api/export?view=week").Code)
		assert.Equal(t, http.StatusBadRequest, post(handler, "/api/export?view=month&action=print").Code)
		assert.Equal(t, http.StatusBadRequest, post(handler, "/api/export?view=month&date=2025-1-5").Code)
		assert.Equal(t, http.StatusBadRequest, post(handler, "/api/export?view=period&months=0").Code)
		assert.Equal(t, http.StatusBadRequest, post(handler, "/api/export?view=period&months=2").Code)
	})
}

func TestHandler_ExportInProgress(t *testing.T) {
	surface := &fakeSurface{block: make(chan struct{}), started: make(chan struct{})}
	handler := NewHandler(setupExporter(surface, nil), time.UTC)
	done := make(chan struct{})
	go func() {
		defer close(done)
		post(handler, "/api/export?view=month")
	}()
	<-surface.started

	rr := post(handler, "/api/export?view=month")

	assert.Equal(t, http.StatusConflict, rr.Code)
	close(surface.block)
	<-done
}
