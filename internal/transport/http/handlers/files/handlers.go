package fileshandler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"flow4ops/internal/platform/storage"
)

// Handler serves stored objects at /files/{bucket}/{key...}, the public
// URL shape the object store hands out.
type Handler struct {
	Storage storage.Store
	Log     *zap.Logger
}

func NewHandler(objects storage.Store, log *zap.Logger) *Handler {
	return &Handler{Storage: objects, Log: log}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if bucket == "" || key == "" {
		http.NotFound(w, r)
		return
	}

	obj, err := h.Storage.Get(r.Context(), bucket, key)
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.Log.Error("object fetch failed", zap.String("bucket", bucket), zap.String("key", key), zap.Error(err))
		http.Error(w, "object unavailable", http.StatusInternalServerError)
		return
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	_, _ = w.Write(obj.Data)
}
