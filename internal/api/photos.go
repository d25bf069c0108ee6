package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/omara/internal/imaging"
	"github.com/erazemk/omara/internal/store"
)

// maxPhotoSize caps the accepted upload body.
const maxPhotoSize = 10 << 20

// PhotosHandler handles photo upload and download.
type PhotosHandler struct {
	DB *sql.DB
}

type photoResponse struct {
	ID     int64  `json:"id"`
	URI    string `json:"uri"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Upload handles POST /api/photos. The returned uri goes into an item's image field.
func (h *PhotosHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	result, err := imaging.Process(file)
	if err != nil {
		slog.Warn("rejected photo upload", "error", err)
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := store.CreatePhoto(r.Context(), h.DB, result.Data, result.MIME)
	if err != nil {
		slog.Error("failed to save photo", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save photo")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("photo uploaded", "user", claims.Username, "photo", id, "size", len(result.Data))
	jsonResponse(w, http.StatusCreated, photoResponse{
		ID:     id,
		URI:    store.PhotoURI(id),
		Width:  result.Width,
		Height: result.Height,
	})
}

// Get handles GET /api/photos/{id}. With size=thumb a small rendition is served.
func (h *PhotosHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid photo id")
		return
	}

	data, mime, err := store.GetPhoto(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get photo", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "photo not found")
		return
	}

	if r.URL.Query().Get("size") == "thumb" {
		thumb, err := imaging.Thumbnail(data)
		if err != nil {
			slog.Error("failed to make thumbnail", "error", err, "photo", id)
			jsonError(w, http.StatusInternalServerError, "failed to make thumbnail")
			return
		}
		data, mime = thumb.Data, thumb.MIME
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write photo response", "error", err)
	}
}
