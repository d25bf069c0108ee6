package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/wardrobe"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// wardrobeError maps a repository error to a response. Storage failures were
// already logged by the repository.
func wardrobeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wardrobe.ErrOutfitNotFound):
		jsonError(w, http.StatusNotFound, "saved outfit not found")
	case errors.Is(err, wardrobe.ErrNotFound):
		jsonError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, wardrobe.ErrDuplicateID):
		jsonError(w, http.StatusConflict, "item id already exists")
	case errors.Is(err, model.ErrInvalidItem):
		jsonError(w, http.StatusBadRequest, err.Error())
	default:
		jsonError(w, http.StatusInternalServerError, "failed to save wardrobe")
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
