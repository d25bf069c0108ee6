package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/outfit"
	"github.com/erazemk/omara/internal/store"
	"github.com/erazemk/omara/internal/wardrobe"
)

// OutfitsHandler handles outfit generation and the default style setting.
type OutfitsHandler struct {
	DB       *sql.DB
	Wardrobe *wardrobe.Repository
}

type confirmRequest struct {
	Style model.Style `json:"style"`
}

// confirmResponse carries a nil outfit when the week had no items.
type confirmResponse struct {
	Outfit *model.SavedOutfit   `json:"outfit"`
	Items  []model.ClothingItem `json:"items"`
}

type styleSetting struct {
	Style model.Style `json:"style"`
}

// Generate handles GET /api/outfits.
// Query params: style (defaults to the saved default style), day (optional).
func (h *OutfitsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	style, ok := h.resolveStyle(w, r, model.Style(r.URL.Query().Get("style")))
	if !ok {
		return
	}

	week := outfit.Generate(h.Wardrobe.List(), style)

	dayParam := r.URL.Query().Get("day")
	if dayParam == "" {
		jsonResponse(w, http.StatusOK, week)
		return
	}

	day, ok := model.ParseDay(dayParam)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid day")
		return
	}
	o, _ := outfit.ForDay(week, day)
	jsonResponse(w, http.StatusOK, o)
}

// Confirm handles POST /api/outfits/confirm. The week is generated from the
// current wardrobe, recorded as worn and kept as a saved outfit.
func (h *OutfitsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	style, ok := h.resolveStyle(w, r, req.Style)
	if !ok {
		return
	}

	saved, items, err := h.Wardrobe.ConfirmWeek(r.Context(), style, time.Now())
	if err != nil {
		wardrobeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	if saved != nil {
		slog.Info("week confirmed", "user", claims.Username, "style", style, "outfit", saved.ID)
	}
	jsonResponse(w, http.StatusOK, confirmResponse{Outfit: saved, Items: items})
}

// ListSaved handles GET /api/outfits/saved.
func (h *OutfitsHandler) ListSaved(w http.ResponseWriter, r *http.Request) {
	outfits, err := h.Wardrobe.SavedOutfits(r.Context())
	if err != nil {
		slog.Error("failed to list saved outfits", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list saved outfits")
		return
	}
	jsonResponse(w, http.StatusOK, outfits)
}

// GetSaved handles GET /api/outfits/saved/{id}.
func (h *OutfitsHandler) GetSaved(w http.ResponseWriter, r *http.Request) {
	o, err := h.Wardrobe.SavedOutfit(r.Context(), r.PathValue("id"))
	if err != nil {
		wardrobeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, o)
}

// DeleteSaved handles DELETE /api/outfits/saved/{id}.
func (h *OutfitsHandler) DeleteSaved(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Wardrobe.RemoveSavedOutfit(r.Context(), id); err != nil {
		wardrobeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("saved outfit deleted", "user", claims.Username, "outfit", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "saved outfit deleted"})
}

// GetStyle handles GET /api/settings/style.
func (h *OutfitsHandler) GetStyle(w http.ResponseWriter, r *http.Request) {
	style, ok := h.resolveStyle(w, r, "")
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, styleSetting{Style: style})
}

// SetStyle handles PUT /api/settings/style.
func (h *OutfitsHandler) SetStyle(w http.ResponseWriter, r *http.Request) {
	var req styleSetting
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Style.Valid() {
		jsonError(w, http.StatusBadRequest, "style must be formal or casual")
		return
	}

	if err := store.SetSetting(r.Context(), h.DB, store.SettingDefaultStyle, string(req.Style)); err != nil {
		slog.Error("failed to save default style", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save setting")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("default style changed", "user", claims.Username, "style", req.Style)
	jsonResponse(w, http.StatusOK, req)
}

// resolveStyle validates an explicit style or falls back to the saved
// default, then to formal. It writes the error response itself.
func (h *OutfitsHandler) resolveStyle(w http.ResponseWriter, r *http.Request, style model.Style) (model.Style, bool) {
	if style != "" {
		if !style.Valid() {
			jsonError(w, http.StatusBadRequest, "style must be formal or casual")
			return "", false
		}
		return style, true
	}

	saved, ok, err := store.GetSetting(r.Context(), h.DB, store.SettingDefaultStyle)
	if err != nil {
		slog.Error("failed to read default style", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return "", false
	}
	if ok && model.Style(saved).Valid() {
		return model.Style(saved), true
	}
	return model.StyleFormal, true
}
