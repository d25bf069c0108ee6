package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/wardrobe"
	"github.com/erazemk/omara/internal/wearcycle"
)

// LaundryHandler handles the laundry cycle, the worn log and reloads.
type LaundryHandler struct {
	Wardrobe *wardrobe.Repository
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

type recordWornRequest struct {
	ItemID string     `json:"itemId"`
	Date   *time.Time `json:"date"`
}

// List handles GET /api/laundry.
func (h *LaundryHandler) List(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, wearcycle.InLaundry(h.Wardrobe.List()))
}

// Send handles POST /api/laundry.
func (h *LaundryHandler) Send(w http.ResponseWriter, r *http.Request) {
	ids, ok := decodeIDs(w, r)
	if !ok {
		return
	}

	items, err := h.Wardrobe.SendToLaundry(r.Context(), ids)
	if err != nil {
		wardrobeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("items sent to laundry", "user", claims.Username, "count", len(ids))
	jsonResponse(w, http.StatusOK, items)
}

// Complete handles POST /api/laundry/complete. Unknown ids are ignored.
func (h *LaundryHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ids, ok := decodeIDs(w, r)
	if !ok {
		return
	}

	items, err := h.Wardrobe.CompleteLaundry(r.Context(), ids)
	if err != nil {
		wardrobeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("laundry completed", "user", claims.Username, "count", len(ids))
	jsonResponse(w, http.StatusOK, items)
}

// History handles GET /api/history. Query param item narrows the log to one item.
func (h *LaundryHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.Wardrobe.History(r.Context())
	if err != nil {
		wardrobeError(w, err)
		return
	}

	itemID := r.URL.Query().Get("item")
	if itemID == "" {
		jsonResponse(w, http.StatusOK, history)
		return
	}

	filtered := []model.WornEntry{}
	for _, e := range history {
		if e.ItemID == itemID {
			filtered = append(filtered, e)
		}
	}
	jsonResponse(w, http.StatusOK, filtered)
}

// RecordWorn handles POST /api/history. The date defaults to now.
func (h *LaundryHandler) RecordWorn(w http.ResponseWriter, r *http.Request) {
	var req recordWornRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ItemID == "" {
		jsonError(w, http.StatusBadRequest, "itemId required")
		return
	}

	at := time.Now()
	if req.Date != nil {
		at = *req.Date
	}

	if err := h.Wardrobe.RecordWorn(r.Context(), req.ItemID, at); err != nil {
		wardrobeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, model.WornEntry{ItemID: req.ItemID, Date: at.UTC()})
}

// Reload handles POST /api/wardrobe/reload by re-reading the store.
func (h *LaundryHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.Wardrobe.Load(r.Context()); err != nil {
		slog.Error("failed to reload wardrobe", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to load wardrobe")
		return
	}
	jsonResponse(w, http.StatusOK, h.Wardrobe.List())
}

func decodeIDs(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var req idsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if len(req.IDs) == 0 {
		jsonError(w, http.StatusBadRequest, "ids required")
		return nil, false
	}
	return req.IDs, true
}
