package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/store"
	"github.com/erazemk/omara/internal/wardrobe"
)

// ItemsHandler handles wardrobe item endpoints.
type ItemsHandler struct {
	DB       *sql.DB
	Wardrobe *wardrobe.Repository
}

type createItemRequest struct {
	ID         string           `json:"id"`
	Image      string           `json:"image"`
	Category   model.Category   `json:"category"`
	Properties model.Properties `json:"properties"`
	WearCount  int              `json:"wearCount"`
}

// updateItemRequest leaves the wear state alone when its fields are omitted.
type updateItemRequest struct {
	Image         string           `json:"image"`
	Category      model.Category   `json:"category"`
	Properties    model.Properties `json:"properties"`
	WearCount     *int             `json:"wearCount"`
	LaundryStatus *bool            `json:"laundryStatus"`
}

// List handles GET /api/items.
// Optional filters: category, style, laundry=true|false, available=true.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := model.Category(q.Get("category"))
	style := model.Style(q.Get("style"))
	laundry := q.Get("laundry")
	available := q.Get("available") == "true"

	items := []model.ClothingItem{}
	for _, c := range h.Wardrobe.List() {
		if category != "" && c.Category != category {
			continue
		}
		if style != "" && c.Properties.DressStyle != style {
			continue
		}
		if laundry == "true" && !c.LaundryStatus || laundry == "false" && c.LaundryStatus {
			continue
		}
		if available && !c.Eligible() {
			continue
		}
		items = append(items, c)
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Wardrobe.Add(r.Context(), model.ClothingItem{
		ID:         req.ID,
		Image:      req.Image,
		Category:   req.Category,
		Properties: req.Properties,
		WearCount:  req.WearCount,
	})
	if err != nil {
		wardrobeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("item created", "user", claims.Username, "item", item.Properties.Name, "id", item.ID)
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.Wardrobe.Get(r.PathValue("id"))
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	current, ok := h.Wardrobe.Get(id)
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item := current
	item.Image = req.Image
	item.Category = req.Category
	item.Properties = req.Properties
	if req.WearCount != nil {
		item.WearCount = *req.WearCount
	}
	if req.LaundryStatus != nil {
		item.LaundryStatus = *req.LaundryStatus
	}

	if err := h.Wardrobe.Update(r.Context(), item); err != nil {
		wardrobeError(w, err)
		return
	}
	if current.Image != item.Image {
		h.dropPhoto(r, current.Image)
	}

	claims := GetClaims(r.Context())
	slog.Info("item updated", "user", claims.Username, "item", item.Properties.Name, "id", item.ID)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Wardrobe.Remove(r.Context(), r.PathValue("id"))
	if err != nil {
		wardrobeError(w, err)
		return
	}
	h.dropPhoto(r, removed.Image)

	claims := GetClaims(r.Context())
	slog.Info("item deleted", "user", claims.Username, "item", removed.Properties.Name, "id", removed.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// dropPhoto deletes a photo the item owned. Foreign image references are left alone.
func (h *ItemsHandler) dropPhoto(r *http.Request, uri string) {
	id, ok := store.ParsePhotoURI(uri)
	if !ok {
		return
	}
	if err := store.DeletePhoto(r.Context(), h.DB, id); err != nil {
		slog.Error("failed to delete photo", "error", err, "photo", id)
	}
}
