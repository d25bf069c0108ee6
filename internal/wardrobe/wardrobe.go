// Package wardrobe keeps the in-memory wardrobe in sync with its key-value store.
package wardrobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/omara/internal/kvstore"
	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/outfit"
	"github.com/erazemk/omara/internal/wearcycle"
)

// Store keys.
const (
	WardrobeKey = "wardrobe"
	HistoryKey  = "worn_history"

	// OutfitKeyPrefix is followed by the saved outfit id.
	OutfitKeyPrefix = "outfit_"
)

var (
	// ErrNotFound is returned when no item has the requested id.
	ErrNotFound = errors.New("item not found")
	// ErrDuplicateID is returned when adding an item whose id is taken.
	ErrDuplicateID = errors.New("item id already exists")
	// ErrOutfitNotFound is returned when no saved outfit has the requested id.
	ErrOutfitNotFound = errors.New("saved outfit not found")
)

// Repository owns the wardrobe collection.
//
// Mutations are serialised: each one builds a new collection, writes it to
// the store, and only then replaces the in-memory copy. A failed write leaves
// memory as it was. Reads return the last loaded snapshot; call Load to pick
// up changes made to the store by someone else.
type Repository struct {
	kv kvstore.Store

	// writeMu serialises read-modify-write cycles against the store.
	writeMu sync.Mutex
	mu      sync.RWMutex
	items   []model.ClothingItem
}

// New returns an empty repository backed by kv. Call Load to read the store.
func New(kv kvstore.Store) *Repository {
	return &Repository{kv: kv}
}

// Load replaces the in-memory wardrobe with the stored one.
func (r *Repository) Load(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var items []model.ClothingItem
	if err := r.read(ctx, WardrobeKey, &items); err != nil {
		return fmt.Errorf("loading wardrobe: %w", err)
	}

	r.mu.Lock()
	r.items = items
	r.mu.Unlock()
	return nil
}

// Save writes the in-memory wardrobe to the store.
func (r *Repository) Save(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.write(ctx, WardrobeKey, r.snapshot()); err != nil {
		return fmt.Errorf("saving wardrobe: %w", err)
	}
	return nil
}

// List returns a copy of every item.
func (r *Repository) List() []model.ClothingItem {
	return r.snapshot()
}

// Get returns the item with the given id.
func (r *Repository) Get(id string) (model.ClothingItem, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.items {
		if c.ID == id {
			return c, true
		}
	}
	return model.ClothingItem{}, false
}

// Add stores a new item. An empty id is filled with a random one, and a new
// item with no wears recorded starts at its full allowance.
func (r *Repository) Add(ctx context.Context, item model.ClothingItem) (model.ClothingItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.WearCount == 0 && item.Properties.Count > 0 {
		item.WearCount = item.Properties.Count
	}
	if err := item.Validate(); err != nil {
		return model.ClothingItem{}, err
	}

	err := r.mutate(ctx, func(items []model.ClothingItem) ([]model.ClothingItem, error) {
		if indexOf(items, item.ID) >= 0 {
			return nil, ErrDuplicateID
		}
		return append(items, item), nil
	})
	if err != nil {
		return model.ClothingItem{}, err
	}
	return item, nil
}

// Update replaces the item with the same id.
func (r *Repository) Update(ctx context.Context, item model.ClothingItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	return r.mutate(ctx, func(items []model.ClothingItem) ([]model.ClothingItem, error) {
		i := indexOf(items, item.ID)
		if i < 0 {
			return nil, ErrNotFound
		}
		items[i] = item
		return items, nil
	})
}

// Remove deletes the item with the given id and returns it.
func (r *Repository) Remove(ctx context.Context, id string) (model.ClothingItem, error) {
	var removed model.ClothingItem
	err := r.mutate(ctx, func(items []model.ClothingItem) ([]model.ClothingItem, error) {
		i := indexOf(items, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		removed = items[i]
		return slices.Delete(items, i, i+1), nil
	})
	return removed, err
}

// ConfirmWeek generates the week for style from the current wardrobe and
// records it as worn: every item in it uses one wear, one history entry per
// item is appended with date at, and the week is kept as a saved outfit.
// Either all three writes land or none do. A week with no items changes
// nothing and returns a nil outfit.
func (r *Repository) ConfirmWeek(ctx context.Context, style model.Style, at time.Time) (*model.SavedOutfit, []model.ClothingItem, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	current := r.snapshot()
	week := outfit.Generate(current, style)
	used := outfit.UsedItemIDs(week, style)
	if len(used) == 0 {
		return nil, current, nil
	}

	var history []model.WornEntry
	if err := r.read(ctx, HistoryKey, &history); err != nil {
		return nil, nil, fmt.Errorf("loading worn history: %w", err)
	}
	for _, id := range used {
		history = append(history, model.WornEntry{ItemID: id, Date: at.UTC()})
	}

	saved := &model.SavedOutfit{
		ID:    uuid.NewString(),
		Style: style,
		Date:  at.UTC(),
		Week:  week,
	}
	next := wearcycle.ApplyUsage(current, used)

	key := outfitKey(saved.ID)
	if err := r.write(ctx, key, saved); err != nil {
		slog.Error("failed to save outfit", "error", err, "outfit", saved.ID)
		return nil, nil, fmt.Errorf("saving outfit: %w", err)
	}
	if err := r.write(ctx, WardrobeKey, next); err != nil {
		slog.Error("failed to save wardrobe", "error", err)
		r.rollback(ctx, key, nil)
		return nil, nil, fmt.Errorf("saving wardrobe: %w", err)
	}
	if err := r.write(ctx, HistoryKey, history); err != nil {
		slog.Error("failed to save worn history", "error", err)
		r.rollback(ctx, key, current)
		return nil, nil, fmt.Errorf("saving worn history: %w", err)
	}

	r.mu.Lock()
	r.items = next
	r.mu.Unlock()
	return saved, r.snapshot(), nil
}

// rollback undoes a partly written confirmation. previous is the wardrobe to
// restore, or nil when the wardrobe was not written yet.
func (r *Repository) rollback(ctx context.Context, outfitKey string, previous []model.ClothingItem) {
	if previous != nil {
		if err := r.write(ctx, WardrobeKey, previous); err != nil {
			slog.Error("failed to restore wardrobe, reload needed", "error", err)
		}
	}
	if err := r.kv.Remove(ctx, outfitKey); err != nil {
		slog.Error("failed to remove outfit", "error", err, "key", outfitKey)
	}
}

// SavedOutfits returns every confirmed week, newest first.
func (r *Repository) SavedOutfits(ctx context.Context) ([]model.SavedOutfit, error) {
	keys, err := r.kv.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing saved outfits: %w", err)
	}

	outfits := []model.SavedOutfit{}
	for _, key := range keys {
		if !strings.HasPrefix(key, OutfitKeyPrefix) {
			continue
		}
		var o model.SavedOutfit
		data, err := r.kv.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("loading saved outfit %s: %w", key, err)
		}
		if data == nil {
			continue
		}
		if err := json.Unmarshal(data, &o); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", key, err)
		}
		outfits = append(outfits, o)
	}

	slices.SortStableFunc(outfits, func(a, b model.SavedOutfit) int {
		return b.Date.Compare(a.Date)
	})
	return outfits, nil
}

// SavedOutfit returns the confirmed week with the given id.
func (r *Repository) SavedOutfit(ctx context.Context, id string) (model.SavedOutfit, error) {
	var o model.SavedOutfit
	data, err := r.kv.Get(ctx, outfitKey(id))
	if err != nil {
		return o, fmt.Errorf("loading saved outfit: %w", err)
	}
	if data == nil {
		return o, ErrOutfitNotFound
	}
	if err := json.Unmarshal(data, &o); err != nil {
		return o, fmt.Errorf("decoding saved outfit: %w", err)
	}
	return o, nil
}

// RemoveSavedOutfit deletes a confirmed week. Wear counts and the worn log
// are left as they are.
func (r *Repository) RemoveSavedOutfit(ctx context.Context, id string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	key := outfitKey(id)
	data, err := r.kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("loading saved outfit: %w", err)
	}
	if data == nil {
		return ErrOutfitNotFound
	}
	if err := r.kv.Remove(ctx, key); err != nil {
		slog.Error("failed to remove outfit", "error", err, "outfit", id)
		return fmt.Errorf("removing saved outfit: %w", err)
	}
	return nil
}

func outfitKey(id string) string {
	return OutfitKeyPrefix + id
}

// CompleteLaundry marks the given items as clean.
func (r *Repository) CompleteLaundry(ctx context.Context, ids []string) ([]model.ClothingItem, error) {
	err := r.mutate(ctx, func(items []model.ClothingItem) ([]model.ClothingItem, error) {
		return wearcycle.CompleteLaundry(items, ids), nil
	})
	if err != nil {
		return nil, err
	}
	return r.List(), nil
}

// SendToLaundry marks the given items as in laundry.
func (r *Repository) SendToLaundry(ctx context.Context, ids []string) ([]model.ClothingItem, error) {
	err := r.mutate(ctx, func(items []model.ClothingItem) ([]model.ClothingItem, error) {
		return wearcycle.SendToLaundry(items, ids), nil
	})
	if err != nil {
		return nil, err
	}
	return r.List(), nil
}

// History returns the worn log, oldest first.
func (r *Repository) History(ctx context.Context) ([]model.WornEntry, error) {
	history := []model.WornEntry{}
	if err := r.read(ctx, HistoryKey, &history); err != nil {
		return nil, fmt.Errorf("loading worn history: %w", err)
	}
	return history, nil
}

// RecordWorn appends a single worn entry for an existing item.
func (r *Repository) RecordWorn(ctx context.Context, itemID string, at time.Time) error {
	if _, ok := r.Get(itemID); !ok {
		return ErrNotFound
	}
	return r.appendHistory(ctx, []string{itemID}, at)
}

func (r *Repository) appendHistory(ctx context.Context, ids []string, at time.Time) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var history []model.WornEntry
	if err := r.read(ctx, HistoryKey, &history); err != nil {
		return fmt.Errorf("loading worn history: %w", err)
	}
	for _, id := range ids {
		history = append(history, model.WornEntry{ItemID: id, Date: at.UTC()})
	}
	if err := r.write(ctx, HistoryKey, history); err != nil {
		slog.Error("failed to save worn history", "error", err)
		return fmt.Errorf("saving worn history: %w", err)
	}
	return nil
}

// mutate runs fn on a copy of the wardrobe, persists the result and swaps it in.
func (r *Repository) mutate(ctx context.Context, fn func([]model.ClothingItem) ([]model.ClothingItem, error)) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	next, err := fn(r.snapshot())
	if err != nil {
		return err
	}

	if err := r.write(ctx, WardrobeKey, next); err != nil {
		slog.Error("failed to save wardrobe", "error", err)
		return fmt.Errorf("saving wardrobe: %w", err)
	}

	r.mu.Lock()
	r.items = next
	r.mu.Unlock()
	return nil
}

func (r *Repository) snapshot() []model.ClothingItem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.ClothingItem, len(r.items))
	copy(out, r.items)
	return out
}

func (r *Repository) read(ctx context.Context, key string, target any) error {
	data, err := r.kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

func (r *Repository) write(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return r.kv.Set(ctx, key, data)
}

func indexOf(items []model.ClothingItem, id string) int {
	return slices.IndexFunc(items, func(c model.ClothingItem) bool { return c.ID == id })
}
