// Package wearcycle moves clothing items between available and in-laundry.
// All functions are pure: they return a fresh slice and leave the input as is.
// Ids that match no item are ignored.
package wearcycle

import "github.com/erazemk/omara/internal/model"

// ApplyUsage records one wear for every item referenced by usedIDs. An item
// that runs out of wears goes to the laundry. Repeated ids count once.
func ApplyUsage(items []model.ClothingItem, usedIDs []string) []model.ClothingItem {
	return apply(items, usedIDs, func(c *model.ClothingItem) {
		c.WearCount = max(0, c.WearCount-1)
		if c.WearCount == 0 {
			c.LaundryStatus = true
		}
	})
}

// CompleteLaundry takes the referenced items out of the laundry and restores
// their wear allowance. An item with no known allowance keeps its wear count.
func CompleteLaundry(items []model.ClothingItem, launderedIDs []string) []model.ClothingItem {
	return apply(items, launderedIDs, func(c *model.ClothingItem) {
		c.LaundryStatus = false
		if allowance := c.Properties.Count; allowance > 0 && allowance > c.WearCount {
			c.WearCount = allowance
		}
	})
}

// SendToLaundry marks the referenced items as in laundry without touching
// their wear counts.
func SendToLaundry(items []model.ClothingItem, ids []string) []model.ClothingItem {
	return apply(items, ids, func(c *model.ClothingItem) {
		c.LaundryStatus = true
	})
}

// InLaundry returns the items currently in laundry.
func InLaundry(items []model.ClothingItem) []model.ClothingItem {
	return filter(items, func(c model.ClothingItem) bool { return c.LaundryStatus })
}

// Available returns the items that can be picked for an outfit.
func Available(items []model.ClothingItem) []model.ClothingItem {
	return filter(items, model.ClothingItem.Eligible)
}

func apply(items []model.ClothingItem, ids []string, fn func(*model.ClothingItem)) []model.ClothingItem {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}

	out := make([]model.ClothingItem, len(items))
	copy(out, items)
	for i := range out {
		if set[out[i].ID] {
			fn(&out[i])
		}
	}
	return out
}

func filter(items []model.ClothingItem, keep func(model.ClothingItem) bool) []model.ClothingItem {
	out := []model.ClothingItem{}
	for _, c := range items {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
