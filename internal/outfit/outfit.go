// Package outfit builds weekly outfit rotations from the wardrobe inventory.
//
// Selection is a deterministic round-robin: for each slot, day i of the week
// gets pool[i mod len(pool)], where the pool is the eligible items of that
// category in inventory order.
package outfit

import "github.com/erazemk/omara/internal/model"

// Generate assigns an outfit of the given style to every day of the week.
// Every day is present in the result. Every slot of the style is present in
// each outfit, and it is nil when no eligible item fills it. Items are copied,
// so callers may mutate the result without touching the input.
func Generate(items []model.ClothingItem, style model.Style) model.Week {
	slots := style.Slots()
	pools := partition(items, style, slots)

	week := make(model.Week, len(model.Days))
	for i, day := range model.Days {
		o := make(model.Outfit, len(slots))
		for _, slot := range slots {
			pool := pools[slot]
			if len(pool) == 0 {
				o[slot] = nil
				continue
			}
			item := pool[i%len(pool)]
			o[slot] = &item
		}
		week[day] = o
	}
	return week
}

// ForDay returns a single day's outfit from a generated week.
func ForDay(week model.Week, day model.Day) (model.Outfit, bool) {
	o, ok := week[day]
	return o, ok
}

// UsedItemIDs returns the distinct ids of every item placed in the week,
// Monday first and slots in the order given by style.
func UsedItemIDs(week model.Week, style model.Style) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, day := range model.Days {
		o := week[day]
		for _, slot := range style.Slots() {
			item := o[slot]
			if item == nil || seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// partition groups eligible items of a style by slot, keeping inventory order.
func partition(items []model.ClothingItem, style model.Style, slots []model.Category) map[model.Category][]model.ClothingItem {
	wanted := make(map[model.Category]bool, len(slots))
	for _, s := range slots {
		wanted[s] = true
	}

	pools := make(map[model.Category][]model.ClothingItem, len(slots))
	for _, item := range items {
		if !item.Eligible() || item.Properties.DressStyle != style {
			continue
		}
		if !wanted[item.Category] {
			continue
		}
		pools[item.Category] = append(pools[item.Category], item)
	}
	return pools
}
