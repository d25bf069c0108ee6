package model

import "time"

// Day is a calendar day name.
type Day string

// Days of the week.
const (
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
	Saturday  Day = "Saturday"
	Sunday    Day = "Sunday"
)

// Days lists the week starting on Monday.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseDay matches a day name case-sensitively against Days.
func ParseDay(s string) (Day, bool) {
	for _, d := range Days {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// Outfit maps each slot to the item picked for it. A nil value is an empty slot.
type Outfit map[Category]*ClothingItem

// Week is a weekly outfit assignment.
type Week map[Day]Outfit

// WornEntry records that an item was worn on a date.
type WornEntry struct {
	ItemID string    `json:"itemId"`
	Date   time.Time `json:"date"`
}

// SavedOutfit is a confirmed week kept so it can be looked at later. The
// items are copies taken before the week's wears were applied.
type SavedOutfit struct {
	ID    string    `json:"id"`
	Style Style     `json:"style"`
	Date  time.Time `json:"date"`
	Week  Week      `json:"week"`
}
