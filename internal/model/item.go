package model

import (
	"errors"
	"fmt"
)

// ErrInvalidItem is returned when an item fails its presence checks.
var ErrInvalidItem = errors.New("invalid item")

// Category is the slot role a clothing item fills in an outfit.
type Category string

// Known categories. Other values are stored but never used by generation.
const (
	CategoryTop     Category = "top"
	CategoryBottom  Category = "bottom"
	CategoryInner   Category = "inner"
	CategoryBaniyan Category = "baniyan"
	CategorySocks   Category = "socks"
	CategoryShorts  Category = "shorts"
)

// Style is the dress style an item belongs to and an outfit is generated for.
type Style string

// Dress styles.
const (
	StyleFormal Style = "formal"
	StyleCasual Style = "casual"
)

// Valid reports whether s is a known dress style.
func (s Style) Valid() bool {
	return s == StyleFormal || s == StyleCasual
}

// Slots returns the outfit slots filled for a style, in display order.
func (s Style) Slots() []Category {
	switch s {
	case StyleFormal:
		return []Category{CategoryTop, CategoryBottom, CategoryInner, CategoryBaniyan, CategorySocks}
	case StyleCasual:
		return []Category{CategoryTop, CategoryBottom, CategoryShorts}
	default:
		return nil
	}
}

// Properties holds the user-supplied details of an item.
type Properties struct {
	Name       string `json:"name"`
	DressStyle Style  `json:"dressStyle"`
	Tag        string `json:"tag,omitempty"`

	// Count is the wear allowance an item is restored to after laundry.
	Count int `json:"count"`
}

// ClothingItem is a single piece of clothing in the wardrobe.
type ClothingItem struct {
	ID            string     `json:"id"`
	Image         string     `json:"image,omitempty"`
	Category      Category   `json:"category"`
	Properties    Properties `json:"properties"`
	WearCount     int        `json:"wearCount"`
	LaundryStatus bool       `json:"laundryStatus"`
}

// Eligible reports whether the item may be picked for an outfit.
func (c ClothingItem) Eligible() bool {
	return !c.LaundryStatus && c.WearCount > 0
}

// Validate runs presence checks on the item.
func (c ClothingItem) Validate() error {
	switch {
	case c.ID == "":
		return fmt.Errorf("%w: id required", ErrInvalidItem)
	case c.Category == "":
		return fmt.Errorf("%w: category required", ErrInvalidItem)
	case c.Properties.Name == "":
		return fmt.Errorf("%w: name required", ErrInvalidItem)
	case !c.Properties.DressStyle.Valid():
		return fmt.Errorf("%w: dress style must be formal or casual", ErrInvalidItem)
	case c.Properties.Count < 0:
		return fmt.Errorf("%w: count must not be negative", ErrInvalidItem)
	case c.WearCount < 0:
		return fmt.Errorf("%w: wear count must not be negative", ErrInvalidItem)
	}
	return nil
}
