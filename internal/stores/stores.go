// Package stores holds the fixed list of coffeehouse locations.
package stores

import (
	"errors"

	"github.com/jikku/coffeehouse/internal/models"
)

// ErrStoreNotFound is returned when an identifier does not name a store
var ErrStoreNotFound = errors.New("store not found")

// list is defined once and never modified. Index 0 is the default store
// shown when no identifier is given.
var list = []models.Store{
	{
		Name:      "Corporate",
		Address:   models.Address{Street: "Ocean Avenue", City: "San Diego", State: "CA"},
		Amenities: []string{"WiFi", "A/C"},
		Menu:      defaultMenu(),
	},
	{
		Name:      "Downtown",
		Address:   models.Address{Street: "Main Street", City: "San Diego", State: "CA"},
		Amenities: []string{"WiFi", "A/C", "Drive-thru"},
		Menu:      defaultMenu(),
	},
	{
		Name:      "Uptown",
		Address:   models.Address{Street: "Park Boulevard", City: "San Diego", State: "CA"},
		Amenities: []string{"WiFi", "Outdoor seating"},
		Menu:      defaultMenu(),
	},
	{
		Name:      "Midtown",
		Address:   models.Address{Street: "Sunset Boulevard", City: "San Diego", State: "CA"},
		Amenities: []string{"A/C", "Parking"},
		Menu:      defaultMenu(),
	},
}

func defaultMenu() []models.MenuItem {
	return []models.MenuItem{
		{Index: 0, Label: "Starters"},
		{Index: 1, Label: "Salads"},
		{Index: 2, Label: "Burgers"},
		{Index: 3, Label: "Sandwiches"},
		{Index: 4, Label: "Drinks"},
		{Index: 5, Label: "Desserts"},
	}
}

// Lookup returns the store addressed by id. An empty id selects the
// default store; "1", "2" and "3" select the numbered locations.
func Lookup(id string) (models.Store, error) {
	switch id {
	case "":
		return list[0], nil
	case "1":
		return list[1], nil
	case "2":
		return list[2], nil
	case "3":
		return list[3], nil
	default:
		return models.Store{}, ErrStoreNotFound
	}
}

// Entry pairs a store with the identifier that addresses it
type Entry struct {
	ID    string
	Store models.Store
}

// Numbered returns the stores reachable by identifier, in order
func Numbered() []Entry {
	ids := []string{"1", "2", "3"}
	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		s, _ := Lookup(id)
		entries = append(entries, Entry{ID: id, Store: s})
	}
	return entries
}

// SaleItems returns the items currently on sale, grouped by meal
func SaleItems() map[string][]string {
	return map[string][]string{
		"Breakfast": {"Bagel", "Donut"},
		"Lunch":     {"Panini", "Wrap"},
		"Dinner":    {"Soup", "Pasta"},
	}
}
