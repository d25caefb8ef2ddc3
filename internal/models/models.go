package models

import (
	"strings"
	"time"
)

// Address is the street location of a store
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
}

// String formats the address on one line
func (a Address) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Street, a.City, a.State} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// MenuItem is one entry of a store menu. Index keeps the menu order.
type MenuItem struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// Store represents a coffeehouse location
type Store struct {
	Name      string     `json:"name"`
	Address   Address    `json:"address"`
	Amenities []string   `json:"amenities"`
	Menu      []MenuItem `json:"menu"`
}

// HasAmenity reports whether the store lists the given amenity
func (s Store) HasAmenity(name string) bool {
	for _, a := range s.Amenities {
		if strings.EqualFold(a, name) {
			return true
		}
	}
	return false
}

// Drink represents a drink category on the drinks pages
type Drink struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Visit represents a recorded store page view
type Visit struct {
	ID        int64     `json:"id" db:"id"`
	StoreID   string    `json:"store_id" db:"store_id"`
	Path      string    `json:"path" db:"path"`
	Hours     string    `json:"hours" db:"hours"`
	Map       string    `json:"map" db:"map"`
	UserAgent string    `json:"user_agent" db:"user_agent"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
