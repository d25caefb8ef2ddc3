// Package drinks holds the fixed drink categories shown on the drinks pages.
package drinks

import (
	"strings"

	"github.com/jikku/coffeehouse/internal/models"
)

var list = []models.Drink{
	{Slug: "espresso", Name: "Espresso", Description: "Short and strong, pulled to order."},
	{Slug: "latte", Name: "Latte", Description: "Espresso with steamed milk."},
	{Slug: "mocha", Name: "Mocha", Description: "Espresso, chocolate and milk."},
	{Slug: "tea", Name: "Tea", Description: "Loose leaf black, green and herbal teas."},
	{Slug: "cold-brew", Name: "Cold Brew", Description: "Steeped overnight and served over ice."},
}

// All returns every drink category
func All() []models.Drink {
	out := make([]models.Drink, len(list))
	copy(out, list)
	return out
}

// Find returns the drink whose slug matches kind, ignoring case.
// Unknown kinds are not an error; the detail page renders them as-is.
func Find(kind string) (models.Drink, bool) {
	for _, d := range list {
		if strings.EqualFold(d.Slug, kind) {
			return d, true
		}
	}
	return models.Drink{}, false
}
