package urls

import "net/http"

// View names bound by the route table
const (
	ViewHomepage     = "homepage"
	ViewAboutIndex   = "about.index"
	ViewAboutContact = "about.contact"
	ViewContactPage  = "about.contact_page"
	ViewStoresIndex  = "stores.index"
	ViewStoreDetail  = "stores.detail"
	ViewDrinksIndex  = "drinks.index"
	ViewDrinkDetail  = "drinks.detail"
	ViewBannerIndex  = "banners.index"
	ViewHealth       = "health"
	ViewMetrics      = "metrics"

	ViewBadRequest       = "errors.400"
	ViewPermissionDenied = "errors.403"
	ViewNotFound         = "errors.404"
	ViewMethodNotAllowed = "errors.405"
	ViewServerError      = "errors.500"
)

const (
	storeID   = "{store_id:[0-9]+}"
	drinkType = "{drink_type:[^0-9/]+}"
)

var (
	get     = []string{http.MethodGet, http.MethodHead}
	getPost = []string{http.MethodGet, http.MethodHead, http.MethodPost}
)

// About holds the about pages
func About() Include {
	return Include{
		Prefix:    "about/",
		Namespace: "about",
		Patterns: []Pattern{
			{Path: "contact/", Name: "contact", View: ViewAboutContact},
			{Path: storeID + "/contact/", Name: "contact_page", View: ViewContactPage, Methods: getPost},
			{Path: storeID + "/", Name: "index", View: ViewAboutIndex, Methods: get},
			{Path: "", Name: "index", View: ViewAboutIndex, Methods: get},
		},
	}
}

// Stores holds the store pages, including each store's own about pages
func Stores() Include {
	return Include{
		Prefix:    "stores/",
		Namespace: "stores",
		Extra:     map[string]any{"location": "headquarters"},
		Includes: []Include{
			{
				Prefix:    storeID + "/about/",
				Namespace: "about",
				Patterns: []Pattern{
					{Path: "contact/", Name: "contact", View: ViewAboutContact},
					{Path: "", Name: "index", View: ViewAboutIndex, Methods: get},
				},
			},
		},
		Patterns: []Pattern{
			{Path: storeID + "/", Name: "detail", View: ViewStoreDetail, Methods: get},
			{Path: "", Name: "index", View: ViewStoresIndex, Methods: get},
		},
	}
}

// Drinks holds the drink pages. Every drink page is rendered as on sale.
func Drinks() Include {
	return Include{
		Prefix:    "drinks/",
		Namespace: "drinks",
		Extra:     map[string]any{"onsale": true},
		Patterns: []Pattern{
			{Path: drinkType + "/", Name: "detail", View: ViewDrinkDetail, Methods: get},
			{Path: "", Name: "index", View: ViewDrinksIndex, Methods: get},
		},
	}
}

// Banner categories, each mounting the banners include under its own namespace
var BannerCategories = []string{"coffee", "tea", "food"}

// Banners holds the banner pages of one category, e.g. "coffee" is served
// under /coffeebanners/ and named "coffee-banners:index".
func Banners(category string) Include {
	return Include{
		Prefix:    category + "banners/",
		Namespace: category + "-banners",
		Extra:     map[string]any{"banner": category},
		Patterns: []Pattern{
			{Path: "", Name: "index", View: ViewBannerIndex, Methods: get},
		},
	}
}

// Root is the site's complete route table
func Root() Include {
	return Include{
		Includes: rootIncludes(),
		Patterns: []Pattern{
			{Path: "health", Name: "health", View: ViewHealth, Methods: get},
			{Path: "metrics", Name: "metrics", View: ViewMetrics, Methods: get},
			{Path: "", Name: "homepage", View: ViewHomepage, Methods: get},
		},
	}
}

func rootIncludes() []Include {
	includes := []Include{About(), Stores(), Drinks()}
	for _, category := range BannerCategories {
		includes = append(includes, Banners(category))
	}
	return includes
}
