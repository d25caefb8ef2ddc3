package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/jikku/coffeehouse/internal/drinks"
	"github.com/jikku/coffeehouse/internal/models"
	"github.com/jikku/coffeehouse/internal/stores"
	"github.com/jikku/coffeehouse/internal/templates"
	"github.com/jikku/coffeehouse/internal/urls"
)

// UnsupportedOperation is the reply to a POST on the contact page
const UnsupportedOperation = "Unsupported operation"

// Homepage renders the static homepage
func (h *Handler) Homepage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "homepage.html", nil)
}

// AboutIndex renders the about page of the store named in the path, or
// of the default store when the path names none.
func (h *Handler) AboutIndex(w http.ResponseWriter, r *http.Request) {
	store, ok := h.lookupStore(w, r)
	if !ok {
		return
	}
	h.render(w, r, "about/index.html", templates.Context{"store": store})
}

// ContactRedirect permanently redirects to the about index
func (h *Handler) ContactRedirect(w http.ResponseWriter, r *http.Request) {
	target, err := h.reverse("about:index")
	if err != nil {
		h.logger.Error("Failed to reverse about index", zap.Error(err))
		h.ServerError(w, r)
		return
	}
	http.Redirect(w, r, target, http.StatusMovedPermanently)
}

// ContactPage renders a store's contact page on GET and refuses POST
func (h *Handler) ContactPage(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		store, ok := h.lookupStore(w, r)
		if !ok {
			return
		}
		h.render(w, r, "about/contact.html", templates.Context{"store": store})
	case http.MethodPost:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(UnsupportedOperation))
	default:
		h.MethodNotAllowed(w, r)
	}
}

// StoresIndex lists every numbered store
func (h *Handler) StoresIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "stores/index.html", templates.Context{"stores": stores.Numbered()})
}

// StoreDetail renders one store. The hours and map query parameters are
// passed through to the page and recorded with the visit.
func (h *Handler) StoreDetail(w http.ResponseWriter, r *http.Request) {
	store, ok := h.lookupStore(w, r)
	if !ok {
		return
	}

	id := urls.Vars(r)["store_id"]
	hours := r.URL.Query().Get("hours")
	mapType := r.URL.Query().Get("map")

	if h.metrics != nil {
		h.metrics.StoreViewed(id)
	}
	if h.visits != nil {
		visit := models.Visit{
			StoreID:   id,
			Path:      r.URL.Path,
			Hours:     hours,
			Map:       mapType,
			UserAgent: r.UserAgent(),
		}
		if err := h.visits.RecordVisit(r.Context(), visit); err != nil {
			h.logger.Warn("Failed to record visit", zap.String("store_id", id), zap.Error(err))
		}
	}

	ctx := templates.Context{
		"store":    store,
		"store_id": id,
		"hours":    hours,
		"map":      mapType,
	}
	if location, ok := urls.Extra(r)["location"]; ok {
		ctx["location"] = location
	}
	h.render(w, r, "stores/detail.html", ctx)
}

// DrinksIndex lists the drink categories
func (h *Handler) DrinksIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "drinks/index.html", templates.Context{
		"drinks": drinks.All(),
		"onsale": urls.Extra(r)["onsale"] == true,
	})
}

// DrinkDetail renders any drink type the route lets through. Known types
// get their description; others render with the type name only.
func (h *Handler) DrinkDetail(w http.ResponseWriter, r *http.Request) {
	kind := urls.Vars(r)["drink_type"]
	ctx := templates.Context{
		"drink_type": kind,
		"onsale":     urls.Extra(r)["onsale"] == true,
	}
	if d, ok := drinks.Find(kind); ok {
		ctx["drink"] = d
	}
	h.render(w, r, "drinks/detail.html", ctx)
}

// BannerIndex renders the banner page of the category the banners
// include was mounted for
func (h *Handler) BannerIndex(w http.ResponseWriter, r *http.Request) {
	category, _ := urls.Extra(r)["banner"].(string)
	h.render(w, r, "banners/index.html", templates.Context{"banner": category})
}

// lookupStore resolves the store_id path variable. It writes the 404 page
// and returns false when the identifier names no store.
func (h *Handler) lookupStore(w http.ResponseWriter, r *http.Request) (models.Store, bool) {
	store, err := stores.Lookup(urls.Vars(r)["store_id"])
	if errors.Is(err, stores.ErrStoreNotFound) {
		h.NotFound(w, r)
		return models.Store{}, false
	}
	return store, true
}
