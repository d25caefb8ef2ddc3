package stores

import (
	"net/http"

	"github.com/jikku/coffeehouse/internal/templates"
)

// OnSale is a context processor exposing the sale items to every page
func OnSale() templates.Processor {
	return func(*http.Request) templates.Context {
		return templates.Context{"SaleItems": SaleItems()}
	}
}
