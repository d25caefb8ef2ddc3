package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/jikku/coffeehouse/internal/templates"
)

// BadRequest renders the 400 page
func (h *Handler) BadRequest(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusBadRequest)
}

// PermissionDenied renders the 403 page
func (h *Handler) PermissionDenied(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusForbidden)
}

// NotFound renders the 404 page
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound)
}

// MethodNotAllowed renders the 405 page
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusMethodNotAllowed)
}

// ServerError renders the 500 page
func (h *Handler) ServerError(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusInternalServerError)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int) {
	name := fmt.Sprintf("errors/%d.html", status)
	err := h.renderer.Render(w, r, name, templates.Context{"status": status}, status)
	if err != nil {
		h.logger.Error("Failed to render error page", zap.Int("status", status), zap.Error(err))
		http.Error(w, http.StatusText(status), status)
	}
}
