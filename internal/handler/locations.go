package handler

import (
	"net/http"

	"shopify-variant-reset/internal/shopify"
	"shopify-variant-reset/pkg/apierror"
	"shopify-variant-reset/pkg/response"
)

// LocationHandler reports the store's warehouse locations. Operators use
// it to sanity-check which locations a run will preserve.
type LocationHandler struct {
	client *shopify.Client
}

// NewLocationHandler creates a new location handler.
func NewLocationHandler(client *shopify.Client) *LocationHandler {
	return &LocationHandler{client: client}
}

// List handles GET /api/v1/locations
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	locations, err := h.client.Locations(r.Context())
	if err != nil {
		response.Error(w, apierror.InternalError("failed to fetch locations"))
		return
	}
	response.OK(w, map[string]interface{}{"locations": locations})
}
