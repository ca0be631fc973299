package catalog

import (
	"net/http"

	"github.com/noah-isme/discount-store/internal/common"
)

// Handler exposes public catalog endpoints.
type Handler struct {
	Products Lister
	Currency string
}

// List handles GET /api/v1/products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Products == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	products, err := h.Products.List(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load products", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":     products,
		"currency": h.Currency,
	})
}
