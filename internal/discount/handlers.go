package discount

import (
	"context"
	"net/http"

	"github.com/noah-isme/discount-store/internal/common"
)

// Promotion groups the definitions of one rule type for display.
type Promotion struct {
	Type        Type         `json:"type"`
	Name        string       `json:"name"`
	Definitions []Definition `json:"definitions"`
}

// Handler exposes read-only promotion endpoints.
type Handler struct {
	Source Source
}

// List handles GET /api/v1/promotions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Source == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount source not configured", nil)
		return
	}
	promos, err := Promotions(r.Context(), h.Source)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load promotions", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": promos})
}

// Promotions loads the definitions of every rule type in registration order.
func Promotions(ctx context.Context, src Source) ([]Promotion, error) {
	out := make([]Promotion, 0, len(Types()))
	for _, t := range Types() {
		defs, err := src.DefinitionsByType(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, Promotion{Type: t, Name: t.DisplayName(), Definitions: defs})
	}
	return out, nil
}
