package obs

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type routePatternKey struct{}

// WithRoutePattern pins the route label for requests served outside a chi
// router.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// Route returns the matched route pattern of r. chi fills the pattern while
// routing, so call it after the wrapped handler has returned.
func Route(r *http.Request) string {
	ctx := r.Context()
	if v, _ := ctx.Value(routePatternKey{}).(string); v != "" {
		return v
	}
	if rc := chi.RouteContext(ctx); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}
