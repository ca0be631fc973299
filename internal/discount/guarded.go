package discount

import (
	"context"

	"github.com/noah-isme/discount-store/internal/resilience"
)

// Guarded routes definition lookups through a circuit breaker.
type Guarded struct {
	Inner   Source
	Breaker *resilience.Breaker
}

// DefinitionsByType implements Source.
func (g Guarded) DefinitionsByType(ctx context.Context, t Type) ([]Definition, error) {
	return resilience.Call(ctx, g.Breaker, nil, func(ctx context.Context) ([]Definition, error) {
		return g.Inner.DefinitionsByType(ctx, t)
	})
}
