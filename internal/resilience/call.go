package resilience

import "context"

// Call runs fn through the breaker. Errors for which expected returns true
// (such as a missing row) count as a healthy backend. A nil breaker calls fn
// directly.
func Call[T any](ctx context.Context, b *Breaker, expected func(error) bool, fn func(context.Context) (T, error)) (T, error) {
	if b == nil {
		return fn(ctx)
	}
	var zero T
	if !b.Allow(ctx) {
		return zero, ErrOpenCircuit
	}
	v, err := fn(ctx)
	healthy := err == nil || (expected != nil && expected(err)) || ctx.Err() != nil
	b.Report(ctx, healthy)
	return v, err
}
