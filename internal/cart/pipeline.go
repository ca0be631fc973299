package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/discount-store/internal/catalog"
	"github.com/noah-isme/discount-store/internal/obs"
	"github.com/noah-isme/discount-store/internal/pricing"
)

// Pipeline re-derives a cart snapshot after a single add or remove.
type Pipeline struct {
	Products catalog.Lookup
	Rules    []Rule
	Logger   *zerolog.Logger
}

// NewPipeline wires a pipeline with rules applied in the given order.
func NewPipeline(products catalog.Lookup, rules []Rule, logger *zerolog.Logger) *Pipeline {
	return &Pipeline{Products: products, Rules: rules, Logger: logger}
}

// AddItem adds one unit of productID to c and returns the repriced snapshot.
func (p *Pipeline) AddItem(ctx context.Context, c *Cart, productID int64) (*Cart, error) {
	ctx, span := otel.Tracer("cart.Pipeline").Start(ctx, "Pipeline.AddItem")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", productID))

	start := time.Now()
	out, err := p.addItem(ctx, c, productID)
	p.finish(span, "add_item", start, out, err)
	return out, err
}

func (p *Pipeline) addItem(ctx context.Context, c *Cart, productID int64) (*Cart, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: cart is required", ErrInvalidInput)
	}
	product, err := p.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	items := cloneItems(c.Items)
	items = append(items, NewItem(product, 1))
	items, err = Normalize(items)
	if err != nil {
		return nil, err
	}
	return p.price(ctx, items)
}

// RemoveItem takes one unit of productID out of c. The undiscounted line is
// decremented first; a decremented discounted line loses its marker and the
// rules decide again whether what remains qualifies.
func (p *Pipeline) RemoveItem(ctx context.Context, c *Cart, productID int64) (*Cart, error) {
	ctx, span := otel.Tracer("cart.Pipeline").Start(ctx, "Pipeline.RemoveItem")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", productID))

	start := time.Now()
	out, err := p.removeItem(ctx, c, productID)
	p.finish(span, "remove_item", start, out, err)
	return out, err
}

func (p *Pipeline) removeItem(ctx context.Context, c *Cart, productID int64) (*Cart, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: cart is required", ErrInvalidInput)
	}
	if !c.Contains(productID) {
		return nil, fmt.Errorf("%w: product %d", ErrNotInCart, productID)
	}
	if _, err := p.product(ctx, productID); err != nil {
		return nil, err
	}
	return p.price(ctx, removeOne(c.Items, productID))
}

// removeOne decrements a single unit of productID, preferring the
// undiscounted line. A decremented discounted line is released so a retired
// promotion cannot keep pricing a quantity below its group size. Lines
// reaching zero are dropped.
func removeOne(items []Item, productID int64) []Item {
	target := -1
	for i, it := range items {
		if it.Product.ID != productID || it.Quantity <= 0 {
			continue
		}
		if it.Discount == nil {
			target = i
			break
		}
		if target < 0 {
			target = i
		}
	}
	out := make([]Item, 0, len(items))
	for i, it := range items {
		if i == target {
			if it.Quantity > 1 {
				out = append(out, it.withQuantity(it.Quantity-1).withDiscount(nil))
			}
			continue
		}
		out = append(out, it.clone())
	}
	return out
}

// Total sums the snapshot. A nil cart totals zero.
func (p *Pipeline) Total(c *Cart) pricing.Money {
	return Total(c)
}

func (p *Pipeline) product(ctx context.Context, productID int64) (catalog.Product, error) {
	if p == nil || p.Products == nil {
		return catalog.Product{}, errors.New("cart pipeline not configured")
	}
	product, err := p.Products.ProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.Product{}, fmt.Errorf("%w: %d: %w", ErrProductNotFound, productID, err)
		}
		return catalog.Product{}, fmt.Errorf("lookup product %d: %w", productID, err)
	}
	return product, nil
}

// price runs every rule in order, canonicalizing after each one.
func (p *Pipeline) price(ctx context.Context, items []Item) (*Cart, error) {
	current, err := Normalize(items)
	if err != nil {
		return nil, err
	}
	for _, rule := range p.Rules {
		current, err = p.applyRule(ctx, rule, current)
		if err != nil {
			return nil, err
		}
	}
	current, err = Normalize(current)
	if err != nil {
		return nil, err
	}
	return &Cart{Items: current}, nil
}

func (p *Pipeline) applyRule(ctx context.Context, rule Rule, items []Item) ([]Item, error) {
	name := rule.Type().String()
	ctx, span := otel.Tracer("cart.Pipeline").Start(ctx, "Rule.Apply")
	defer span.End()
	span.SetAttributes(attribute.String("discount.rule", name))

	out, err := rule.Apply(ctx, items)
	if err == nil {
		out, err = Normalize(out)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		obs.RecordRuleApplication(name, "error")
		return nil, fmt.Errorf("apply %s: %w", name, err)
	}

	var discounted int
	for _, it := range out {
		if it.Discount != nil && it.Discount.Type == rule.Type() {
			discounted += it.Quantity
		}
	}
	outcome := "skipped"
	if discounted > 0 {
		outcome = "applied"
	}
	span.SetAttributes(attribute.Int("discount.units", discounted))
	obs.RecordRuleApplication(name, outcome)
	if p.Logger != nil {
		p.Logger.Debug().
			Str("rule", name).
			Int("lines_in", len(items)).
			Int("lines_out", len(out)).
			Int("discounted_units", discounted).
			Msg("discount rule applied")
	}
	return out, nil
}

func (p *Pipeline) finish(span trace.Span, operation string, start time.Time, out *Cart, err error) {
	elapsed := time.Since(start)
	result := "ok"
	switch {
	case err == nil:
		span.SetAttributes(
			attribute.Int("cart.lines", len(out.Items)),
			attribute.Int64("cart.total", out.Total()),
		)
	case errors.Is(err, ErrInvalidInput):
		result = "invalid"
	case errors.Is(err, ErrProductNotFound):
		result = "not_found"
	case errors.Is(err, ErrNotInCart):
		result = "not_in_cart"
	default:
		result = "error"
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("cart.result", result))
	obs.RecordCartMutation(operation, result, elapsed)
	if p != nil && p.Logger != nil {
		p.Logger.Debug().
			Str("operation", operation).
			Str("result", result).
			Dur("elapsed", elapsed).
			Msg("cart pipeline")
	}
}
