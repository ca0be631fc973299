package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/discount-store/internal/discount"
)

// Rule transforms a full item list, applying or removing one promotion type.
type Rule interface {
	Type() discount.Type
	Apply(ctx context.Context, items []Item) ([]Item, error)
}

// MultiBuy bills every complete group of N units of a product at the
// configured discounted unit price and leaves the remainder at full price.
type MultiBuy struct {
	kind      discount.Type
	groupSize int
	source    discount.Source
}

// NewMultiBuy builds an N-for-X rule for kind.
func NewMultiBuy(kind discount.Type, groupSize int, source discount.Source) *MultiBuy {
	return &MultiBuy{kind: kind, groupSize: groupSize, source: source}
}

// NewTwoForX discounts complete pairs.
func NewTwoForX(source discount.Source) *MultiBuy {
	return NewMultiBuy(discount.TwoForX, 2, source)
}

// NewThreeForX discounts complete triples.
func NewThreeForX(source discount.Source) *MultiBuy {
	return NewMultiBuy(discount.ThreeForX, 3, source)
}

// DefaultRules returns the registered promotions in application order.
func DefaultRules(source discount.Source) []Rule {
	return []Rule{NewTwoForX(source), NewThreeForX(source)}
}

// Type implements Rule.
func (m *MultiBuy) Type() discount.Type { return m.kind }

// GroupSize returns N.
func (m *MultiBuy) GroupSize() int { return m.groupSize }

// Apply implements Rule.
//
// Lines carrying this rule's marker are released and re-evaluated, so a line
// whose quantity no longer fills a group loses the discount. A product already
// discounted by another rule is left alone, including its undiscounted
// remainder, so a product never carries two marker kinds: the first claim
// wins until its holder releases it. Without any definition for this type
// the input is returned unchanged.
func (m *MultiBuy) Apply(ctx context.Context, items []Item) ([]Item, error) {
	if len(items) == 0 {
		return []Item{}, nil
	}
	if m.source == nil || m.groupSize <= 0 {
		return nil, errors.New("multi-buy rule not configured")
	}
	defs, err := m.source.DefinitionsByType(ctx, m.kind)
	if err != nil {
		return nil, fmt.Errorf("load %s definitions: %w", m.kind, err)
	}
	if len(defs) == 0 {
		return cloneItems(items), nil
	}

	released, err := Normalize(m.release(items))
	if err != nil {
		return nil, err
	}
	claimed := make(map[int64]bool)
	for _, it := range released {
		if it.Discount != nil {
			claimed[it.Product.ID] = true
		}
	}
	out := make([]Item, 0, len(released)+1)
	for _, it := range released {
		if it.Discount != nil || claimed[it.Product.ID] {
			out = append(out, it)
			continue
		}
		def, ok := discount.FirstForProduct(defs, it.Product.ID)
		if !ok || it.Quantity < m.groupSize {
			out = append(out, it)
			continue
		}
		rem := it.Quantity % m.groupSize
		out = append(out, it.withQuantity(it.Quantity-rem).withDiscount(def.Marker()))
		if rem != 0 {
			out = append(out, it.withQuantity(rem))
		}
	}
	return out, nil
}

func (m *MultiBuy) release(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Discount != nil && it.Discount.Type == m.kind {
			out = append(out, it.withDiscount(nil))
			continue
		}
		out = append(out, it.clone())
	}
	return out
}
