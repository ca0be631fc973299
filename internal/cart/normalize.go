package cart

import "fmt"

type mergeGroup struct {
	discounted *Item
	regular    *Item
}

// Normalize collapses items into canonical form: per product at most one
// discounted line followed by at most one undiscounted line, groups kept in
// first-seen order. Lines with a non-positive quantity are dropped. The input
// is never modified.
func Normalize(items []Item) ([]Item, error) {
	order := make([]int64, 0, len(items))
	groups := make(map[int64]*mergeGroup, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		id := it.Product.ID
		g, ok := groups[id]
		if !ok {
			g = &mergeGroup{}
			groups[id] = g
			order = append(order, id)
		}
		if it.Discount != nil {
			if g.discounted == nil {
				first := it.clone()
				g.discounted = &first
				continue
			}
			if *g.discounted.Discount != *it.Discount {
				return nil, fmt.Errorf("%w: product %d has %s@%d and %s@%d", ErrConflictingDiscount, id,
					g.discounted.Discount.Type, g.discounted.Discount.DiscountedUnitPrice,
					it.Discount.Type, it.Discount.DiscountedUnitPrice)
			}
			g.discounted.Quantity += it.Quantity
			continue
		}
		if g.regular == nil {
			first := it.clone()
			g.regular = &first
			continue
		}
		g.regular.Quantity += it.Quantity
	}

	out := make([]Item, 0, len(order)*2)
	for _, id := range order {
		g := groups[id]
		if g.discounted != nil {
			out = append(out, *g.discounted)
		}
		if g.regular != nil {
			out = append(out, *g.regular)
		}
	}
	return out, nil
}
