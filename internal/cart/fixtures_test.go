package cart_test

import (
	"context"
	"errors"

	"github.com/noah-isme/discount-store/internal/cart"
	"github.com/noah-isme/discount-store/internal/catalog"
	"github.com/noah-isme/discount-store/internal/discount"
)

const (
	vaseID    int64 = 1
	mugID     int64 = 2
	napkinsID int64 = 3
)

var (
	vase    = catalog.Product{ID: vaseID, Name: "Vase", Price: 120}
	mug     = catalog.Product{ID: mugID, Name: "Big mug", Price: 100}
	napkins = catalog.Product{ID: napkinsID, Name: "Napkins pack", Price: 45}

	mugDeal     = discount.Definition{ID: 1, Type: discount.TwoForX, ProductID: mugID, DiscountedUnitPrice: 75}
	napkinsDeal = discount.Definition{ID: 2, Type: discount.ThreeForX, ProductID: napkinsID, DiscountedUnitPrice: 30}
)

func storeCatalog() *catalog.Static {
	return catalog.NewStatic(vase, mug, napkins)
}

func storeDiscounts() *discount.Static {
	return discount.NewStatic(mugDeal, napkinsDeal)
}

func storePipeline() *cart.Pipeline {
	return cart.NewPipeline(storeCatalog(), cart.DefaultRules(storeDiscounts()), nil)
}

func marker(t discount.Type, price int64) *discount.Applied {
	return &discount.Applied{Type: t, DiscountedUnitPrice: price}
}

func quantities(items []cart.Item) int {
	var n int
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// countingSource records lookups so tests can assert none happened.
type countingSource struct {
	inner discount.Source
	calls int
	err   error
}

func (c *countingSource) DefinitionsByType(ctx context.Context, t discount.Type) ([]discount.Definition, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.DefinitionsByType(ctx, t)
}

var errBackend = errors.New("backend unavailable")
