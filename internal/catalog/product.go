package catalog

import (
	"context"
	"errors"
	"sort"

	"github.com/noah-isme/discount-store/internal/pricing"
)

// ErrNotFound indicates the requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is the reference data a cart line snapshots.
type Product struct {
	ID    int64         `json:"id"`
	Name  string        `json:"name"`
	Price pricing.Money `json:"price"`
}

// Lookup resolves a product by identifier.
type Lookup interface {
	ProductByID(ctx context.Context, id int64) (Product, error)
}

// Lister returns every product ordered by identifier.
type Lister interface {
	List(ctx context.Context) ([]Product, error)
}

// Catalog is the union of Lookup and Lister.
type Catalog interface {
	Lookup
	Lister
}

// Static is an in-memory catalog.
type Static struct {
	products map[int64]Product
}

// NewStatic builds a Static catalog from the given products.
func NewStatic(products ...Product) *Static {
	s := &Static{products: make(map[int64]Product, len(products))}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

// ProductByID implements Lookup.
func (s *Static) ProductByID(_ context.Context, id int64) (Product, error) {
	if s == nil {
		return Product{}, ErrNotFound
	}
	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

// List implements Lister.
func (s *Static) List(_ context.Context) ([]Product, error) {
	if s == nil {
		return []Product{}, nil
	}
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
