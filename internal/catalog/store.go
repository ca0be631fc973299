package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool used by the stores.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const getProductByID = `SELECT id, name, price_minor FROM products WHERE id = $1`

const listProducts = `SELECT id, name, price_minor FROM products ORDER BY id`

// Store reads products from PostgreSQL.
type Store struct {
	db Querier
}

// NewStore constructs a Store.
func NewStore(db Querier) *Store {
	return &Store{db: db}
}

// ProductByID loads a single product.
func (s *Store) ProductByID(ctx context.Context, id int64) (Product, error) {
	if s == nil || s.db == nil {
		return Product{}, errors.New("catalog store not configured")
	}
	var p Product
	if err := s.db.QueryRow(ctx, getProductByID, id).Scan(&p.ID, &p.Name, &p.Price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

// List loads every product ordered by identifier.
func (s *Store) List(ctx context.Context) ([]Product, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("catalog store not configured")
	}
	rows, err := s.db.Query(ctx, listProducts)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Product, error) {
		var p Product
		err := row.Scan(&p.ID, &p.Name, &p.Price)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}
	return products, nil
}
