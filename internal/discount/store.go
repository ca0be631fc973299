package discount

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool used by Store.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const listDiscountsByType = `SELECT id, discount_type, product_id, discounted_unit_price_minor
FROM discounts
WHERE discount_type = $1
ORDER BY id`

// Store reads discount definitions from PostgreSQL.
type Store struct {
	db Querier
}

// NewStore constructs a Store.
func NewStore(db Querier) *Store {
	return &Store{db: db}
}

// DefinitionsByType implements Source.
func (s *Store) DefinitionsByType(ctx context.Context, t Type) ([]Definition, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("discount store not configured")
	}
	rows, err := s.db.Query(ctx, listDiscountsByType, int(t))
	if err != nil {
		return nil, fmt.Errorf("list %s discounts: %w", t, err)
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Definition, error) {
	defs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Definition, error) {
		var (
			d    Definition
			kind int32
		)
		if err := row.Scan(&d.ID, &kind, &d.ProductID, &d.DiscountedUnitPrice); err != nil {
			return Definition{}, err
		}
		d.Type = Type(kind)
		return d, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan discounts: %w", err)
	}
	return defs, nil
}
