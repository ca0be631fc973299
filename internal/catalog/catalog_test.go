package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/discount-store/internal/cache"
	"github.com/noah-isme/discount-store/internal/catalog"
)

var (
	vase    = catalog.Product{ID: 1, Name: "Vase", Price: 120}
	bigMug  = catalog.Product{ID: 2, Name: "Big mug", Price: 100}
	napkins = catalog.Product{ID: 3, Name: "Napkins pack", Price: 45}
)

type countingCatalog struct {
	inner   *catalog.Static
	lookups int
	lists   int
}

func (c *countingCatalog) ProductByID(ctx context.Context, id int64) (catalog.Product, error) {
	c.lookups++
	return c.inner.ProductByID(ctx, id)
}

func (c *countingCatalog) List(ctx context.Context) ([]catalog.Product, error) {
	c.lists++
	return c.inner.List(ctx)
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestStaticLookup(t *testing.T) {
	s := catalog.NewStatic(napkins, vase, bigMug)
	p, err := s.ProductByID(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, bigMug, p)

	_, err = s.ProductByID(context.Background(), 99)
	require.ErrorIs(t, err, catalog.ErrNotFound)

	list, err := s.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []catalog.Product{vase, bigMug, napkins}, list)
}

func TestCachedLookupReadsThrough(t *testing.T) {
	inner := &countingCatalog{inner: catalog.NewStatic(vase, bigMug)}
	cached := catalog.CachedLookup{Inner: inner, Cache: cache.New(newRedis(t), "", time.Minute)}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := cached.ProductByID(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, vase, p)
	}
	require.Equal(t, 1, inner.lookups)

	for i := 0; i < 2; i++ {
		list, err := cached.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
	}
	require.Equal(t, 1, inner.lists)
}

func TestCachedLookupDoesNotCacheMisses(t *testing.T) {
	inner := &countingCatalog{inner: catalog.NewStatic()}
	cached := catalog.CachedLookup{Inner: inner, Cache: cache.New(newRedis(t), "", time.Minute)}

	for i := 0; i < 2; i++ {
		_, err := cached.ProductByID(context.Background(), 42)
		require.ErrorIs(t, err, catalog.ErrNotFound)
	}
	require.Equal(t, 2, inner.lookups)
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch ptr := d.(type) {
		case *int64:
			*ptr = r.values[i].(int64)
		case *string:
			*ptr = r.values[i].(string)
		}
	}
	return nil
}

type fakeQuerier struct {
	row  fakeRow
	args []any
}

func (q *fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (q *fakeQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	q.args = args
	return q.row
}

func TestStoreProductByID(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{values: []any{int64(3), "Napkins pack", int64(45)}}}
	p, err := catalog.NewStore(q).ProductByID(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, napkins, p)
	require.Equal(t, []any{int64(3)}, q.args)
}

func TestStoreProductByIDNotFound(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}
	_, err := catalog.NewStore(q).ProductByID(context.Background(), 7)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestHandlerList(t *testing.T) {
	h := &catalog.Handler{Products: catalog.NewStatic(bigMug, vase), Currency: "USD"}
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data     []catalog.Product `json:"data"`
		Currency string            `json:"currency"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, []catalog.Product{vase, bigMug}, resp.Data)
	require.Equal(t, "USD", resp.Currency)
}
