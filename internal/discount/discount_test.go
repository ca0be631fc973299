package discount_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/discount-store/internal/cache"
	"github.com/noah-isme/discount-store/internal/discount"
)

func seeded() *discount.Static {
	return discount.NewStatic(
		discount.Definition{ID: 2, Type: discount.ThreeForX, ProductID: 3, DiscountedUnitPrice: 30},
		discount.Definition{ID: 1, Type: discount.TwoForX, ProductID: 2, DiscountedUnitPrice: 75},
	)
}

func TestTypeText(t *testing.T) {
	data, err := json.Marshal(discount.Applied{Type: discount.ThreeForX, DiscountedUnitPrice: 30})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"ThreeForX","discountedUnitPrice":30}`, string(data))

	var got discount.Applied
	require.NoError(t, json.Unmarshal([]byte(`{"type":"twoforx","discountedUnitPrice":75}`), &got))
	require.Equal(t, discount.TwoForX, got.Type)

	_, err = discount.ParseType("FourForX")
	require.ErrorIs(t, err, discount.ErrUnknownType)

	_, err = json.Marshal(discount.Type(9))
	require.Error(t, err)
	require.Equal(t, "Three for X", discount.ThreeForX.DisplayName())
}

func TestStaticFiltersByTypeInIDOrder(t *testing.T) {
	src := discount.NewStatic(
		discount.Definition{ID: 5, Type: discount.TwoForX, ProductID: 9, DiscountedUnitPrice: 10},
		discount.Definition{ID: 1, Type: discount.TwoForX, ProductID: 9, DiscountedUnitPrice: 20},
		discount.Definition{ID: 3, Type: discount.ThreeForX, ProductID: 9, DiscountedUnitPrice: 30},
	)
	defs, err := src.DefinitionsByType(context.Background(), discount.TwoForX)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	require.Equal(t, int64(1), defs[0].ID)

	first, ok := discount.FirstForProduct(defs, 9)
	require.True(t, ok)
	require.Equal(t, int64(20), first.DiscountedUnitPrice)

	_, ok = discount.FirstForProduct(defs, 1)
	require.False(t, ok)
}

func TestStaticEmptyTypeIsNotAnError(t *testing.T) {
	defs, err := discount.NewStatic().DefinitionsByType(context.Background(), discount.ThreeForX)
	require.NoError(t, err)
	require.NotNil(t, defs)
	require.Empty(t, defs)
}

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

func newCache(t *testing.T) *cache.JSON {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.New(client, "ds:", time.Minute)
}

func TestCachedSourceReadsThroughAndInvalidates(t *testing.T) {
	inner := &countingSource{inner: seeded()}
	src := discount.CachedSource{Inner: inner, Cache: newCache(t)}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		defs, err := src.DefinitionsByType(ctx, discount.TwoForX)
		require.NoError(t, err)
		require.Len(t, defs, 1)
		require.Equal(t, int64(75), defs[0].DiscountedUnitPrice)
	}
	require.Equal(t, 1, inner.calls)

	require.NoError(t, src.Invalidate(ctx))
	_, err := src.DefinitionsByType(ctx, discount.TwoForX)
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
}

func TestCachedSourceCachesEmptySets(t *testing.T) {
	inner := &countingSource{inner: discount.NewStatic()}
	src := discount.CachedSource{Inner: inner, Cache: newCache(t)}
	for i := 0; i < 2; i++ {
		defs, err := src.DefinitionsByType(context.Background(), discount.ThreeForX)
		require.NoError(t, err)
		require.NotNil(t, defs)
		require.Empty(t, defs)
	}
	require.Equal(t, 1, inner.calls)
}

func TestCachedSourcePropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	src := discount.CachedSource{Inner: &countingSource{err: boom}, Cache: newCache(t)}
	_, err := src.DefinitionsByType(context.Background(), discount.TwoForX)
	require.ErrorIs(t, err, boom)
}

func TestHandlerListsPromotionsByType(t *testing.T) {
	h := &discount.Handler{Source: seeded()}
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/promotions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []discount.Promotion `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	require.Equal(t, discount.TwoForX, resp.Data[0].Type)
	require.Equal(t, "Two for X", resp.Data[0].Name)
	require.Equal(t, int64(2), resp.Data[0].Definitions[0].ProductID)
	require.Equal(t, discount.ThreeForX, resp.Data[1].Type)
}
