package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeQuery(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Portland CEMENT", "portland cement"},
		{"collapses whitespace", "  sand \t bags  ", "sand bags"},
		{"composes combining marks", "café", "café"},
		{"empty stays empty", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeQuery(tc.in))
		})
	}
}

func TestClient_Search(t *testing.T) {
	t.Run("decodes a page", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/products", r.URL.Path)
			assert.Equal(t, "cement", r.URL.Query().Get("search"))
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			assert.Equal(t, "10", r.URL.Query().Get("per_page"))
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"products": [{"id": 7, "name": "Cement 40kg", "unit_of_measure": "bag", "price": 62000}],
				"page": 2, "per_page": 10, "total": 11
			}`))
		}))
		defer srv.Close()

		res, err := NewClient(srv.URL, time.Second).Search(context.Background(), "cement", 2, 10, "Bearer tok")
		require.NoError(t, err)
		require.Len(t, res.Products, 1)
		assert.Equal(t, int64(7), res.Products[0].ID)
		assert.Equal(t, int64(11), res.Total)
	})

	t.Run("upstream failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, time.Second).Search(context.Background(), "", 1, 10, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 503")
	})
}

func newTestService(t *testing.T, upstreamHits *atomic.Int64) *Service {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products": [{"id": 7, "name": "Cement 40kg", "unit_of_measure": "bag", "price": 62000}], "page": 1, "per_page": 20, "total": 1}`))
	}))
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewService(NewClient(srv.URL, time.Second), NewCache(client, time.Minute))
}

func TestService_Search(t *testing.T) {
	t.Run("second lookup is served from cache", func(t *testing.T) {
		var hits atomic.Int64
		svc := newTestService(t, &hits)
		ctx := context.Background()

		first, err := svc.Search(ctx, "Cement", 1, 20, "")
		require.NoError(t, err)
		require.Len(t, first.Products, 1)
		assert.Equal(t, int64(1), hits.Load())

		// a spelling variant of the same query shares the entry
		second, err := svc.Search(ctx, "  cement ", 1, 20, "")
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, int64(1), hits.Load())
	})

	t.Run("invalidate forces a refetch", func(t *testing.T) {
		var hits atomic.Int64
		svc := newTestService(t, &hits)
		ctx := context.Background()

		_, err := svc.Search(ctx, "cement", 1, 20, "")
		require.NoError(t, err)
		require.NoError(t, svc.Invalidate(ctx))
		_, err = svc.Search(ctx, "cement", 1, 20, "")
		require.NoError(t, err)
		assert.Equal(t, int64(2), hits.Load())
	})

	t.Run("page bounds are normalized", func(t *testing.T) {
		var hits atomic.Int64
		svc := newTestService(t, &hits)

		_, err := svc.Search(context.Background(), "", 0, 500, "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), hits.Load())
	})

	t.Run("warm first page populates the cache", func(t *testing.T) {
		var hits atomic.Int64
		svc := newTestService(t, &hits)
		ctx := context.Background()

		require.NoError(t, svc.WarmFirstPage(ctx))
		_, err := svc.Search(ctx, "", 1, DefaultPerPage, "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), hits.Load())
	})
}
