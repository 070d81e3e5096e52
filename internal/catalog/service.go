package catalog

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"
)

// Service fronts the catalog with the versioned cache and collapses
// concurrent identical searches into a single upstream call.
type Service struct {
	client *Client
	cache  *Cache
	group  singleflight.Group
}

// NewService constructs the service.
func NewService(client *Client, cache *Cache) *Service {
	return &Service{client: client, cache: cache}
}

// Search returns one page of products for the picker. The query is
// normalized before it becomes part of the cache key, so spelling
// variants of the same search share an entry. Product listings are not
// caller specific, which keeps the cache shared across operators.
func (s *Service) Search(ctx context.Context, query string, page, perPage int, auth string) (SearchResult, error) {
	query = NormalizeQuery(query)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > maxPerPage {
		perPage = DefaultPerPage
	}

	key, err := s.cache.BuildKey(ctx, "catalog", "search", query, strconv.Itoa(page), strconv.Itoa(perPage))
	if err != nil {
		return SearchResult{}, err
	}

	v, err := s.shared(ctx, key, func(ctx context.Context) (interface{}, error) {
		var result SearchResult
		err := s.cache.FetchJSON(ctx, key, &result, func(ctx context.Context) (interface{}, error) {
			return s.client.Search(ctx, query, page, perPage, auth)
		})
		return result, err
	})
	if err != nil {
		return SearchResult{}, err
	}
	return v.(SearchResult), nil
}

// Invalidate bumps the cache version so following searches refetch.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// WarmFirstPage pre-populates the picker's opening page.
func (s *Service) WarmFirstPage(ctx context.Context) error {
	_, err := s.Search(ctx, "", 1, DefaultPerPage, "")
	return err
}

func (s *Service) shared(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := s.group.DoChan(key, func() (interface{}, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}
