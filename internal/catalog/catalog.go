// Package catalog fronts the product search service used by the add-item
// picker. Results are cached in Redis behind a version number, so the
// picker stays fast without this service ever owning product data.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultPerPage is the picker page size when the caller gives none.
	DefaultPerPage = 20
	maxPerPage     = 100
)

// Product is one record of the catalog picker.
type Product struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Type  string  `json:"type,omitempty"`
	Unit  string  `json:"unit_of_measure"`
	Photo string  `json:"photo,omitempty"`
	Price float64 `json:"price"`
}

// SearchResult is one page of products.
type SearchResult struct {
	Products []Product `json:"products"`
	Page     int       `json:"page"`
	PerPage  int       `json:"per_page"`
	Total    int64     `json:"total"`
}

// Client queries the product search service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client. A zero timeout falls back to 10 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search fetches one page of products matching the query.
func (c *Client) Search(ctx context.Context, query string, page, perPage int, auth string) (SearchResult, error) {
	params := url.Values{}
	if query != "" {
		params.Set("search", query)
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/products?%s", c.baseURL, params.Encode()), nil)
	if err != nil {
		return SearchResult{}, err
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search products: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return SearchResult{}, fmt.Errorf("catalog service returned status %d", resp.StatusCode)
	}

	var result SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return SearchResult{}, fmt.Errorf("decode search result: %w", err)
	}
	return result, nil
}
