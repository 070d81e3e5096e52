// Package orders talks to the backend of record that owns order and
// delivery storage. The editing engine treats it as opaque beyond
// success or failure; final authority over every edit stays here.
package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/orderbench/orderbench/internal/editing"
)

// ErrOrderNotFound indicates the backend does not know the order.
var ErrOrderNotFound = errors.New("order not found")

// Rejection is the structured validation failure the backend returns when
// it refuses a batch edit. Its content is surfaced to the operator
// unchanged.
type Rejection struct {
	StatusCode int      `json:"-"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors,omitempty"`
}

func (r *Rejection) Error() string {
	if r.Message != "" {
		return fmt.Sprintf("order edit rejected: %s", r.Message)
	}
	return fmt.Sprintf("order edit rejected with status %d", r.StatusCode)
}

// Client wraps the order endpoints of the backend of record.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client. A zero timeout falls back to 15 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type orderDetailResponse struct {
	Order editing.Order       `json:"order"`
	Items []editing.OrderItem `json:"items"`
}

// GetOrder fetches the order and its items to seed an edit session
// baseline. The caller's Authorization header is forwarded as auth.
func (c *Client) GetOrder(ctx context.Context, orderID int64, auth string) (editing.Order, []editing.OrderItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/orders/%d", c.baseURL, orderID), nil)
	if err != nil {
		return editing.Order{}, nil, err
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return editing.Order{}, nil, fmt.Errorf("fetch order: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return editing.Order{}, nil, ErrOrderNotFound
	}
	if resp.StatusCode >= 400 {
		return editing.Order{}, nil, fmt.Errorf("order service returned status %d", resp.StatusCode)
	}

	var detail orderDetailResponse
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return editing.Order{}, nil, fmt.Errorf("decode order detail: %w", err)
	}
	return detail.Order, detail.Items, nil
}

// SubmitEdits posts one batch payload. The backend applies it atomically:
// success returns the fresh order state, a business-rule refusal comes
// back as *Rejection, and anything else is a transport failure.
func (c *Client) SubmitEdits(ctx context.Context, orderID int64, payload *editing.EditOrderPayload, auth string) (editing.Order, []editing.OrderItem, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return editing.Order{}, nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/api/orders/%d/edits", c.baseURL, orderID), bytes.NewReader(body))
	if err != nil {
		return editing.Order{}, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return editing.Order{}, nil, fmt.Errorf("submit edits: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return editing.Order{}, nil, ErrOrderNotFound
	case resp.StatusCode == http.StatusBadRequest ||
		resp.StatusCode == http.StatusConflict ||
		resp.StatusCode == http.StatusUnprocessableEntity:
		rej := &Rejection{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(rej); err != nil {
			rej.Message = ""
		}
		return editing.Order{}, nil, rej
	case resp.StatusCode >= 400:
		return editing.Order{}, nil, fmt.Errorf("order service returned status %d", resp.StatusCode)
	}

	var detail orderDetailResponse
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		return editing.Order{}, nil, fmt.Errorf("decode order detail: %w", err)
	}
	return detail.Order, detail.Items, nil
}
