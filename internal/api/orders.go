package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"naija-meals/internal/domain"
)

func (c *Client) Orders(ctx context.Context) ([]domain.OrderSummary, error) {
	var out []domain.OrderSummary
	err := c.do(ctx, request{method: http.MethodGet, path: "/auth/client/orders"}, &out)
	return out, err
}

// Tracking fetches the live state of an order, bypassing any HTTP cache.
func (c *Client) Tracking(ctx context.Context, orderID string) (domain.Tracking, error) {
	var out domain.Tracking
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/client/tracking/" + pathID(orderID),
		query:  url.Values{"t": {strconv.FormatInt(c.now().UnixMilli(), 10)}},
		header: http.Header{"Cache-Control": {"no-cache"}, "Pragma": {"no-cache"}},
	}, &out)
	if err == nil && out.OrderID == "" {
		out.OrderID = orderID
	}
	return out, err
}
