package api

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"naija-meals/internal/domain"
)

func (c *Client) Restaurants(ctx context.Context) ([]domain.RestaurantListing, error) {
	var out []domain.RestaurantListing
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/client/restaurant/find"}, &out)
	return out, err
}

func (c *Client) MenuItems(ctx context.Context, restaurantID domain.ID) ([]domain.MenuItem, error) {
	var out []domain.MenuItem
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/client/restaurant/items/" + pathID(restaurantID.String())}, &out)
	return out, err
}

func (c *Client) SetPreferredRestaurant(ctx context.Context, restaurantID domain.ID) error {
	return c.do(ctx, request{method: http.MethodGet, path: "/auth/client/preferred/" + pathID(restaurantID.String())}, nil)
}

// DeliveryFee quotes the fee for the server-side context (address + preferred restaurant).
// A missing delivery_fee field means zero.
func (c *Client) DeliveryFee(ctx context.Context) (decimal.Decimal, error) {
	var out domain.DeliveryFeeResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/client/restaurant/price"}, &out); err != nil {
		return decimal.Zero, err
	}
	if out.DeliveryFee == nil {
		return decimal.Zero, nil
	}
	return *out.DeliveryFee, nil
}

func (c *Client) CompleteOrder(ctx context.Context, items []domain.CompleteOrderItem) (domain.CompleteOrderResponse, error) {
	var out domain.CompleteOrderResponse
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/client/restaurant/complete", body: items}, &out)
	return out, err
}
