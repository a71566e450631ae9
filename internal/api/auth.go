package api

import (
	"context"
	"net/http"

	"naija-meals/internal/domain"
)

func (c *Client) Login(ctx context.Context, req domain.LoginRequest) (domain.AuthResponse, error) {
	var out domain.AuthResponse
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: req}, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (domain.AuthResponse, error) {
	var out domain.AuthResponse
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/register", body: req}, &out)
	return out, err
}

func (c *Client) SendResetLink(ctx context.Context, email string) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/auth/send_reset_link", body: domain.ResetLinkRequest{Email: email}}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/auth/reset", body: req}, nil)
}

func (c *Client) SaveAddress(ctx context.Context, addr domain.Address) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/auth/client/address", body: addr}, nil)
}

// GetAddress returns ErrNotFound (wrapped in *Error) when no address is on file.
func (c *Client) GetAddress(ctx context.Context) (domain.Address, error) {
	var out domain.Address
	err := c.do(ctx, request{method: http.MethodGet, path: "/auth/client/address"}, &out)
	return out, err
}

// LookupAddress expects a postcode with whitespace already removed.
func (c *Client) LookupAddress(ctx context.Context, postcode string) ([]domain.AddressSuggestion, error) {
	var out domain.AddressLookupResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/client/address/lookUp/" + pathID(postcode)}, &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}
