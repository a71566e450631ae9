package domain

import "github.com/shopspring/decimal"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type AuthResponse struct {
	Token      string `json:"token"`
	HasAddress bool   `json:"hasAddress"`
}

type Address struct {
	FullName             string `json:"fullName"`
	MobileContact        string `json:"mobileContact"`
	Postcode             string `json:"postcode"`
	Address              string `json:"address"`
	DeliveryInstructions string `json:"deliveryInstructions,omitempty"`
}

type AddressSuggestion struct {
	Address string `json:"address"`
}

type AddressLookupResponse struct {
	Suggestions []AddressSuggestion `json:"suggestions"`
}

type ResetLinkRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email           string `json:"email"`
	Code            string `json:"code"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type DeliveryFeeResponse struct {
	DeliveryFee *decimal.Decimal `json:"delivery_fee"`
}

// CompleteOrderItem is what checkout sends per cart line.
type CompleteOrderItem struct {
	ItemID   ID  `json:"item_id"`
	Quantity int `json:"quantity"`
}

type CompleteOrderResponse struct {
	ClientSecret string `json:"clientSecret"`
	OrderID      ID     `json:"orderId"`
}
