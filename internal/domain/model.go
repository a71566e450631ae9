package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ID is a backend identifier that may arrive as a JSON number or string.
// Numeric ids are written back as numbers so the backend sees its own type.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if isNumeric(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) String() string { return string(id) }

func isNumeric(s string) bool {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

type Restaurant struct {
	ID           ID      `json:"id"`
	Name         string  `json:"name"`
	FullAddress  string  `json:"fullAddress"`
	Image        string  `json:"image,omitempty"`
	Active       bool    `json:"active"`
	IsPromoted   bool    `json:"isPromoted,omitempty"`
	FreeDelivery bool    `json:"freeDelivery,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
	ReviewCount  int     `json:"reviewCount,omitempty"`
}

// RestaurantListing is one entry of the restaurant search.
type RestaurantListing struct {
	Restaurant    Restaurant      `json:"restaurant"`
	DistanceMiles json.RawMessage `json:"distanceMiles,omitempty"`
	EstimatedTime string          `json:"estimatedTime,omitempty"`
}

type MenuItem struct {
	ID          ID              `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	InStock     bool            `json:"inStock"`
	IsExtra     bool            `json:"isExtra,omitempty"`
}

// CartLine is one distinct menu item in the cart. Quantity is always >= 1.
type CartLine struct {
	ID       ID              `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type OrderItem struct {
	ItemID    ID              `json:"itemId"`
	ItemName  string          `json:"itemName"`
	ItemImage string          `json:"itemImage,omitempty"`
	ItemPrice decimal.Decimal `json:"itemPrice"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderSummary is a past order as listed by the backend. Read-only.
type OrderSummary struct {
	OrderNumber   string          `json:"orderNumber"`
	Restaurant    string          `json:"restaurant"`
	OrderDate     time.Time       `json:"orderDate"`
	OrderItems    []OrderItem     `json:"orderItems"`
	ServiceCharge decimal.Decimal `json:"serviceCharge"`
	DeliveryPrice decimal.Decimal `json:"deliveryPrice"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
}

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusInProgress OrderStatus = "in_progress"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

// Label turns "in_progress" into "In Progress".
func (s OrderStatus) Label() string {
	parts := strings.Split(string(s), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// Class buckets any backend status into one of the four display classes.
func (s OrderStatus) Class() OrderStatus {
	switch OrderStatus(strings.ToLower(string(s))) {
	case StatusInProgress:
		return StatusInProgress
	case StatusCompleted:
		return StatusCompleted
	case StatusCancelled:
		return StatusCancelled
	default:
		return StatusPending
	}
}

type Driver struct {
	DisplayName   string `json:"display_name"`
	Phone         string `json:"phone,omitempty"`
	TransportType string `json:"transport_type,omitempty"`
}

// Initials returns up to two upper-case letters for an avatar.
func (d Driver) Initials() string {
	name := strings.TrimSpace(d.DisplayName)
	if name == "" {
		return "?"
	}
	parts := strings.Fields(name)
	if len(parts) >= 2 {
		return strings.ToUpper(string([]rune(parts[0])[0]) + string([]rune(parts[len(parts)-1])[0]))
	}
	r := []rune(name)
	if len(r) > 2 {
		r = r[:2]
	}
	return strings.ToUpper(string(r))
}

type ETA struct {
	Pickup  *time.Time `json:"pickup,omitempty"`
	Dropoff *time.Time `json:"dropoff,omitempty"`
}

type Delivery struct {
	ETA ETA `json:"eta"`
}

// Tracking is the server-owned view of an order in flight. The client never mutates it.
type Tracking struct {
	OrderID    string      `json:"orderId,omitempty"`
	Status     OrderStatus `json:"status"`
	Driver     *Driver     `json:"driver,omitempty"`
	Deliveries []Delivery  `json:"deliveries,omitempty"`
}

// ETA of the first delivery leg, if any.
func (t Tracking) ETA() (ETA, bool) {
	if len(t.Deliveries) == 0 {
		return ETA{}, false
	}
	return t.Deliveries[0].ETA, true
}
