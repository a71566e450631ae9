// Package storage is the device-local key-value store that survives restarts.
// Keys and values are strings; structured values are JSON-encoded by callers.
package storage

import (
	"context"
	"errors"
)

const (
	KeyToken              = "token"
	KeyHasAddress         = "hasAddress"
	KeyPostcode           = "postcode"
	KeyCartItems          = "cartItems"
	KeySelectedRestaurant = "selectedRestaurant"
)

// SessionKeys are wiped on logout.
var SessionKeys = []string{KeyToken, KeyHasAddress, KeyPostcode}

// InvalidSessionKeys are wiped when the backend answers 401.
var InvalidSessionKeys = []string{KeyToken, KeyHasAddress, KeyPostcode, KeyCartItems, KeySelectedRestaurant}

var ErrClosed = errors.New("storage closed")

// Store is last-write-wins; a Set or Remove has completed once it returns.
type Store interface {
	// Get returns found=false, err=nil for an absent key.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes all keys in one operation; absent keys are ignored.
	Remove(ctx context.Context, keys ...string) error
}
