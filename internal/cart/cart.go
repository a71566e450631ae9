// Package cart holds the order-in-progress: its lines, the quoted delivery fee
// and the restaurant they belong to.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"naija-meals/internal/common/logger"
	"naija-meals/internal/domain"
	"naija-meals/internal/storage"
)

var ErrOutOfStock = errors.New("item is out of stock")

type APIInterface interface {
	DeliveryFee(ctx context.Context) (decimal.Decimal, error)
	SetPreferredRestaurant(ctx context.Context, restaurantID domain.ID) error
}

// State is the cart. Every mutation persists the new line list before it
// replaces the in-memory one, so a failed write leaves the cart untouched.
type State struct {
	api   APIInterface
	store storage.Store
	log   *logger.Logger

	mu    sync.RWMutex
	lines []domain.CartLine
	fee   decimal.Decimal
}

func New(a APIInterface, store storage.Store, lg *logger.Logger) *State {
	if lg == nil {
		lg = logger.NewNop()
	}
	return &State{api: a, store: store, log: lg}
}

// Hydrate loads the persisted lines. A missing or unreadable entry yields an empty cart.
func (s *State) Hydrate(ctx context.Context) []domain.CartLine {
	lines, err := s.readLines(ctx)
	if err != nil {
		s.log.Warn("cart_hydrate_failed", err, nil)
		lines = nil
	}
	s.mu.Lock()
	s.lines = lines
	s.mu.Unlock()
	return s.Lines()
}

func (s *State) readLines(ctx context.Context) ([]domain.CartLine, error) {
	raw, found, err := s.store.Get(ctx, storage.KeyCartItems)
	if err != nil || !found {
		return nil, err
	}
	var lines []domain.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("decode %s: %w", storage.KeyCartItems, err)
	}
	return lines, nil
}

// Lines returns a copy of the current lines in insertion order.
func (s *State) Lines() []domain.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.CartLine(nil), s.lines...)
}

func (s *State) DeliveryFee() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fee
}

// Totals derives the pricing from the current lines and fee.
func (s *State) Totals() Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Compute(s.lines, s.fee)
}

// AddItem increments the line with the item's id, or appends a new line with quantity 1.
func (s *State) AddItem(ctx context.Context, item domain.MenuItem) error {
	if !item.InStock {
		return ErrOutOfStock
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := append([]domain.CartLine(nil), s.lines...)
	found := false
	for i := range next {
		if next[i].ID == item.ID {
			next[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		next = append(next, domain.CartLine{ID: item.ID, Name: item.Name, Price: item.Price, Quantity: 1})
	}
	return s.commit(ctx, next)
}

// RemoveItem drops the line with id. Removing an absent id still re-persists.
func (s *State) RemoveItem(ctx context.Context, id domain.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.CartLine, 0, len(s.lines))
	for _, l := range s.lines {
		if l.ID != id {
			next = append(next, l)
		}
	}
	return s.commit(ctx, next)
}

// SetQuantity sets a line's quantity exactly; quantity <= 0 removes it.
// An absent id is a no-op and nothing is persisted.
func (s *State) SetQuantity(ctx context.Context, id domain.ID, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, l := range s.lines {
		if l.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	next := append([]domain.CartLine(nil), s.lines...)
	if quantity <= 0 {
		next = append(next[:idx], next[idx+1:]...)
	} else {
		next[idx].Quantity = quantity
	}
	return s.commit(ctx, next)
}

// Clear empties the cart and removes the persisted entry.
func (s *State) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Remove(ctx, storage.KeyCartItems); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	s.lines = nil
	return nil
}

// Reset empties memory only, for when storage was already wiped.
func (s *State) Reset() {
	s.mu.Lock()
	s.lines = nil
	s.fee = decimal.Zero
	s.mu.Unlock()
}

// FetchDeliveryFee quotes the fee and keeps it in memory. On failure the fee
// drops to zero and the error is returned for the caller to show or ignore.
func (s *State) FetchDeliveryFee(ctx context.Context) (decimal.Decimal, error) {
	fee, err := s.api.DeliveryFee(ctx)
	if err != nil {
		fee = decimal.Zero
	}
	if fee.IsNegative() {
		fee = decimal.Zero
	}
	s.mu.Lock()
	s.fee = fee
	s.mu.Unlock()
	if err != nil {
		s.log.Warn("delivery_fee_failed", err, nil)
		return fee, err
	}
	return fee, nil
}

// commit persists lines then makes them current. Caller holds mu.
func (s *State) commit(ctx context.Context, lines []domain.CartLine) error {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.store.Set(ctx, storage.KeyCartItems, string(b)); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	s.lines = lines
	return nil
}
