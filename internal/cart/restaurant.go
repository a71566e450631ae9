package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"naija-meals/internal/domain"
	"naija-meals/internal/storage"
)

var ErrRestaurantClosed = errors.New("restaurant is not accepting orders")

// SelectRestaurant makes r the restaurant the cart belongs to. Switching to a
// different restaurant, or selecting one when none is on record, clears the
// cart; cleared reports that. The backend preference is set best-effort.
func (s *State) SelectRestaurant(ctx context.Context, r domain.Restaurant) (cleared bool, err error) {
	if !r.Active {
		return false, ErrRestaurantClosed
	}

	prev, found, err := s.SelectedRestaurant(ctx)
	if err != nil || !found || prev.ID != r.ID {
		if err := s.Clear(ctx); err != nil {
			return false, err
		}
		cleared = true
	}

	b, err := json.Marshal(r)
	if err != nil {
		return cleared, fmt.Errorf("encode restaurant: %w", err)
	}
	if err := s.store.Set(ctx, storage.KeySelectedRestaurant, string(b)); err != nil {
		return cleared, fmt.Errorf("persist restaurant: %w", err)
	}

	if err := s.api.SetPreferredRestaurant(ctx, r.ID); err != nil {
		s.log.Warn("set_preferred_failed", err, map[string]any{"restaurant_id": r.ID.String()})
	}
	s.log.Info("restaurant_selected", map[string]any{"restaurant_id": r.ID.String(), "cart_cleared": cleared})
	return cleared, nil
}

// SelectedRestaurant reads the restaurant on record.
func (s *State) SelectedRestaurant(ctx context.Context) (domain.Restaurant, bool, error) {
	raw, found, err := s.store.Get(ctx, storage.KeySelectedRestaurant)
	if err != nil || !found {
		return domain.Restaurant{}, false, err
	}
	var r domain.Restaurant
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return domain.Restaurant{}, false, fmt.Errorf("decode %s: %w", storage.KeySelectedRestaurant, err)
	}
	return r, true, nil
}

// ForgetRestaurant removes the restaurant on record.
func (s *State) ForgetRestaurant(ctx context.Context) error {
	return s.store.Remove(ctx, storage.KeySelectedRestaurant)
}
