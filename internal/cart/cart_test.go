package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"naija-meals/internal/domain"
	"naija-meals/internal/storage"
)

type fakeAPI struct {
	fee          decimal.Decimal
	feeErr       error
	preferred    []domain.ID
	preferredErr error
}

func (f *fakeAPI) DeliveryFee(context.Context) (decimal.Decimal, error) { return f.fee, f.feeErr }

func (f *fakeAPI) SetPreferredRestaurant(_ context.Context, id domain.ID) error {
	f.preferred = append(f.preferred, id)
	return f.preferredErr
}

// countingStore counts writes to the cart key.
type countingStore struct {
	*storage.MemoryStore
	sets    int
	failSet bool
}

func (c *countingStore) Set(ctx context.Context, key, value string) error {
	if c.failSet {
		return errors.New("write failed")
	}
	if key == storage.KeyCartItems {
		c.sets++
	}
	return c.MemoryStore.Set(ctx, key, value)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func item(id, price string) domain.MenuItem {
	return domain.MenuItem{ID: domain.ID(id), Name: "item " + id, Price: dec(price), InStock: true}
}

func newState() (*State, *countingStore, *fakeAPI) {
	store := &countingStore{MemoryStore: storage.NewMemoryStore()}
	api := &fakeAPI{}
	return New(api, store, nil), store, api
}

func TestState_AddSameItemTwice(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newState()

	require.NoError(t, s.AddItem(ctx, item("1", "5.00")))
	require.NoError(t, s.AddItem(ctx, item("1", "5.00")))

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 2, store.sets)
}

func TestState_AddOutOfStock(t *testing.T) {
	s, store, _ := newState()
	it := item("9", "1.00")
	it.InStock = false

	assert.ErrorIs(t, s.AddItem(context.Background(), it), ErrOutOfStock)
	assert.Empty(t, s.Lines())
	assert.Zero(t, store.sets)
}

func TestState_RemoveItem(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newState()
	require.NoError(t, s.AddItem(ctx, item("1", "5.00")))
	require.NoError(t, s.AddItem(ctx, item("2", "3.50")))

	require.NoError(t, s.RemoveItem(ctx, "missing"))
	assert.Len(t, s.Lines(), 2)
	assert.Equal(t, 3, store.sets, "absent id still re-persists")

	require.NoError(t, s.RemoveItem(ctx, "1"))
	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, domain.ID("2"), lines[0].ID)
}

func TestState_SetQuantity(t *testing.T) {
	tests := []struct {
		name      string
		id        domain.ID
		quantity  int
		wantIDs   []domain.ID
		wantQty   map[domain.ID]int
		wantSaves int
	}{
		{name: "zero removes", id: "1", quantity: 0, wantIDs: []domain.ID{"2"}, wantQty: map[domain.ID]int{"2": 1}, wantSaves: 1},
		{name: "negative removes", id: "2", quantity: -3, wantIDs: []domain.ID{"1"}, wantQty: map[domain.ID]int{"1": 2}, wantSaves: 1},
		{name: "positive sets exactly", id: "1", quantity: 5, wantIDs: []domain.ID{"1", "2"}, wantQty: map[domain.ID]int{"1": 5, "2": 1}, wantSaves: 1},
		{name: "absent id is a no-op", id: "3", quantity: 4, wantIDs: []domain.ID{"1", "2"}, wantQty: map[domain.ID]int{"1": 2, "2": 1}, wantSaves: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			s, store, _ := newState()
			require.NoError(t, s.AddItem(ctx, item("1", "5.00")))
			require.NoError(t, s.AddItem(ctx, item("1", "5.00")))
			require.NoError(t, s.AddItem(ctx, item("2", "3.50")))
			store.sets = 0

			require.NoError(t, s.SetQuantity(ctx, tc.id, tc.quantity))

			var ids []domain.ID
			for _, l := range s.Lines() {
				ids = append(ids, l.ID)
				assert.Equal(t, tc.wantQty[l.ID], l.Quantity)
			}
			assert.Equal(t, tc.wantIDs, ids)
			assert.Equal(t, tc.wantSaves, store.sets)
		})
	}
}

func TestState_ClearRemovesKey(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newState()
	require.NoError(t, s.AddItem(ctx, item("1", "5.00")))

	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, s.Lines())
	_, found, err := store.Get(ctx, storage.KeyCartItems)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestState_PersistFailureLeavesMemory(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newState()
	require.NoError(t, s.AddItem(ctx, item("1", "5.00")))

	store.failSet = true
	assert.Error(t, s.AddItem(ctx, item("1", "5.00")))
	assert.Error(t, s.AddItem(ctx, item("2", "1.00")))
	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestState_HydrateRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newState()
	require.NoError(t, s.AddItem(ctx, item("1", "5.00")))
	require.NoError(t, s.AddItem(ctx, item("1", "5.00")))
	require.NoError(t, s.AddItem(ctx, item("abc", "3.50")))

	again := New(&fakeAPI{}, store, nil)
	got := again.Hydrate(ctx)
	want := s.Lines()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assert.True(t, want[i].Price.Equal(got[i].Price))
	}
}

func TestState_HydrateCorrupt(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, storage.KeyCartItems, "{not json"))

	s := New(&fakeAPI{}, store, nil)
	assert.Empty(t, s.Hydrate(ctx))
}

func TestState_FetchDeliveryFee(t *testing.T) {
	ctx := context.Background()
	s, store, api := newState()
	api.fee = dec("2.00")

	fee, err := s.FetchDeliveryFee(ctx)
	require.NoError(t, err)
	assert.True(t, dec("2.00").Equal(fee))
	assert.True(t, dec("2.00").Equal(s.DeliveryFee()))
	assert.Equal(t, 0, store.Len(), "fee is never persisted")

	api.feeErr = errors.New("boom")
	fee, err = s.FetchDeliveryFee(ctx)
	assert.Error(t, err)
	assert.True(t, fee.IsZero())
	assert.True(t, s.DeliveryFee().IsZero())
}

func TestState_TotalsFollowState(t *testing.T) {
	ctx := context.Background()
	s, _, api := newState()
	api.fee = dec("2.00")
	require.NoError(t, s.AddItem(ctx, item("1", "5.00")))
	require.NoError(t, s.AddItem(ctx, item("1", "5.00")))
	require.NoError(t, s.AddItem(ctx, item("2", "3.50")))
	_, err := s.FetchDeliveryFee(ctx)
	require.NoError(t, err)

	tot := s.Totals()
	assert.Equal(t, "13.50", tot.Subtotal.StringFixed(2))
	assert.Equal(t, "17.00", tot.Total.StringFixed(2))
	assert.Equal(t, 3, tot.ItemCount)

	require.NoError(t, s.SetQuantity(ctx, "1", 0))
	tot = s.Totals()
	assert.Equal(t, "3.50", tot.Subtotal.StringFixed(2))
	assert.Equal(t, "7.00", tot.Total.StringFixed(2))
	assert.Equal(t, 1, tot.ItemCount)
}
