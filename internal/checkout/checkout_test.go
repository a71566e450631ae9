package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"naija-meals/internal/api"
	"naija-meals/internal/cart"
	"naija-meals/internal/domain"
	"naija-meals/internal/storage"
)

type fixture struct {
	flow     *Flow
	cart     *cart.State
	store    *storage.MemoryStore
	calls    atomic.Int32
	received []domain.CompleteOrderItem
	reply    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{store: storage.NewMemoryStore(), reply: `{"clientSecret":"pi_123_secret","orderId":"ORD-1"}`}

	r := chi.NewRouter()
	r.Post("/api/client/restaurant/complete", func(w http.ResponseWriter, r *http.Request) {
		fx.calls.Add(1)
		_ = json.NewDecoder(r.Body).Decode(&fx.received)
		_, _ = w.Write([]byte(fx.reply))
	})
	r.Get("/api/client/restaurant/price", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"delivery_fee":2.00}`))
	})
	r.Get("/auth/client/preferred/{id}", func(w http.ResponseWriter, r *http.Request) {})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	client := api.New(srv.URL, fx.store)
	fx.cart = cart.New(client, fx.store, nil)
	fx.flow = New(client, fx.cart, nil)

	ctx := context.Background()
	_, err := fx.cart.SelectRestaurant(ctx, domain.Restaurant{ID: "7", Active: true})
	require.NoError(t, err)
	return fx
}

func (fx *fixture) fill(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, it := range []domain.MenuItem{
		{ID: "1", Price: decimal.RequireFromString("5.00"), InStock: true},
		{ID: "1", Price: decimal.RequireFromString("5.00"), InStock: true},
		{ID: "2", Price: decimal.RequireFromString("3.50"), InStock: true},
	} {
		require.NoError(t, fx.cart.AddItem(ctx, it))
	}
	_, err := fx.cart.FetchDeliveryFee(ctx)
	require.NoError(t, err)
}

func approve(got *Payment) PaymentConfirmer {
	return ConfirmerFunc(func(_ context.Context, p Payment) (bool, error) {
		*got = p
		return true, nil
	})
}

func TestFlow_CheckoutSuccess(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	fx.fill(t)

	var paid Payment
	res, err := fx.flow.Checkout(ctx, approve(&paid))
	require.NoError(t, err)

	assert.Equal(t, domain.ID("ORD-1"), res.OrderID)
	assert.Equal(t, "17.00", res.Total.StringFixed(2))
	assert.Equal(t, "pi_123_secret", paid.ClientSecret)
	assert.Equal(t, "17.00", paid.Total.StringFixed(2))
	assert.Equal(t, []domain.CompleteOrderItem{{ItemID: "1", Quantity: 2}, {ItemID: "2", Quantity: 1}}, fx.received)

	assert.Empty(t, fx.cart.Lines())
	_, found, _ := fx.store.Get(ctx, storage.KeyCartItems)
	assert.False(t, found)
	_, found, _ = fx.store.Get(ctx, storage.KeySelectedRestaurant)
	assert.False(t, found)
}

func TestFlow_CheckoutFailuresKeepCart(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		confirmer PaymentConfirmer
		wantErr   error
	}{
		{
			name:    "missing client secret",
			reply:   `{"orderId":"ORD-1"}`,
			wantErr: ErrInvalidResponse,
		},
		{
			name:    "missing order id",
			reply:   `{"clientSecret":"pi_secret"}`,
			wantErr: ErrInvalidResponse,
		},
		{
			name:      "payment declined",
			confirmer: ConfirmerFunc(func(context.Context, Payment) (bool, error) { return false, nil }),
			wantErr:   ErrPaymentFailed,
		},
		{
			name:      "payment sheet error",
			confirmer: ConfirmerFunc(func(context.Context, Payment) (bool, error) { return false, errors.New("card declined") }),
			wantErr:   ErrPaymentFailed,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			fx := newFixture(t)
			fx.fill(t)
			if tc.reply != "" {
				fx.reply = tc.reply
			}
			confirmer := tc.confirmer
			if confirmer == nil {
				var p Payment
				confirmer = approve(&p)
			}

			_, err := fx.flow.Checkout(ctx, confirmer)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Len(t, fx.cart.Lines(), 2)
			_, found, _ := fx.store.Get(ctx, storage.KeySelectedRestaurant)
			assert.True(t, found)
		})
	}
}

func TestFlow_EmptyCartSendsNothing(t *testing.T) {
	fx := newFixture(t)
	var p Payment
	_, err := fx.flow.Checkout(context.Background(), approve(&p))
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, fx.calls.Load())
}

func TestFlow_SecondCheckoutWhileInFlight(t *testing.T) {
	fx := newFixture(t)
	fx.fill(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	blocking := ConfirmerFunc(func(context.Context, Payment) (bool, error) {
		close(entered)
		<-release
		return true, nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := fx.flow.Checkout(context.Background(), blocking)
		done <- err
	}()
	<-entered

	var p Payment
	_, err := fx.flow.Checkout(context.Background(), approve(&p))
	assert.ErrorIs(t, err, ErrInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), fx.calls.Load())
}
