// Package checkout turns the cart into an order and hands payment to an
// external confirmer.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"naija-meals/internal/cart"
	"naija-meals/internal/common/logger"
	"naija-meals/internal/domain"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInProgress      = errors.New("checkout already in progress")
	ErrInvalidResponse = errors.New("invalid response from server")
	ErrPaymentFailed   = errors.New("payment failed")
)

type OrderAPIInterface interface {
	CompleteOrder(ctx context.Context, items []domain.CompleteOrderItem) (domain.CompleteOrderResponse, error)
}

type CartInterface interface {
	Lines() []domain.CartLine
	Totals() cart.Totals
	Clear(ctx context.Context) error
	ForgetRestaurant(ctx context.Context) error
}

// Payment is what the confirmer needs to take the money.
type Payment struct {
	ClientSecret string
	OrderID      domain.ID
	Total        decimal.Decimal
}

// PaymentConfirmer completes a payment outside this process and reports whether it succeeded.
type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, p Payment) (bool, error)
}

type ConfirmerFunc func(ctx context.Context, p Payment) (bool, error)

func (f ConfirmerFunc) ConfirmPayment(ctx context.Context, p Payment) (bool, error) { return f(ctx, p) }

type Result struct {
	OrderID domain.ID
	Total   decimal.Decimal
}

type Flow struct {
	api  OrderAPIInterface
	cart CartInterface
	log  *logger.Logger

	inFlight atomic.Bool
}

func New(a OrderAPIInterface, c CartInterface, lg *logger.Logger) *Flow {
	if lg == nil {
		lg = logger.NewNop()
	}
	return &Flow{api: a, cart: c, log: lg}
}

// Checkout places the order for the current cart and runs the payment step.
// On a confirmed payment the cart and the selected restaurant are cleared.
func (f *Flow) Checkout(ctx context.Context, confirmer PaymentConfirmer) (Result, error) {
	if !f.inFlight.CompareAndSwap(false, true) {
		return Result{}, ErrInProgress
	}
	defer f.inFlight.Store(false)

	lines := f.cart.Lines()
	if len(lines) == 0 {
		return Result{}, ErrEmptyCart
	}
	total := f.cart.Totals().Total

	items := make([]domain.CompleteOrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, domain.CompleteOrderItem{ItemID: l.ID, Quantity: l.Quantity})
	}

	resp, err := f.api.CompleteOrder(ctx, items)
	if err != nil {
		f.log.Error("complete_order_failed", err, map[string]any{"lines": len(items)})
		return Result{}, err
	}
	if resp.ClientSecret == "" || resp.OrderID == "" {
		f.log.Error("complete_order_failed", ErrInvalidResponse, map[string]any{
			"has_secret": resp.ClientSecret != "", "order_id": resp.OrderID.String(),
		})
		return Result{}, ErrInvalidResponse
	}

	res := Result{OrderID: resp.OrderID, Total: total}
	ok, err := confirmer.ConfirmPayment(ctx, Payment{ClientSecret: resp.ClientSecret, OrderID: resp.OrderID, Total: total})
	if err != nil {
		f.log.Warn("payment_failed", err, map[string]any{"order_id": res.OrderID.String()})
		return res, fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}
	if !ok {
		f.log.Warn("payment_failed", ErrPaymentFailed, map[string]any{"order_id": res.OrderID.String()})
		return res, ErrPaymentFailed
	}

	f.log.Info("order_paid", map[string]any{"order_id": res.OrderID.String(), "total": total.StringFixed(2)})
	if err := f.cart.Clear(ctx); err != nil {
		return res, fmt.Errorf("order %s paid: %w", res.OrderID, err)
	}
	if err := f.cart.ForgetRestaurant(ctx); err != nil {
		return res, fmt.Errorf("order %s paid: forget restaurant: %w", res.OrderID, err)
	}
	return res, nil
}
