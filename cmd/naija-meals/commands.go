package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"naija-meals/internal/api"
	"naija-meals/internal/app"
	"naija-meals/internal/cart"
	"naija-meals/internal/checkout"
	"naija-meals/internal/domain"
	"naija-meals/internal/tracker"
)

var errUsage = errors.New("usage")

type flags struct {
	mode, config                                        string
	email, password, confirm, firstName, lastName, code string
	postcode, address, fullName, mobile, instructions   string
	restaurant, item, order                             string
	quantity                                            int
}

type cli struct {
	store *app.Store
	out   io.Writer
	in    io.Reader

	mu sync.Mutex // guards out while track prints from the poll loop
}

func required(name, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: --%s is required", errUsage, name)
	}
	return nil
}

func message(err error) string {
	if errors.Is(err, errUsage) {
		return strings.TrimPrefix(err.Error(), errUsage.Error()+": ")
	}
	return api.Message(err, "Something went wrong. Please try again.")
}

func (c *cli) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *cli) run(ctx context.Context, f flags) error {
	switch f.mode {
	case "login":
		resp, err := c.store.Session.Login(ctx, f.email, f.password)
		if err != nil {
			return err
		}
		c.printf("Logged in.\n")
		if !resp.HasAddress {
			c.printf("No delivery address on file yet; use --mode save-address.\n")
		}
	case "register":
		resp, err := c.store.Session.Register(ctx, domain.RegisterRequest{
			FirstName: f.firstName, LastName: f.lastName, Email: f.email, Password: f.password,
		})
		if err != nil {
			return err
		}
		c.printf("Account created.\n")
		if !resp.HasAddress {
			c.printf("Add a delivery address with --mode save-address.\n")
		}
	case "logout":
		if err := c.store.Logout(ctx); err != nil {
			return err
		}
		c.printf("Logged out.\n")
	case "status":
		return c.status(ctx)
	case "address":
		addr, found, err := c.store.Session.Address(ctx)
		if err != nil {
			return err
		}
		if !found {
			c.printf("No address on file.\n")
			return nil
		}
		c.printf("%s\n%s\n%s\n%s\n", addr.FullName, addr.Address, strings.ToUpper(addr.Postcode), addr.MobileContact)
		if addr.DeliveryInstructions != "" {
			c.printf("Instructions: %s\n", addr.DeliveryInstructions)
		}
	case "save-address":
		if err := required("address", f.address); err != nil {
			return err
		}
		if err := c.store.Session.SaveAddress(ctx, domain.Address{
			FullName: f.fullName, MobileContact: f.mobile, Postcode: f.postcode,
			Address: f.address, DeliveryInstructions: f.instructions,
		}); err != nil {
			return err
		}
		c.printf("Address saved.\n")
	case "lookup":
		got, err := c.store.Session.LookupAddresses(ctx, f.postcode)
		if err != nil {
			return err
		}
		if len(got) == 0 {
			c.printf("No addresses found for that postcode.\n")
		}
		for _, s := range got {
			c.printf("%s\n", s.Address)
		}
	case "forgot":
		if err := c.store.Session.SendResetLink(ctx, f.email); err != nil {
			return err
		}
		c.printf("If that account exists, a reset code is on its way.\n")
	case "reset":
		if err := c.store.Session.ResetPassword(ctx, f.email, f.code, f.password, f.confirm); err != nil {
			return err
		}
		c.printf("Password updated. You can log in now.\n")
	case "restaurants":
		return c.restaurants(ctx)
	case "select":
		return c.selectRestaurant(ctx, f.restaurant)
	case "menu":
		return c.menu(ctx, f.restaurant)
	case "cart":
		return c.showCart(ctx)
	case "add":
		return c.add(ctx, f.item)
	case "remove":
		if err := required("item", f.item); err != nil {
			return err
		}
		if err := c.store.Cart.RemoveItem(ctx, domain.ID(f.item)); err != nil {
			return err
		}
		return c.showCart(ctx)
	case "qty":
		if err := required("item", f.item); err != nil {
			return err
		}
		if err := c.store.Cart.SetQuantity(ctx, domain.ID(f.item), f.quantity); err != nil {
			return err
		}
		return c.showCart(ctx)
	case "clear":
		if err := c.store.Cart.Clear(ctx); err != nil {
			return err
		}
		c.printf("Cart cleared.\n")
	case "fee":
		fee, err := c.store.Cart.FetchDeliveryFee(ctx)
		if err != nil {
			return err
		}
		c.printf("Delivery fee: %s\n", cart.Format(fee))
	case "checkout":
		return c.checkout(ctx)
	case "orders":
		return c.orders(ctx)
	case "track":
		return c.track(ctx, f.order)
	default:
		return fmt.Errorf("%w: unknown --mode %q (%s)", errUsage, f.mode, modes)
	}
	return nil
}

func (c *cli) status(ctx context.Context) error {
	s := c.store.Session.Current()
	if !s.Authenticated() {
		c.printf("Logged out.\n")
	} else {
		c.printf("Logged in. Address on file: %t\n", s.HasAddress)
	}
	if s.Postcode != "" {
		c.printf("Postcode: %s\n", strings.ToUpper(s.Postcode))
	}
	if r, found, err := c.store.Cart.SelectedRestaurant(ctx); err == nil && found {
		c.printf("Restaurant: %s (%s)\n", r.Name, r.ID)
	}
	c.printf("Cart: %d item(s)\n", c.store.Cart.Totals().ItemCount)
	return nil
}

func (c *cli) restaurants(ctx context.Context) error {
	list, err := c.store.API.Restaurants(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		c.printf("No restaurants deliver to you yet.\n")
	}
	for _, l := range list {
		r := l.Restaurant
		var tags []string
		if !r.Active {
			tags = append(tags, "closed")
		}
		if r.IsPromoted {
			tags = append(tags, "promoted")
		}
		if r.FreeDelivery {
			tags = append(tags, "free delivery")
		}
		line := fmt.Sprintf("[%s] %s - %s", r.ID, r.Name, r.FullAddress)
		if l.EstimatedTime != "" {
			line += " - " + l.EstimatedTime
		}
		if r.ReviewCount > 0 {
			line += fmt.Sprintf(" - %.1f★ (%d)", r.Rating, r.ReviewCount)
		}
		if len(tags) > 0 {
			line += " (" + strings.Join(tags, ", ") + ")"
		}
		c.printf("%s\n", line)
	}
	return nil
}

func (c *cli) findRestaurant(ctx context.Context, id string) (domain.Restaurant, error) {
	list, err := c.store.API.Restaurants(ctx)
	if err != nil {
		return domain.Restaurant{}, err
	}
	for _, l := range list {
		if l.Restaurant.ID == domain.ID(id) {
			return l.Restaurant, nil
		}
	}
	return domain.Restaurant{}, fmt.Errorf("restaurant %s not found", id)
}

func (c *cli) selectRestaurant(ctx context.Context, id string) error {
	if err := required("restaurant", id); err != nil {
		return err
	}
	r, err := c.findRestaurant(ctx, id)
	if err != nil {
		return err
	}
	cleared, err := c.store.Cart.SelectRestaurant(ctx, r)
	if err != nil {
		return err
	}
	if cleared {
		c.printf("Your cart is now cleared.\n")
	}
	c.printf("Ordering from %s.\n", r.Name)
	return nil
}

// restaurantID is the explicit id, else the selected restaurant's.
func (c *cli) restaurantID(ctx context.Context, id string) (domain.ID, error) {
	if id != "" {
		return domain.ID(id), nil
	}
	r, found, err := c.store.Cart.SelectedRestaurant(ctx)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("%w: --restaurant is required when none is selected", errUsage)
	}
	return r.ID, nil
}

func (c *cli) menu(ctx context.Context, id string) error {
	rid, err := c.restaurantID(ctx, id)
	if err != nil {
		return err
	}
	items, err := c.store.API.MenuItems(ctx, rid)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		c.printf("No menu items available.\n")
	}
	for _, it := range items {
		stock := ""
		if !it.InStock {
			stock = " (out of stock)"
		}
		c.printf("[%s] %s %s%s\n", it.ID, it.Name, cart.Format(it.Price), stock)
	}
	return nil
}

func (c *cli) add(ctx context.Context, itemID string) error {
	if err := required("item", itemID); err != nil {
		return err
	}
	rid, err := c.restaurantID(ctx, "")
	if err != nil {
		return err
	}
	items, err := c.store.API.MenuItems(ctx, rid)
	if err != nil {
		return err
	}
	for _, it := range items {
		if it.ID == domain.ID(itemID) {
			if err := c.store.Cart.AddItem(ctx, it); err != nil {
				return err
			}
			c.printf("Added %s.\n", it.Name)
			return nil
		}
	}
	return fmt.Errorf("item %s is not on the menu", itemID)
}

func (c *cli) showCart(ctx context.Context) error {
	lines := c.store.Cart.Lines()
	if len(lines) == 0 {
		c.printf("Your cart is empty.\n")
		return nil
	}
	if _, err := c.store.Cart.FetchDeliveryFee(ctx); err != nil {
		c.printf("Could not load the delivery fee: %s\n", message(err))
	}
	for _, l := range lines {
		c.printf("[%s] %s x%d  %s\n", l.ID, l.Name, l.Quantity, cart.Format(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))))
	}
	c.printTotals(c.store.Cart.Totals())
	return nil
}

func (c *cli) printTotals(t cart.Totals) {
	c.printf("Subtotal:     %s\n", cart.Format(t.Subtotal))
	c.printf("Delivery fee: %s\n", cart.Format(t.DeliveryFee))
	c.printf("Service fee:  %s\n", cart.Format(t.ServiceFee))
	c.printf("Total:        %s (%d item(s))\n", cart.Format(t.Total), t.ItemCount)
}

func (c *cli) checkout(ctx context.Context) error {
	if _, err := c.store.Cart.FetchDeliveryFee(ctx); err != nil {
		c.printf("Could not load the delivery fee: %s\n", message(err))
	}
	res, err := c.store.Checkout.Checkout(ctx, &terminalConfirmer{in: bufio.NewReader(c.in), out: c.out})
	if err != nil {
		return err
	}
	c.printf("Payment successful. Order %s placed, total %s.\n", res.OrderID, cart.Format(res.Total))
	c.printf("Track it with --mode track --order %s\n", res.OrderID)
	return nil
}

// terminalConfirmer shows the payment intent and asks whether the payment
// was completed with the payment provider.
type terminalConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func (t *terminalConfirmer) ConfirmPayment(_ context.Context, p checkout.Payment) (bool, error) {
	fmt.Fprintf(t.out, "Order %s: %s due.\nPayment client secret: %s\nPayment completed? [y/N] ",
		p.OrderID, cart.Format(p.Total), p.ClientSecret)
	answer, err := t.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

func (c *cli) orders(ctx context.Context) error {
	list, err := c.store.API.Orders(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		c.printf("No orders yet.\n")
	}
	for _, o := range list {
		c.printf("#%s  %s  %s  %s\n", o.OrderNumber, o.Restaurant, o.OrderDate.Local().Format("02 Jan 2006 15:04"), cart.Format(o.TotalPrice))
		for _, it := range o.OrderItems {
			c.printf("    %s x%d  %s\n", it.ItemName, it.Quantity, cart.Format(it.Price))
		}
	}
	return nil
}

func (c *cli) track(ctx context.Context, orderID string) error {
	if err := required("order", orderID); err != nil {
		return err
	}
	p := c.store.NewPoller(tracker.WithObserver(func(_ context.Context, _, cur domain.Tracking) {
		c.printTracking(cur)
	}))
	return p.Run(ctx, orderID, func(err error) {
		c.printf("Could not load tracking: %s\nRetrying every %s.\n", message(err), c.store.Config.Tracking.Interval)
	})
}

func (c *cli) printTracking(t domain.Tracking) {
	c.printf("%s  Order %s: %s\n", time.Now().Format("15:04:05"), t.OrderID, t.Status.Label())
	if d := t.Driver; d != nil {
		line := fmt.Sprintf("  Driver: %s (%s)", d.DisplayName, d.Initials())
		if d.TransportType != "" {
			line += " by " + d.TransportType
		}
		if d.Phone != "" {
			line += ", " + d.Phone
		}
		c.printf("%s\n", line)
	}
	if eta, ok := t.ETA(); ok {
		if eta.Pickup != nil {
			c.printf("  Pickup:  %s\n", eta.Pickup.Local().Format("15:04"))
		}
		if eta.Dropoff != nil {
			c.printf("  Dropoff: %s\n", eta.Dropoff.Local().Format("15:04"))
		}
	}
}
