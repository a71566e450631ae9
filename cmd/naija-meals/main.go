package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"naija-meals/internal/app"
	"naija-meals/internal/common/config"
	"naija-meals/internal/common/logger"
)

const modes = "login | register | logout | status | address | save-address | lookup | forgot | reset | " +
	"restaurants | select | menu | cart | add | remove | qty | clear | fee | checkout | orders | track"

func main() {
	var f flags
	flag.StringVar(&f.mode, "mode", "", modes)
	flag.StringVar(&f.config, "config", "", "path to YAML config (default: config.yaml, ~/.naija-meals/config.yaml)")
	flag.StringVar(&f.email, "email", "", "login/register/forgot/reset: email address")
	flag.StringVar(&f.password, "password", "", "login/register/reset: password")
	flag.StringVar(&f.confirm, "confirm-password", "", "reset: password confirmation")
	flag.StringVar(&f.firstName, "first-name", "", "register: first name")
	flag.StringVar(&f.lastName, "last-name", "", "register: last name")
	flag.StringVar(&f.postcode, "postcode", "", "save-address/lookup: UK postcode")
	flag.StringVar(&f.address, "address", "", "save-address: street address")
	flag.StringVar(&f.fullName, "full-name", "", "save-address: recipient name")
	flag.StringVar(&f.mobile, "mobile", "", "save-address: mobile number")
	flag.StringVar(&f.instructions, "instructions", "", "save-address: delivery instructions")
	flag.StringVar(&f.code, "code", "", "reset: code from the reset email")
	flag.StringVar(&f.restaurant, "restaurant", "", "select/menu: restaurant id")
	flag.StringVar(&f.item, "item", "", "add/remove/qty: menu item id")
	flag.IntVar(&f.quantity, "quantity", 1, "qty: new quantity (0 removes the line)")
	flag.StringVar(&f.order, "order", "", "track: order id")
	flag.Parse()

	lg := logger.NewWithWriter("naija-meals", os.Stderr)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if f.mode == "" {
		fmt.Fprintln(os.Stderr, "--mode is required: "+modes)
		os.Exit(2)
	}

	path := f.config
	if path == "" {
		path, _ = config.FindConfig()
	}
	cfg, err := config.Load(path)
	if err != nil {
		lg.Error("config_load_failed", err, map[string]any{"path": path})
		os.Exit(1)
	}

	st, err := app.Open(ctx, cfg, lg)
	if err != nil {
		lg.Error("bootstrap_failed", err, nil)
		os.Exit(1)
	}
	defer st.Close()

	c := &cli{store: st, out: os.Stdout, in: os.Stdin}
	if err := c.run(ctx, f); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", message(err))
		code := 1
		if errors.Is(err, errUsage) {
			code = 2
		}
		st.Close()
		cancel()
		os.Exit(code)
	}
}
