// Package app wires configuration, storage, the backend client and the state
// objects into one process-wide Store.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"naija-meals/internal/api"
	"naija-meals/internal/cart"
	"naija-meals/internal/checkout"
	"naija-meals/internal/common/config"
	"naija-meals/internal/common/logger"
	"naija-meals/internal/connections/database"
	"naija-meals/internal/connections/rabbitmq"
	"naija-meals/internal/session"
	"naija-meals/internal/storage"
	"naija-meals/internal/tracker"
)

type Store struct {
	Config   config.App
	Log      *logger.Logger
	Storage  storage.Store
	API      *api.Client
	Session  *session.Manager
	Cart     *cart.State
	Checkout *checkout.Flow

	notifier *tracker.Notifier
	closers  []func()
}

type Option func(*options)

type options struct {
	httpClient *http.Client
	storage    storage.Store
}

// WithHTTPClient replaces the client built from api.timeout.
func WithHTTPClient(h *http.Client) Option { return func(o *options) { o.httpClient = h } }

// WithStorage bypasses the configured storage driver.
func WithStorage(s storage.Store) Option { return func(o *options) { o.storage = s } }

// Open builds the Store for cfg and hydrates session and cart from storage.
func Open(ctx context.Context, cfg config.App, lg *logger.Logger, opts ...Option) (*Store, error) {
	if lg == nil {
		lg = logger.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{Config: cfg, Log: lg}

	st := o.storage
	if st == nil {
		var err error
		st, err = s.openStorage(ctx)
		if err != nil {
			s.Close()
			return nil, err
		}
	}
	s.Storage = st

	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.API.Timeout}
	}
	s.API = api.New(cfg.API.BaseURL, st,
		api.WithHTTPClient(hc),
		api.WithLogger(lg),
		api.WithUnauthorizedHook(s.resetMemory),
	)
	s.Session = session.NewManager(s.API, st, lg)
	s.Cart = cart.New(s.API, st, lg)
	s.Checkout = checkout.New(s.API, s.Cart, lg)

	if cfg.Rabbit.Enabled {
		s.openNotifier()
	}

	sess := s.Session.Hydrate(ctx)
	lines := s.Cart.Hydrate(ctx)
	lg.Info("store_hydrated", map[string]any{
		"authenticated": sess.Authenticated(),
		"has_address":   sess.HasAddress,
		"cart_lines":    len(lines),
	})
	return s, nil
}

func (s *Store) openStorage(ctx context.Context) (storage.Store, error) {
	switch s.Config.Storage.Driver {
	case config.DriverMemory:
		return storage.NewMemoryStore(), nil
	case config.DriverPostgres:
		pool, err := database.Connect(ctx, s.Config.Database)
		if err != nil {
			return nil, fmt.Errorf("connect storage database: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		pg := storage.NewPostgresStore(pool, s.Config.Storage.Namespace)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		s.Log.Info("storage_ready", map[string]any{"driver": config.DriverPostgres, "namespace": s.Config.Storage.Namespace})
		return pg, nil
	default:
		fs, err := storage.NewFileStore(s.Config.Storage.Path)
		if err != nil {
			return nil, err
		}
		s.Log.Info("storage_ready", map[string]any{"driver": config.DriverFile, "path": fs.Path()})
		return fs, nil
	}
}

// openNotifier connects to the broker. Tracking works without it, so a
// failure is logged and status events are simply not published.
func (s *Store) openNotifier() {
	mq, err := rabbitmq.Dial(s.Config.Rabbit)
	if err != nil {
		s.Log.Warn("rabbitmq_unavailable", err, map[string]any{"host": s.Config.Rabbit.Host})
		return
	}
	if err := mq.DeclareFanout(s.Config.Rabbit.Exchange); err != nil {
		s.Log.Warn("rabbitmq_unavailable", err, map[string]any{"exchange": s.Config.Rabbit.Exchange})
		mq.Close()
		return
	}
	s.closers = append(s.closers, mq.Close)
	s.notifier = tracker.NewNotifier(mq, s.Config.Rabbit.Exchange, s.Log)
	s.Log.Info("rabbitmq_connected", map[string]any{"exchange": s.Config.Rabbit.Exchange})
}

// resetMemory runs after a 401 has already wiped persisted state.
func (s *Store) resetMemory() {
	if s.Session != nil {
		s.Session.Reset()
	}
	if s.Cart != nil {
		s.Cart.Reset()
	}
}

// NewPoller returns a tracking poller using the configured interval; status
// changes are published when a broker is connected.
func (s *Store) NewPoller(opts ...tracker.Option) *tracker.Poller {
	base := []tracker.Option{
		tracker.WithInterval(s.Config.Tracking.Interval),
		tracker.WithLogger(s.Log),
	}
	if s.notifier != nil {
		base = append(base, tracker.WithObserver(s.notifier.Observe))
	}
	return tracker.NewPoller(s.API, append(base, opts...)...)
}

// Logout ends the session and empties the cart. The cart is cleared even
// when removing the session keys fails.
func (s *Store) Logout(ctx context.Context) error {
	err := s.Session.Logout(ctx)
	if cerr := s.Cart.Clear(ctx); cerr != nil {
		s.Cart.Reset()
		err = errors.Join(err, cerr)
	}
	return err
}

func (s *Store) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
	s.Log.Sync()
}
