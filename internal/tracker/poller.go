// Package tracker follows one order while its tracking view is open.
//
// A Poller is Idle until Start, which fetches once and surfaces any error,
// then re-fetches on every tick until Stop whether or not that first fetch
// worked. Errors on ticks are logged and dropped; the last good snapshot
// stays current.
package tracker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"naija-meals/internal/common/logger"
	"naija-meals/internal/domain"
)

var ErrNoOrder = errors.New("no order to track")

const DefaultInterval = 30 * time.Second

type State int

const (
	Idle State = iota
	Polling
)

func (s State) String() string {
	if s == Polling {
		return "polling"
	}
	return "idle"
}

type TrackingAPIInterface interface {
	Tracking(ctx context.Context, orderID string) (domain.Tracking, error)
}

// Ticker is the part of time.Ticker the poller uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

func NewTicker(d time.Duration) Ticker { return stdTicker{t: time.NewTicker(d)} }

// Observer sees every successful fetch. prev is the zero value on the first one.
type Observer func(ctx context.Context, prev, cur domain.Tracking)

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithTicker(f func(time.Duration) Ticker) Option { return func(p *Poller) { p.newTicker = f } }

func WithLogger(l *logger.Logger) Option { return func(p *Poller) { p.log = l } }

func WithObserver(o Observer) Option { return func(p *Poller) { p.observers = append(p.observers, o) } }

type Poller struct {
	api       TrackingAPIInterface
	interval  time.Duration
	newTicker func(time.Duration) Ticker
	log       *logger.Logger
	observers []Observer

	mu      sync.Mutex
	state   State
	orderID string
	last    domain.Tracking
	hasLast bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewPoller(a TrackingAPIInterface, opts ...Option) *Poller {
	p := &Poller{
		api:       a,
		interval:  DefaultInterval,
		newTicker: NewTicker,
		log:       logger.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Latest returns the last successful snapshot.
func (p *Poller) Latest() (domain.Tracking, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.hasLast
}

// Start moves Idle -> Polling for orderID. The first fetch runs before Start
// returns and its error is the caller's, but polling continues either way so
// a failed first load recovers on the next tick. Only Stop ends polling; the
// ctx bounds the first fetch and passes its values to later ones.
// Starting while already polling stops the previous order first.
func (p *Poller) Start(ctx context.Context, orderID string) (domain.Tracking, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Tracking{}, ErrNoOrder
	}
	p.Stop()

	cur, err := p.api.Tracking(ctx, orderID)

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	t := p.newTicker(p.interval)

	p.mu.Lock()
	p.state = Polling
	p.orderID = orderID
	p.last, p.hasLast = domain.Tracking{}, false
	if err == nil {
		p.last, p.hasLast = cur, true
	}
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	p.log.Info("tracking_started", map[string]any{"order_id": orderID, "interval": p.interval.String()})
	go p.loop(loopCtx, orderID, t, done)

	if err != nil {
		p.log.Warn("tracking_load_failed", err, map[string]any{"order_id": orderID})
		return domain.Tracking{}, err
	}
	p.notify(loopCtx, domain.Tracking{}, cur)
	return cur, nil
}

func (p *Poller) loop(ctx context.Context, orderID string, t Ticker, done chan struct{}) {
	defer close(done)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			cur, err := p.api.Tracking(ctx, orderID)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				p.log.Debug("tracking_poll_failed", map[string]any{"order_id": orderID, "error": err.Error()})
				continue
			}
			p.mu.Lock()
			prev := p.last
			p.last, p.hasLast = cur, true
			p.mu.Unlock()
			p.notify(ctx, prev, cur)
		}
	}
}

func (p *Poller) notify(ctx context.Context, prev, cur domain.Tracking) {
	for _, o := range p.observers {
		o(ctx, prev, cur)
	}
}

// Stop moves Polling -> Idle. Once it returns no further fetch happens.
// Safe to call in any state.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done, orderID := p.cancel, p.done, p.orderID
	p.cancel, p.done = nil, nil
	p.state = Idle
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	p.log.Info("tracking_stopped", map[string]any{"order_id": orderID})
}

// Run polls orderID until ctx ends, always stopping before it returns.
// A failed first fetch goes to onFirstErr, if set, and polling carries on.
func (p *Poller) Run(ctx context.Context, orderID string, onFirstErr func(error)) error {
	_, err := p.Start(ctx, orderID)
	if errors.Is(err, ErrNoOrder) {
		return err
	}
	defer p.Stop()
	if err != nil && onFirstErr != nil {
		onFirstErr(err)
	}
	<-ctx.Done()
	return nil
}
