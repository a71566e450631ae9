package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"naija-meals/internal/domain"
)

type published struct {
	exchange, key, correlationID string
	body                         []byte
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, exchange, key, correlationID string, body []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{exchange, key, correlationID, body})
	return nil
}

func TestNotifier_PublishesOnStatusChange(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(pub, "notifications_fanout", nil)
	at := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return at }
	ctx := context.Background()

	pending := domain.Tracking{OrderID: "ORD-1", Status: domain.StatusPending}
	moving := domain.Tracking{OrderID: "ORD-1", Status: domain.StatusInProgress, Driver: &domain.Driver{DisplayName: "Tunde"}}

	n.Observe(ctx, domain.Tracking{}, pending)
	n.Observe(ctx, pending, pending)
	assert.Empty(t, pub.msgs)

	n.Observe(ctx, pending, moving)
	require.Len(t, pub.msgs, 1)
	msg := pub.msgs[0]
	assert.Equal(t, "notifications_fanout", msg.exchange)
	assert.Equal(t, RoutingKey, msg.key)
	assert.Equal(t, "ORD-1", msg.correlationID)

	var evt domain.StatusChanged
	require.NoError(t, json.Unmarshal(msg.body, &evt))
	assert.Equal(t, domain.StatusChanged{
		OrderID: "ORD-1", OldStatus: domain.StatusPending, NewStatus: domain.StatusInProgress,
		Driver: "Tunde", Timestamp: at,
	}, evt)
}

func TestNotifier_PublishErrorIsLoggedOnly(t *testing.T) {
	n := NewNotifier(&fakePublisher{err: errors.New("nack")}, "x", nil)
	assert.NotPanics(t, func() {
		n.Observe(context.Background(),
			domain.Tracking{OrderID: "1", Status: domain.StatusPending},
			domain.Tracking{OrderID: "1", Status: domain.StatusCancelled})
	})
}

func TestNotifier_AsPollerObserver(t *testing.T) {
	api := newFakeTracking(domain.StatusInProgress, domain.StatusCompleted)
	pub := &fakePublisher{}
	n := NewNotifier(pub, "x", nil)
	p, tk, _ := newTestPoller(api, WithObserver(n.Observe))

	_, err := p.Start(context.Background(), "ORD-9")
	require.NoError(t, err)
	waitFetch(t, api)
	tk.ch <- time.Now()
	waitFetch(t, api)
	p.Stop()

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "ORD-9", pub.msgs[0].correlationID)
}
