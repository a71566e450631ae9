package tracker

import (
	"context"
	"encoding/json"
	"time"

	"naija-meals/internal/common/logger"
	"naija-meals/internal/domain"
)

const RoutingKey = "order.status_changed"

type Publisher interface {
	Publish(ctx context.Context, exchange, key, correlationID string, body []byte) error
}

// Notifier publishes a StatusChanged event whenever consecutive snapshots of
// an order disagree on status.
type Notifier struct {
	pub      Publisher
	exchange string
	log      *logger.Logger
	timeout  time.Duration
	now      func() time.Time
}

func NewNotifier(pub Publisher, exchange string, lg *logger.Logger) *Notifier {
	if lg == nil {
		lg = logger.NewNop()
	}
	return &Notifier{pub: pub, exchange: exchange, log: lg, timeout: 5 * time.Second, now: time.Now}
}

// Observe is a poller Observer. Publish failures are logged only.
func (n *Notifier) Observe(ctx context.Context, prev, cur domain.Tracking) {
	if prev.Status == "" || prev.Status == cur.Status {
		return
	}
	evt := domain.StatusChanged{
		OrderID:   cur.OrderID,
		OldStatus: prev.Status,
		NewStatus: cur.Status,
		Timestamp: n.now().UTC(),
	}
	if cur.Driver != nil {
		evt.Driver = cur.Driver.DisplayName
	}
	body, err := json.Marshal(evt)
	if err != nil {
		n.log.Error("status_event_encode_failed", err, map[string]any{"order_id": cur.OrderID})
		return
	}

	pctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	if err := n.pub.Publish(pctx, n.exchange, RoutingKey, cur.OrderID, body); err != nil {
		n.log.Error("status_event_publish_failed", err, map[string]any{"order_id": cur.OrderID})
		return
	}
	n.log.Info("status_event_published", map[string]any{
		"order_id":   cur.OrderID,
		"old_status": string(prev.Status),
		"new_status": string(cur.Status),
	})
}
