package domain

import "time"

// StatusChanged is published when a tracking poll sees a different status
// than the previous snapshot.
type StatusChanged struct {
	OrderID   string      `json:"order_id"`
	OldStatus OrderStatus `json:"old_status"`
	NewStatus OrderStatus `json:"new_status"`
	Driver    string      `json:"driver,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
