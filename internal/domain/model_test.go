package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_AcceptsNumbersAndStrings(t *testing.T) {
	var line struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":12,"b":"abc-1","c":null}`), &line))
	assert.Equal(t, ID("12"), line.A)
	assert.Equal(t, ID("abc-1"), line.B)
	assert.Equal(t, ID(""), line.C)

	out, err := json.Marshal(CompleteOrderItem{ItemID: "12", Quantity: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"item_id":12,"quantity":2}`, string(out))

	out, err = json.Marshal(CompleteOrderItem{ItemID: "0012", Quantity: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"item_id":"0012","quantity":1}`, string(out))
}

func TestOrderStatus_LabelAndClass(t *testing.T) {
	tests := []struct {
		status OrderStatus
		label  string
		class  OrderStatus
	}{
		{"in_progress", "In Progress", StatusInProgress},
		{"COMPLETED", "COMPLETED", StatusCompleted},
		{"cancelled", "Cancelled", StatusCancelled},
		{"awaiting_driver", "Awaiting Driver", StatusPending},
		{"", "", StatusPending},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.label, tt.status.Label())
			assert.Equal(t, tt.class, tt.status.Class())
		})
	}
}

func TestDriver_Initials(t *testing.T) {
	assert.Equal(t, "AO", Driver{DisplayName: "Ada Obi"}.Initials())
	assert.Equal(t, "AE", Driver{DisplayName: "Ada Chioma Eze"}.Initials())
	assert.Equal(t, "TU", Driver{DisplayName: "tunde"}.Initials())
	assert.Equal(t, "?", Driver{}.Initials())
}

func TestTracking_ETA(t *testing.T) {
	var tr Tracking
	require.NoError(t, json.Unmarshal([]byte(`{
		"status":"in_progress",
		"driver":{"display_name":"Ada Obi","phone":"0700","transport_type":"bike"},
		"deliveries":[{"eta":{"pickup":"2026-10-15T12:00:00Z","dropoff":"2026-10-15T12:30:00Z"}}]
	}`), &tr))

	eta, ok := tr.ETA()
	require.True(t, ok)
	require.NotNil(t, eta.Dropoff)
	assert.Equal(t, 30, int(eta.Dropoff.Sub(*eta.Pickup).Minutes()))
	assert.Equal(t, "bike", tr.Driver.TransportType)

	_, ok = Tracking{}.ETA()
	assert.False(t, ok)
}
