package poll

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeWireFormat(t *testing.T) {
	tests := []struct {
		name string
		body Body
		want string
	}{
		{name: "menu", body: MenuChangedBody{}, want: `{"id":"e1","event":"menu_changed","timestamp":100}`},
		{name: "cart", body: CartChangedBody{}, want: `{"id":"e1","event":"cart_changed","timestamp":100}`},
		{name: "order", body: OrderChangedBody{OrderID: 7}, want: `{"id":"e1","event":"order_changed","timestamp":100,"body":{"order_id":7}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Envelope{ID: "e1", Timestamp: 100, Body: tt.body}

			raw, err := json.Marshal(env)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(raw))

			var decoded Envelope
			require.NoError(t, json.Unmarshal(raw, &decoded))
			assert.Equal(t, env, decoded)
			assert.Equal(t, tt.body.Event(), decoded.Event())
		})
	}
}

func TestEnvelopeRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "unknown event", raw: `{"id":"e1","event":"dish_added","timestamp":1}`},
		{name: "missing event", raw: `{"id":"e1","timestamp":1}`},
		{name: "order without body", raw: `{"id":"e1","event":"order_changed","timestamp":1}`},
		{name: "order with wrong body", raw: `{"id":"e1","event":"order_changed","timestamp":1,"body":{"order_id":"x"}}`},
		{name: "not an object", raw: `[1,2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env Envelope
			assert.Error(t, json.Unmarshal([]byte(tt.raw), &env))
		})
	}
}

func TestNewEnvelopeAssignsDistinctIDs(t *testing.T) {
	a := NewEnvelope(CartChangedBody{}, 100)
	b := NewEnvelope(CartChangedBody{}, 100)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, int64(100), a.Timestamp)
	assert.Equal(t, EventCartChanged, a.Event())
}

func TestEnvelopeWithoutBodyDoesNotMarshal(t *testing.T) {
	_, err := json.Marshal(Envelope{ID: "e1"})
	assert.Error(t, err)
	assert.Equal(t, EventType(""), Envelope{}.Event())
}
