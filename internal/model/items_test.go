package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatItems(t *testing.T) {
	tests := []struct {
		name  string
		items Items
		want  string
	}{
		{
			name:  "raw text is returned verbatim",
			items: RawItems("Rice 5kg, Dal 1kg"),
			want:  "Rice 5kg, Dal 1kg",
		},
		{
			name:  "single line",
			items: StructuredItems(Item{Name: "Rice", Quantity: "5 kg"}),
			want:  "Rice (5 kg)",
		},
		{
			name: "several lines",
			items: StructuredItems(
				Item{Name: "Rice", Quantity: "5 kg"},
				Item{Name: "Wheat", Quantity: "3 kg"},
			),
			want: "Rice (5 kg), Wheat (3 kg)",
		},
		{
			name:  "empty list",
			items: StructuredItems(),
			want:  "",
		},
		{
			name:  "opaque json",
			items: Items{Kind: ItemsOpaque, Opaque: json.RawMessage(`{"rice":5}`)},
			want:  `{"rice":5}`,
		},
		{
			name:  "zero value",
			items: Items{},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatItems(tt.items))
		})
	}
}

func TestItemsUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		kind    ItemsKind
		display string
	}{
		{"string", `"2 bags of rice"`, ItemsRaw, "2 bags of rice"},
		{"lines", `[{"name":"Rice","quantity":"5 kg"}]`, ItemsStructured, "Rice (5 kg)"},
		{"numeric quantity", `[{"name":"Oil","quantity":2}]`, ItemsStructured, "Oil (2)"},
		{"array of scalars", `[1, 2]`, ItemsOpaque, "[1,2]"},
		{"object", `{ "rice": "5 kg" }`, ItemsOpaque, `{"rice":"5 kg"}`},
		{"null", `null`, ItemsOpaque, "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var items Items
			require.NoError(t, json.Unmarshal([]byte(tt.input), &items))
			assert.Equal(t, tt.kind, items.Kind)
			assert.Equal(t, tt.display, FormatItems(items))
		})
	}
}

func TestItemsScan(t *testing.T) {
	var items Items
	require.NoError(t, items.Scan([]byte(`[{"name":"Dal","quantity":"2 kg"}]`)))
	assert.Equal(t, "Dal (2 kg)", FormatItems(items))

	v, err := items.Value()
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"Dal","quantity":"2 kg"}]`, v)

	require.NoError(t, items.Scan(nil))
	assert.Equal(t, ItemsRaw, items.Kind)

	assert.Error(t, items.Scan(42))
}

func TestOrderJSONKeepsItemsShape(t *testing.T) {
	in := []byte(`{
		"id": "7",
		"user_id": "USR007",
		"phone_no": "9000000000",
		"items": "one sack of wheat",
		"cost": 120.5,
		"pay_history": true,
		"visit_time": "2025-03-01T10:00:00Z",
		"order_status": "accepted",
		"delivery_status": "pending"
	}`)

	var o Order
	require.NoError(t, json.Unmarshal(in, &o))
	assert.Equal(t, ItemsRaw, o.Items.Kind)
	assert.Equal(t, "120.5", o.Cost.String())
	assert.Equal(t, DeliveryPending, o.DeliveryStatus)

	out, err := json.Marshal(o)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"items":"one sack of wheat"`)
	assert.Contains(t, string(out), `"cost":120.5`)
	assert.Contains(t, string(out), `"visit_time":"2025-03-01T10:00:00Z"`)
	assert.NotContains(t, string(out), `"created_at"`)
}
