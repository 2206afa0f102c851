package console_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"orderconsole/internal/console"
	"orderconsole/internal/fieldstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeWith(fields map[string]string) *fieldstore.MemoryStore {
	s := fieldstore.NewMemoryStore()
	for k, v := range fields {
		s.Set(k, v)
	}
	return s
}

func TestRequestBuilder_Create(t *testing.T) {
	s := storeWith(map[string]string{
		fieldstore.OrderID:       "99",
		fieldstore.OrderCustomer: "42",
		fieldstore.OrderDate:     "2024-03-01",
	})

	req, err := console.RequestBuilder{}.Build(console.ActionCreate, s)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/orders", req.Path)

	var body map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, map[string]any{"customer_id": "42", "date_order": "2024-03-01"}, body)
}

func TestRequestBuilder_UpdateUsesOrderIDField(t *testing.T) {
	s := storeWith(map[string]string{
		fieldstore.OrderID:       "7",
		fieldstore.OrderCustomer: "42",
		fieldstore.OrderDate:     "2024-03-02",
	})

	req, err := console.RequestBuilder{}.Build(console.ActionUpdate, s)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/orders/7", req.Path)

	var body map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, map[string]any{"id": "7", "customer_id": "42", "date_order": "2024-03-02"}, body)
}

func TestRequestBuilder_IDRoutes(t *testing.T) {
	s := storeWith(map[string]string{fieldstore.OrderID: "7"})

	tests := []struct {
		action console.Action
		method string
		path   string
	}{
		{console.ActionRetrieve, http.MethodGet, "/orders/7"},
		{console.ActionDelete, http.MethodDelete, "/orders/7"},
		{console.ActionRetrieveItems, http.MethodGet, "/orders/7/items"},
	}
	for _, tc := range tests {
		t.Run(string(tc.action), func(t *testing.T) {
			req, err := console.RequestBuilder{}.Build(tc.action, s)
			require.NoError(t, err)
			assert.Equal(t, tc.method, req.Method)
			assert.Equal(t, tc.path, req.Path)
			assert.Nil(t, req.Body)
			assert.Equal(t, tc.action, req.Action)
		})
	}
}

func TestRequestBuilder_EmptyIDIsNotRejected(t *testing.T) {
	req, err := console.RequestBuilder{}.Build(console.ActionRetrieve, fieldstore.NewMemoryStore())
	require.NoError(t, err)
	assert.Equal(t, "/orders/", req.Path)
}

func TestRequestBuilder_IDIsPathEscaped(t *testing.T) {
	s := storeWith(map[string]string{fieldstore.OrderID: "a/b c"})
	req, err := console.RequestBuilder{}.Build(console.ActionRetrieve, s)
	require.NoError(t, err)
	assert.Equal(t, "/orders/a%2Fb%20c", req.Path)
}

func TestRequestBuilder_SearchFilterPriority(t *testing.T) {
	tests := []struct {
		name     string
		customer string
		date     string
		want     string
	}{
		{name: "customer only", customer: "42", want: "/orders?customer_id=42"},
		{name: "date only", date: "2024-03-01", want: "/orders?date_order=2024-03-01"},
		{name: "both prefers customer", customer: "42", date: "2024-03-01", want: "/orders?customer_id=42"},
		{name: "neither lists all", want: "/orders"},
		{name: "value is query escaped", customer: "a&b", want: "/orders?customer_id=a%26b"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := storeWith(map[string]string{
				fieldstore.OrderCustomer: tc.customer,
				fieldstore.OrderDate:     tc.date,
			})
			req, err := console.RequestBuilder{}.Build(console.ActionSearch, s)
			require.NoError(t, err)
			assert.Equal(t, http.MethodGet, req.Method)
			assert.Equal(t, tc.want, req.Path)
		})
	}
}

func TestRequestBuilder_ClearAndUnknown(t *testing.T) {
	s := fieldstore.NewMemoryStore()

	_, err := console.RequestBuilder{}.Build(console.ActionClear, s)
	assert.ErrorIs(t, err, console.ErrNoRequest)

	_, err = console.RequestBuilder{}.Build(console.Action("explode"), s)
	assert.ErrorIs(t, err, console.ErrUnknownAction)
}

func TestParseAction(t *testing.T) {
	a, err := console.ParseAction("items")
	require.NoError(t, err)
	assert.Equal(t, console.ActionRetrieveItems, a)

	a, err = console.ParseAction(" Search ")
	require.NoError(t, err)
	assert.Equal(t, console.ActionSearch, a)

	_, err = console.ParseAction("launch")
	assert.ErrorIs(t, err, console.ErrUnknownAction)
}
