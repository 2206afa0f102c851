package console

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// text decodes any JSON scalar into its string form. The API is not strict
// about ids and amounts being strings or numbers.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
	case b[0] == '{' || b[0] == '[':
		return fmt.Errorf("expected scalar, got %s", b)
	default:
		*t = text(b)
	}
	return nil
}

type orderPayload struct {
	ID         text          `json:"id"`
	CustomerID text          `json:"customer_id"`
	DateOrder  text          `json:"date_order"`
	ItemList   []itemPayload `json:"item_list"`
}

type itemPayload struct {
	ProductID       text `json:"product_id"`
	ProductPrice    text `json:"product_price"`
	ProductQuantity text `json:"product_quantity"`
}

// price renders a currency amount with two decimals when it parses.
func (i itemPayload) price() string {
	raw := strings.TrimSpace(string(i.ProductPrice))
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	return d.StringFixed(2)
}

type errorPayload struct {
	Message string `json:"message"`
}

func decodeOrder(body []byte) (orderPayload, error) {
	var o orderPayload
	if err := json.Unmarshal(body, &o); err != nil {
		return orderPayload{}, fmt.Errorf("decode order: %w", err)
	}
	return o, nil
}

func decodeOrders(body []byte) ([]orderPayload, error) {
	var list []orderPayload
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode order list: %w", err)
	}
	return list, nil
}

func decodeItems(body []byte) ([]itemPayload, error) {
	var list []itemPayload
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode item list: %w", err)
	}
	return list, nil
}

// serverMessage extracts the message of an error body, falling back to
// StatusServerError when there is none.
func serverMessage(o Outcome) string {
	if o.Err != nil || o.Response == nil {
		return StatusServerError
	}
	var payload errorPayload
	if err := json.Unmarshal(o.Response.Body, &payload); err != nil {
		return StatusServerError
	}
	if strings.TrimSpace(payload.Message) == "" {
		return StatusServerError
	}
	return payload.Message
}
