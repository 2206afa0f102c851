package console

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"orderconsole/internal/fieldstore"
)

const ordersPath = "/orders"

type createBody struct {
	CustomerID string `json:"customer_id"`
	DateOrder  string `json:"date_order"`
}

type updateBody struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	DateOrder  string `json:"date_order"`
}

// RequestBuilder derives the request for an action from the current fields.
// It does not validate field values; an empty order_id is left for the
// server to reject.
type RequestBuilder struct{}

// Build returns the request for action. Clear yields ErrNoRequest.
func (RequestBuilder) Build(action Action, store fieldstore.Store) (Request, error) {
	id := store.Get(fieldstore.OrderID)
	customer := store.Get(fieldstore.OrderCustomer)
	date := store.Get(fieldstore.OrderDate)

	switch action {
	case ActionCreate:
		body, err := json.Marshal(createBody{CustomerID: customer, DateOrder: date})
		if err != nil {
			return Request{}, fmt.Errorf("encode create body: %w", err)
		}
		return Request{Action: action, Method: http.MethodPost, Path: ordersPath, Body: body}, nil

	case ActionUpdate:
		body, err := json.Marshal(updateBody{ID: id, CustomerID: customer, DateOrder: date})
		if err != nil {
			return Request{}, fmt.Errorf("encode update body: %w", err)
		}
		return Request{Action: action, Method: http.MethodPut, Path: orderPath(id), Body: body}, nil

	case ActionRetrieve:
		return Request{Action: action, Method: http.MethodGet, Path: orderPath(id)}, nil

	case ActionDelete:
		return Request{Action: action, Method: http.MethodDelete, Path: orderPath(id)}, nil

	case ActionSearch:
		return Request{Action: action, Method: http.MethodGet, Path: searchPath(customer, date)}, nil

	case ActionRetrieveItems:
		return Request{Action: action, Method: http.MethodGet, Path: orderPath(id) + "/items"}, nil

	case ActionClear:
		return Request{}, ErrNoRequest
	}
	return Request{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
}

func orderPath(id string) string {
	return ordersPath + "/" + url.PathEscape(id)
}

// searchPath sends at most one filter; customer wins over date.
func searchPath(customer, date string) string {
	q := url.Values{}
	switch {
	case customer != "":
		q.Set("customer_id", customer)
	case date != "":
		q.Set("date_order", date)
	default:
		return ordersPath
	}
	return ordersPath + "?" + q.Encode()
}
