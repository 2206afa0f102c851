// Package console turns operator actions into order API calls and maps the
// responses back onto the field store.
package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Action is one operator-triggered operation.
type Action string

const (
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionRetrieve      Action = "retrieve"
	ActionDelete        Action = "delete"
	ActionSearch        Action = "search"
	ActionRetrieveItems Action = "retrieve-items"
	ActionClear         Action = "clear"
)

// Banner texts.
const (
	StatusSuccess     = "Success"
	StatusDeleted     = "Order has been Deleted!"
	StatusServerError = "Server error!"
)

var (
	// ErrUnknownAction is returned for names that are not an Action.
	ErrUnknownAction = errors.New("unknown action")
	// ErrNoRequest is returned by the builder for actions that issue no HTTP call.
	ErrNoRequest = errors.New("action does not issue a request")
	// ErrStopped is returned when the dispatcher loop is no longer running.
	ErrStopped = errors.New("dispatcher stopped")
)

// Actions lists every action in menu order.
var Actions = []Action{
	ActionCreate,
	ActionUpdate,
	ActionRetrieve,
	ActionDelete,
	ActionSearch,
	ActionRetrieveItems,
	ActionClear,
}

// ParseAction resolves an action name. "items" is accepted for retrieve-items.
func ParseAction(name string) (Action, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "items" {
		return ActionRetrieveItems, nil
	}
	for _, a := range Actions {
		if string(a) == n {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

// Request describes one HTTP call against the order API.
type Request struct {
	Action Action
	Method string
	// Path is relative to the API base URL and may carry a query string.
	Path string
	// Body is the JSON payload, nil when the request has none.
	Body []byte
}

// Response is a completed HTTP exchange, whatever its status.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Doer issues a single request. A non-2xx status is a Response, not an error;
// errors are reserved for transport failures.
type Doer interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// Outcome is what the reconciler receives for a finished request.
type Outcome struct {
	Response *Response
	Err      error
}

// Succeeded reports a 2xx response without transport error.
func (o Outcome) Succeeded() bool {
	return o.Err == nil && o.Response.OK()
}
