package console

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"orderconsole/internal/dates"
	"orderconsole/internal/fieldstore"
)

var (
	orderColumns       = []string{"ID", "Customer", "Date"}
	orderDetailColumns = []string{"ID", "Customer", "Date", "Details"}
	itemColumns        = []string{"Product ID", "Price", "Quantity"}
)

// Reconciler maps request outcomes onto the field store.
type Reconciler struct {
	store              fieldstore.Store
	dates              *dates.Normalizer
	includeItemDetails bool
	logger             *log.Entry

	// banner is the last status shown, only touched on the dispatcher loop.
	banner string
}

// ReconcilerOption customizes a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithItemDetails toggles the details column of the search table.
func WithItemDetails(enabled bool) ReconcilerOption {
	return func(r *Reconciler) {
		r.includeItemDetails = enabled
	}
}

// WithLogger sets the reconciler's logger.
func WithLogger(logger *log.Entry) ReconcilerOption {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReconciler creates a Reconciler writing to store. Search rows include
// item details unless disabled.
func NewReconciler(store fieldstore.Store, normalizer *dates.Normalizer, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		store:              store,
		dates:              normalizer,
		includeItemDetails: true,
		logger:             log.WithField("component", "reconciler"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply reconciles the outcome of action.
func (r *Reconciler) Apply(action Action, outcome Outcome) {
	if !outcome.Succeeded() {
		r.fail(action, outcome)
		return
	}

	body := outcome.Response.Body
	switch action {
	case ActionCreate, ActionUpdate, ActionRetrieve:
		order, err := decodeOrder(body)
		if err != nil {
			r.malformed(action, err)
			return
		}
		r.show(r.populateOrder(order))

	case ActionDelete:
		r.store.Clear(fieldstore.OrderFields...)
		r.show(StatusDeleted)

	case ActionSearch:
		orders, err := decodeOrders(body)
		if err != nil {
			r.malformed(action, err)
			return
		}
		r.store.RenderTable(fieldstore.SearchResults, r.orderTable(orders))
		status := StatusSuccess
		if len(orders) > 0 {
			status = r.populateOrder(orders[0])
		}
		r.show(status)

	case ActionRetrieveItems:
		items, err := decodeItems(body)
		if err != nil {
			r.malformed(action, err)
			return
		}
		r.store.RenderTable(fieldstore.ItemResults, itemTable(items))
		if len(items) > 0 {
			r.populateItem(items[0])
		}
		r.show(StatusSuccess)

	default:
		r.logger.WithField("action", action).Warn("no reconciliation for action")
	}
}

// Clear empties the form, the item detail group and the banner.
func (r *Reconciler) Clear() {
	r.store.Clear(fieldstore.OrderFields...)
	r.store.Clear(fieldstore.ItemFields...)
	r.show("")
}

func (r *Reconciler) show(message string) {
	r.banner = message
	r.store.ShowStatus(message)
}

func (r *Reconciler) fail(action Action, outcome Outcome) {
	entry := r.logger.WithField("action", action)
	if outcome.Err != nil {
		entry = entry.WithError(outcome.Err)
	}
	if outcome.Response != nil {
		entry = entry.WithField("status", outcome.Response.StatusCode)
	}
	entry.Info("request failed")

	switch action {
	case ActionDelete:
		r.show(StatusServerError)
		return
	case ActionRetrieve:
		r.store.Clear(fieldstore.OrderFields...)
	case ActionRetrieveItems:
		r.store.Clear(fieldstore.OrderFields...)
		r.store.Clear(fieldstore.ItemFields...)
	}
	r.show(serverMessage(outcome))
}

// malformed handles a 2xx body that does not decode for the action.
func (r *Reconciler) malformed(action Action, err error) {
	r.logger.WithField("action", action).WithError(err).Warn("unexpected response body")
	r.fail(action, Outcome{Err: err})
}

// populateOrder copies an order into the form and returns the banner text.
func (r *Reconciler) populateOrder(o orderPayload) string {
	r.store.Set(fieldstore.OrderID, string(o.ID))
	r.store.Set(fieldstore.OrderCustomer, string(o.CustomerID))

	date, err := r.dates.Normalize(string(o.DateOrder))
	if err != nil {
		r.logger.WithError(err).WithField("order_id", string(o.ID)).Warn("order has unusable date")
		r.store.Clear(fieldstore.OrderDate)
		return fmt.Sprintf("Invalid date received from server: %s", o.DateOrder)
	}
	r.store.Set(fieldstore.OrderDate, date)
	return StatusSuccess
}

func (r *Reconciler) populateItem(i itemPayload) {
	r.store.Set(fieldstore.ItemProductID, string(i.ProductID))
	r.store.Set(fieldstore.ItemProductPrice, i.price())
	r.store.Set(fieldstore.ItemProductQuantity, string(i.ProductQuantity))
}

func (r *Reconciler) orderTable(orders []orderPayload) fieldstore.Table {
	columns := orderColumns
	if r.includeItemDetails {
		columns = orderDetailColumns
	}
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		date, err := r.dates.Normalize(string(o.DateOrder))
		if err != nil {
			date = string(o.DateOrder)
		}
		row := []string{string(o.ID), string(o.CustomerID), date}
		if r.includeItemDetails {
			row = append(row, itemDetails(o.ItemList))
		}
		rows = append(rows, row)
	}
	return fieldstore.Table{Columns: columns, Rows: rows}
}

// itemDetails lists each item on its own lines, items separated by a rule.
func itemDetails(items []itemPayload) string {
	blocks := make([]string, 0, len(items))
	for _, i := range items {
		blocks = append(blocks, fmt.Sprintf("product id: %s\nproduct price: %s\nproduct quantity: %s",
			i.ProductID, i.price(), i.ProductQuantity))
	}
	return strings.Join(blocks, "\n---\n")
}

func itemTable(items []itemPayload) fieldstore.Table {
	rows := make([][]string, 0, len(items))
	for _, i := range items {
		rows = append(rows, []string{string(i.ProductID), i.price(), string(i.ProductQuantity)})
	}
	return fieldstore.Table{Columns: itemColumns, Rows: rows}
}
