// Package fieldstore holds the console's visible state: named form fields,
// the status banner and the result tables.
package fieldstore

// Form fields.
const (
	OrderID       = "order_id"
	OrderCustomer = "order_customer"
	OrderDate     = "order_date"

	ItemProductID       = "item_product_id"
	ItemProductPrice    = "item_product_price"
	ItemProductQuantity = "item_product_quantity"
)

// Table regions.
const (
	SearchResults = "search_results"
	ItemResults   = "item_results"
)

// OrderFields are the fields of the order form.
var OrderFields = []string{OrderID, OrderCustomer, OrderDate}

// ItemFields are the fields of the item detail group.
var ItemFields = []string{ItemProductID, ItemProductPrice, ItemProductQuantity}

// Table is a rendered result list. Rows are positional against Columns.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Store reads and writes the console's visible state.
type Store interface {
	Get(name string) string
	Set(name, value string)
	Clear(names ...string)
	RenderTable(region string, table Table)
	ShowStatus(message string)
}
