package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Item is a product line of an order.
type Item struct {
	ID              uint            `json:"-" gorm:"primaryKey"`
	OrderID         uint            `json:"-" gorm:"index;not null"`
	ProductID       string          `json:"product_id" gorm:"type:varchar(64);not null"`
	ProductPrice    decimal.Decimal `json:"product_price" gorm:"type:decimal(10,2)"`
	ProductQuantity int             `json:"product_quantity"`
}

// Order represents a customer order.
type Order struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	CustomerID string    `json:"customer_id" gorm:"type:varchar(64);index;not null"`
	DateOrder  time.Time `json:"date_order" gorm:"index"`
	ItemList   []Item    `json:"item_list" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

// ItemRequest is the inbound form of an Item.
type ItemRequest struct {
	ProductID       string          `json:"product_id" validate:"required,max=64"`
	ProductPrice    decimal.Decimal `json:"product_price"`
	ProductQuantity int             `json:"product_quantity" validate:"gte=0"`
}

// OrderRequest is the body accepted by create and update. ItemList is
// optional; on update a nil list keeps the stored items.
type OrderRequest struct {
	CustomerID string        `json:"customer_id" validate:"required,max=64"`
	DateOrder  string        `json:"date_order" validate:"required"`
	ItemList   []ItemRequest `json:"item_list" validate:"omitempty,dive"`
}

// OrderFilter selects orders in a listing. CustomerID takes priority over Date.
type OrderFilter struct {
	CustomerID string
	Date       *time.Time
}

// DateOrderLayout is the wire form of Order.DateOrder. It carries no zone so
// clients read the stored calendar date unchanged.
const DateOrderLayout = "2006-01-02T15:04:05"

// MarshalJSON writes DateOrder as a zone-less UTC timestamp.
func (o Order) MarshalJSON() ([]byte, error) {
	type order Order
	items := o.ItemList
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(struct {
		order
		DateOrder string `json:"date_order"`
		ItemList  []Item `json:"item_list"`
	}{
		order:     order(o),
		DateOrder: o.DateOrder.UTC().Format(DateOrderLayout),
		ItemList:  items,
	})
}
