package repositories

import (
	"errors"

	"orderconsole/internal/models"
)

// ErrOrderNotFound is returned when no order has the requested ID.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	List(filter models.OrderFilter) ([]models.Order, error)
	GetByID(id uint) (*models.Order, error)
	Create(order *models.Order) error
	// Update stores customer and date of order. Items are replaced only when
	// replaceItems is set.
	Update(order *models.Order, replaceItems bool) error
	Delete(id uint) error
	GetItems(orderID uint) ([]models.Item, error)
}
