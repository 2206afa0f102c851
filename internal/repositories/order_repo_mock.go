package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"orderconsole/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[uint]models.Order
	nextID uint
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[uint]models.Order),
		nextID: 1,
	}
}

// List returns the orders matching filter, ordered by ID.
func (r *MockOrderRepository) List(filter models.OrderFilter) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		switch {
		case filter.CustomerID != "":
			if order.CustomerID != filter.CustomerID {
				continue
			}
		case filter.Date != nil:
			start := dayStart(*filter.Date)
			if order.DateOrder.Before(start) || !order.DateOrder.Before(start.Add(24*time.Hour)) {
				continue
			}
		}
		orderList = append(orderList, copyOrder(order))
	}
	sort.Slice(orderList, func(i, j int) bool { return orderList[i].ID < orderList[j].ID })
	return orderList, nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id uint) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %d: %w", id, ErrOrderNotFound)
	}
	order = copyOrder(order)
	return &order, nil
}

// Create adds a new order and assigns its ID.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order.ID = r.nextID
	r.nextID++
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	r.setItemIDs(order)
	r.orders[order.ID] = copyOrder(*order)
	return nil
}

// Update stores the header fields of order and optionally replaces its items.
func (r *MockOrderRepository) Update(order *models.Order, replaceItems bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return fmt.Errorf("order with ID %d: %w", order.ID, ErrOrderNotFound)
	}
	stored.CustomerID = order.CustomerID
	stored.DateOrder = order.DateOrder
	stored.UpdatedAt = time.Now()
	if replaceItems {
		stored.ItemList = order.ItemList
		r.setItemIDs(&stored)
	}
	r.orders[order.ID] = copyOrder(stored)
	*order = copyOrder(stored)
	return nil
}

// Delete removes an order.
func (r *MockOrderRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return fmt.Errorf("order with ID %d: %w", id, ErrOrderNotFound)
	}
	delete(r.orders, id)
	return nil
}

// GetItems returns the items of an order.
func (r *MockOrderRepository) GetItems(orderID uint) ([]models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order with ID %d: %w", orderID, ErrOrderNotFound)
	}
	return copyOrder(order).ItemList, nil
}

// setItemIDs numbers the items of order. Caller holds the write lock.
func (r *MockOrderRepository) setItemIDs(order *models.Order) {
	for i := range order.ItemList {
		order.ItemList[i].ID = uint(i + 1)
		order.ItemList[i].OrderID = order.ID
	}
}

func copyOrder(o models.Order) models.Order {
	items := make([]models.Item, len(o.ItemList))
	copy(items, o.ItemList)
	o.ItemList = items
	return o
}
