package repositories

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"orderconsole/internal/models"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Migrate creates or updates the order tables.
func (r *GORMOrderRepository) Migrate() error {
	if err := r.db.AutoMigrate(&models.Order{}, &models.Item{}); err != nil {
		return fmt.Errorf("failed to migrate order tables: %w", err)
	}
	return nil
}

// List retrieves orders matching filter, oldest first.
func (r *GORMOrderRepository) List(filter models.OrderFilter) ([]models.Order, error) {
	q := r.db.Preload("ItemList", orderItems).Order("id")
	switch {
	case filter.CustomerID != "":
		q = q.Where("customer_id = ?", filter.CustomerID)
	case filter.Date != nil:
		start := dayStart(*filter.Date)
		q = q.Where("date_order >= ? AND date_order < ?", start, start.Add(24*time.Hour))
	}

	orders := make([]models.Order, 0)
	if err := q.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetByID retrieves a single order with its items.
func (r *GORMOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("ItemList", orderItems).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %d: %w", id, ErrOrderNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %d: %w", id, err)
	}
	return &order, nil
}

// Create inserts order and its items. The database assigns the ID.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	order.ID = 0
	for i := range order.ItemList {
		order.ItemList[i].ID = 0
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Update stores the header fields of order and optionally replaces its items.
func (r *GORMOrderRepository) Update(order *models.Order, replaceItems bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{ID: order.ID}).Updates(map[string]any{
			"customer_id": order.CustomerID,
			"date_order":  order.DateOrder,
			"updated_at":  time.Now(),
		})
		if res.Error != nil {
			return fmt.Errorf("failed to update order: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order with ID %d: %w", order.ID, ErrOrderNotFound)
		}

		if replaceItems {
			if err := tx.Where("order_id = ?", order.ID).Delete(&models.Item{}).Error; err != nil {
				return fmt.Errorf("failed to remove items of order %d: %w", order.ID, err)
			}
			for i := range order.ItemList {
				order.ItemList[i].ID = 0
				order.ItemList[i].OrderID = order.ID
			}
			if len(order.ItemList) > 0 {
				if err := tx.Create(&order.ItemList).Error; err != nil {
					return fmt.Errorf("failed to store items of order %d: %w", order.ID, err)
				}
			}
		}

		var stored models.Order
		if err := tx.Preload("ItemList", orderItems).First(&stored, order.ID).Error; err != nil {
			return fmt.Errorf("failed to reload order %d: %w", order.ID, err)
		}
		*order = stored
		return nil
	})
}

// Delete removes an order and its items.
func (r *GORMOrderRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.Item{}).Error; err != nil {
			return fmt.Errorf("failed to delete items of order %d: %w", id, err)
		}
		res := tx.Delete(&models.Order{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete order: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order with ID %d: %w", id, ErrOrderNotFound)
		}
		return nil
	})
}

// GetItems returns the items of an existing order.
func (r *GORMOrderRepository) GetItems(orderID uint) ([]models.Item, error) {
	var count int64
	if err := r.db.Model(&models.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to look up order %d: %w", orderID, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("order with ID %d: %w", orderID, ErrOrderNotFound)
	}

	items := make([]models.Item, 0)
	if err := r.db.Where("order_id = ?", orderID).Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to get items of order %d: %w", orderID, err)
	}
	return items, nil
}

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
