package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"orderconsole/internal/dates"
	"orderconsole/internal/models"
	"orderconsole/internal/repositories"
)

// ErrInvalidOrder is returned for requests that pass validation tags but
// still cannot be stored, such as an unreadable date.
var ErrInvalidOrder = errors.New("invalid order")

// Routing keys of the order events.
const (
	EventOrderCreated = "order.created"
	EventOrderUpdated = "order.updated"
	EventOrderDeleted = "order.deleted"
)

// EventPublisher sends an event body under a routing key.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// OrderEvent is the message published for every order change.
type OrderEvent struct {
	Event      string    `json:"event"`
	OrderID    uint      `json:"order_id"`
	CustomerID string    `json:"customer_id,omitempty"`
	DateOrder  string    `json:"date_order,omitempty"`
	Items      int       `json:"items"`
	OccurredAt time.Time `json:"occurred_at"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
	publisher EventPublisher
	logger    *log.Entry
}

// NewOrderService creates a new OrderService. publisher may be nil, in which
// case no events are sent.
func NewOrderService(orderRepo repositories.OrderRepository, publisher EventPublisher, logger *log.Entry) *OrderService {
	if logger == nil {
		logger = log.WithField("component", "orders-api")
	}
	return &OrderService{
		orderRepo: orderRepo,
		publisher: publisher,
		logger:    logger,
	}
}

// ListOrders retrieves the orders matching filter.
func (s *OrderService) ListOrders(filter models.OrderFilter) ([]models.Order, error) {
	return s.orderRepo.List(filter)
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id uint) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// GetOrderItems retrieves the items of an order.
func (s *OrderService) GetOrderItems(id uint) ([]models.Item, error) {
	return s.orderRepo.GetItems(id)
}

// CreateOrder stores a new order built from req.
func (s *OrderService) CreateOrder(req models.OrderRequest) (*models.Order, error) {
	order, err := buildOrder(req)
	if err != nil {
		return nil, err
	}
	if order.ItemList == nil {
		order.ItemList = []models.Item{}
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}
	s.publish(EventOrderCreated, order)
	return order, nil
}

// UpdateOrder replaces the customer and date of order id. Items are replaced
// only when req carries an item list.
func (s *OrderService) UpdateOrder(id uint, req models.OrderRequest) (*models.Order, error) {
	order, err := buildOrder(req)
	if err != nil {
		return nil, err
	}
	order.ID = id

	if err := s.orderRepo.Update(order, req.ItemList != nil); err != nil {
		return nil, fmt.Errorf("failed to update order %d: %w", id, err)
	}
	s.publish(EventOrderUpdated, order)
	return order, nil
}

// DeleteOrder removes order id. Deleting a missing order is not an error.
func (s *OrderService) DeleteOrder(id uint) error {
	err := s.orderRepo.Delete(id)
	switch {
	case errors.Is(err, repositories.ErrOrderNotFound):
		s.logger.WithField("order_id", id).Debug("delete of unknown order ignored")
		return nil
	case err != nil:
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}
	s.publish(EventOrderDeleted, &models.Order{ID: id})
	return nil
}

func buildOrder(req models.OrderRequest) (*models.Order, error) {
	dateOrder, err := dates.Parse(req.DateOrder, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: date_order %q is not a recognised date", ErrInvalidOrder, req.DateOrder)
	}

	var items []models.Item
	if req.ItemList != nil {
		items = make([]models.Item, 0, len(req.ItemList))
		for _, it := range req.ItemList {
			if it.ProductPrice.IsNegative() {
				return nil, fmt.Errorf("%w: product %s has a negative price", ErrInvalidOrder, it.ProductID)
			}
			items = append(items, models.Item{
				ProductID:       it.ProductID,
				ProductPrice:    it.ProductPrice.Round(2),
				ProductQuantity: it.ProductQuantity,
			})
		}
	}

	return &models.Order{
		CustomerID: req.CustomerID,
		DateOrder:  dateOrder,
		ItemList:   items,
	}, nil
}

// publish sends an order event. Failures are logged and never returned.
func (s *OrderService) publish(event string, order *models.Order) {
	entry := s.logger.WithFields(log.Fields{"event": event, "order_id": order.ID})
	if s.publisher == nil {
		entry.Debug("event publishing disabled")
		return
	}

	msg := OrderEvent{
		Event:      event,
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Items:      len(order.ItemList),
		OccurredAt: time.Now().UTC(),
	}
	if !order.DateOrder.IsZero() {
		msg.DateOrder = order.DateOrder.Format(dates.DisplayLayout)
	}
	body, err := json.Marshal(msg)
	if err != nil {
		entry.WithError(err).Warn("failed to marshal order event")
		return
	}
	if err := s.publisher.Publish(event, body); err != nil {
		entry.WithError(err).Warn("failed to publish order event")
		return
	}
	entry.Debug("order event published")
}
