package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"orderconsole/internal/dates"
	"orderconsole/internal/middleware"
	"orderconsole/internal/models"
	"orderconsole/internal/repositories"
	"orderconsole/internal/services"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
	logger   *log.Entry
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, logger *log.Entry) *OrderHandler {
	if logger == nil {
		logger = log.WithField("component", "orders-api")
	}
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleListOrders)
	orderRoutes.Post("/", middleware.RequireJSON(), h.HandleCreateOrder)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Put("/:id", middleware.RequireJSON(), h.HandleUpdateOrder)
	orderRoutes.Delete("/:id", h.HandleDeleteOrder)
	orderRoutes.Get("/:id/items", h.HandleGetOrderItems)
}

// HandleListOrders lists orders, filtered by customer_id or else by the
// calendar day in date_order.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	var filter models.OrderFilter
	filter.CustomerID = strings.TrimSpace(c.Query("customer_id", c.Query("customer")))
	if filter.CustomerID == "" {
		if raw := strings.TrimSpace(c.Query("date_order")); raw != "" {
			day, err := dates.Parse(raw, time.UTC)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"message": fmt.Sprintf("Invalid date_order filter '%s'", raw),
				})
			}
			filter.Date = &day
		}
	}

	orders, err := h.service.ListOrders(filter)
	if err != nil {
		h.logger.WithError(err).Error("error listing orders")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	h.logger.WithField("count", len(orders)).Debug("returning orders")
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	id, ok := orderID(c)
	if !ok {
		return notFound(c)
	}
	order, err := h.service.GetOrderByID(id)
	if err != nil {
		return h.orderError(c, err, "Could not retrieve order")
	}
	return c.JSON(order)
}

// HandleCreateOrder creates a new order.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	req, failed := h.parseRequest(c)
	if failed != nil {
		return failed
	}

	created, err := h.service.CreateOrder(req)
	if err != nil {
		return h.orderError(c, err, "Could not create order")
	}

	h.logger.WithField("order_id", created.ID).Info("order created")
	c.Location(fmt.Sprintf("%s/orders/%d", c.BaseURL(), created.ID))
	return c.Status(fiber.StatusCreated).JSON(created)
}

// HandleUpdateOrder replaces the customer, date and optionally the items of an order.
func (h *OrderHandler) HandleUpdateOrder(c *fiber.Ctx) error {
	id, ok := orderID(c)
	if !ok {
		return notFound(c)
	}
	req, failed := h.parseRequest(c)
	if failed != nil {
		return failed
	}

	updated, err := h.service.UpdateOrder(id, req)
	if err != nil {
		return h.orderError(c, err, "Could not update order")
	}
	h.logger.WithField("order_id", id).Info("order updated")
	return c.JSON(updated)
}

// HandleDeleteOrder deletes an order. Unknown ids also answer 204.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	id, ok := orderID(c)
	if !ok {
		return c.SendStatus(fiber.StatusNoContent)
	}
	if err := h.service.DeleteOrder(id); err != nil {
		h.logger.WithError(err).WithField("order_id", id).Error("error deleting order")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete order",
			"error":   err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleGetOrderItems lists the items of an order.
func (h *OrderHandler) HandleGetOrderItems(c *fiber.Ctx) error {
	id, ok := orderID(c)
	if !ok {
		return notFound(c)
	}
	items, err := h.service.GetOrderItems(id)
	if err != nil {
		return h.orderError(c, err, "Could not retrieve order items")
	}
	return c.JSON(items)
}

// parseRequest binds and validates the body. A non-nil error is the response
// already written to c.
func (h *OrderHandler) parseRequest(c *fiber.Ctx) (models.OrderRequest, error) {
	var req models.OrderRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Info("error parsing order request body")
		return req, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return req, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Validation failed",
				"error":   err.Error(),
			})
		}
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return req, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return req, nil
}

func (h *OrderHandler) orderError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, repositories.ErrOrderNotFound):
		return notFound(c)
	case errors.Is(err, services.ErrInvalidOrder):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	}
	h.logger.WithError(err).WithField("path", c.Path()).Error(message)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

func orderID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"message": fmt.Sprintf("Order with id '%s' was not found.", c.Params("id")),
	})
}
