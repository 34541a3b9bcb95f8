package handlers

import (
	"grocery/internal/middleware"
	"grocery/internal/models"
	"grocery/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	guards   middleware.Guards
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, guards middleware.Guards) *OrderHandler {
	return &OrderHandler{
		service:  service,
		guards:   guards,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/quote", h.HandleQuoteOrder)
	orderRoutes.Post("/", h.guards.Optional, h.HandleCreateOrder)
	orderRoutes.Get("/", h.guards.Required, h.HandleGetOrders)
	orderRoutes.Get("/:id", h.guards.Optional, h.HandleGetOrderByID)
	orderRoutes.Put("/:id", h.guards.Required, h.guards.Admin, h.HandleUpdateOrderStatus)
}

// HandleGetOrders lists all orders for administrators and the caller's own
// orders for customers.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(c.UserContext(), middleware.Principal(c))
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

// HandleGetOrderByID returns an order snapshot. Clients poll it after payment.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(c.UserContext(), middleware.Principal(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(order)
}

// HandleCreateOrder places an order. The declared totals must match the
// server's recomputation exactly.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.CreateOrderRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	order, err := h.service.CreateOrder(c.UserContext(), middleware.Principal(c), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

type quoteRequest struct {
	Items []services.OrderLineRequest `json:"items" validate:"required,min=1,dive"`
}

// HandleQuoteOrder prices a cart so the client can show the totals it must
// declare at checkout.
func (h *OrderHandler) HandleQuoteOrder(c *fiber.Ctx) error {
	var req quoteRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}
	quote, err := h.service.QuoteCart(c.UserContext(), req.Items)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"items":         quote.Items,
		"itemsPrice":    quote.ItemsPrice,
		"shippingPrice": quote.ShippingPrice,
		"taxPrice":      quote.TaxPrice,
		"totalPrice":    quote.TotalPrice,
	})
}

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

// HandleUpdateOrderStatus applies an administrative status transition.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	order, err := h.service.UpdateOrderStatus(c.UserContext(), middleware.Principal(c), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(order)
}
