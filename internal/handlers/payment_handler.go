package handlers

import (
	"net/url"

	"grocery/internal/middleware"
	"grocery/internal/services"
	"grocery/pkg/khalti"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Outcomes passed to the storefront after the gateway callback.
const (
	paymentSucceeded = "success"
	paymentPending   = "pending"
	paymentFailed    = "failed"
	paymentError     = "error"
)

// PaymentHandler exposes gateway payment initiation and verification.
type PaymentHandler struct {
	service     *services.PaymentService
	guards      middleware.Guards
	frontendURL string
	logger      *zap.Logger
	validate    *validator.Validate
}

func NewPaymentHandler(service *services.PaymentService, guards middleware.Guards, frontendURL string, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service:     service,
		guards:      guards,
		frontendURL: frontendURL,
		logger:      logger,
		validate:    validator.New(),
	}
}

func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	gatewayRoutes := router.Group("/payments/gateway")
	gatewayRoutes.Post("/initiate", h.guards.Optional, h.HandleInitiate)
	gatewayRoutes.Post("/verify", h.HandleVerify)
	gatewayRoutes.Get("/callback", h.HandleCallback)
}

// HandleInitiate returns the hosted payment URL for an order.
func (h *PaymentHandler) HandleInitiate(c *fiber.Ctx) error {
	var req services.InitiatePaymentRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	result, err := h.service.InitiatePayment(c.UserContext(), middleware.Principal(c), req)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// HandleVerify checks a payment index with the gateway and returns the
// order's payment state.
func (h *PaymentHandler) HandleVerify(c *fiber.Ctx) error {
	var req services.VerifyPaymentRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	result, err := h.service.VerifyPayment(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// HandleCallback is the gateway return URL. It verifies server side and
// sends the browser back to the storefront, which then polls the order.
func (h *PaymentHandler) HandleCallback(c *fiber.Ctx) error {
	paymentIndex := c.Query("pidx")
	orderID := c.Query("purchase_order_id")
	if paymentIndex == "" {
		return fiber.NewError(fiber.StatusBadRequest, "pidx is required")
	}

	result, err := h.service.VerifyPayment(c.UserContext(), services.VerifyPaymentRequest{
		PaymentIndex: paymentIndex,
		OrderID:      orderID,
	})
	if err != nil {
		h.logger.Warn("payment callback failed",
			zap.String("payment_index", paymentIndex),
			zap.String("order_id", orderID),
			zap.Error(err))
		return c.Redirect(h.redirectURL(orderID, paymentError), fiber.StatusFound)
	}

	outcome := paymentFailed
	switch {
	case result.IsPaid:
		outcome = paymentSucceeded
	case result.PaymentStatus == khalti.StatusPending || result.PaymentStatus == khalti.StatusInitiated:
		outcome = paymentPending
	}
	return c.Redirect(h.redirectURL(result.OrderID, outcome), fiber.StatusFound)
}

func (h *PaymentHandler) redirectURL(orderID, outcome string) string {
	query := url.Values{"payment": {outcome}}.Encode()
	if orderID == "" {
		return h.frontendURL + "/checkout?" + query
	}
	return h.frontendURL + "/orders/" + url.PathEscape(orderID) + "?" + query
}
