package handler

import (
	"errors"
	"net/http"

	"storefront-orders/internal/core/auth"
	"storefront-orders/internal/core/logger"
	"storefront-orders/internal/core/respond"
	orders "storefront-orders/internal/features/orders/domain"
	"storefront-orders/internal/features/payment/domain"
	"storefront-orders/internal/features/payment/ports"
	"storefront-orders/internal/features/payment/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PaymentHandler handles HTTP requests for the payment gateway flow.
type PaymentHandler struct {
	service ports.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(s ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		service: s,
	}
}

// CreatePaymentOrderRequest opens a payable gateway order.
type CreatePaymentOrderRequest struct {
	Amount  float64 `json:"amount" validate:"gt=0,lte=100000000"`
	Receipt string  `json:"receipt" validate:"required,max=40"`
}

// VerifyPaymentRequest is the gateway checkout callback plus the internal order id.
type VerifyPaymentRequest struct {
	OrderID           string `json:"orderId" validate:"required"`
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

// PaymentFailedRequest reports a checkout failure.
type PaymentFailedRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

// Register mounts the payment routes. Every route needs a caller.
func (h *PaymentHandler) Register(router fiber.Router) {
	payment := router.Group("/payment", auth.Require(auth.AnyUser...))
	payment.Post("/create-order", h.CreatePaymentOrder)
	payment.Post("/verify", h.VerifyPayment)
	payment.Post("/failed", h.PaymentFailed)
}

// CreatePaymentOrder handles POST /payment/create-order.
// @Summary Open a gateway order
// @Description Converts the amount to minor units and opens a payable order with the gateway.
// @Tags payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreatePaymentOrderRequest true "Amount and receipt"
// @Success 200 {object} domain.Checkout
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /payment/create-order [post]
func (h *PaymentHandler) CreatePaymentOrder(c *fiber.Ctx) error {
	var req CreatePaymentOrderRequest
	if msg, ok := respond.Bind(c, &req); !ok {
		return respond.Error(c, http.StatusBadRequest, msg)
	}

	caller, _ := auth.FromContext(c)
	checkout, err := h.service.CreatePaymentOrder(c.UserContext(), caller, req.Amount, req.Receipt)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(checkout)
}

// VerifyPayment handles POST /payment/verify.
// @Summary Verify a payment
// @Description Checks the gateway signature and marks the order paid and confirmed.
// @Tags payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body VerifyPaymentRequest true "Checkout callback"
// @Success 200 {object} orders.Order
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /payment/verify [post]
func (h *PaymentHandler) VerifyPayment(c *fiber.Ctx) error {
	var req VerifyPaymentRequest
	if msg, ok := respond.Bind(c, &req); !ok {
		return respond.Error(c, http.StatusBadRequest, msg)
	}

	caller, _ := auth.FromContext(c)
	order, err := h.service.VerifyPayment(c.UserContext(), caller, ports.VerifyInput{
		OrderID:          req.OrderID,
		GatewayOrderID:   req.RazorpayOrderID,
		GatewayPaymentID: req.RazorpayPaymentID,
		GatewaySignature: req.RazorpaySignature,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success": true,
		"order":   order,
	})
}

// PaymentFailed handles POST /payment/failed.
// @Summary Record a failed payment
// @Tags payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PaymentFailedRequest true "Order"
// @Success 200 {object} orders.Order
// @Failure 401 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /payment/failed [post]
func (h *PaymentHandler) PaymentFailed(c *fiber.Ctx) error {
	var req PaymentFailedRequest
	if msg, ok := respond.Bind(c, &req); !ok {
		return respond.Error(c, http.StatusBadRequest, msg)
	}

	caller, _ := auth.FromContext(c)
	order, err := h.service.RecordFailure(c.UserContext(), caller, req.OrderID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(order)
}

func (h *PaymentHandler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidSignature):
		return respond.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return respond.Unauthorized(c)
	case errors.Is(err, orders.ErrOrderNotFound):
		return respond.Error(c, http.StatusNotFound, "Order not found")
	case errors.Is(err, domain.ErrGateway):
		return respond.Error(c, http.StatusInternalServerError, domain.ErrGateway.Error())
	}

	logger.Get().Error("Payment request failed",
		zap.String("path", c.Path()),
		zap.String("ray_id", respond.RayID(c)),
		zap.Error(err),
	)
	return respond.Error(c, http.StatusInternalServerError, "Internal server error")
}
