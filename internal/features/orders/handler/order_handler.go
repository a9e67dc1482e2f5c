package handler

import (
	"errors"
	"net/http"

	"storefront-orders/internal/core/auth"
	"storefront-orders/internal/core/logger"
	"storefront-orders/internal/core/respond"
	"storefront-orders/internal/features/orders/domain"
	"storefront-orders/internal/features/orders/ports"
	"storefront-orders/internal/features/orders/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OrderHandler handles HTTP requests related to orders.
type OrderHandler struct {
	// service is the order lifecycle service.
	service ports.OrderService
}

// NewOrderHandler creates a new instance of OrderHandler.
func NewOrderHandler(s ports.OrderService) *OrderHandler {
	return &OrderHandler{
		service: s,
	}
}

// AddressRequest is a postal address in a checkout request.
type AddressRequest struct {
	FullName     string `json:"fullName" validate:"required"`
	Phone        string `json:"phone" validate:"required,numeric,min=10,max=15"`
	Email        string `json:"email" validate:"omitempty,email"`
	AddressLine1 string `json:"addressLine1" validate:"required"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
	Pincode      string `json:"pincode" validate:"required,numeric"`
	Country      string `json:"country"`
}

// CartItemRequest is one requested line.
type CartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

// CreateOrderRequest is the checkout request body.
type CreateOrderRequest struct {
	Items           []CartItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress AddressRequest    `json:"shippingAddress"`
	BillingAddress  *AddressRequest   `json:"billingAddress" validate:"omitempty"`
	Discount        float64           `json:"discount" validate:"gte=0"`
	ShippingCost    float64           `json:"shippingCost" validate:"gte=0"`
	Tax             float64           `json:"tax" validate:"gte=0"`
	Total           float64           `json:"total" validate:"gte=0"`
	PaymentMethod   string            `json:"paymentMethod" validate:"required,oneof=cod online"`
	CouponCode      string            `json:"couponCode"`
	Notes           string            `json:"notes" validate:"max=500"`
}

func (a AddressRequest) toDomain() domain.Address {
	country := a.Country
	if country == "" {
		country = "India"
	}
	return domain.Address{
		FullName:     a.FullName,
		Phone:        a.Phone,
		Email:        a.Email,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		Pincode:      a.Pincode,
		Country:      country,
	}
}

// CreateOrder handles POST /orders.
// @Summary Place an order
// @Description Validates the cart against live stock, reserves stock and stores a pending order.
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param order body CreateOrderRequest true "Checkout"
// @Success 201 {object} domain.Order
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Router /orders [post]
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if msg, ok := respond.Bind(c, &req); !ok {
		return respond.Error(c, http.StatusBadRequest, msg)
	}

	caller, _ := auth.FromContext(c)

	input := ports.PlaceOrderInput{
		ShippingAddress: req.ShippingAddress.toDomain(),
		Discount:        req.Discount,
		ShippingCost:    req.ShippingCost,
		Tax:             req.Tax,
		Total:           req.Total,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		CouponCode:      req.CouponCode,
		Notes:           req.Notes,
	}
	if req.BillingAddress != nil {
		input.BillingAddress = req.BillingAddress.toDomain()
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, ports.CartItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.service.PlaceOrder(c.UserContext(), caller, input)
	if err != nil {
		return h.fail(c, err, "Failed to place order")
	}

	return c.Status(http.StatusCreated).JSON(order)
}

// ListOrders handles GET /orders.
// @Summary List orders
// @Description Lists the caller's orders newest first; staff and admins see every order.
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Order
// @Failure 401 {object} respond.ErrorResponse
// @Router /orders [get]
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	caller, _ := auth.FromContext(c)

	orders, err := h.service.ListOrders(c.UserContext(), caller)
	if err != nil {
		return h.fail(c, err, "Failed to list orders")
	}
	return c.Status(http.StatusOK).JSON(orders)
}

// GetOrder handles GET /orders/:id.
// @Summary Get an order
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 401 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	caller, _ := auth.FromContext(c)

	order, err := h.service.GetOrder(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return h.fail(c, err, "Failed to fetch order")
	}
	return c.Status(http.StatusOK).JSON(order)
}

// TrackOrder handles GET /orders/track.
// @Summary Track an order
// @Description Returns the order, its shipment and the four-stage timeline. Guests supply the order email.
// @Tags orders
// @Produce json
// @Param order query string true "Order number"
// @Param email query string false "Customer email"
// @Success 200 {object} ports.TrackingView
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /orders/track [get]
func (h *OrderHandler) TrackOrder(c *fiber.Ctx) error {
	number := c.Query("order")
	if number == "" {
		return respond.Error(c, http.StatusBadRequest, "Order number is required")
	}

	caller, _ := auth.FromContext(c)

	view, err := h.service.TrackOrder(c.UserContext(), caller, number, c.Query("email"))
	if err != nil {
		return h.fail(c, err, "Failed to track order")
	}
	return c.Status(http.StatusOK).JSON(view)
}

// CancelOrder handles POST /orders/:id/cancel.
// @Summary Cancel an order
// @Description Cancels an order that has not shipped and returns its stock.
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	caller, _ := auth.FromContext(c)

	order, err := h.service.CancelOrder(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return h.fail(c, err, "Failed to cancel order")
	}
	return c.Status(http.StatusOK).JSON(order)
}

// RequestReturn handles POST /orders/:id/return.
// @Summary Request a return
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /orders/{id}/return [post]
func (h *OrderHandler) RequestReturn(c *fiber.Ctx) error {
	caller, _ := auth.FromContext(c)

	order, err := h.service.RequestReturn(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return h.fail(c, err, "Failed to request return")
	}
	return c.Status(http.StatusOK).JSON(order)
}

// fail maps service errors onto the error envelope.
func (h *OrderHandler) fail(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrProductUnavailable),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidTransition):
		return respond.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrEmailMismatch):
		return respond.Error(c, http.StatusUnauthorized, "Email mismatch")
	case errors.Is(err, service.ErrForbidden):
		return respond.Unauthorized(c)
	case errors.Is(err, domain.ErrOrderNotFound):
		return respond.Error(c, http.StatusNotFound, "Order not found")
	}

	logger.Get().Error(action,
		zap.String("path", c.Path()),
		zap.String("ray_id", respond.RayID(c)),
		zap.Error(err),
	)
	return respond.Error(c, http.StatusInternalServerError, "Internal server error")
}
