package handler

import (
	"errors"
	"net/http"

	"storefront-orders/internal/core/auth"
	"storefront-orders/internal/core/logger"
	"storefront-orders/internal/core/respond"
	orders "storefront-orders/internal/features/orders/domain"
	"storefront-orders/internal/features/shipping/domain"
	"storefront-orders/internal/features/shipping/ports"
	"storefront-orders/internal/features/shipping/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ShippingHandler handles HTTP requests for shipments.
type ShippingHandler struct {
	service ports.ShippingService
}

// NewShippingHandler creates a new ShippingHandler.
func NewShippingHandler(s ports.ShippingService) *ShippingHandler {
	return &ShippingHandler{
		service: s,
	}
}

// CreateShipmentRequest names the order to ship.
type CreateShipmentRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

// Register mounts the shipping routes. Creating shipments and assigning AWBs is back-office only.
func (h *ShippingHandler) Register(router fiber.Router) {
	shipping := router.Group("/shipping")
	shipping.Post("/create", auth.Require(auth.Elevated...), h.CreateShipment)
	shipping.Post("/:orderId/awb", auth.Require(auth.Elevated...), h.AssignAWB)
	shipping.Get("/track/:awb", auth.Require(auth.AnyUser...), h.TrackShipment)
	shipping.Get("/order/:orderId", auth.Require(auth.AnyUser...), h.GetShipment)
}

// CreateShipment handles POST /shipping/create.
// @Summary Create a shipment
// @Description Hands a confirmed (or cash-on-delivery) order to the courier aggregator.
// @Tags shipping
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateShipmentRequest true "Order to ship"
// @Success 201 {object} domain.Shipment
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /shipping/create [post]
func (h *ShippingHandler) CreateShipment(c *fiber.Ctx) error {
	var req CreateShipmentRequest
	if msg, ok := respond.Bind(c, &req); !ok {
		return respond.Error(c, http.StatusBadRequest, msg)
	}

	shipment, err := h.service.CreateShipment(c.UserContext(), req.OrderID)
	if err != nil {
		return h.fail(c, err, "failed to create shipment")
	}
	return c.Status(http.StatusCreated).JSON(shipment)
}

// AssignAWB handles POST /shipping/:orderId/awb.
// @Summary Assign an AWB
// @Tags shipping
// @Produce json
// @Security BearerAuth
// @Param orderId path string true "Order ID"
// @Success 200 {object} domain.Shipment
// @Failure 401 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /shipping/{orderId}/awb [post]
func (h *ShippingHandler) AssignAWB(c *fiber.Ctx) error {
	shipment, err := h.service.AssignAWB(c.UserContext(), c.Params("orderId"))
	if err != nil {
		return h.fail(c, err, "failed to create shipment")
	}
	return c.Status(http.StatusOK).JSON(shipment)
}

// TrackShipment handles GET /shipping/track/:awb.
// @Summary Track a shipment
// @Description Polls the courier, stores the latest scans and advances the order.
// @Tags shipping
// @Produce json
// @Security BearerAuth
// @Param awb path string true "Air waybill code"
// @Success 200 {object} domain.Shipment
// @Failure 401 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /shipping/track/{awb} [get]
func (h *ShippingHandler) TrackShipment(c *fiber.Ctx) error {
	caller, _ := auth.FromContext(c)
	shipment, err := h.service.TrackShipment(c.UserContext(), caller, c.Params("awb"))
	if err != nil {
		return h.fail(c, err, "failed to track shipment")
	}
	return c.Status(http.StatusOK).JSON(shipment)
}

// GetShipment handles GET /shipping/order/:orderId.
// @Summary Get an order's shipment
// @Tags shipping
// @Produce json
// @Security BearerAuth
// @Param orderId path string true "Order ID"
// @Success 200 {object} domain.Shipment
// @Failure 401 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /shipping/order/{orderId} [get]
func (h *ShippingHandler) GetShipment(c *fiber.Ctx) error {
	caller, _ := auth.FromContext(c)
	shipment, err := h.service.GetShipment(c.UserContext(), caller, c.Params("orderId"))
	if err != nil {
		return h.fail(c, err, "failed to track shipment")
	}
	return c.Status(http.StatusOK).JSON(shipment)
}

// fail maps service errors. upstream is the message sent when the courier call failed.
func (h *ShippingHandler) fail(c *fiber.Ctx, err error, upstream string) error {
	switch {
	case errors.Is(err, domain.ErrShipmentExists):
		return respond.Error(c, http.StatusBadRequest, "Shipment already exists")
	case errors.Is(err, domain.ErrOrderNotShippable):
		return respond.Error(c, http.StatusBadRequest, "Order is not ready to ship")
	case errors.Is(err, service.ErrForbidden):
		return respond.Unauthorized(c)
	case errors.Is(err, orders.ErrOrderNotFound):
		return respond.Error(c, http.StatusNotFound, "Order not found")
	case errors.Is(err, domain.ErrShipmentNotFound):
		return respond.Error(c, http.StatusNotFound, "Shipment not found")
	case errors.Is(err, domain.ErrTrackingUnavailable):
		return respond.Error(c, http.StatusNotFound, "Tracking not available yet")
	case errors.Is(err, domain.ErrCourier):
		logger.Get().Error("Courier request failed",
			zap.String("ray_id", respond.RayID(c)),
			zap.Error(err),
		)
		return respond.Error(c, http.StatusInternalServerError, upstream)
	}

	logger.Get().Error("Shipping request failed",
		zap.String("path", c.Path()),
		zap.String("ray_id", respond.RayID(c)),
		zap.Error(err),
	)
	return respond.Error(c, http.StatusInternalServerError, "Internal server error")
}
