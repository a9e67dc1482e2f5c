package handler

import (
	"storefront-orders/internal/core/auth"

	"github.com/gofiber/fiber/v2"
)

// Register mounts the order routes. /orders/track is registered before /orders/:id and stays
// public so guests can track with their email.
func (h *OrderHandler) Register(router fiber.Router) {
	member := auth.Require(auth.AnyUser...)

	orders := router.Group("/orders")
	orders.Get("/track", h.TrackOrder)
	orders.Post("/", member, h.CreateOrder)
	orders.Get("/", member, h.ListOrders)
	orders.Get("/:id", member, h.GetOrder)
	orders.Post("/:id/cancel", member, h.CancelOrder)
	orders.Post("/:id/return", member, h.RequestReturn)
}
