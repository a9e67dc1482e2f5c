package handler

import (
	"errors"
	"net/http"

	"storefront-orders/internal/core/auth"
	"storefront-orders/internal/core/logger"
	"storefront-orders/internal/core/respond"
	"storefront-orders/internal/features/catalog/domain"
	"storefront-orders/internal/features/catalog/ports"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for catalog products.
type ProductHandler struct {
	service ports.CatalogService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service ports.CatalogService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// UpsertProductRequest represents the request body for creating or updating a product.
type UpsertProductRequest struct {
	Name     string  `json:"name" validate:"required"`
	SKU      string  `json:"sku"`
	Price    float64 `json:"price" validate:"gte=0"`
	Discount float64 `json:"discount" validate:"gte=0,lte=100"`
	Stock    int     `json:"stock" validate:"gte=0"`
	IsActive bool    `json:"isActive"`
	Weight   float64 `json:"weight" validate:"gte=0"`
	Image    string  `json:"image"`
}

// Register mounts the product routes. Reads are public; writes need staff or admin.
func (h *ProductHandler) Register(router fiber.Router) {
	router.Get("/products/:id", h.GetProduct)
	router.Put("/products/:id", auth.Require(auth.Elevated...), h.UpsertProduct)
}

// GetProduct handles GET /products/:id.
// @Summary Get a product
// @Description Returns a catalog product with its live stock.
// @Tags catalog
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 404 {object} respond.ErrorResponse
// @Router /products/{id} [get]
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return respond.Error(c, http.StatusNotFound, "Product not found")
		}
		logger.Get().Error("Failed to get product", zap.Error(err))
		return respond.Error(c, http.StatusInternalServerError, "Internal server error")
	}

	return c.Status(http.StatusOK).JSON(product)
}

// UpsertProduct handles PUT /products/:id.
// @Summary Create or update a product
// @Description Stores a product and sets its stock. Requires staff or admin.
// @Tags catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param product body UpsertProductRequest true "Product"
// @Success 200 {object} domain.Product
// @Failure 400 {object} respond.ErrorResponse
// @Failure 401 {object} respond.ErrorResponse
// @Router /products/{id} [put]
func (h *ProductHandler) UpsertProduct(c *fiber.Ctx) error {
	var req UpsertProductRequest
	if msg, ok := respond.Bind(c, &req); !ok {
		return respond.Error(c, http.StatusBadRequest, msg)
	}

	product, err := h.service.UpsertProduct(c.UserContext(), &domain.Product{
		ID:       c.Params("id"),
		Name:     req.Name,
		SKU:      req.SKU,
		Price:    req.Price,
		Discount: req.Discount,
		Stock:    req.Stock,
		IsActive: req.IsActive,
		Weight:   req.Weight,
		Image:    req.Image,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidProduct) {
			return respond.Error(c, http.StatusBadRequest, err.Error())
		}
		logger.Get().Error("Failed to save product", zap.Error(err))
		return respond.Error(c, http.StatusInternalServerError, "Internal server error")
	}

	return c.Status(http.StatusOK).JSON(product)
}
