package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-orders/internal/core/auth"
	"storefront-orders/internal/features/catalog/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockCatalogService is a mock implementation of ports.CatalogService
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockCatalogService) UpsertProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func setupApp(service *MockCatalogService) *fiber.App {
	app := fiber.New()
	handler := NewProductHandler(service)
	app.Get("/products/:id", handler.GetProduct)
	app.Put("/products/:id", handler.UpsertProduct)
	return app
}

func TestProductHandler_GetProduct(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockCatalogService)
		app := setupApp(mockService)

		mockService.On("GetProduct", mock.Anything, "p-1").Return(&domain.Product{ID: "p-1", Name: "PLC"}, nil).Once()

		resp, err := app.Test(httptest.NewRequest("GET", "/products/p-1", nil))
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockService.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockCatalogService)
		app := setupApp(mockService)

		mockService.On("GetProduct", mock.Anything, "nope").Return(nil, domain.ErrProductNotFound).Once()

		resp, err := app.Test(httptest.NewRequest("GET", "/products/nope", nil))
		assert.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("InternalError", func(t *testing.T) {
		mockService := new(MockCatalogService)
		app := setupApp(mockService)

		mockService.On("GetProduct", mock.Anything, "p-1").Return(nil, errors.New("db error")).Once()

		resp, err := app.Test(httptest.NewRequest("GET", "/products/p-1", nil))
		assert.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestProductHandler_UpsertProduct(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockCatalogService)
		app := setupApp(mockService)

		body, _ := json.Marshal(UpsertProductRequest{Name: "PLC", Price: 1000, Discount: 10, Stock: 5, IsActive: true})
		mockService.On("UpsertProduct", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
			return p.ID == "p-1" && p.Name == "PLC" && p.Stock == 5
		})).Return(&domain.Product{ID: "p-1", Name: "PLC"}, nil).Once()

		req := httptest.NewRequest("PUT", "/products/p-1", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)

		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockService.AssertExpectations(t)
	})

	t.Run("ValidationError", func(t *testing.T) {
		mockService := new(MockCatalogService)
		app := setupApp(mockService)

		body, _ := json.Marshal(UpsertProductRequest{Name: "PLC", Discount: 150})
		req := httptest.NewRequest("PUT", "/products/p-1", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)

		assert.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		mockService.AssertNotCalled(t, "UpsertProduct", mock.Anything, mock.Anything)
	})
}

func TestProductHandler_Register(t *testing.T) {
	const secret = "test-secret"

	mockService := new(MockCatalogService)
	app := fiber.New()
	app.Use(auth.Middleware(secret))
	NewProductHandler(mockService).Register(app)

	mockService.On("GetProduct", mock.Anything, "p-1").Return(&domain.Product{ID: "p-1"}, nil).Once()
	resp, err := app.Test(httptest.NewRequest("GET", "/products/p-1", nil))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := json.Marshal(UpsertProductRequest{Name: "PLC", Price: 10})
	put := func(role auth.Role) *http.Response {
		req := httptest.NewRequest("PUT", "/products/p-1", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		token, err := auth.IssueToken(secret, auth.Identity{CallerID: "u-1", Role: role}, time.Hour)
		assert.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		assert.NoError(t, err)
		return resp
	}

	assert.Equal(t, http.StatusUnauthorized, put(auth.RoleUser).StatusCode)

	mockService.On("UpsertProduct", mock.Anything, mock.Anything).Return(&domain.Product{ID: "p-1"}, nil).Once()
	assert.Equal(t, http.StatusOK, put(auth.RoleStaff).StatusCode)
	mockService.AssertExpectations(t)
}
