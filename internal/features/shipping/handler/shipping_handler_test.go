package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-orders/internal/core/auth"
	"storefront-orders/internal/core/respond"
	"storefront-orders/internal/features/shipping/domain"
	"storefront-orders/internal/features/shipping/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// MockShippingService is a mock implementation of ports.ShippingService
type MockShippingService struct {
	mock.Mock
}

func (m *MockShippingService) result(args mock.Arguments) (*domain.Shipment, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Shipment), args.Error(1)
}

func (m *MockShippingService) CreateShipment(ctx context.Context, orderID string) (*domain.Shipment, error) {
	return m.result(m.Called(ctx, orderID))
}

func (m *MockShippingService) AssignAWB(ctx context.Context, orderID string) (*domain.Shipment, error) {
	return m.result(m.Called(ctx, orderID))
}

func (m *MockShippingService) TrackShipment(ctx context.Context, caller *auth.Identity, awb string) (*domain.Shipment, error) {
	return m.result(m.Called(ctx, caller, awb))
}

func (m *MockShippingService) GetShipment(ctx context.Context, caller *auth.Identity, orderID string) (*domain.Shipment, error) {
	return m.result(m.Called(ctx, caller, orderID))
}

func setupApp(svc *MockShippingService) *fiber.App {
	app := fiber.New()
	app.Use(auth.Middleware(testSecret))
	NewShippingHandler(svc).Register(app)
	return app
}

func tokenFor(t *testing.T, role auth.Role) string {
	token, err := auth.IssueToken(testSecret, auth.Identity{CallerID: "u-1", Email: "asha@example.com", Role: role}, time.Hour)
	require.NoError(t, err)
	return token
}

func call(t *testing.T, app *fiber.App, method, path string, role auth.Role, body interface{}) (*http.Response, []byte) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, role))
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func errorOf(raw []byte) string {
	var env respond.ErrorResponse
	_ = json.Unmarshal(raw, &env)
	return env.Error
}

func TestShippingHandler_CreateShipment(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		svc := new(MockShippingService)
		app := setupApp(svc)
		svc.On("CreateShipment", mock.Anything, "o-1").
			Return(&domain.Shipment{ID: "s-1", OrderID: "o-1", Status: domain.StatusCreated}, nil).Once()

		resp, raw := call(t, app, "POST", "/shipping/create", auth.RoleStaff, CreateShipmentRequest{OrderID: "o-1"})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var shipment domain.Shipment
		require.NoError(t, json.Unmarshal(raw, &shipment))
		assert.Equal(t, "s-1", shipment.ID)
		svc.AssertExpectations(t)
	})

	t.Run("CustomerRejected", func(t *testing.T) {
		svc := new(MockShippingService)
		app := setupApp(svc)

		resp, raw := call(t, app, "POST", "/shipping/create", auth.RoleUser, CreateShipmentRequest{OrderID: "o-1"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Unauthorized", errorOf(raw))
		svc.AssertNotCalled(t, "CreateShipment", mock.Anything, mock.Anything)
	})

	t.Run("MissingOrderID", func(t *testing.T) {
		svc := new(MockShippingService)
		app := setupApp(svc)

		resp, raw := call(t, app, "POST", "/shipping/create", auth.RoleAdmin, CreateShipmentRequest{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "orderId is required", errorOf(raw))
	})

	errorCases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"Exists", fmt.Errorf("%w: order ORD1", domain.ErrShipmentExists), http.StatusBadRequest, "Shipment already exists"},
		{"NotShippable", domain.ErrOrderNotShippable, http.StatusBadRequest, "Order is not ready to ship"},
		{"CourierDown", fmt.Errorf("%w: %v", domain.ErrCourier, errors.New("503")), http.StatusInternalServerError, "failed to create shipment"},
		{"Unexpected", errors.New("redis: connection refused"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockShippingService)
			app := setupApp(svc)
			svc.On("CreateShipment", mock.Anything, "o-1").Return(nil, tc.err).Once()

			resp, raw := call(t, app, "POST", "/shipping/create", auth.RoleStaff, CreateShipmentRequest{OrderID: "o-1"})
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.msg, errorOf(raw))
		})
	}
}

func TestShippingHandler_AssignAWB(t *testing.T) {
	svc := new(MockShippingService)
	app := setupApp(svc)
	svc.On("AssignAWB", mock.Anything, "o-1").
		Return(&domain.Shipment{ID: "s-1", AWBCode: "AWB1", Status: domain.StatusAssigned}, nil).Once()

	resp, _ := call(t, app, "POST", "/shipping/o-1/awb", auth.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	svc.AssertExpectations(t)
}

func TestShippingHandler_TrackShipment(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(MockShippingService)
		app := setupApp(svc)
		svc.On("TrackShipment", mock.Anything, mock.MatchedBy(func(id *auth.Identity) bool {
			return id != nil && id.CallerID == "u-1"
		}), "AWB1").Return(&domain.Shipment{AWBCode: "AWB1", Status: domain.StatusInTransit}, nil).Once()

		resp, raw := call(t, app, "GET", "/shipping/track/AWB1", auth.RoleUser, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var shipment domain.Shipment
		require.NoError(t, json.Unmarshal(raw, &shipment))
		assert.Equal(t, domain.StatusInTransit, shipment.Status)
	})

	t.Run("Anonymous", func(t *testing.T) {
		svc := new(MockShippingService)
		app := setupApp(svc)

		resp, _ := call(t, app, "GET", "/shipping/track/AWB1", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("CourierDown", func(t *testing.T) {
		svc := new(MockShippingService)
		app := setupApp(svc)
		svc.On("TrackShipment", mock.Anything, mock.Anything, "AWB1").
			Return(nil, fmt.Errorf("%w: timeout", domain.ErrCourier)).Once()

		resp, raw := call(t, app, "GET", "/shipping/track/AWB1", auth.RoleUser, nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "failed to track shipment", errorOf(raw))
	})

	t.Run("UnknownAWB", func(t *testing.T) {
		svc := new(MockShippingService)
		app := setupApp(svc)
		svc.On("TrackShipment", mock.Anything, mock.Anything, "NOPE").Return(nil, domain.ErrShipmentNotFound).Once()

		resp, raw := call(t, app, "GET", "/shipping/track/NOPE", auth.RoleUser, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Shipment not found", errorOf(raw))
	})
}

func TestShippingHandler_GetShipment(t *testing.T) {
	svc := new(MockShippingService)
	app := setupApp(svc)
	svc.On("GetShipment", mock.Anything, mock.Anything, "o-2").Return(nil, service.ErrForbidden).Once()

	resp, raw := call(t, app, "GET", "/shipping/order/o-2", auth.RoleUser, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthorized", errorOf(raw))
}
