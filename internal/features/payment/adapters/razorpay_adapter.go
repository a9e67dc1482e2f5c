package adapters

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"storefront-orders/internal/core/config"
	"storefront-orders/internal/features/payment/domain"
)

// RazorpayAdapter implements the Gateway interface using the Razorpay Orders API.
type RazorpayAdapter struct {
	// client is the HTTP client used for API requests.
	client *http.Client
	// config holds the Razorpay connection details.
	config config.RazorpayConfig
}

// NewRazorpayAdapter creates a new instance of RazorpayAdapter.
func NewRazorpayAdapter(client *http.Client, cfg config.RazorpayConfig) *RazorpayAdapter {
	return &RazorpayAdapter{
		client: client,
		config: cfg,
	}
}

type razorpayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type razorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder opens a payable order for amountMinor units of currency.
func (a *RazorpayAdapter) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (*domain.GatewayOrder, error) {
	body, err := json.Marshal(razorpayOrderRequest{
		Amount:   amountMinor,
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(a.config.URL, "/") + "/v1/orders"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", a.basicAuth())

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr razorpayError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Description != "" {
			return nil, fmt.Errorf("razorpay API returned status %d: %s: %s", resp.StatusCode, apiErr.Error.Code, apiErr.Error.Description)
		}
		return nil, fmt.Errorf("razorpay API returned status: %d", resp.StatusCode)
	}

	var order razorpayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("razorpay API returned an order without id")
	}

	return &domain.GatewayOrder{
		ID:       order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Receipt:  order.Receipt,
		Status:   order.Status,
	}, nil
}

func (a *RazorpayAdapter) basicAuth() string {
	authVal := make([]byte, 0, len(a.config.KeyID)+len(a.config.KeySecret)+1)
	authVal = fmt.Appendf(authVal, "%s:%s", a.config.KeyID, a.config.KeySecret)
	return "Basic " + base64.StdEncoding.EncodeToString(authVal)
}
