package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront-orders/internal/core/cache"
	"storefront-orders/internal/core/config"
	"storefront-orders/internal/core/logger"
	"storefront-orders/internal/features/shipping/domain"
	"storefront-orders/internal/features/shipping/ports"

	"go.uber.org/zap"
)

const (
	tokenCacheKey = "shiprocket:token"
	// tokenTTL stays under the aggregator's 10 day token lifetime.
	tokenTTL = 9 * 24 * time.Hour

	activityLayout = "2006-01-02 15:04:05"
)

var (
	errUnauthorized = errors.New("shiprocket: unauthorized")
	istZone         = time.FixedZone("IST", 5*3600+30*60)
)

// ShiprocketAdapter implements the Courier interface using the Shiprocket external API.
type ShiprocketAdapter struct {
	// client is the HTTP client used for API requests.
	client *http.Client
	// tokens caches the login token between requests and processes.
	tokens cache.Cache
	// config holds the Shiprocket credentials.
	config config.ShippingConfig
}

// NewShiprocketAdapter creates a new instance of ShiprocketAdapter.
func NewShiprocketAdapter(client *http.Client, tokens cache.Cache, cfg config.ShippingConfig) *ShiprocketAdapter {
	return &ShiprocketAdapter{
		client: client,
		tokens: tokens,
		config: cfg,
	}
}

type loginResponse struct {
	Token string `json:"token"`
}

type contact struct {
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Address  string `json:"address"`
	Address2 string `json:"address_2"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
	Country  string `json:"country"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type orderItem struct {
	Name         string  `json:"name"`
	SKU          string  `json:"sku"`
	Units        int     `json:"units"`
	SellingPrice float64 `json:"selling_price"`
}

type createOrderRequest struct {
	OrderID              string      `json:"order_id"`
	OrderDate            string      `json:"order_date"`
	PickupLocation       string      `json:"pickup_location"`
	BillingCustomerName  string      `json:"billing_customer_name"`
	BillingLastName      string      `json:"billing_last_name"`
	BillingAddress       string      `json:"billing_address"`
	BillingAddress2      string      `json:"billing_address_2"`
	BillingCity          string      `json:"billing_city"`
	BillingPincode       string      `json:"billing_pincode"`
	BillingState         string      `json:"billing_state"`
	BillingCountry       string      `json:"billing_country"`
	BillingEmail         string      `json:"billing_email"`
	BillingPhone         string      `json:"billing_phone"`
	ShippingIsBilling    bool        `json:"shipping_is_billing"`
	ShippingCustomerName string      `json:"shipping_customer_name,omitempty"`
	ShippingLastName     string      `json:"shipping_last_name,omitempty"`
	ShippingAddress      string      `json:"shipping_address,omitempty"`
	ShippingAddress2     string      `json:"shipping_address_2,omitempty"`
	ShippingCity         string      `json:"shipping_city,omitempty"`
	ShippingPincode      string      `json:"shipping_pincode,omitempty"`
	ShippingState        string      `json:"shipping_state,omitempty"`
	ShippingCountry      string      `json:"shipping_country,omitempty"`
	ShippingEmail        string      `json:"shipping_email,omitempty"`
	ShippingPhone        string      `json:"shipping_phone,omitempty"`
	OrderItems           []orderItem `json:"order_items"`
	PaymentMethod        string      `json:"payment_method"`
	ShippingCharges      float64     `json:"shipping_charges"`
	TotalDiscount        float64     `json:"total_discount"`
	SubTotal             float64     `json:"sub_total"`
	Length               float64     `json:"length"`
	Breadth              float64     `json:"breadth"`
	Height               float64     `json:"height"`
	Weight               float64     `json:"weight"`
}

// flexID accepts ids sent either as JSON numbers or strings.
type flexID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *flexID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("shiprocket id must be a string or number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) String() string { return string(f) }

type createOrderResponse struct {
	OrderID          flexID `json:"order_id"`
	ShipmentID       flexID `json:"shipment_id"`
	Status           string `json:"status"`
	AWBCode          string `json:"awb_code"`
	CourierCompanyID flexID `json:"courier_company_id"`
	CourierName      string `json:"courier_name"`
}

type assignAWBResponse struct {
	AWBAssignStatus int `json:"awb_assign_status"`
	Response        struct {
		Data struct {
			AWBCode          string `json:"awb_code"`
			CourierCompanyID flexID `json:"courier_company_id"`
			CourierName      string `json:"courier_name"`
		} `json:"data"`
	} `json:"response"`
	Message string `json:"message"`
}

type trackResponse struct {
	TrackingData struct {
		TrackStatus   int `json:"track_status"`
		ShipmentTrack []struct {
			AWBCode       string `json:"awb_code"`
			CurrentStatus string `json:"current_status"`
		} `json:"shipment_track"`
		Activities []struct {
			Date          string `json:"date"`
			Status        string `json:"status"`
			Activity      string `json:"activity"`
			Location      string `json:"location"`
			SRStatusLabel string `json:"sr-status-label"`
		} `json:"shipment_track_activities"`
		Error string `json:"error"`
	} `json:"tracking_data"`
}

// CreateOrder submits an adhoc order.
func (a *ShiprocketAdapter) CreateOrder(ctx context.Context, order ports.CourierOrder) (*ports.CourierOrderResult, error) {
	payload := createOrderRequest{
		OrderID:         order.OrderNumber,
		OrderDate:       order.OrderDate.In(istZone).Format("2006-01-02 15:04"),
		PickupLocation:  order.PickupLocation,
		PaymentMethod:   "Prepaid",
		ShippingCharges: order.ShippingCharge,
		TotalDiscount:   order.Discount,
		SubTotal:        order.SubTotal,
		Length:          order.Dimensions.Length,
		Breadth:         order.Dimensions.Breadth,
		Height:          order.Dimensions.Height,
		Weight:          order.Dimensions.Weight,
	}
	if order.COD {
		payload.PaymentMethod = "COD"
	}

	b := toContact(order.Billing)
	payload.BillingCustomerName, payload.BillingLastName = b.Name, b.LastName
	payload.BillingAddress, payload.BillingAddress2 = b.Address, b.Address2
	payload.BillingCity, payload.BillingPincode = b.City, b.Pincode
	payload.BillingState, payload.BillingCountry = b.State, b.Country
	payload.BillingEmail, payload.BillingPhone = b.Email, b.Phone

	payload.ShippingIsBilling = order.Shipping == order.Billing
	if !payload.ShippingIsBilling {
		s := toContact(order.Shipping)
		payload.ShippingCustomerName, payload.ShippingLastName = s.Name, s.LastName
		payload.ShippingAddress, payload.ShippingAddress2 = s.Address, s.Address2
		payload.ShippingCity, payload.ShippingPincode = s.City, s.Pincode
		payload.ShippingState, payload.ShippingCountry = s.State, s.Country
		payload.ShippingEmail, payload.ShippingPhone = s.Email, s.Phone
	}

	for _, item := range order.Items {
		payload.OrderItems = append(payload.OrderItems, orderItem{
			Name:         item.Name,
			SKU:          item.SKU,
			Units:        item.Units,
			SellingPrice: item.SellingPrice,
		})
	}

	var resp createOrderResponse
	if err := a.call(ctx, http.MethodPost, "/v1/external/orders/create/adhoc", payload, &resp); err != nil {
		return nil, err
	}
	if resp.ShipmentID == "" {
		return nil, fmt.Errorf("shiprocket: order created without shipment id")
	}

	return &ports.CourierOrderResult{
		OrderID:          resp.OrderID.String(),
		ShipmentID:       resp.ShipmentID.String(),
		Status:           resp.Status,
		AWBCode:          resp.AWBCode,
		CourierCompanyID: resp.CourierCompanyID.String(),
		CourierName:      resp.CourierName,
	}, nil
}

// AssignAWB asks the aggregator to pick a courier and issue an AWB for the shipment.
func (a *ShiprocketAdapter) AssignAWB(ctx context.Context, shipmentID string) (*ports.AWBAssignment, error) {
	var resp assignAWBResponse
	body := map[string]string{"shipment_id": shipmentID}
	if err := a.call(ctx, http.MethodPost, "/v1/external/courier/assign/awb", body, &resp); err != nil {
		return nil, err
	}

	data := resp.Response.Data
	if resp.AWBAssignStatus != 1 || data.AWBCode == "" {
		return nil, fmt.Errorf("shiprocket: awb not assigned: %s", resp.Message)
	}

	return &ports.AWBAssignment{
		AWBCode:          data.AWBCode,
		CourierCompanyID: data.CourierCompanyID.String(),
		CourierName:      data.CourierName,
	}, nil
}

// Track fetches the scans for an AWB. The current status is the first shipment_track entry.
func (a *ShiprocketAdapter) Track(ctx context.Context, awb string) (*ports.CourierTracking, error) {
	var resp trackResponse
	if err := a.call(ctx, http.MethodGet, "/v1/external/courier/track/awb/"+url.PathEscape(awb), nil, &resp); err != nil {
		return nil, err
	}

	data := resp.TrackingData
	tracking := &ports.CourierTracking{}
	if len(data.ShipmentTrack) > 0 {
		tracking.CurrentStatus = data.ShipmentTrack[0].CurrentStatus
	}

	for _, act := range data.Activities {
		date, err := time.ParseInLocation(activityLayout, act.Date, istZone)
		if err != nil {
			logger.Get().Warn("Unparseable courier scan date",
				zap.String("awb", awb),
				zap.String("date", act.Date),
			)
		}

		status := act.SRStatusLabel
		if status == "" {
			status = act.Status
		}

		tracking.Activities = append(tracking.Activities, ports.CourierActivity{
			Date:     date.UTC(),
			Status:   status,
			Activity: act.Activity,
			Location: act.Location,
		})
	}

	if tracking.CurrentStatus == "" && len(tracking.Activities) == 0 {
		return nil, fmt.Errorf("%w: %s: %s", domain.ErrTrackingUnavailable, awb, data.Error)
	}
	return tracking, nil
}

// call performs an authenticated JSON request, logging in again once if the token was rejected.
// The rejected token is evicted first so a failed login does not leave it cached.
func (a *ShiprocketAdapter) call(ctx context.Context, method, path string, body, out interface{}) error {
	token, err := a.token(ctx, false)
	if err != nil {
		return err
	}

	err = a.do(ctx, method, path, token, body, out)
	if !errors.Is(err, errUnauthorized) {
		return err
	}

	logger.Get().Info("Shiprocket token rejected, logging in again")
	if err := a.tokens.Delete(ctx, tokenCacheKey); err != nil {
		logger.Get().Warn("Token cache delete failed", zap.Error(err))
	}
	token, err = a.token(ctx, true)
	if err != nil {
		return err
	}
	return a.do(ctx, method, path, token, body, out)
}

// token returns the cached login token, logging in when absent or when refresh is set.
func (a *ShiprocketAdapter) token(ctx context.Context, refresh bool) (string, error) {
	if !refresh {
		cached, err := a.tokens.Get(ctx, tokenCacheKey)
		if err == nil && len(cached) > 0 {
			return string(cached), nil
		}
		if err != nil && !errors.Is(err, cache.ErrNotFound) {
			logger.Get().Warn("Token cache read failed", zap.Error(err))
		}
	}

	var resp loginResponse
	creds := map[string]string{"email": a.config.Email, "password": a.config.Password}
	if err := a.do(ctx, http.MethodPost, "/v1/external/auth/login", "", creds, &resp); err != nil {
		return "", fmt.Errorf("shiprocket login failed: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("shiprocket login returned no token")
	}

	if err := a.tokens.Set(ctx, tokenCacheKey, []byte(resp.Token), tokenTTL); err != nil {
		logger.Get().Warn("Token cache write failed", zap.Error(err))
	}
	return resp.Token, nil
}

func (a *ShiprocketAdapter) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(a.config.URL, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		return errUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("shiprocket API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func toContact(c ports.CourierContact) contact {
	country := c.Country
	if country == "" {
		country = "India"
	}
	return contact{
		Name:     c.FirstName,
		LastName: c.LastName,
		Address:  c.Address,
		Address2: c.Address2,
		City:     c.City,
		State:    c.State,
		Pincode:  c.Pincode,
		Country:  country,
		Email:    c.Email,
		Phone:    c.Phone,
	}
}
