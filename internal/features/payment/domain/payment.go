package domain

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned when the payable amount is not positive.
	ErrInvalidAmount = errors.New("amount must be greater than 0")
	// ErrInvalidSignature is returned when the checkout signature does not verify.
	ErrInvalidSignature = errors.New("invalid payment signature")
	// ErrGateway is returned when the payment gateway call fails.
	ErrGateway = errors.New("failed to create payment order")
)

// GatewayOrder is a payable order opened with the gateway. Amount is in minor units.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Checkout is what the client needs to open the gateway's checkout widget.
type Checkout struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Key      string `json:"key"`
}

// MaxAmount is the largest payable amount in major units accepted for a single order.
const MaxAmount = 100_000_000

// ToMinorUnits converts a major-unit amount to the gateway's unit of account. Amounts that
// round to zero or less, or exceed MaxAmount, are rejected with ErrInvalidAmount.
func ToMinorUnits(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, ErrInvalidAmount
	}
	d := decimal.NewFromFloat(amount)
	if d.GreaterThan(decimal.NewFromInt(MaxAmount)) {
		return 0, fmt.Errorf("%w: at most %d", ErrInvalidAmount, MaxAmount)
	}

	minor := d.Mul(decimal.NewFromInt(100)).Round(0)
	if !minor.IsPositive() {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// Signature is the hex HMAC-SHA256 of "orderID|paymentID" under secret.
func Signature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares the full signature in constant time.
func Verify(secret, orderID, paymentID, signature string) bool {
	expected := Signature(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
