package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrProductNotFound is returned when no product exists for the id.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidProduct is returned when a product fails validation.
	ErrInvalidProduct = errors.New("invalid product")
)

// Product is a catalog entry. Stock is authoritative only in the store's stock counter;
// the copy here is a read snapshot.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SKU       string    `json:"sku,omitempty"`
	Price     float64   `json:"price"`
	Discount  float64   `json:"discount,omitempty"` // percent, 0-100
	Stock     int       `json:"stock"`
	IsActive  bool      `json:"isActive"`
	Weight    float64   `json:"weight,omitempty"` // kg, 0 when unknown
	Image     string    `json:"image,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EffectivePrice is price × (1 − discount/100), rounded half away from zero to 2 places.
func (p *Product) EffectivePrice() decimal.Decimal {
	price := decimal.NewFromFloat(p.Price)
	if p.Discount <= 0 {
		return price.Round(2)
	}
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(p.Discount).Div(decimal.NewFromInt(100)))
	return price.Mul(factor).Round(2)
}

// Validate checks the fields an operator may set.
func (p *Product) Validate() error {
	switch {
	case p.Name == "":
		return errors.Join(ErrInvalidProduct, errors.New("name is required"))
	case p.Price < 0:
		return errors.Join(ErrInvalidProduct, errors.New("price must not be negative"))
	case p.Discount < 0 || p.Discount > 100:
		return errors.Join(ErrInvalidProduct, errors.New("discount must be between 0 and 100"))
	case p.Stock < 0:
		return errors.Join(ErrInvalidProduct, errors.New("stock must not be negative"))
	case p.Weight < 0:
		return errors.Join(ErrInvalidProduct, errors.New("weight must not be negative"))
	}
	return nil
}
