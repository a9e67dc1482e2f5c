package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// DefaultItemWeight applies to line items without a catalog weight.
	DefaultItemWeight = 0.5
	// MinWeight is the smallest weight the courier accepts.
	MinWeight = 0.5
	// DefaultSide is the fixed package length, breadth and height.
	DefaultSide = 10.0
)

// Parcel is the weight input for one line item.
type Parcel struct {
	Weight   float64
	Quantity int
}

// PackageDimensions sums the item weights, substituting DefaultItemWeight where unknown, and
// clamps the result to MinWeight.
func PackageDimensions(parcels []Parcel) Dimensions {
	total := decimal.Zero
	for _, p := range parcels {
		w := p.Weight
		if w <= 0 {
			w = DefaultItemWeight
		}
		total = total.Add(decimal.NewFromFloat(w).Mul(decimal.NewFromInt(int64(p.Quantity))))
	}

	weight := total.Round(3).InexactFloat64()
	if weight < MinWeight {
		weight = MinWeight
	}

	return Dimensions{
		Length:  DefaultSide,
		Breadth: DefaultSide,
		Height:  DefaultSide,
		Weight:  weight,
	}
}

// CODCharge is percent of total for cash-on-delivery orders, else zero.
func CODCharge(cod bool, total, percent float64) float64 {
	if !cod {
		return 0
	}
	return decimal.NewFromFloat(total).
		Mul(decimal.NewFromFloat(percent)).
		Div(decimal.NewFromInt(100)).
		Round(2).
		InexactFloat64()
}

// SplitName splits at the first run of whitespace.
func SplitName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	idx := strings.IndexFunc(full, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n'
	})
	if idx < 0 {
		return full, ""
	}
	return full[:idx], strings.TrimSpace(full[idx:])
}
