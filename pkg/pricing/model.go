// Package pricing computes the base price of a memorial product from its
// price model and current dimensions. Calculate is pure and keeps no cache;
// callers invoke it again whenever width, height or the product changes.
package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/memorial/pkg/logging"
)

// QuantityType selects how width and height become a priceable quantity.
type QuantityType string

const (
	QuantityArea            QuantityType = "Area"
	QuantityWidthPlusHeight QuantityType = "WidthPlusHeight"
)

// Known reports whether q is one of the supported quantity types.
func (q QuantityType) Known() bool {
	return q == QuantityArea || q == QuantityWidthPlusHeight
}

// ErrNoFormula is returned when a model carries no formula.
var ErrNoFormula = errors.New("price model has no formula")

// Formula evaluates a quantity to a base amount.
type Formula interface {
	evaluate(q float64, widthMm, heightMm int) (float64, error)
}

// Linear prices base + rate*q.
type Linear struct {
	Base float64
	Rate float64
}

// Tier is one band of a tiered formula. A quantity falls in the first tier
// whose UpTo it does not exceed.
type Tier struct {
	UpTo float64
	Base float64
	Rate float64
}

// Tiered prices with the matching tier's base + rate*q. Quantities beyond the
// last tier use the last tier. Tiers are kept sorted by UpTo.
type Tiered struct {
	Tiers []Tier
}

// Surcharges are per-element rates applied on top of the base amount.
type Surcharges struct {
	InscriptionPerChar float64
	ImagePerSquareCm   float64
}

// PriceModel is the per-product pricing descriptor. It is immutable for the
// lifetime of a product selection.
type PriceModel struct {
	QuantityType QuantityType
	Formula      Formula
	Currency     string
	Surcharges   Surcharges
}

func (f Linear) evaluate(q float64, _, _ int) (float64, error) {
	return f.Base + f.Rate*q, nil
}

func (f Tiered) evaluate(q float64, _, _ int) (float64, error) {
	if len(f.Tiers) == 0 {
		return 0, fmt.Errorf("tiered formula has no tiers")
	}
	t := f.Tiers[len(f.Tiers)-1]
	for _, candidate := range f.Tiers {
		if q <= candidate.UpTo {
			t = candidate
			break
		}
	}
	return t.Base + t.Rate*q, nil
}

// Quantity derives the priceable quantity. Unknown quantity types fall back
// to Area and are logged as a data-quality condition.
func Quantity(qt QuantityType, widthMm, heightMm int) float64 {
	w, h := float64(widthMm), float64(heightMm)
	switch qt {
	case QuantityArea:
		return w * h
	case QuantityWidthPlusHeight:
		return w + h
	}
	logging.Logger().Warn("unknown price quantity type, using Area",
		"quantity_type", string(qt))
	return w * h
}

// Calculate returns the base product amount for the given dimensions,
// rounded to cents. Zero dimensions price at zero.
func Calculate(m PriceModel, widthMm, heightMm int) (float64, error) {
	if widthMm <= 0 || heightMm <= 0 {
		return 0, nil
	}
	if m.Formula == nil {
		return 0, ErrNoFormula
	}
	q := Quantity(m.QuantityType, widthMm, heightMm)
	amount, err := m.Formula.evaluate(q, widthMm, heightMm)
	if err != nil {
		return 0, fmt.Errorf("evaluate price formula: %w", err)
	}
	return roundCents(amount), nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
