package pricing

import (
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/chazu/memorial/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func captureLogs(t *testing.T) *logging.BufferedHandler {
	t.Helper()
	h := logging.NewBufferedHandler(slog.LevelDebug)
	logging.SetLogger(slog.New(h))
	t.Cleanup(func() { logging.SetLogger(nil) })
	return h
}

func TestQuantity(t *testing.T) {
	tests := []struct {
		qt   QuantityType
		w, h int
		want float64
	}{
		{QuantityArea, 600, 900, 540000},
		{QuantityArea, 100, 100, 10000},
		{QuantityArea, 1200, 450, 540000},
		{QuantityWidthPlusHeight, 600, 900, 1500},
		{QuantityWidthPlusHeight, 100, 100, 200},
		{QuantityWidthPlusHeight, 1200, 450, 1650},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Quantity(tt.qt, tt.w, tt.h), "%s %dx%d", tt.qt, tt.w, tt.h)
	}
}

func TestQuantityUnknownFallsBackToArea(t *testing.T) {
	h := captureLogs(t)

	assert.Equal(t, 540000.0, Quantity("Perimeter", 600, 900))
	require.True(t, h.Contains("unknown price quantity type"))
	assert.Equal(t, "Perimeter", h.Entries()[0].Attrs["quantity_type"])
}

func TestCalculateLinearArea(t *testing.T) {
	m := PriceModel{QuantityType: QuantityArea, Formula: Linear{Base: 450, Rate: 0.0012}}
	tests := []struct {
		w, h int
		want float64
	}{
		{600, 900, 1098},
		{600, 600, 882},
		{1000, 500, 1050},
	}
	for _, tt := range tests {
		got, err := Calculate(m, tt.w, tt.h)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-9, "%dx%d", tt.w, tt.h)
	}
}

func TestCalculateTieredWidthPlusHeight(t *testing.T) {
	m := PriceModel{QuantityType: QuantityWidthPlusHeight, Formula: Tiered{Tiers: []Tier{
		{UpTo: 600, Base: 180, Rate: 0.5},
		{UpTo: 1200, Base: 240, Rate: 0.45},
		{UpTo: 4000, Base: 320, Rate: 0.4},
	}}}
	tests := []struct {
		w, h int
		want float64
	}{
		{300, 200, 430},
		{600, 400, 690},
		{600, 900, 920},
		{3000, 2000, 2320},
	}
	for _, tt := range tests {
		got, err := Calculate(m, tt.w, tt.h)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-9, "%dx%d", tt.w, tt.h)
	}
}

func TestCalculateExpression(t *testing.T) {
	m := PriceModel{QuantityType: QuantityArea, Formula: Expression{Source: "(+ 800 (* q 0.0009))"}}

	got, err := Calculate(m, 1000, 1000)
	require.NoError(t, err)
	assert.InDelta(t, 1700.0, got, 1e-9)

	got, err = Calculate(m, 600, 900)
	require.NoError(t, err)
	assert.InDelta(t, 1286.0, got, 1e-9)
}

func TestCalculateExpressionUsesDimensions(t *testing.T) {
	m := PriceModel{QuantityType: QuantityArea, Formula: Expression{Source: "(+ width height)"}}

	got, err := Calculate(m, 600, 900)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, got)
}

func TestCalculateExpressionError(t *testing.T) {
	m := PriceModel{QuantityType: QuantityArea, Formula: Expression{Source: "(+ 1 undefined-symbol)"}}

	_, err := Calculate(m, 600, 900)
	require.Error(t, err)
	var exprErr ExprError
	assert.True(t, errors.As(err, &exprErr))
}

func TestCalculateExpressionNonNumeric(t *testing.T) {
	m := PriceModel{QuantityType: QuantityArea, Formula: Expression{Source: `"free"`}}

	_, err := Calculate(m, 600, 900)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want a number")
}

func TestCalculateZeroDimensions(t *testing.T) {
	m := PriceModel{QuantityType: QuantityArea, Formula: Linear{Base: 450, Rate: 0.0012}}
	for _, dims := range [][2]int{{0, 900}, {600, 0}, {0, 0}, {-5, 100}} {
		got, err := Calculate(m, dims[0], dims[1])
		require.NoError(t, err)
		assert.Zero(t, got)
	}
}

func TestCalculateNoFormula(t *testing.T) {
	_, err := Calculate(PriceModel{QuantityType: QuantityArea}, 600, 900)
	assert.ErrorIs(t, err, ErrNoFormula)
}

func TestCalculateIsPure(t *testing.T) {
	m := PriceModel{QuantityType: QuantityArea, Formula: Linear{Base: 450, Rate: 0.0012}}
	a, _ := Calculate(m, 600, 900)
	_, _ = Calculate(m, 1000, 1000)
	b, _ := Calculate(m, 600, 900)
	assert.Equal(t, a, b)
}

func TestParseModelLinear(t *testing.T) {
	m, err := ParseModel(map[string]any{
		"quantityType":       "Area",
		"formula":            "linear",
		"base":               450,
		"rate":               0.0012,
		"inscriptionPerChar": 2.5,
		"imagePerSquareCm":   "0.8",
	})
	require.NoError(t, err)
	assert.Equal(t, QuantityArea, m.QuantityType)
	assert.Equal(t, Linear{Base: 450, Rate: 0.0012}, m.Formula)
	assert.Equal(t, DefaultCurrency, m.Currency)
	assert.Equal(t, Surcharges{InscriptionPerChar: 2.5, ImagePerSquareCm: 0.8}, m.Surcharges)
}

func TestParseModelTieredSortsTiers(t *testing.T) {
	m, err := ParseModel(map[string]any{
		"quantityType": "WidthPlusHeight",
		"formula":      "tiered",
		"currency":     "aud",
		"tiers": []any{
			map[string]any{"upTo": 1200, "base": 240, "rate": 0.45},
			map[string]any{"upTo": 600, "base": 180, "rate": 0.5},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "AUD", m.Currency)
	tiered, ok := m.Formula.(Tiered)
	require.True(t, ok)
	require.Len(t, tiered.Tiers, 2)
	assert.Equal(t, 600.0, tiered.Tiers[0].UpTo)
}

func TestParseModelTierWithoutUpToIsOpenEnded(t *testing.T) {
	m, err := ParseModel(map[string]any{
		"quantityType": "WidthPlusHeight",
		"formula":      "tiered",
		"tiers": []any{
			map[string]any{"base": 500, "rate": 0},
			map[string]any{"upTo": 600, "base": 100, "rate": 1},
		},
	})
	require.NoError(t, err)
	tiered := m.Formula.(Tiered)
	require.Len(t, tiered.Tiers, 2)
	assert.Equal(t, 600.0, tiered.Tiers[0].UpTo)
	assert.True(t, math.IsInf(tiered.Tiers[1].UpTo, 1))

	got, err := Calculate(m, 300, 200)
	require.NoError(t, err)
	assert.InDelta(t, 600, got, 1e-9)

	got, err = Calculate(m, 600, 400)
	require.NoError(t, err)
	assert.InDelta(t, 500, got, 1e-9)
}

func TestParseModelErrors(t *testing.T) {
	tests := map[string]map[string]any{
		"nil":               nil,
		"unknown formula":   {"quantityType": "Area", "formula": "magic"},
		"tiered no tiers":   {"quantityType": "Area", "formula": "tiered"},
		"tier not a map":    {"quantityType": "Area", "formula": "tiered", "tiers": []any{3}},
		"broken expression": {"quantityType": "Area", "formula": "expression", "expression": "(+ 1"},
		"empty expression":  {"quantityType": "Area", "formula": "expression"},
	}
	for name, attrs := range tests {
		_, err := ParseModel(attrs)
		assert.Error(t, err, name)
	}
}

func TestParseModelFlagsUnknownQuantityType(t *testing.T) {
	h := captureLogs(t)

	m, err := ParseModel(map[string]any{"quantityType": "Perimeter", "base": 10})
	require.NoError(t, err)
	assert.Equal(t, QuantityType("Perimeter"), m.QuantityType)
	assert.True(t, h.Contains("migration review"))
}

func TestSum(t *testing.T) {
	b := Sum(1098, "USD", []Line{
		{Kind: "addition", Ref: "B1134S", Amount: 95},
		{Kind: "inscription", Ref: "line-1", Amount: 12.5},
	})
	assert.Equal(t, 1098.0, b.Base)
	assert.Len(t, b.Lines, 2)
	assert.InDelta(t, 1205.5, b.Total, 1e-9)

	empty := Sum(0, "USD", nil)
	assert.NotNil(t, empty.Lines)
	assert.Zero(t, empty.Total)
}

func TestSurchargeCharges(t *testing.T) {
	s := Surcharges{InscriptionPerChar: 2, ImagePerSquareCm: 0.5}
	assert.Equal(t, 16.0, s.InscriptionCharge("In Memory"))
	assert.Zero(t, s.InscriptionCharge("   "))
	assert.Equal(t, 48.0, s.ImageCharge(120, 80))
	assert.Zero(t, s.ImageCharge(0, 80))
}

func TestFormat(t *testing.T) {
	out := Format(1098, "USD", language.AmericanEnglish)
	assert.Contains(t, out, "098.00")
	assert.Contains(t, out, "$")

	// Unknown codes fall back to USD.
	assert.Contains(t, Format(5, "???", language.English), "5")
}
