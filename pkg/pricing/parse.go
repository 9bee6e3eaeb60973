package pricing

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/chazu/memorial/pkg/logging"
)

// DefaultCurrency is used when a price record names none.
const DefaultCurrency = "USD"

// ParseModel converts a catalog price record into a PriceModel. Only
// quantityType and the fields of the named formula are read:
//
//	quantityType: Area | WidthPlusHeight
//	formula:      linear (default) | tiered | expression
//	base, rate                      for linear
//	tiers: [{upTo, base, rate}]     for tiered; no upTo is open-ended
//	expression                      for expression
//	currency, inscriptionPerChar, imagePerSquareCm (optional)
//
// An unrecognized quantityType is kept and flagged for migration review;
// Calculate treats it as Area.
func ParseModel(attrs map[string]any) (PriceModel, error) {
	if attrs == nil {
		return PriceModel{}, fmt.Errorf("price model is missing")
	}
	m := PriceModel{
		QuantityType: QuantityType(strings.TrimSpace(fmt.Sprint(orEmpty(attrs["quantityType"])))),
		Currency:     strings.ToUpper(strings.TrimSpace(fmt.Sprint(orEmpty(attrs["currency"])))),
		Surcharges: Surcharges{
			InscriptionPerChar: toNumber(attrs["inscriptionPerChar"]),
			ImagePerSquareCm:   toNumber(attrs["imagePerSquareCm"]),
		},
	}
	if m.Currency == "" {
		m.Currency = DefaultCurrency
	}
	if !m.QuantityType.Known() {
		logging.Logger().Warn("price model has unrecognized quantity type; flag for migration review",
			"quantity_type", string(m.QuantityType))
	}

	kind := strings.ToLower(strings.TrimSpace(fmt.Sprint(orEmpty(attrs["formula"]))))
	switch kind {
	case "", "linear":
		m.Formula = Linear{Base: toNumber(attrs["base"]), Rate: toNumber(attrs["rate"])}
	case "tiered":
		tiers, err := parseTiers(attrs["tiers"])
		if err != nil {
			return PriceModel{}, err
		}
		m.Formula = Tiered{Tiers: tiers}
	case "expression":
		src, _ := attrs["expression"].(string)
		expr := Expression{Source: src}
		// Probe once so a broken expression fails at load, not at quote time.
		if _, err := expr.evaluate(1, 1, 1); err != nil {
			return PriceModel{}, fmt.Errorf("parse price model: %w", err)
		}
		m.Formula = expr
	default:
		return PriceModel{}, fmt.Errorf("parse price model: unknown formula %q", kind)
	}
	return m, nil
}

func parseTiers(raw any) ([]Tier, error) {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("parse price model: tiered formula needs tiers")
	}
	tiers := make([]Tier, 0, len(list))
	for i, item := range list {
		attrs, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("parse price model: tier %d is %T, want a mapping", i, item)
		}
		upTo := math.Inf(1)
		if v, ok := attrs["upTo"]; ok && v != nil {
			upTo = toNumber(v)
		}
		tiers = append(tiers, Tier{
			UpTo: upTo,
			Base: toNumber(attrs["base"]),
			Rate: toNumber(attrs["rate"]),
		})
	}
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].UpTo < tiers[j].UpTo })
	return tiers, nil
}

func orEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}

func toNumber(v any) float64 {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case float64:
		return t
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f
	}
	return 0
}
