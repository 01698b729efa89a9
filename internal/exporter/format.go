package exporter

import (
	"encoding/json"
	"math"
	"strings"
)

// ratioKeys is the allow-list of ratio-shaped metric keys whose
// floating-point values are rounded at export time. Everything else passes
// through bit-identical.
var ratioKeys = map[string]struct{}{
	"roe":              {},
	"roa":              {},
	"operating_margin": {},
	"net_margin":       {},
	"equity_ratio":     {},
	"de_ratio":         {},
	"sales_growth":     {},
	"profit_growth":    {},
	"eps_growth":       {},
}

// ratioPrecision is the number of decimal places ratio values keep in the
// persisted artifact.
const ratioPrecision = 4

// formatNumericFields walks a metrics mapping and returns a new mapping with
// rounding applied. Only floating-point values under a ratio key are rounded;
// integral values, nulls and strings pass through untouched. Recursion
// descends into nested mappings and sequences of mappings.
func formatNumericFields(data map[string]any) map[string]any {
	result := make(map[string]any, len(data))
	for key, value := range data {
		result[key] = formatValue(key, value)
	}
	return result
}

func formatValue(key string, value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case map[string]any:
		return formatNumericFields(v)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			if m, ok := item.(map[string]any); ok {
				items[i] = formatNumericFields(m)
			} else {
				items[i] = item
			}
		}
		return items
	case float64:
		if _, ok := ratioKeys[key]; ok {
			return roundRatio(v)
		}
		return v
	case float32:
		if _, ok := ratioKeys[key]; ok {
			return roundRatio(float64(v))
		}
		return v
	case json.Number:
		// Numbers decoded with UseNumber keep their literal form. An
		// integral literal is not a floating-point value and passes through
		// unchanged; a fractional one is rounded when its key is listed.
		if !isFloatLiteral(v) {
			return v
		}
		if _, ok := ratioKeys[key]; !ok {
			return v
		}
		f, err := v.Float64()
		if err != nil {
			return v
		}
		return roundRatio(f)
	default:
		return value
	}
}

func roundRatio(v float64) float64 {
	shift := math.Pow10(ratioPrecision)
	return math.Round(v*shift) / shift
}

// isFloatLiteral reports whether a JSON number literal denotes a
// floating-point value rather than an integer.
func isFloatLiteral(n json.Number) bool {
	s := n.String()
	return strings.ContainsAny(s, ".eE")
}
