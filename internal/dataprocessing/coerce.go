package dataprocessing

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Numeric coercion helpers used at every external-data boundary of the
// pipeline. Both are total: any value that cannot be coerced yields nil
// rather than an error, so a malformed quote or metric can never fault an
// enrichment stage.

// ToFloat coerces a loosely typed value to *float64. Numeric strings are
// accepted; nil and unparsable values yield nil.
func ToFloat(v any) *float64 {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		return &val
	case float32:
		f := float64(val)
		return &f
	case int:
		f := float64(val)
		return &f
	case int32:
		f := float64(val)
		return &f
	case int64:
		f := float64(val)
		return &f
	case uint:
		f := float64(val)
		return &f
	case uint64:
		f := float64(val)
		return &f
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil
		}
		return &f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil
		}
		return &f
	case *float64:
		if val == nil {
			return nil
		}
		f := *val
		return &f
	default:
		return nil
	}
}

// ToInt coerces a loosely typed value to *int64. Floating-point values are
// truncated toward zero; strings must be integral literals. nil and
// unparsable values yield nil.
func ToInt(v any) *int64 {
	switch val := v.(type) {
	case nil:
		return nil
	case int:
		i := int64(val)
		return &i
	case int32:
		i := int64(val)
		return &i
	case int64:
		return &val
	case uint:
		i := int64(val)
		return &i
	case uint64:
		i := int64(val)
		return &i
	case float64:
		i := int64(val)
		return &i
	case float32:
		i := int64(val)
		return &i
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return &i
		}
		// A fractional JSON number still truncates, matching float input.
		if f, err := val.Float64(); err == nil {
			i := int64(f)
			return &i
		}
		return nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return nil
		}
		return &i
	case *int64:
		if val == nil {
			return nil
		}
		i := *val
		return &i
	default:
		return nil
	}
}

// floatValue unwraps a *float64 for logging; nil stays nil.
func floatValue(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
