package exporter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumericFields(t *testing.T) {
	t.Run("ratio floats are rounded to 4 decimals", func(t *testing.T) {
		out := formatNumericFields(map[string]any{
			"roe":      0.1426976,
			"de_ratio": 1.23456789,
		})
		assert.Equal(t, 0.1427, out["roe"])
		assert.Equal(t, 1.2346, out["de_ratio"])
	})

	t.Run("non-ratio floats pass through bit-identical", func(t *testing.T) {
		out := formatNumericFields(map[string]any{
			"net_sales":          5500000000.123456789,
			"earnings_per_share": 120.5555555,
		})
		assert.Equal(t, 5500000000.123456789, out["net_sales"])
		assert.Equal(t, 120.5555555, out["earnings_per_share"])
	})

	t.Run("integral and null values are untouched", func(t *testing.T) {
		out := formatNumericFields(map[string]any{
			"shares": int64(5000000),
			"count":  42,
			"roe":    nil,
			"note":   "restated",
		})
		assert.Equal(t, int64(5000000), out["shares"])
		assert.Equal(t, 42, out["count"])
		assert.Nil(t, out["roe"])
		assert.Equal(t, "restated", out["note"])
	})

	t.Run("recursion descends into nested mappings", func(t *testing.T) {
		out := formatNumericFields(map[string]any{
			"segments": map[string]any{
				"roe":       0.98765432,
				"net_sales": 100.98765432,
			},
		})
		nested := out["segments"].(map[string]any)
		assert.Equal(t, 0.9877, nested["roe"])
		assert.Equal(t, 100.98765432, nested["net_sales"])
	})

	t.Run("recursion descends into sequences of mappings", func(t *testing.T) {
		out := formatNumericFields(map[string]any{
			"quarters": []any{
				map[string]any{"eps_growth": 0.12344999},
				"plain string",
				3.14159265,
			},
		})
		items := out["quarters"].([]any)
		assert.Equal(t, 0.1234, items[0].(map[string]any)["eps_growth"])
		assert.Equal(t, "plain string", items[1])
		assert.Equal(t, 3.14159265, items[2])
	})

	t.Run("json numbers keep integral identity", func(t *testing.T) {
		out := formatNumericFields(map[string]any{
			"net_sales": json.Number("5500000000"),
			"roe":       json.Number("0.1426976"),
			"de_ratio":  json.Number("2"),
		})
		// Integral literals pass through unchanged even under a ratio key.
		assert.Equal(t, json.Number("5500000000"), out["net_sales"])
		assert.Equal(t, json.Number("2"), out["de_ratio"])
		// Fractional literals under a ratio key are rounded.
		assert.Equal(t, 0.1427, out["roe"])
	})

	t.Run("fractional json number under non-ratio key passes through", func(t *testing.T) {
		out := formatNumericFields(map[string]any{
			"earnings_per_share": json.Number("120.5555555"),
		})
		assert.Equal(t, json.Number("120.5555555"), out["earnings_per_share"])
	})

	t.Run("input map is not modified", func(t *testing.T) {
		in := map[string]any{"roe": 0.1426976}
		_ = formatNumericFields(in)
		assert.Equal(t, 0.1426976, in["roe"])
	})
}

func TestRoundRatio(t *testing.T) {
	assert.Equal(t, 0.1427, roundRatio(0.1426976))
	assert.Equal(t, 0.1234, roundRatio(0.12344999))
	assert.Equal(t, -0.1427, roundRatio(-0.1426976))
	assert.Equal(t, 2.0, roundRatio(2.0))
}

func TestIsFloatLiteral(t *testing.T) {
	require.True(t, isFloatLiteral(json.Number("0.5")))
	require.True(t, isFloatLiteral(json.Number("1e9")))
	require.False(t, isFloatLiteral(json.Number("5000000")))
	require.False(t, isFloatLiteral(json.Number("-12")))
}
