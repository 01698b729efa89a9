package dataprocessing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *float64
	}{
		{"nil", nil, nil},
		{"float64", 2500.5, f(2500.5)},
		{"float32", float32(2), f(2)},
		{"int", 42, f(42)},
		{"int64", int64(5000000), f(5000000)},
		{"json number float", json.Number("0.1426976"), f(0.1426976)},
		{"json number int", json.Number("5000000"), f(5000000)},
		{"json number garbage", json.Number("x"), nil},
		{"numeric string", "2500.5", f(2500.5)},
		{"padded string", " 12.5 ", f(12.5)},
		{"non-numeric string", "N/A", nil},
		{"comma string", "2,500", nil},
		{"bool", true, nil},
		{"slice", []int{1}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToFloat(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-12)
		})
	}
}

func TestToFloatPointer(t *testing.T) {
	src := f(3.14)
	got := ToFloat(src)
	require.NotNil(t, got)
	assert.Equal(t, 3.14, *got)
	assert.NotSame(t, src, got)

	var nilPtr *float64
	assert.Nil(t, ToFloat(nilPtr))
}

func TestToInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *int64
	}{
		{"nil", nil, nil},
		{"int", 5, i(5)},
		{"int64", int64(5000000), i(5000000)},
		{"float truncates", 2.9, i(2)},
		{"negative float truncates", -2.9, i(-2)},
		{"json number int", json.Number("5000000"), i(5000000)},
		{"json number fractional truncates", json.Number("2.9"), i(2)},
		{"json number garbage", json.Number("x"), nil},
		{"integral string", "5000000", i(5000000)},
		{"fractional string", "5.5", nil},
		{"non-numeric string", "many", nil},
		{"map", map[string]int{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToInt(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestFloatValue(t *testing.T) {
	assert.Nil(t, floatValue(nil))
	assert.Equal(t, 1.5, floatValue(f(1.5)))
}

func f(v float64) *float64 { return &v }
func i(v int64) *int64     { return &v }
