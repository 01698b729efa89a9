package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int64) *int64       { return &i }

func sampleRecord() *FactsRecord {
	return &FactsRecord{
		DocID:         "S100TEST",
		SecurityCode:  "4827",
		FiscalYearEnd: "2025-03-31",
		ReportType:    ReportTypeAnnual,
		CurrentYear: &PeriodView{
			Metrics: map[string]any{
				"equity":             float64(2000000000),
				"net_sales":          float64(5500000000),
				"earnings_per_share": 120.5,
				"roe":                0.1426976,
			},
		},
		PriorYear: &PeriodView{
			Metrics: map[string]any{
				"net_sales": float64(5100000000),
			},
		},
	}
}

func TestClone(t *testing.T) {
	t.Run("clone is deeply independent", func(t *testing.T) {
		original := sampleRecord()
		clone := original.Clone()

		require.Equal(t, original, clone)

		clone.SecurityCode = "9999"
		clone.CurrentYear.Metrics["roe"] = 0.5
		clone.CurrentYear.Market = &MarketBlock{StockPrice: floatPtr(100)}
		clone.PriorYear.Metrics["net_sales"] = float64(1)

		assert.Equal(t, "4827", original.SecurityCode)
		assert.Equal(t, 0.1426976, original.CurrentYear.Metrics["roe"])
		assert.Nil(t, original.CurrentYear.Market)
		assert.Equal(t, float64(5100000000), original.PriorYear.Metrics["net_sales"])
	})

	t.Run("clone copies attached layers", func(t *testing.T) {
		original := sampleRecord()
		original.CurrentYear.Market = &MarketBlock{
			StockPrice:        floatPtr(2500),
			SharesOutstanding: intPtr(5000000),
			MarketCap:         floatPtr(12500000000),
		}

		clone := original.Clone()
		require.NotNil(t, clone.CurrentYear.Market)
		assert.NotSame(t, original.CurrentYear.Market, clone.CurrentYear.Market)
		assert.Equal(t, *original.CurrentYear.Market.StockPrice, *clone.CurrentYear.Market.StockPrice)

		*clone.CurrentYear.Market.StockPrice = 1
		assert.Equal(t, float64(2500), *original.CurrentYear.Market.StockPrice)
	})

	t.Run("nil receiver", func(t *testing.T) {
		var record *FactsRecord
		assert.Nil(t, record.Clone())
	})
}

func TestDecodeFactsRecord(t *testing.T) {
	payload := `{
		"doc_id": "S100ABCD",
		"security_code": "7203",
		"fiscal_year_end": "2025-03-31",
		"report_type": "annual",
		"current_year": {
			"metrics": {
				"net_sales": 5500000000,
				"roe": 0.1426976,
				"dividend": null
			}
		}
	}`

	record, err := DecodeFactsRecord(strings.NewReader(payload))
	require.NoError(t, err)

	assert.Equal(t, "S100ABCD", record.DocID)
	assert.Equal(t, "7203", record.SecurityCode)
	require.NotNil(t, record.CurrentYear)

	// UseNumber keeps integral metrics integral.
	assert.Equal(t, json.Number("5500000000"), record.CurrentYear.Metrics["net_sales"])
	assert.Equal(t, json.Number("0.1426976"), record.CurrentYear.Metrics["roe"])
	assert.Nil(t, record.CurrentYear.Metrics["dividend"])
	assert.Nil(t, record.PriorYear)
}

func TestDecodeFactsRecordInvalid(t *testing.T) {
	_, err := DecodeFactsRecord(strings.NewReader("{not json"))
	assert.Error(t, err)
}
