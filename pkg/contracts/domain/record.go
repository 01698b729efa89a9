package domain

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tiendc/go-deepcopy"
)

// Report types accepted by the dataset exporter. The enrichment stages accept
// any value; only export enforces this set.
const (
	ReportTypeAnnual    = "annual"
	ReportTypeQuarterly = "quarterly"
)

// FactsRecord is the Single Source of Truth for a normalized financial-facts
// record as produced by the upstream filing computation stage. The enrichment
// pipeline never mutates a FactsRecord in place: every stage clones it and
// attaches its own layer to the copy.
//
// Layering rules:
//   - metrics come from the filing and are read-only here
//   - market data may be attached only under CurrentYear
//   - valuation may be attached only under CurrentYear
type FactsRecord struct {
	// DocID is the opaque filing identifier. May be empty while the record
	// is in transit between stages; stamped verbatim into exports.
	DocID string `json:"doc_id"`

	// SecurityCode identifies the issuer. Required and non-blank at export
	// time.
	SecurityCode string `json:"security_code"`

	// FiscalYearEnd is the period end date in YYYY-MM-DD form, or empty when
	// the upstream stage could not resolve it.
	FiscalYearEnd string `json:"fiscal_year_end,omitempty"`

	// ReportType is "annual", "quarterly", or empty/unknown.
	ReportType string `json:"report_type,omitempty"`

	CurrentYear *PeriodView `json:"current_year,omitempty"`
	PriorYear   *PeriodView `json:"prior_year,omitempty"`
}

// PeriodView holds the per-period layers of a record. Metrics values stay
// loosely typed (float64, int64, json.Number, string, nil) because the export
// rounding policy distinguishes floating-point values from integral ones.
type PeriodView struct {
	Metrics   map[string]any  `json:"metrics,omitempty"`
	Market    *MarketBlock    `json:"market,omitempty"`
	Valuation *ValuationBlock `json:"valuation,omitempty"`
}

// MarketBlock pairs a quoted price and share count with the computed market
// capitalization. Immutable once attached to a record.
type MarketBlock struct {
	StockPrice        *float64 `json:"stock_price"`
	SharesOutstanding *int64   `json:"shares_outstanding"`
	DividendPerShare  *float64 `json:"dividend_per_share"`
	MarketCap         *float64 `json:"market_cap"`
}

// ValuationBlock holds the market-multiple ratios derived from facts and
// market data. Every field is nullable; ratios are computed independently and
// a missing operand nulls only the affected ratio.
type ValuationBlock struct {
	PER           *float64 `json:"per"`
	PBR           *float64 `json:"pbr"`
	PSR           *float64 `json:"psr"`
	PEG           *float64 `json:"peg"`
	DividendYield *float64 `json:"dividend_yield"`
}

// MarketInput is a raw quote mapping as supplied by a market-data source.
// Expected keys are stock_price, shares_outstanding and dividend_per_share;
// values of any unparsable type degrade to null during integration.
type MarketInput map[string]any

// Clone returns a deep, independently owned copy of the record. No aliasing
// with the receiver survives the call.
func (r *FactsRecord) Clone() *FactsRecord {
	if r == nil {
		return nil
	}
	var out FactsRecord
	if err := deepcopy.Copy(&out, r); err != nil {
		// The record graph is plain maps, slices and scalars; a copy failure
		// indicates a programming error, not a data condition.
		panic(fmt.Sprintf("domain: clone of facts record failed: %v", err))
	}
	return &out
}

// DecodeFactsRecord decodes a facts record from JSON. Numbers are decoded as
// json.Number so integral metrics keep their integral identity through the
// pipeline instead of being widened to float64.
func DecodeFactsRecord(r io.Reader) (*FactsRecord, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var record FactsRecord
	if err := dec.Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode facts record: %w", err)
	}
	return &record, nil
}
