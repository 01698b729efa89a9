package dataprocessing

import (
	"context"
	"log/slog"

	"factlake/pkg/contracts/domain"
)

// MarketIntegrator attaches a market-data block to the current-period view of
// a facts record. Financial metrics and the prior period are never touched;
// the input record itself is never modified.
type MarketIntegrator struct {
	logger *slog.Logger
}

// NewMarketIntegrator creates a new market integrator.
func NewMarketIntegrator(logger *slog.Logger) *MarketIntegrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketIntegrator{
		logger: logger.With(slog.String("component", "market_integrator")),
	}
}

// Integrate returns a deep copy of record with a market block attached under
// current_year. Coercion is fail-soft: any quote value that cannot be read as
// a number degrades to null. The operation is total over any input shape and
// never returns an error.
func (m *MarketIntegrator) Integrate(ctx context.Context, record *domain.FactsRecord, input domain.MarketInput) *domain.FactsRecord {
	result := record.Clone()
	if result == nil {
		result = &domain.FactsRecord{}
	}

	stockPrice := ToFloat(input["stock_price"])
	sharesOutstanding := ToInt(input["shares_outstanding"])
	dividendPerShare := ToFloat(input["dividend_per_share"])

	block := &domain.MarketBlock{
		StockPrice:        stockPrice,
		SharesOutstanding: sharesOutstanding,
		DividendPerShare:  dividendPerShare,
		MarketCap:         computeMarketCap(stockPrice, sharesOutstanding),
	}

	// A record without a current period still gets the market block; no
	// metrics materialize out of nothing.
	if result.CurrentYear == nil {
		result.CurrentYear = &domain.PeriodView{}
	}
	result.CurrentYear.Market = block

	m.logger.InfoContext(ctx, "market data integrated",
		slog.String("doc_id", result.DocID),
		slog.Any("market_cap", floatValue(block.MarketCap)))

	return result
}

// computeMarketCap is stock_price x shares_outstanding; nil if either
// operand is nil.
func computeMarketCap(stockPrice *float64, sharesOutstanding *int64) *float64 {
	if stockPrice == nil || sharesOutstanding == nil {
		return nil
	}
	cap := *stockPrice * float64(*sharesOutstanding)
	return &cap
}
