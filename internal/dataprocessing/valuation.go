package dataprocessing

import (
	"context"
	"log/slog"

	"factlake/pkg/contracts/domain"
)

// ValuationEngine derives market-multiple ratios from an integrated record
// and attaches them as a valuation block under the current-period view. The
// input record is never modified.
type ValuationEngine struct {
	logger *slog.Logger
}

// NewValuationEngine creates a new valuation engine.
func NewValuationEngine(logger *slog.Logger) *ValuationEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValuationEngine{
		logger: logger.With(slog.String("component", "valuation_engine")),
	}
}

// Evaluate returns a deep copy of record with a valuation block attached
// under current_year. A record without a current period is returned as a
// plain copy: valuation cannot be computed without one, and the condition is
// logged, not raised. Ratios are computed independently; a missing, null or
// non-positive operand nulls only the affected ratio.
func (e *ValuationEngine) Evaluate(ctx context.Context, record *domain.FactsRecord) *domain.FactsRecord {
	result := record.Clone()
	if result == nil {
		result = &domain.FactsRecord{}
	}

	if result.CurrentYear == nil {
		e.logger.WarnContext(ctx, "record has no current period, skipping valuation",
			slog.String("doc_id", result.DocID))
		return result
	}

	metrics := result.CurrentYear.Metrics
	if metrics == nil {
		metrics = map[string]any{}
	}
	market := result.CurrentYear.Market
	if market == nil {
		market = &domain.MarketBlock{}
	}

	valuation := computeValuation(metrics, market)
	result.CurrentYear.Valuation = valuation

	e.logger.InfoContext(ctx, "valuation computed",
		slog.String("doc_id", result.DocID),
		slog.Any("per", floatValue(valuation.PER)))

	return result
}

// computeValuation derives the ratio set from metrics and market data. Every
// operand is coerced independently so one malformed value cannot block the
// other ratios.
func computeValuation(metrics map[string]any, market *domain.MarketBlock) *domain.ValuationBlock {
	stockPrice := ToFloat(market.StockPrice)
	sharesOutstanding := ToInt(market.SharesOutstanding)
	dividendPerShare := ToFloat(market.DividendPerShare)
	marketCap := ToFloat(market.MarketCap)
	equity := ToFloat(metrics["equity"])
	netSales := ToFloat(metrics["net_sales"])
	eps := ToFloat(metrics["earnings_per_share"])
	epsGrowth := ToFloat(metrics["eps_growth"])

	block := &domain.ValuationBlock{}

	// PER = stock_price / eps. A loss-making or zero-EPS issuer has no
	// meaningful P/E.
	if stockPrice != nil && eps != nil && *eps > 0 {
		per := *stockPrice / *eps
		block.PER = &per
	}

	// BPS = equity / shares_outstanding (intermediate, not surfaced),
	// PBR = stock_price / bps.
	var bps *float64
	if equity != nil && sharesOutstanding != nil && *sharesOutstanding > 0 {
		v := *equity / float64(*sharesOutstanding)
		bps = &v
	}
	if stockPrice != nil && bps != nil && *bps > 0 {
		pbr := *stockPrice / *bps
		block.PBR = &pbr
	}

	// PSR = market_cap / net_sales.
	if marketCap != nil && netSales != nil && *netSales > 0 {
		psr := *marketCap / *netSales
		block.PSR = &psr
	}

	// Dividend Yield = dividend_per_share / stock_price.
	if dividendPerShare != nil && stockPrice != nil && *stockPrice > 0 {
		dy := *dividendPerShare / *stockPrice
		block.DividendYield = &dy
	}

	// PEG = per / (eps_growth * 100). Growth is held as a fraction and
	// rescaled to percentage points per market convention before dividing.
	if block.PER != nil && epsGrowth != nil && *epsGrowth > 0 {
		peg := *block.PER / (*epsGrowth * 100)
		block.PEG = &peg
	}

	return block
}
