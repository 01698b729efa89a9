package exporter

import (
	"fmt"
	"log/slog"
	"time"
)

// DataVersionUnknown is the sentinel returned when no data version can be
// derived. Export rejects records that resolve to it.
const DataVersionUnknown = "UNKNOWN"

// DeriveDataVersion derives the fiscal-period identity tag for an artifact
// from the period end date and report type, e.g. "2025FY" or "2025Q3".
//
// The function is deliberately more permissive than the exporter that calls
// it: an unexpected fiscal month maps to Q4 with a warning, and an unknown
// report type falls back to the annual form. The exporter's preconditions
// make those paths unreachable from Export, but the leniency keeps the
// function safe to reuse on unvalidated records.
func DeriveDataVersion(logger *slog.Logger, fiscalYearEnd, reportType string) string {
	if logger == nil {
		logger = slog.Default()
	}

	if fiscalYearEnd == "" {
		logger.Warn("fiscal_year_end is empty, using UNKNOWN data version")
		return DataVersionUnknown
	}

	dt, err := time.Parse("2006-01-02", fiscalYearEnd)
	if err != nil {
		logger.Warn("failed to parse fiscal_year_end, using UNKNOWN data version",
			slog.String("fiscal_year_end", fiscalYearEnd),
			slog.Any("error", err))
		return DataVersionUnknown
	}

	year := dt.Year()
	switch reportType {
	case "annual":
		return fmt.Sprintf("%dFY", year)
	case "quarterly":
		var quarter int
		switch dt.Month() {
		case time.March:
			quarter = 1
		case time.June:
			quarter = 2
		case time.September:
			quarter = 3
		case time.December:
			quarter = 4
		default:
			// Non-standard fiscal calendars land here; tag as Q4 rather
			// than refusing the record.
			logger.Warn("unexpected month for quarterly report, using Q4",
				slog.Int("month", int(dt.Month())),
				slog.String("fiscal_year_end", fiscalYearEnd))
			quarter = 4
		}
		return fmt.Sprintf("%dQ%d", year, quarter)
	default:
		logger.Warn("unknown report_type, treating as annual",
			slog.String("report_type", reportType))
		return fmt.Sprintf("%dFY", year)
	}
}
