// Package exporter persists facts records into the versioned fact dataset.
//
// The dataset stores confirmed filing-derived metrics only. Market and
// valuation blocks belong to separate downstream datasets and are stripped
// here by construction, whatever the input record carries — this package is
// the enforcement point of the fact/market/valuation layer boundary.
//
// Unlike the fail-soft enrichment stages, export is the durability gate: a
// missing security code, an invalid report type or an underivable data
// version each fail the export hard, with nothing written. Numeric rounding
// is applied only here, only to the ratio-key allow-list, and only to
// floating-point values.
//
// Artifacts land at {root}/{report_type}/{data_version}/{security_code}.json
// and the dataset-wide manifest.json is regenerated best-effort after every
// successful write.
package exporter
