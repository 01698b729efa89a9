package marketsource

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"factlake/internal/errors"
	"factlake/pkg/contracts/domain"
)

// Column headers recognized in a quote workbook, lowercased. Sheets exported
// from different terminals label the same columns differently.
var columnAliases = map[string]string{
	"code":               "security_code",
	"security_code":      "security_code",
	"ticker":             "security_code",
	"price":              "stock_price",
	"stock_price":        "stock_price",
	"close":              "stock_price",
	"shares":             "shares_outstanding",
	"shares_outstanding": "shares_outstanding",
	"dividend":           "dividend_per_share",
	"dividend_per_share": "dividend_per_share",
	"dps":                "dividend_per_share",
}

// LoadWorkbook reads a market-quote Excel workbook and returns quotes keyed
// by security code. Cell values are kept raw; the market integrator's
// coercion decides later what is numeric, so an unparsable cell degrades to
// null instead of failing the load.
func LoadWorkbook(logger *slog.Logger, path string) (QuoteBook, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewParsingError("failed to open quote workbook", err).
			WithContext("path", path)
	}
	defer f.Close()

	rows, sheetName, err := findQuoteSheet(f)
	if err != nil {
		return nil, err
	}

	headerRow, columns := mapColumns(rows)
	if _, ok := columns["security_code"]; !ok {
		return nil, errors.NewParsingError(
			fmt.Sprintf("no security code column found in sheet %q", sheetName), nil)
	}

	book := make(QuoteBook)
	for _, row := range rows[headerRow+1:] {
		code := cellAt(row, columns["security_code"])
		if strings.TrimSpace(code) == "" {
			continue
		}

		quote := domain.MarketInput{}
		for _, field := range []string{"stock_price", "shares_outstanding", "dividend_per_share"} {
			idx, ok := columns[field]
			if !ok {
				quote[field] = nil
				continue
			}
			quote[field] = cellOrNil(row, idx)
		}
		book[strings.TrimSpace(code)] = quote
	}

	logger.Info("quote workbook loaded",
		slog.String("path", path),
		slog.String("sheet", sheetName),
		slog.Int("quotes", len(book)))

	return book, nil
}

// findQuoteSheet locates the sheet carrying quote data by looking for a
// header row with a code column and a price column.
func findQuoteSheet(f *excelize.File) ([][]string, string, error) {
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) < 2 {
			continue
		}
		headerRow, columns := mapColumns(rows)
		if headerRow < 0 {
			continue
		}
		_, hasCode := columns["security_code"]
		_, hasPrice := columns["stock_price"]
		if hasCode && hasPrice {
			return rows, name, nil
		}
	}
	return nil, "", errors.NewParsingError("no quote sheet found in workbook", nil)
}

// mapColumns finds the header row and maps canonical field names to column
// indexes. Returns headerRow -1 when no recognizable header exists.
func mapColumns(rows [][]string) (int, map[string]int) {
	for i, row := range rows {
		columns := make(map[string]int)
		for j, cell := range row {
			normalized := strings.ToLower(strings.TrimSpace(cell))
			normalized = strings.ReplaceAll(normalized, " ", "_")
			if field, ok := columnAliases[normalized]; ok {
				if _, seen := columns[field]; !seen {
					columns[field] = j
				}
			}
		}
		if len(columns) >= 2 {
			return i, columns
		}
	}
	return -1, nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// cellOrNil returns the raw cell text, or nil for an empty cell so the
// integrator sees a proper null rather than an empty string.
func cellOrNil(row []string, idx int) any {
	text := strings.TrimSpace(cellAt(row, idx))
	if text == "" {
		return nil
	}
	return text
}
