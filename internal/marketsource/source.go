// Package marketsource loads market-quote data for the pipeline from caller
// supplied files. Quotes stay loosely typed: the source layer only locates
// values per security code, and the market integrator's fail-soft coercion
// decides what is numeric.
package marketsource

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"factlake/internal/errors"
	"factlake/pkg/contracts/domain"
)

// QuoteBook maps a security code to its raw market-data input.
type QuoteBook map[string]domain.MarketInput

// Lookup returns the quote for a security code, trimming surrounding
// whitespace from the key.
func (b QuoteBook) Lookup(securityCode string) (domain.MarketInput, bool) {
	quote, ok := b[strings.TrimSpace(securityCode)]
	return quote, ok
}

// Load reads a quote file, dispatching on extension: .xlsx workbooks go
// through the Excel reader, everything else is parsed as JSON.
func Load(path string) (QuoteBook, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return LoadWorkbook(nil, path)
	}
	return LoadJSON(path)
}

// LoadJSON reads quotes from a JSON document of the form
// {"4827": {"stock_price": 2500.0, ...}, ...}.
func LoadJSON(path string) (QuoteBook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewParsingError("failed to read quote file", err).
			WithContext("path", path)
	}

	var book QuoteBook
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, errors.NewParsingError("failed to decode quote file", err).
			WithContext("path", path)
	}
	return book, nil
}
