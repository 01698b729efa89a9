package exporter

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factlake/internal/config"
	apperrors "factlake/internal/errors"
	"factlake/pkg/contracts/domain"
)

func f(v float64) *float64 { return &v }
func i(v int64) *int64     { return &v }

func newTestExporter(t *testing.T, manifest ManifestWriter) (*DatasetExporter, *config.Paths) {
	t.Helper()
	paths, err := config.NewPaths(filepath.Join(t.TempDir(), "dataset"))
	require.NoError(t, err)

	exp := NewDatasetExporter(nil, DatasetExporterConfig{
		Paths:         paths,
		EngineVersion: "1.2.0-test",
		Manifest:      manifest,
	})
	exp.now = func() time.Time {
		return time.Date(2025, 8, 30, 10, 30, 0, 0, time.UTC)
	}
	return exp, paths
}

// exportFixture mirrors the reference filing: an enriched record whose
// market and valuation layers must not survive export.
func exportFixture() *domain.FactsRecord {
	return &domain.FactsRecord{
		DocID:         "S100REF1",
		SecurityCode:  "4827",
		FiscalYearEnd: "2025-03-31",
		ReportType:    domain.ReportTypeAnnual,
		CurrentYear: &domain.PeriodView{
			Metrics: map[string]any{
				"equity":    float64(2000000000),
				"net_sales": 5500000000.123,
				"roe":       0.1426976,
				"shares":    int64(5000000),
				"memo":      nil,
			},
			Market: &domain.MarketBlock{
				StockPrice:        f(2500),
				SharesOutstanding: i(5000000),
				MarketCap:         f(12500000000),
			},
			Valuation: &domain.ValuationBlock{PER: f(20.75)},
		},
		PriorYear: &domain.PeriodView{
			Metrics: map[string]any{"roe": 0.11119999},
		},
	}
}

func TestExport(t *testing.T) {
	ctx := context.Background()

	t.Run("writes envelope with stripped layers", func(t *testing.T) {
		exp, paths := newTestExporter(t, nil)

		path, err := exp.Export(ctx, exportFixture())
		require.NoError(t, err)
		assert.Equal(t, paths.ArtifactPath("annual", "2025FY", "4827"), path)

		raw, err := os.ReadFile(path)
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(raw, &doc))

		assert.Equal(t, "2.0", doc["schema_version"])
		assert.Equal(t, "1.2.0-test", doc["engine_version"])
		assert.Equal(t, "2025FY", doc["data_version"])
		assert.Equal(t, "2025-08-30T10:30:00Z", doc["generated_at"])
		assert.Equal(t, "S100REF1", doc["doc_id"])
		assert.Equal(t, "4827", doc["security_code"])
		assert.Equal(t, "2025-03-31", doc["fiscal_year_end"])
		assert.Equal(t, "annual", doc["report_type"])

		current := doc["current_year"].(map[string]any)
		metrics := current["metrics"].(map[string]any)
		assert.Equal(t, 0.1427, metrics["roe"])
		assert.Equal(t, 5500000000.123, metrics["net_sales"])
		assert.Contains(t, metrics, "memo")
		assert.Nil(t, metrics["memo"])

		prior := doc["prior_year"].(map[string]any)
		assert.Equal(t, 0.1112, prior["metrics"].(map[string]any)["roe"])

		// The layer boundary: no market or valuation keys anywhere.
		assertNoKey(t, doc, "market")
		assertNoKey(t, doc, "valuation")
		assert.NotContains(t, string(raw), "stock_price")
	})

	t.Run("input record is not mutated by export", func(t *testing.T) {
		exp, _ := newTestExporter(t, nil)
		record := exportFixture()
		snapshot := record.Clone()

		_, err := exp.Export(ctx, record)
		require.NoError(t, err)
		assert.Equal(t, snapshot, record)
	})

	t.Run("bare facts record exports directly", func(t *testing.T) {
		exp, _ := newTestExporter(t, nil)
		record := exportFixture()
		record.CurrentYear.Market = nil
		record.CurrentYear.Valuation = nil

		_, err := exp.Export(ctx, record)
		require.NoError(t, err)
	})

	t.Run("missing periods export as empty metrics", func(t *testing.T) {
		exp, _ := newTestExporter(t, nil)
		record := exportFixture()
		record.CurrentYear = nil
		record.PriorYear = nil

		path, err := exp.Export(ctx, record)
		require.NoError(t, err)

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(raw, &doc))

		current := doc["current_year"].(map[string]any)
		assert.Empty(t, current["metrics"])
	})

	t.Run("quarterly artifact path", func(t *testing.T) {
		exp, paths := newTestExporter(t, nil)
		record := exportFixture()
		record.ReportType = domain.ReportTypeQuarterly
		record.FiscalYearEnd = "2025-09-30"

		path, err := exp.Export(ctx, record)
		require.NoError(t, err)
		assert.Equal(t, paths.ArtifactPath("quarterly", "2025Q3", "4827"), path)
	})

	t.Run("security code is trimmed for the artifact name", func(t *testing.T) {
		exp, paths := newTestExporter(t, nil)
		record := exportFixture()
		record.SecurityCode = " 4827 "

		path, err := exp.Export(ctx, record)
		require.NoError(t, err)
		assert.Equal(t, paths.ArtifactPath("annual", "2025FY", "4827"), path)
	})
}

func TestExportValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*domain.FactsRecord)
	}{
		{"missing security code", func(r *domain.FactsRecord) { r.SecurityCode = "" }},
		{"blank security code", func(r *domain.FactsRecord) { r.SecurityCode = "   " }},
		{"unknown report type", func(r *domain.FactsRecord) { r.ReportType = "transition" }},
		{"absent report type", func(r *domain.FactsRecord) { r.ReportType = "" }},
		{"missing fiscal year end", func(r *domain.FactsRecord) { r.FiscalYearEnd = "" }},
		{"unparsable fiscal year end", func(r *domain.FactsRecord) { r.FiscalYearEnd = "Q3/2025" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, paths := newTestExporter(t, nil)
			record := exportFixture()
			tt.mutate(record)

			_, err := exp.Export(ctx, record)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))

			// Hard failure: nothing may have been written.
			entries, readErr := os.ReadDir(paths.DatasetDir)
			if readErr == nil {
				assert.Empty(t, entries)
			}
		})
	}

	t.Run("nil record", func(t *testing.T) {
		exp, _ := newTestExporter(t, nil)
		_, err := exp.Export(ctx, nil)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})
}

type stubManifest struct {
	calls int
	err   error
}

func (s *stubManifest) Regenerate(ctx context.Context) (string, error) {
	s.calls++
	return "manifest.json", s.err
}

func TestExportManifestRegeneration(t *testing.T) {
	ctx := context.Background()

	t.Run("manifest runs after successful write", func(t *testing.T) {
		stub := &stubManifest{}
		exp, _ := newTestExporter(t, stub)

		_, err := exp.Export(ctx, exportFixture())
		require.NoError(t, err)
		assert.Equal(t, 1, stub.calls)
	})

	t.Run("manifest failure does not fail the export", func(t *testing.T) {
		stub := &stubManifest{err: apperrors.NewStorageError("scan failed", nil)}
		exp, _ := newTestExporter(t, stub)

		path, err := exp.Export(ctx, exportFixture())
		require.NoError(t, err)
		assert.FileExists(t, path)
	})

	t.Run("manifest does not run on validation failure", func(t *testing.T) {
		stub := &stubManifest{}
		exp, _ := newTestExporter(t, stub)
		record := exportFixture()
		record.SecurityCode = ""

		_, err := exp.Export(ctx, record)
		require.Error(t, err)
		assert.Zero(t, stub.calls)
	})
}

// assertNoKey walks a decoded JSON document and fails if key appears at any
// depth.
func assertNoKey(t *testing.T, doc any, key string) {
	t.Helper()
	switch v := doc.(type) {
	case map[string]any:
		for k, child := range v {
			if strings.EqualFold(k, key) {
				t.Fatalf("exported document contains forbidden key %q", key)
			}
			assertNoKey(t, child, key)
		}
	case []any:
		for _, child := range v {
			assertNoKey(t, child, key)
		}
	}
}
