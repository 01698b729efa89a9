package exporter

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"factlake/internal/config"
	"factlake/internal/errors"
	"factlake/pkg/contracts/domain"
)

// SchemaVersion identifies the shape of the persisted artifact. It is a
// manually incremented constant: bump it whenever the envelope changes. It is
// unrelated to data_version, which encodes fiscal-period identity.
const SchemaVersion = "2.0"

// ManifestWriter regenerates the dataset-wide manifest after an export.
// Failures are logged and never fail the export.
type ManifestWriter interface {
	Regenerate(ctx context.Context) (string, error)
}

// DatasetExporter persists the fact layer of a record as a versioned JSON
// artifact. The fact dataset stores confirmed filing-derived metrics only:
// market and valuation blocks are stripped by construction, whatever the
// input carries. This is the enforcement point of the layer boundary.
type DatasetExporter struct {
	paths         *config.Paths
	engineVersion string
	manifest      ManifestWriter
	logger        *slog.Logger
	now           func() time.Time
}

// DatasetExporterConfig holds construction options for the exporter.
type DatasetExporterConfig struct {
	// Paths resolves artifact locations under the dataset root.
	Paths *config.Paths
	// EngineVersion is stamped verbatim into every artifact.
	EngineVersion string
	// Manifest, when set, is invoked after each successful write.
	Manifest ManifestWriter
}

// NewDatasetExporter creates a new dataset exporter.
func NewDatasetExporter(logger *slog.Logger, cfg DatasetExporterConfig) *DatasetExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetExporter{
		paths:         cfg.Paths,
		engineVersion: cfg.EngineVersion,
		manifest:      cfg.Manifest,
		logger:        logger.With(slog.String("component", "dataset_exporter")),
		now:           time.Now,
	}
}

// envelope is the persisted document shape. Field order here is the field
// order downstream consumers see.
type envelope struct {
	SchemaVersion string        `json:"schema_version"`
	EngineVersion string        `json:"engine_version"`
	DataVersion   string        `json:"data_version"`
	GeneratedAt   string        `json:"generated_at"`
	DocID         string        `json:"doc_id"`
	SecurityCode  string        `json:"security_code"`
	FiscalYearEnd *string       `json:"fiscal_year_end"`
	ReportType    string        `json:"report_type"`
	CurrentYear   periodPayload `json:"current_year"`
	PriorYear     periodPayload `json:"prior_year"`
}

// periodPayload is a period view reduced to its fact layer.
type periodPayload struct {
	Metrics map[string]any `json:"metrics"`
}

// Export validates the record, strips every non-fact layer, applies the
// numeric formatting policy and writes the artifact to
// {root}/{report_type}/{data_version}/{security_code}.json.
//
// Validation failures return an ErrTypeValidation AppError and write
// nothing; storage failures wrap the cause as ErrTypeStorage. After a
// successful write the dataset manifest is regenerated best-effort.
func (e *DatasetExporter) Export(ctx context.Context, record *domain.FactsRecord) (string, error) {
	if record == nil {
		return "", errors.NewValidationError("facts record is nil")
	}

	securityCode := strings.TrimSpace(record.SecurityCode)
	if securityCode == "" {
		return "", errors.NewValidationError(
			"security_code is missing; the filing may not be an annual or quarterly report").
			WithContext("doc_id", record.DocID)
	}

	if record.ReportType != domain.ReportTypeAnnual && record.ReportType != domain.ReportTypeQuarterly {
		return "", errors.NewValidationError(
			"report_type must be 'annual' or 'quarterly'").
			WithContext("doc_id", record.DocID).
			WithContext("report_type", record.ReportType)
	}

	dataVersion := DeriveDataVersion(e.logger, record.FiscalYearEnd, record.ReportType)
	if dataVersion == DataVersionUnknown {
		return "", errors.NewValidationError(
			"data_version could not be derived; fiscal_year_end is missing or unparsable").
			WithContext("doc_id", record.DocID).
			WithContext("fiscal_year_end", record.FiscalYearEnd)
	}

	e.logger.InfoContext(ctx, "exporting dataset artifact",
		slog.String("security_code", securityCode),
		slog.String("report_type", record.ReportType),
		slog.String("data_version", dataVersion))

	doc := envelope{
		SchemaVersion: SchemaVersion,
		EngineVersion: e.engineVersion,
		DataVersion:   dataVersion,
		GeneratedAt:   e.now().UTC().Format("2006-01-02T15:04:05Z"),
		DocID:         record.DocID,
		SecurityCode:  securityCode,
		FiscalYearEnd: nullableString(record.FiscalYearEnd),
		ReportType:    record.ReportType,
		CurrentYear:   metricsOnly(record.CurrentYear),
		PriorYear:     metricsOnly(record.PriorYear),
	}

	outputDir := e.paths.VersionDir(record.ReportType, dataVersion)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", errors.NewStorageError("failed to create dataset directory", err).
			WithContext("dir", outputDir)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", errors.NewStorageError("failed to marshal dataset artifact", err)
	}
	data = append(data, '\n')

	outputPath := filepath.Join(outputDir, securityCode+".json")
	// Single buffered write: a crash can leave an empty directory but never
	// a partially written artifact.
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return "", errors.NewStorageError("failed to write dataset artifact", err).
			WithContext("path", outputPath)
	}

	e.logger.InfoContext(ctx, "dataset artifact written",
		slog.String("path", outputPath),
		slog.String("data_version", dataVersion))

	e.regenerateManifest(ctx)

	return outputPath, nil
}

// regenerateManifest runs the manifest collaborator best-effort. Export
// success is defined solely by the primary artifact being written.
func (e *DatasetExporter) regenerateManifest(ctx context.Context) {
	if e.manifest == nil {
		return
	}
	manifestPath, err := e.manifest.Regenerate(ctx)
	if err != nil {
		e.logger.WarnContext(ctx, "failed to regenerate dataset manifest",
			slog.Any("error", err))
		return
	}
	e.logger.InfoContext(ctx, "dataset manifest regenerated",
		slog.String("path", manifestPath))
}

// metricsOnly reduces a period view to its fact layer, applying the numeric
// formatting policy. Market and valuation blocks are discarded here
// regardless of input.
func metricsOnly(period *domain.PeriodView) periodPayload {
	if period == nil || period.Metrics == nil {
		return periodPayload{Metrics: map[string]any{}}
	}
	return periodPayload{Metrics: formatNumericFields(period.Metrics)}
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
