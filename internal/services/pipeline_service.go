package services

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"factlake/internal/dataprocessing"
	"factlake/internal/exporter"
	"factlake/pkg/contracts/domain"
)

// PipelineService orchestrates the enrichment-and-export pipeline:
// facts record -> market integration -> valuation -> dataset export.
// Both the HTTP transport and the batch CLI run the pipeline through this
// facade so spans and metrics are recorded uniformly.
type PipelineService struct {
	integrator *dataprocessing.MarketIntegrator
	engine     *dataprocessing.ValuationEngine
	exporter   *exporter.DatasetExporter
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *PipelineMetrics
}

// RunResult reports the outcome of a full pipeline run.
type RunResult struct {
	Path        string `json:"path"`
	DataVersion string `json:"data_version"`
}

// NewPipelineService creates the pipeline facade. tracer and metrics may be
// nil; a noop tracer and no-op counters are substituted.
func NewPipelineService(
	logger *slog.Logger,
	exp *exporter.DatasetExporter,
	tracer trace.Tracer,
	metrics *PipelineMetrics,
) *PipelineService {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = otel.Tracer("factlake")
	}
	return &PipelineService{
		integrator: dataprocessing.NewMarketIntegrator(logger),
		engine:     dataprocessing.NewValuationEngine(logger),
		exporter:   exp,
		logger:     logger.With(slog.String("component", "pipeline_service")),
		tracer:     tracer,
		metrics:    metrics,
	}
}

// Enrich runs the two enrichment stages and returns the evaluated record.
// The input record is never modified; enrichment never fails.
func (s *PipelineService) Enrich(ctx context.Context, record *domain.FactsRecord, quote domain.MarketInput) *domain.FactsRecord {
	ctx, span := s.tracer.Start(ctx, "pipeline.enrich",
		trace.WithAttributes(attribute.String("security_code", securityCode(record))))
	defer span.End()

	integrated := s.integrator.Integrate(ctx, record, quote)
	evaluated := s.engine.Evaluate(ctx, integrated)

	s.metrics.recordEnriched(ctx)
	return evaluated
}

// Run executes the full pipeline and exports the result. Validation failures
// surface as ErrTypeValidation AppErrors; the enrichment layers never appear
// in the persisted artifact.
func (s *PipelineService) Run(ctx context.Context, record *domain.FactsRecord, quote domain.MarketInput) (RunResult, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.String("security_code", securityCode(record))))
	defer span.End()

	evaluated := s.Enrich(ctx, record, quote)

	path, err := s.exporter.Export(ctx, evaluated)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "export failed")
		s.metrics.recordExport(ctx, false)
		return RunResult{}, err
	}

	s.metrics.recordExport(ctx, true)
	return RunResult{
		Path:        path,
		DataVersion: exporter.DeriveDataVersion(s.logger, record.FiscalYearEnd, record.ReportType),
	}, nil
}

// Export persists a record without enrichment. The exporter strips any
// market or valuation content regardless, so this is safe on bare and
// enriched records alike.
func (s *PipelineService) Export(ctx context.Context, record *domain.FactsRecord) (RunResult, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.export",
		trace.WithAttributes(attribute.String("security_code", securityCode(record))))
	defer span.End()

	path, err := s.exporter.Export(ctx, record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "export failed")
		s.metrics.recordExport(ctx, false)
		return RunResult{}, err
	}

	s.metrics.recordExport(ctx, true)
	return RunResult{
		Path:        path,
		DataVersion: exporter.DeriveDataVersion(s.logger, record.FiscalYearEnd, record.ReportType),
	}, nil
}

func securityCode(record *domain.FactsRecord) string {
	if record == nil {
		return ""
	}
	return record.SecurityCode
}

// PipelineMetrics holds the pipeline's OTel instruments.
type PipelineMetrics struct {
	RecordsEnriched  metric.Int64Counter
	ExportsSucceeded metric.Int64Counter
	ExportsFailed    metric.Int64Counter
}

// NewPipelineMetrics creates the pipeline instruments on a meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	recordsEnriched, err := meter.Int64Counter(
		"factlake_records_enriched_total",
		metric.WithDescription("Total number of records run through the enrichment stages"),
	)
	if err != nil {
		return nil, err
	}

	exportsSucceeded, err := meter.Int64Counter(
		"factlake_exports_succeeded_total",
		metric.WithDescription("Total number of dataset artifacts written"),
	)
	if err != nil {
		return nil, err
	}

	exportsFailed, err := meter.Int64Counter(
		"factlake_exports_failed_total",
		metric.WithDescription("Total number of failed export attempts"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RecordsEnriched:  recordsEnriched,
		ExportsSucceeded: exportsSucceeded,
		ExportsFailed:    exportsFailed,
	}, nil
}

func (m *PipelineMetrics) recordEnriched(ctx context.Context) {
	if m == nil || m.RecordsEnriched == nil {
		return
	}
	m.RecordsEnriched.Add(ctx, 1)
}

func (m *PipelineMetrics) recordExport(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	if ok {
		if m.ExportsSucceeded != nil {
			m.ExportsSucceeded.Add(ctx, 1)
		}
		return
	}
	if m.ExportsFailed != nil {
		m.ExportsFailed.Add(ctx, 1)
	}
}
