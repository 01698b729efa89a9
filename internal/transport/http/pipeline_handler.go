package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "factlake/internal/errors"
	"factlake/internal/services"
	"factlake/pkg/contracts/domain"
)

// PipelineHandler exposes the enrichment-and-export pipeline over HTTP.
type PipelineHandler struct {
	service  *services.PipelineService
	logger   *slog.Logger
	validate *validator.Validate
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(service *services.PipelineService, logger *slog.Logger) *PipelineHandler {
	return &PipelineHandler{
		service:  service,
		logger:   logger.With(slog.String("component", "pipeline_handler")),
		validate: validator.New(),
	}
}

// Routes returns the pipeline routes with proper Chi patterns
func (h *PipelineHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/enrich", h.Enrich)
	r.Post("/run", h.Run)
	r.Post("/export", h.Export)

	return r
}

// pipelineRequest is the request body shared by the pipeline endpoints.
// Market is optional: a run without quote data still enriches, it just
// produces null market fields.
type pipelineRequest struct {
	Record *domain.FactsRecord `json:"record" validate:"required"`
	Market domain.MarketInput  `json:"market"`
}

// decodeRequest binds the request body. Numbers decode as json.Number so
// integral metric values keep their identity through the pipeline.
func (h *PipelineHandler) decodeRequest(r *http.Request) (*pipelineRequest, *apierrors.APIError) {
	var req pipelineRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return nil, apierrors.InvalidRequestWithError(err)
	}
	if err := h.validate.Struct(&req); err != nil {
		return nil, apierrors.ErrValidation("record", "A facts record is required")
	}
	return &req, nil
}

// Enrich handles POST /api/v1/pipeline/enrich.
// Runs market integration and valuation and returns the enriched record
// without persisting anything. Enrichment never fails on bad quote data.
func (h *PipelineHandler) Enrich(w http.ResponseWriter, r *http.Request) {
	req, apiErr := h.decodeRequest(r)
	if apiErr != nil {
		render.Render(w, r, apierrors.NewErrorResponse(apiErr))
		return
	}

	enriched := h.service.Enrich(r.Context(), req.Record, req.Market)
	render.JSON(w, r, map[string]any{
		"success": true,
		"record":  enriched,
	})
}

// Run handles POST /api/v1/pipeline/run.
// Executes the full pipeline and writes the dataset artifact. Records that
// fail export validation come back as 422 with the offending fields.
func (h *PipelineHandler) Run(w http.ResponseWriter, r *http.Request) {
	req, apiErr := h.decodeRequest(r)
	if apiErr != nil {
		render.Render(w, r, apierrors.NewErrorResponse(apiErr))
		return
	}

	result, err := h.service.Run(r.Context(), req.Record, req.Market)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "pipeline run failed",
			slog.String("doc_id", req.Record.DocID),
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.FromAppError(err)))
		return
	}

	render.JSON(w, r, map[string]any{
		"success": true,
		"result":  result,
	})
}

// Export handles POST /api/v1/pipeline/export.
// Persists a record as-is, skipping enrichment. Any enrichment layers on
// the record are stripped by the exporter anyway.
func (h *PipelineHandler) Export(w http.ResponseWriter, r *http.Request) {
	req, apiErr := h.decodeRequest(r)
	if apiErr != nil {
		render.Render(w, r, apierrors.NewErrorResponse(apiErr))
		return
	}

	result, err := h.service.Export(r.Context(), req.Record)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "export failed",
			slog.String("doc_id", req.Record.DocID),
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.FromAppError(err)))
		return
	}

	render.JSON(w, r, map[string]any{
		"success": true,
		"result":  result,
	})
}
