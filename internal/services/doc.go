// Package services contains the orchestration layer between transports and
// the pipeline stages. Handlers and CLI commands never call the integrator,
// valuation engine or exporter directly; they go through PipelineService so
// tracing and metrics are recorded in one place.
package services
