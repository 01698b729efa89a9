// Package app assembles the HTTP service: configuration, logging,
// OpenTelemetry, the pipeline service and the chi router.
package app
