// Package http contains the chi HTTP handlers for the pipeline API.
// Handlers bind and validate requests, delegate to the services layer and
// render JSON responses; they hold no pipeline logic of their own.
package http
