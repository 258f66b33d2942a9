package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"docstore/internal/http/middleware"
	"docstore/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay free of business logic; metrics are only exposed when a gatherer is given.
func RegisterRoutes(app *fiber.App, docSvc service.DocumentService, gatherer prometheus.Gatherer) {
	app.Get("/health", HealthCheck(docSvc))
	app.Get("/healthz", LivenessProbe())

	if gatherer != nil {
		app.Get(middleware.MetricsPath, Metrics(gatherer))
	}

	app.Post("/documents", SaveDocument(docSvc))
	app.Post("/documents/search", SearchDocuments(docSvc))
	app.Post("/documents/export", ExportDocuments(docSvc))
	app.Get("/documents/:id", GetDocument(docSvc))
}
