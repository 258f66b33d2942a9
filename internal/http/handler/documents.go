package handler

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"docstore/internal/model"
	"docstore/internal/repository"
	"docstore/internal/service"
)

// SaveDocument upserts a document.
//
// @Summary  Create or update a document
// @Accept   json
// @Produce  json
// @Param    document body model.Document true "Document; omit id to create"
// @Success  200 {object} model.Document "updated"
// @Success  201 {object} model.Document "created"
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /documents [post]
func SaveDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// An empty body or a JSON null is passed on as a nil document.
		var doc *model.Document
		if body := c.Body(); len(body) > 0 {
			if err := json.Unmarshal(body, &doc); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
			}
		}

		created := doc != nil && doc.ID == ""

		saved, err := docSvc.Save(c.UserContext(), doc)
		if err != nil {
			return writeServiceError(c, err)
		}
		if created {
			return c.Status(fiber.StatusCreated).JSON(saved)
		}
		return c.JSON(saved)
	}
}

// GetDocument returns a document by id.
//
// @Summary  Get a document
// @Produce  json
// @Param    id path string true "Document ID"
// @Success  200 {object} model.Document
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /documents/{id} [get]
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := docSvc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// SearchDocuments returns every document matching the request body.
//
// @Summary  Search documents
// @Accept   json
// @Produce  json
// @Param    request body model.SearchRequest false "Search constraints; all optional"
// @Success  200 {object} service.DocumentListResult
// @Failure  400 {object} errorPayload
// @Router   /documents/search [post]
func SearchDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := parseSearchRequest(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := docSvc.Search(c.UserContext(), req)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// ExportDocuments publishes the documents matching the request body to object storage.
//
// @Summary  Export search results
// @Accept   json
// @Produce  json
// @Param    request body model.SearchRequest false "Search constraints; all optional"
// @Success  201 {object} service.ExportResult
// @Failure  400 {object} errorPayload
// @Failure  503 {object} errorPayload
// @Router   /documents/export [post]
func ExportDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := parseSearchRequest(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := docSvc.Export(c.UserContext(), req)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// parseSearchRequest treats an empty body as an empty request.
func parseSearchRequest(c *fiber.Ctx) (model.SearchRequest, error) {
	var req model.SearchRequest
	if body := c.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return model.SearchRequest{}, err
		}
	}
	return req, nil
}

// writeServiceError translates service and repository errors into the error envelope.
// Not-found and argument errors carry messages built from caller input only, so they are returned as is.
func writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrDocumentNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, repository.ErrInvalidArgument):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
	case errors.Is(err, service.ErrExportDisabled):
		return writeError(c, fiber.StatusServiceUnavailable, "EXPORT_DISABLED", "export storage is not configured")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
