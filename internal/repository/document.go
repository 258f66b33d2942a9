package repository

import (
	"context"

	"docstore/internal/model"
)

// DocumentRepository defines data access for documents.
// No transport concerns here, strictly storage and filtering.
type DocumentRepository interface {
	// Save upserts a document.
	// An empty ID creates a new document with generated ids and creation time.
	// A known ID replaces title, content and author name while keeping ID, Created and author ID.
	// An unknown non-empty ID fails with ErrDocumentNotFound.
	Save(ctx context.Context, doc *model.Document) (model.Document, error)

	// FindByID returns the document stored under id. ok is false when there is none.
	FindByID(ctx context.Context, id string) (doc model.Document, ok bool, err error)

	// Search returns every document matching all constraints of req.
	Search(ctx context.Context, req model.SearchRequest) ([]model.Document, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)
}
