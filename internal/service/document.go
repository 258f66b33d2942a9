package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"docstore/internal/model"
	"docstore/internal/repository"
	"docstore/internal/storage"
)

var (
	ErrIDRequired     = errors.New("id is required")
	ErrNotFound       = errors.New("document not found")
	ErrExportDisabled = errors.New("export storage is not configured")
)

// DefaultExportExpiry is how long presigned export URLs stay valid unless overridden.
const DefaultExportExpiry = 15 * time.Minute

var tracer trace.Tracer = otel.Tracer("docstore/service")

// DocumentListResult is the service-level DTO for search results.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// ExportResult describes a search export published to object storage.
type ExportResult struct {
	Key   string `json:"key"`
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Save creates the document when it has no id, otherwise updates the stored one.
	// Repository argument errors are passed through unchanged so callers can match them with errors.Is.
	Save(ctx context.Context, doc *model.Document) (*model.Document, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Search returns every document matching the request.
	Search(ctx context.Context, req model.SearchRequest) (*DocumentListResult, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Export writes the documents matching req to object storage as a JSON array
	// and returns a presigned download URL.
	Export(ctx context.Context, req model.SearchRequest) (*ExportResult, error)
}

// Option configures the document service.
type Option func(*documentService)

// WithLogger sets the logger used for use-case level events.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *documentService) { s.log = l }
}

// WithExportExpiry sets how long presigned export URLs stay valid.
func WithExportExpiry(d time.Duration) Option {
	return func(s *documentService) {
		if d > 0 {
			s.exportExpiry = d
		}
	}
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store        storage.Storage
	repo         repository.DocumentRepository
	log          logrus.FieldLogger
	exportExpiry time.Duration
}

// NewDocumentService constructs a new DocumentService.
// store may be nil, in which case Export returns ErrExportDisabled.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, opts ...Option) DocumentService {
	s := &documentService{
		store:        store,
		repo:         repo,
		log:          logrus.StandardLogger(),
		exportExpiry: DefaultExportExpiry,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save creates a document when it has no ID and updates the stored one otherwise.
func (s *documentService) Save(ctx context.Context, doc *model.Document) (*model.Document, error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Save")
	defer span.End()

	op := "update"
	if doc == nil || doc.ID == "" {
		op = "create"
	}
	span.SetAttributes(attribute.String("document.operation", op))

	saved, err := s.repo.Save(ctx, doc)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("document.id", saved.ID))
	s.log.WithFields(logrus.Fields{
		"component":   "service",
		"operation":   op,
		"document_id": saved.ID,
	}).Info("document saved")

	return &saved, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}

	ctx, span := tracer.Start(ctx, "DocumentService.Get", trace.WithAttributes(attribute.String("document.id", id)))
	defer span.End()

	doc, ok, err := s.repo.FindByID(ctx, id)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: id %q", ErrNotFound, id)
	}
	return &doc, nil
}

// Search returns matching documents without exposing repository types.
func (s *documentService) Search(ctx context.Context, req model.SearchRequest) (*DocumentListResult, error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Search")
	defer span.End()

	items, err := s.repo.Search(ctx, req)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	if items == nil {
		items = []model.Document{}
	}

	span.SetAttributes(
		attribute.Bool("search.unfiltered", req.IsEmpty()),
		attribute.Int("search.results", len(items)),
	)
	s.log.WithFields(logrus.Fields{
		"component":  "service",
		"operation":  "search",
		"unfiltered": req.IsEmpty(),
		"results":    len(items),
	}).Debug("documents searched")

	return &DocumentListResult{Items: items, Total: len(items)}, nil
}

// Count returns the number of stored documents.
func (s *documentService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Export uploads the search result, then presigns it. The object is removed again if presigning fails.
func (s *documentService) Export(ctx context.Context, req model.SearchRequest) (*ExportResult, error) {
	if s.store == nil {
		return nil, ErrExportDisabled
	}

	ctx, span := tracer.Start(ctx, "DocumentService.Export")
	defer span.End()

	docs, err := s.repo.Search(ctx, req)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	if docs == nil {
		docs = []model.Document{}
	}

	body, err := json.Marshal(docs)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("encode export: %w", err)
	}

	key := path.Join("exports", uuid.NewString()+".json")
	span.SetAttributes(attribute.String("export.key", key), attribute.Int("export.count", len(docs)))

	if _, err := s.store.Put(ctx, key, bytes.NewReader(body), storage.PutObjectOptions{
		Size:        int64(len(body)),
		ContentType: "application/json",
		Metadata: map[string]string{
			"document-count": strconv.Itoa(len(docs)),
		},
	}); err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("upload export: %w", err)
	}

	url, err := s.store.PresignGet(ctx, key, s.exportExpiry)
	if err != nil {
		recordError(span, err)
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("presign export failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("presign export: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"component": "service",
		"operation": "export",
		"key":       key,
		"count":     len(docs),
	}).Info("documents exported")

	return &ExportResult{Key: key, URL: url, Count: len(docs)}, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
