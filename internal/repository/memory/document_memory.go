package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docstore/internal/model"
	"docstore/internal/repository"
)

// DocumentMemory is an in-memory implementation of repository.DocumentRepository.
// Documents are kept in a map keyed by id; search results come back in insertion order.
// It is safe for concurrent use.
type DocumentMemory struct {
	mu    sync.RWMutex
	docs  map[string]model.Document
	order []string

	now   func() time.Time
	newID func() string
}

// Option configures a DocumentMemory.
type Option func(*DocumentMemory)

// WithClock overrides the clock used to stamp Created on new documents.
func WithClock(now func() time.Time) Option {
	return func(m *DocumentMemory) { m.now = now }
}

// WithIDGenerator overrides the generator used for document and author ids.
func WithIDGenerator(newID func() string) Option {
	return func(m *DocumentMemory) { m.newID = newID }
}

// NewDocumentMemory creates an empty in-memory repository.
func NewDocumentMemory(opts ...Option) *DocumentMemory {
	m := &DocumentMemory{
		docs:  make(map[string]model.Document),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ repository.DocumentRepository = (*DocumentMemory)(nil)

// Save creates the document when it has no id and updates it when the id is known.
func (m *DocumentMemory) Save(_ context.Context, doc *model.Document) (model.Document, error) {
	if doc == nil {
		return model.Document{}, repository.ErrNilDocument
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if doc.ID == "" {
		return m.create(doc), nil
	}
	if old, ok := m.docs[doc.ID]; ok {
		return m.update(old, doc), nil
	}
	return model.Document{}, repository.DocumentNotFound(doc.ID)
}

// create stores a fresh copy of doc. Any author id supplied by the caller is discarded.
func (m *DocumentMemory) create(doc *model.Document) model.Document {
	in := doc.Clone()
	out := model.Document{
		ID:      m.newID(),
		Title:   in.Title,
		Content: in.Content,
		Created: m.now(),
	}
	if in.Author != nil {
		out.Author = &model.Author{ID: m.newID(), Name: in.Author.Name}
	}

	m.docs[out.ID] = out
	m.order = append(m.order, out.ID)
	return out.Clone()
}

// update keeps the stored id, creation time and author id, and takes everything else from doc.
// A nil author on doc clears the author name but keeps the author id.
func (m *DocumentMemory) update(old model.Document, doc *model.Document) model.Document {
	in := doc.Clone()
	author := &model.Author{ID: old.AuthorID()}
	if in.Author != nil {
		author.Name = in.Author.Name
	}
	out := model.Document{
		ID:      old.ID,
		Title:   in.Title,
		Content: in.Content,
		Author:  author,
		Created: old.Created,
	}

	m.docs[out.ID] = out
	return out.Clone()
}

// FindByID returns a copy of the stored document.
func (m *DocumentMemory) FindByID(_ context.Context, id string) (model.Document, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.docs[id]
	if !ok {
		return model.Document{}, false, nil
	}
	return d.Clone(), true, nil
}

// Search returns copies of all documents matching req.
func (m *DocumentMemory) Search(_ context.Context, req model.SearchRequest) ([]model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]model.Document, 0)
	for _, id := range m.order {
		d := m.docs[id]
		if Matches(d, req) {
			items = append(items, d.Clone())
		}
	}
	return items, nil
}

// Count returns the number of stored documents.
func (m *DocumentMemory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs), nil
}

// Matches reports whether d satisfies every constraint in req.
// A nil field tested against a non-empty constraint never matches.
func Matches(d model.Document, req model.SearchRequest) bool {
	return matchesTitlePrefixes(d.Title, req.TitlePrefixes) &&
		matchesContent(d.Content, req.ContainsContents) &&
		matchesAuthor(d.Author, req.AuthorIDs) &&
		matchesCreatedFrom(d.Created, req.CreatedFrom) &&
		matchesCreatedTo(d.Created, req.CreatedTo)
}

func matchesTitlePrefixes(title *string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	if title == nil {
		return false
	}
	return slices.ContainsFunc(prefixes, func(p string) bool {
		return strings.HasPrefix(*title, p)
	})
}

// matchesContent is whole-value membership, not substring search.
func matchesContent(content *string, contents []string) bool {
	if len(contents) == 0 {
		return true
	}
	return content != nil && slices.Contains(contents, *content)
}

func matchesAuthor(author *model.Author, ids []string) bool {
	if len(ids) == 0 {
		return true
	}
	return author != nil && author.ID != "" && slices.Contains(ids, author.ID)
}

func matchesCreatedFrom(created time.Time, from *time.Time) bool {
	if from == nil {
		return true
	}
	return !created.IsZero() && !created.Before(*from)
}

func matchesCreatedTo(created time.Time, to *time.Time) bool {
	if to == nil {
		return true
	}
	return !created.IsZero() && !created.After(*to)
}
