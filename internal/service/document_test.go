package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"docstore/internal/logging"
	"docstore/internal/model"
	"docstore/internal/repository"
	"docstore/internal/repository/memory"
	repoMocks "docstore/internal/repository/mocks"
	"docstore/internal/storage"
	storeMocks "docstore/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestDocumentService_Save(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		doc        *model.Document
		setupMocks func(mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
		wantID     string
	}{
		{
			name: "create",
			doc:  &model.Document{Title: strPtr("t")},
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("Save", mock.Anything, mock.MatchedBy(func(d *model.Document) bool {
					return d.ID == "" && *d.Title == "t"
				})).Return(model.Document{ID: "gen-id", Title: strPtr("t")}, nil)
			},
			wantID: "gen-id",
		},
		{
			name: "update",
			doc:  &model.Document{ID: "existing", Title: strPtr("t2")},
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("Save", mock.Anything, mock.Anything).
					Return(model.Document{ID: "existing", Title: strPtr("t2")}, nil)
			},
			wantID: "existing",
		},
		{
			name: "nil document passes repository error through",
			doc:  nil,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("Save", mock.Anything, (*model.Document)(nil)).
					Return(model.Document{}, repository.ErrNilDocument)
			},
			wantErr: repository.ErrNilDocument,
		},
		{
			name: "unknown id passes repository error through",
			doc:  &model.Document{ID: "missing"},
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("Save", mock.Anything, mock.Anything).
					Return(model.Document{}, repository.DocumentNotFound("missing"))
			},
			wantErr: repository.ErrDocumentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(nil, mRepo, WithLogger(logging.Discard()))

			tt.setupMocks(mRepo)

			doc, err := svc.Save(ctx, tt.doc)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, repository.ErrInvalidArgument)
				assert.Nil(t, doc)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, doc.ID)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
	}{
		{
			name: "happy path",
			id:   "valid-id",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", mock.Anything, "valid-id").Return(model.Document{ID: "valid-id"}, true, nil)
			},
		},
		{
			name:       "validation - empty id",
			id:         "",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {},
			wantErr:    ErrIDRequired,
		},
		{
			name: "not found",
			id:   "missing-id",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", mock.Anything, "missing-id").Return(model.Document{}, false, nil)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "generic repository error",
			id:   "error-id",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", mock.Anything, "error-id").Return(model.Document{}, false, errors.New("boom"))
			},
			wantErr: errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(nil, mRepo, WithLogger(logging.Discard()))

			tt.setupMocks(mRepo)

			doc, err := svc.Get(ctx, tt.id)

			if tt.wantErr != nil {
				if errors.Is(tt.wantErr, ErrIDRequired) || errors.Is(tt.wantErr, ErrNotFound) {
					assert.ErrorIs(t, err, tt.wantErr)
					assert.Contains(t, err.Error(), tt.id)
				} else {
					assert.EqualError(t, err, tt.wantErr.Error())
				}
				assert.Nil(t, doc)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.id, doc.ID)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Search(t *testing.T) {
	ctx := context.Background()
	req := model.SearchRequest{TitlePrefixes: []string{"Go"}}

	tests := []struct {
		name       string
		setupMocks func(mRepo *repoMocks.MockDocumentRepository)
		wantErr    bool
		wantTotal  int
	}{
		{
			name: "happy path",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("Search", mock.Anything, req).
					Return([]model.Document{{ID: "1"}, {ID: "2"}}, nil)
			},
			wantTotal: 2,
		},
		{
			name: "nil result becomes empty list",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("Search", mock.Anything, req).Return(nil, nil)
			},
			wantTotal: 0,
		},
		{
			name: "repository error",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("Search", mock.Anything, req).Return(nil, errors.New("boom"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(nil, mRepo, WithLogger(logging.Discard()))

			tt.setupMocks(mRepo)

			res, err := svc.Search(ctx, req)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, res.Items)
				assert.Len(t, res.Items, tt.wantTotal)
				assert.Equal(t, tt.wantTotal, res.Total)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Count(t *testing.T) {
	mRepo := new(repoMocks.MockDocumentRepository)
	mRepo.On("Count", mock.Anything).Return(3, nil)
	svc := NewDocumentService(nil, mRepo)

	n, err := svc.Count(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	mRepo.AssertExpectations(t)
}

func TestDocumentService_Export(t *testing.T) {
	ctx := context.Background()
	req := model.SearchRequest{ContainsContents: []string{"x"}}
	docs := []model.Document{{ID: "1"}, {ID: "2"}}
	isExportKey := mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "exports/") && strings.HasSuffix(key, ".json")
	})

	tests := []struct {
		name       string
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository)
		wantErrMsg string
	}{
		{
			name: "happy path",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("Search", mock.Anything, req).Return(docs, nil)
				mStore.On("Put", mock.Anything, isExportKey, mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
					return opt.ContentType == "application/json" && opt.Metadata["document-count"] == "2" && opt.Size > 0
				})).Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
					var got []model.Document
					_ = json.NewDecoder(r).Decode(&got)
					if len(got) != 2 {
						return storage.ObjectInfo{}
					}
					return storage.ObjectInfo{Key: key, Size: opt.Size}
				}, nil)
				mStore.On("PresignGet", mock.Anything, isExportKey, 5*time.Minute).Return("https://minio.local/export", nil)
			},
		},
		{
			name: "repository error",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("Search", mock.Anything, req).Return(nil, errors.New("boom"))
			},
			wantErrMsg: "boom",
		},
		{
			name: "storage error",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("Search", mock.Anything, req).Return(docs, nil)
				mStore.On("Put", mock.Anything, isExportKey, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
			},
			wantErrMsg: "upload export: storage fail",
		},
		{
			name: "presign error with successful rollback",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("Search", mock.Anything, req).Return(docs, nil)
				mStore.On("Put", mock.Anything, isExportKey, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, nil)
				mStore.On("PresignGet", mock.Anything, isExportKey, 5*time.Minute).Return("", errors.New("presign fail"))
				mStore.On("Delete", mock.Anything, isExportKey).Return(nil)
			},
			wantErrMsg: "presign export: presign fail",
		},
		{
			name: "presign error with failed rollback",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("Search", mock.Anything, req).Return(docs, nil)
				mStore.On("Put", mock.Anything, isExportKey, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, nil)
				mStore.On("PresignGet", mock.Anything, isExportKey, 5*time.Minute).Return("", errors.New("presign fail"))
				mStore.On("Delete", mock.Anything, isExportKey).Return(errors.New("delete fail"))
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(mStore, mRepo,
				WithLogger(logging.Discard()),
				WithExportExpiry(5*time.Minute),
			)

			tt.setupMocks(mStore, mRepo)

			res, err := svc.Export(ctx, req)

			if tt.wantErrMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.Equal(t, 2, res.Count)
				assert.Equal(t, "https://minio.local/export", res.URL)
				assert.True(t, strings.HasPrefix(res.Key, "exports/"))
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_ExportDisabled(t *testing.T) {
	mRepo := new(repoMocks.MockDocumentRepository)
	svc := NewDocumentService(nil, mRepo)

	res, err := svc.Export(context.Background(), model.SearchRequest{})

	assert.ErrorIs(t, err, ErrExportDisabled)
	assert.Nil(t, res)
	mRepo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

// Round trip through the real in-memory repository.
func TestDocumentService_WithMemoryRepository(t *testing.T) {
	ctx := context.Background()
	svc := NewDocumentService(nil, memory.NewDocumentMemory(), WithLogger(logging.Discard()))

	saved, err := svc.Save(ctx, &model.Document{
		Title:   strPtr("Effective Go"),
		Content: strPtr("formatting, commentary, names"),
		Author:  &model.Author{Name: strPtr("The Go Authors")},
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	res, err := svc.Search(ctx, model.SearchRequest{AuthorIDs: []string{saved.Author.ID}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	_, err = svc.Save(ctx, &model.Document{ID: "not-there"})
	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)
}
