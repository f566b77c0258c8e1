package dal

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"finassist/internal/models"
	"finassist/internal/rag/interfaces"
)

// DocumentDAL provides data access methods for document metadata records.
type DocumentDAL struct {
	db *gorm.DB
}

// NewDocumentDAL creates a new DocumentDAL.
func NewDocumentDAL(db *gorm.DB) *DocumentDAL {
	return &DocumentDAL{db: db}
}

// Create inserts a new document metadata record.
func (dal *DocumentDAL) Create(ctx context.Context, id, filename, vectorID string) error {
	doc := &models.Document{
		ID:       id,
		Filename: filename,
		VectorID: vectorID,
	}
	return dal.db.WithContext(ctx).Create(doc).Error
}

// ExistsByFilename reports whether a document with the given filename has
// already been ingested.
func (dal *DocumentDAL) ExistsByFilename(ctx context.Context, filename string) (bool, error) {
	var doc models.Document
	err := dal.db.WithContext(ctx).Where("filename = ?", filename).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListFilenames returns the filenames of all ingested documents.
func (dal *DocumentDAL) ListFilenames(ctx context.Context) ([]string, error) {
	var filenames []string
	err := dal.db.WithContext(ctx).
		Model(&models.Document{}).
		Pluck("filename", &filenames).Error
	if err != nil {
		return nil, err
	}
	return filenames, nil
}

// GetByID retrieves a document record by id. It returns nil when no record
// exists.
func (dal *DocumentDAL) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := dal.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// compile-time check to ensure DocumentDAL implements the DocumentStore interface
var _ interfaces.DocumentStore = (*DocumentDAL)(nil)
