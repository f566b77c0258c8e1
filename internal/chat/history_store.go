package chat

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"finassist/internal/models"
)

// HistoryStore persists completed chat turns to MongoDB.
type HistoryStore struct {
	collection *mongo.Collection
}

// NewHistoryStore creates a HistoryStore writing to the given database and
// collection.
func NewHistoryStore(db *mongo.Database, collectionName string) *HistoryStore {
	return &HistoryStore{
		collection: db.Collection(collectionName),
	}
}

// Save inserts one chat record. Callers treat failures as non-fatal.
func (s *HistoryStore) Save(ctx context.Context, record *models.ChatRecord) error {
	_, err := s.collection.InsertOne(ctx, record)
	return err
}
