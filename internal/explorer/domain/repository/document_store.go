package repository

import (
	"context"

	"firestore-explorer/internal/explorer/domain/model"
)

// DocumentStore is the persistence contract the explorer needs from the backing store.
// Paths are relative to the database root, e.g. "users/alice/posts".
type DocumentStore interface {
	// CreateDocument inserts a new document and fails with ErrDocumentExists if the ID is taken.
	CreateDocument(ctx context.Context, collectionPath, documentID string, data map[string]interface{}) (*model.Document, error)
	// SetDocument creates or replaces a document; with merge the data is merged into existing fields.
	SetDocument(ctx context.Context, documentPath string, data map[string]interface{}, merge bool) (*model.Document, error)
	GetDocument(ctx context.Context, documentPath string) (*model.Document, error)
	// ListDocuments returns the documents of a collection ordered by ID.
	ListDocuments(ctx context.Context, collectionPath string) ([]*model.Document, error)
	DeleteDocument(ctx context.Context, documentPath string) error
	// DeleteTree removes a document and every document nested under its subcollections.
	DeleteTree(ctx context.Context, documentPath string) (int, error)
	// DeleteCollection removes every document in the collection and its nested subcollections.
	DeleteCollection(ctx context.Context, collectionPath string) (int, error)
	// ListCollections returns the IDs of the collections directly under parentDocumentPath ("" for root).
	ListCollections(ctx context.Context, parentDocumentPath string) ([]string, error)
	Ping(ctx context.Context) error
}
