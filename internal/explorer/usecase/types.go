package usecase

import (
	"firestore-explorer/internal/explorer/domain/model"
)

// LoadCollectionRequest fetches a collection and applies a view to it.
type LoadCollectionRequest struct {
	CollectionPath string            `json:"collectionPath" validate:"required"`
	View           model.ViewOptions `json:"view"`
}

// CreateDocumentRequest adds a document. An empty DocumentID asks for an auto ID.
type CreateDocumentRequest struct {
	CollectionPath string                 `json:"collectionPath" validate:"required"`
	DocumentID     string                 `json:"id,omitempty"`
	Data           map[string]interface{} `json:"data"`
}

// CreateDocumentResponse carries the new document and the route the UI navigates to.
type CreateDocumentResponse struct {
	Document *model.Document `json:"document"`
	Redirect string          `json:"redirect"`
}

type SetDocumentRequest struct {
	DocumentPath string                 `json:"documentPath" validate:"required"`
	Data         map[string]interface{} `json:"data"`
	Merge        bool                   `json:"merge,omitempty"`
}

// DeleteDocumentRequest removes a document; Recursive also removes its subcollections.
type DeleteDocumentRequest struct {
	DocumentPath string `json:"documentPath" validate:"required"`
	Recursive    bool   `json:"recursive,omitempty"`
}

// DeleteResult reports what a confirmed delete removed.
type DeleteResult struct {
	Path    string `json:"path"`
	Deleted int    `json:"deleted"`
}

// SeedDocument is one document written by SeedDocuments.
type SeedDocument struct {
	Path string                 `json:"path"`
	Data map[string]interface{} `json:"data"`
}

// SeedResult summarizes a seed run.
type SeedResult struct {
	Written int      `json:"written"`
	Paths   []string `json:"paths"`
}
