package model

import (
	"time"

	"firestore-explorer/internal/shared/firestore"
)

// CollectionRef identifies a collection by its path.
type CollectionRef struct {
	Path string `json:"path"`
}

// NewCollectionRef validates path and returns a reference.
func NewCollectionRef(path string) (CollectionRef, error) {
	p, err := firestore.ValidateCollectionPath(path)
	if err != nil {
		return CollectionRef{}, err
	}
	return CollectionRef{Path: p}, nil
}

// ID returns the last segment of the path.
func (c CollectionRef) ID() string {
	return firestore.LastSegment(c.Path)
}

// ParentDocument returns the document owning a subcollection, "" for root collections.
func (c CollectionRef) ParentDocument() string {
	return firestore.ParentPath(c.Path)
}

// Doc returns the path of a document inside the collection.
func (c CollectionRef) Doc(id string) string {
	return c.Path + "/" + id
}

// CollectionSnapshot is the rendered state of a collection view.
type CollectionSnapshot struct {
	CollectionPath string      `json:"collectionPath"`
	Documents      []*Document `json:"documents"`
	// TotalCount is the number of documents before the view was applied.
	TotalCount int         `json:"totalCount"`
	View       ViewOptions `json:"view"`
	ReadTime   time.Time   `json:"readTime"`
}

// DocumentIDs lists the IDs of the visible documents in order.
func (s *CollectionSnapshot) DocumentIDs() []string {
	ids := make([]string, len(s.Documents))
	for i, d := range s.Documents {
		ids[i] = d.ID
	}
	return ids
}
