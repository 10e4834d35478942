// Package memory provides an in-process DocumentStore used as the default
// backend and as the test double for the explorer use cases.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"firestore-explorer/internal/explorer/domain/model"
	"firestore-explorer/internal/explorer/domain/repository"
	"firestore-explorer/internal/shared/errors"
	"firestore-explorer/internal/shared/firestore"
)

var _ repository.DocumentStore = (*DocumentStore)(nil)

// DocumentStore keeps documents keyed by full path.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*model.Document
	now  func() time.Time
}

// NewDocumentStore returns an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs: make(map[string]*model.Document),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the clock used for create and update times.
func (s *DocumentStore) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *DocumentStore) CreateDocument(ctx context.Context, collectionPath, documentID string, data map[string]interface{}) (*model.Document, error) {
	collectionPath, err := firestore.ValidateCollectionPath(collectionPath)
	if err != nil {
		return nil, err
	}
	if !firestore.IsValidID(documentID) {
		return nil, errors.NewValidationError("invalid document ID").
			WithCause(errors.ErrInvalidDocumentID).
			WithDetail("id", documentID)
	}

	path := collectionPath + "/" + documentID

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[path]; exists {
		return nil, errors.NewConflictError("document already exists").
			WithCause(errors.ErrDocumentExists).
			WithDetail("path", path)
	}

	now := s.now()
	doc := &model.Document{
		ID:         documentID,
		Path:       path,
		Data:       model.CloneData(nonNil(data)),
		CreateTime: now,
		UpdateTime: now,
	}
	s.docs[path] = doc
	return doc.Clone(), nil
}

func (s *DocumentStore) SetDocument(ctx context.Context, documentPath string, data map[string]interface{}, merge bool) (*model.Document, error) {
	documentPath, err := firestore.ValidateDocumentPath(documentPath)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	existing, ok := s.docs[documentPath]
	if !ok {
		doc := &model.Document{
			ID:         firestore.LastSegment(documentPath),
			Path:       documentPath,
			Data:       model.CloneData(nonNil(data)),
			CreateTime: now,
			UpdateTime: now,
		}
		s.docs[documentPath] = doc
		return doc.Clone(), nil
	}

	if merge {
		existing.Data = model.MergeData(existing.Data, data)
	} else {
		existing.Data = model.CloneData(nonNil(data))
	}
	existing.UpdateTime = now
	return existing.Clone(), nil
}

func (s *DocumentStore) GetDocument(ctx context.Context, documentPath string) (*model.Document, error) {
	documentPath, err := firestore.ValidateDocumentPath(documentPath)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[documentPath]
	if !ok {
		return nil, notFound(documentPath)
	}
	return doc.Clone(), nil
}

func (s *DocumentStore) ListDocuments(ctx context.Context, collectionPath string) ([]*model.Document, error) {
	collectionPath, err := firestore.ValidateCollectionPath(collectionPath)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]*model.Document, 0)
	for path, doc := range s.docs {
		if firestore.ParentPath(path) == collectionPath {
			docs = append(docs, doc.Clone())
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *DocumentStore) DeleteDocument(ctx context.Context, documentPath string) error {
	documentPath, err := firestore.ValidateDocumentPath(documentPath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[documentPath]; !ok {
		return notFound(documentPath)
	}
	delete(s.docs, documentPath)
	return nil
}

func (s *DocumentStore) DeleteTree(ctx context.Context, documentPath string) (int, error) {
	documentPath, err := firestore.ValidateDocumentPath(documentPath)
	if err != nil {
		return 0, err
	}
	return s.deleteUnder(documentPath, true), nil
}

func (s *DocumentStore) DeleteCollection(ctx context.Context, collectionPath string) (int, error) {
	collectionPath, err := firestore.ValidateCollectionPath(collectionPath)
	if err != nil {
		return 0, err
	}
	return s.deleteUnder(collectionPath, false), nil
}

// deleteUnder removes every document below root, and root itself when includeRoot is set.
func (s *DocumentStore) deleteUnder(root string, includeRoot bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	prefix := root + "/"
	for path := range s.docs {
		if strings.HasPrefix(path, prefix) || (includeRoot && path == root) {
			delete(s.docs, path)
			deleted++
		}
	}
	return deleted
}

func (s *DocumentStore) ListCollections(ctx context.Context, parentDocumentPath string) ([]string, error) {
	prefix := ""
	if strings.Trim(parentDocumentPath, "/") != "" {
		parent, err := firestore.ValidateDocumentPath(parentDocumentPath)
		if err != nil {
			return nil, err
		}
		prefix = parent + "/"
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for path := range s.docs {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := strings.TrimPrefix(path, prefix)
		id := rest
		if i := strings.Index(rest, "/"); i >= 0 {
			id = rest[:i]
		}
		seen[id] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *DocumentStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len returns the number of stored documents across all collections.
func (s *DocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func notFound(path string) error {
	return errors.NewNotFoundError("document").
		WithCause(errors.ErrDocumentNotFound).
		WithDetail("path", path)
}

func nonNil(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return map[string]interface{}{}
	}
	return data
}
