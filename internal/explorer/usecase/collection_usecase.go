package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"firestore-explorer/internal/explorer/domain/model"
	"firestore-explorer/internal/explorer/domain/repository"
	"firestore-explorer/internal/explorer/domain/service"
	"firestore-explorer/internal/shared/errors"
	"firestore-explorer/internal/shared/eventbus"
	"firestore-explorer/internal/shared/firestore"
	"firestore-explorer/internal/shared/logger"

	"github.com/google/uuid"
)

const (
	// AutoIDLength matches the length of Firestore auto-generated IDs.
	AutoIDLength = 20

	eventSource       = "collection_usecase"
	maxAutoIDAttempts = 3
	defaultEventCount = 100
)

// CollectionUsecase is the explorer's collection view and its write operations.
type CollectionUsecase interface {
	LoadCollection(ctx context.Context, req LoadCollectionRequest) (*model.CollectionSnapshot, error)
	CreateDocument(ctx context.Context, req CreateDocumentRequest) (*CreateDocumentResponse, error)
	GetDocument(ctx context.Context, documentPath string) (*model.Document, error)
	SetDocument(ctx context.Context, req SetDocumentRequest) (*model.Document, error)
	DeleteDocument(ctx context.Context, req DeleteDocumentRequest, confirmer repository.Confirmer) (*DeleteResult, error)
	DeleteCollection(ctx context.Context, collectionPath string, confirmer repository.Confirmer) (*DeleteResult, error)
	ListCollections(ctx context.Context, parentDocumentPath string) ([]string, error)
	SeedDocuments(ctx context.Context, docs []SeedDocument) (*SeedResult, error)
	ListChanges(ctx context.Context, since model.ResumeToken, count int64) ([]model.ChangeEvent, error)
}

// Options configures NewCollectionUsecase.
type Options struct {
	// RoutePrefix is prepended to redirect routes, e.g. "/firestore/data".
	RoutePrefix string
	// EventStore is optional; without it ListChanges fails with ErrEventStoreDisabled.
	EventStore repository.EventStore
	// Now overrides the clock for snapshot read times.
	Now func() time.Time
	// NewID overrides auto ID generation.
	NewID func() string
}

type collectionUsecaseImpl struct {
	store       repository.DocumentStore
	views       *service.ViewService
	bus         eventbus.Bus
	events      repository.EventStore
	routePrefix string
	now         func() time.Time
	newID       func() string
	log         logger.Logger
}

// NewCollectionUsecase wires the use cases. bus may be nil.
func NewCollectionUsecase(store repository.DocumentStore, views *service.ViewService, bus eventbus.Bus, log logger.Logger, opts Options) CollectionUsecase {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = NewAutoID
	}
	return &collectionUsecaseImpl{
		store:       store,
		views:       views,
		bus:         bus,
		events:      opts.EventStore,
		routePrefix: opts.RoutePrefix,
		now:         opts.Now,
		newID:       opts.NewID,
		log:         log.WithComponent("collection_usecase"),
	}
}

// NewAutoID returns a 20 character alphanumeric document ID.
func NewAutoID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:AutoIDLength]
}

// LoadCollection lists the collection in natural (ID) order and applies the view.
func (uc *collectionUsecaseImpl) LoadCollection(ctx context.Context, req LoadCollectionRequest) (*model.CollectionSnapshot, error) {
	ref, err := model.NewCollectionRef(req.CollectionPath)
	if err != nil {
		return nil, err
	}
	if err := req.View.Validate(); err != nil {
		return nil, err
	}

	docs, err := uc.store.ListDocuments(ctx, ref.Path)
	if err != nil {
		return nil, err
	}
	return buildSnapshot(uc.views, ref.Path, docs, req.View, uc.now())
}

// buildSnapshot applies view to docs. TotalCount is the unfiltered size.
func buildSnapshot(views *service.ViewService, collectionPath string, docs []*model.Document, view model.ViewOptions, readTime time.Time) (*model.CollectionSnapshot, error) {
	visible, err := views.ApplyView(docs, view)
	if err != nil {
		return nil, err
	}
	return &model.CollectionSnapshot{
		CollectionPath: collectionPath,
		Documents:      visible,
		TotalCount:     len(docs),
		View:           view,
		ReadTime:       readTime,
	}, nil
}

// CreateDocument stores the document and returns the route of its page.
func (uc *collectionUsecaseImpl) CreateDocument(ctx context.Context, req CreateDocumentRequest) (*CreateDocumentResponse, error) {
	ref, err := model.NewCollectionRef(req.CollectionPath)
	if err != nil {
		return nil, err
	}

	var doc *model.Document
	if req.DocumentID != "" {
		doc, err = uc.store.CreateDocument(ctx, ref.Path, req.DocumentID, req.Data)
	} else {
		// Auto IDs may collide in theory; retry with a fresh one.
		for attempt := 0; attempt < maxAutoIDAttempts; attempt++ {
			doc, err = uc.store.CreateDocument(ctx, ref.Path, uc.newID(), req.Data)
			if !errors.IsConflict(err) {
				break
			}
		}
	}
	if err != nil {
		return nil, err
	}

	uc.log.WithContext(ctx).WithFields(map[string]interface{}{
		"collection": ref.Path,
		"document":   doc.ID,
	}).Info("Document created")

	uc.publish(ctx, eventbus.EventTypeDocumentCreated, model.ChangeEvent{
		Type:           model.ChangeCreated,
		Path:           doc.Path,
		CollectionPath: ref.Path,
		Data:           doc.Data,
		Timestamp:      doc.CreateTime,
	})

	return &CreateDocumentResponse{
		Document: doc,
		Redirect: firestore.DocumentRoute(uc.routePrefix, ref.Path, doc.ID),
	}, nil
}

func (uc *collectionUsecaseImpl) GetDocument(ctx context.Context, documentPath string) (*model.Document, error) {
	return uc.store.GetDocument(ctx, documentPath)
}

// SetDocument creates or overwrites a document, merging when requested.
func (uc *collectionUsecaseImpl) SetDocument(ctx context.Context, req SetDocumentRequest) (*model.Document, error) {
	path, err := firestore.ValidateDocumentPath(req.DocumentPath)
	if err != nil {
		return nil, err
	}

	doc, err := uc.store.SetDocument(ctx, path, req.Data, req.Merge)
	if err != nil {
		return nil, err
	}

	changeType, eventType := model.ChangeUpdated, eventbus.EventTypeDocumentUpdated
	if doc.CreateTime.Equal(doc.UpdateTime) {
		changeType, eventType = model.ChangeCreated, eventbus.EventTypeDocumentCreated
	}
	uc.publish(ctx, eventType, model.ChangeEvent{
		Type:           changeType,
		Path:           doc.Path,
		CollectionPath: doc.CollectionPath(),
		Data:           doc.Data,
		Timestamp:      doc.UpdateTime,
	})
	return doc, nil
}

// DeleteDocument removes a document after confirmation.
func (uc *collectionUsecaseImpl) DeleteDocument(ctx context.Context, req DeleteDocumentRequest, confirmer repository.Confirmer) (*DeleteResult, error) {
	path, err := firestore.ValidateDocumentPath(req.DocumentPath)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("Delete document %s?", path)
	if req.Recursive {
		prompt = fmt.Sprintf("Delete document %s and all of its subcollections?", path)
	}
	if err := uc.confirm(ctx, confirmer, prompt, path); err != nil {
		return nil, err
	}

	deleted := 1
	if req.Recursive {
		deleted, err = uc.store.DeleteTree(ctx, path)
	} else {
		err = uc.store.DeleteDocument(ctx, path)
	}
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, eventbus.EventTypeDocumentDeleted, model.ChangeEvent{
		Type:           model.ChangeDeleted,
		Path:           path,
		CollectionPath: firestore.ParentPath(path),
		Count:          deleted,
		Timestamp:      uc.now(),
	})
	return &DeleteResult{Path: path, Deleted: deleted}, nil
}

// DeleteCollection asks confirmer first; a refusal removes nothing. A
// confirmed delete removes the collection's documents and every nested
// subcollection.
func (uc *collectionUsecaseImpl) DeleteCollection(ctx context.Context, collectionPath string, confirmer repository.Confirmer) (*DeleteResult, error) {
	ref, err := model.NewCollectionRef(collectionPath)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("Delete collection %s and all nested documents?", ref.Path)
	if err := uc.confirm(ctx, confirmer, prompt, ref.Path); err != nil {
		return nil, err
	}

	deleted, err := uc.store.DeleteCollection(ctx, ref.Path)
	if err != nil {
		return nil, err
	}

	uc.log.WithContext(ctx).WithFields(map[string]interface{}{
		"collection": ref.Path,
		"deleted":    deleted,
	}).Info("Collection deleted")

	uc.publish(ctx, eventbus.EventTypeCollectionDeleted, model.ChangeEvent{
		Type:           model.ChangeCollectionDeleted,
		Path:           ref.Path,
		CollectionPath: ref.Path,
		Count:          deleted,
		Timestamp:      uc.now(),
	})
	return &DeleteResult{Path: ref.Path, Deleted: deleted}, nil
}

func (uc *collectionUsecaseImpl) confirm(ctx context.Context, confirmer repository.Confirmer, prompt, path string) error {
	if confirmer == nil {
		return notConfirmed(path)
	}
	ok, err := confirmer.Confirm(ctx, prompt)
	if err != nil {
		return errors.WrapError(err, "confirmation failed")
	}
	if !ok {
		uc.log.WithContext(ctx).WithFields(map[string]interface{}{"path": path}).Info("Delete not confirmed")
		return notConfirmed(path)
	}
	return nil
}

func notConfirmed(path string) error {
	return errors.NewPreconditionError("delete requires confirmation").
		WithCause(errors.ErrDeleteNotConfirmed).
		WithDetail("path", path)
}

func (uc *collectionUsecaseImpl) ListCollections(ctx context.Context, parentDocumentPath string) ([]string, error) {
	return uc.store.ListCollections(ctx, parentDocumentPath)
}

// SeedDocuments writes docs in order, replacing existing documents.
func (uc *collectionUsecaseImpl) SeedDocuments(ctx context.Context, docs []SeedDocument) (*SeedResult, error) {
	result := &SeedResult{Paths: make([]string, 0, len(docs))}
	for _, d := range docs {
		doc, err := uc.SetDocument(ctx, SetDocumentRequest{DocumentPath: d.Path, Data: d.Data})
		if err != nil {
			return result, err
		}
		result.Written++
		result.Paths = append(result.Paths, doc.Path)
	}
	uc.log.WithContext(ctx).Infof("Seeded %d documents", result.Written)
	return result, nil
}

// ListChanges returns recorded change events after since.
func (uc *collectionUsecaseImpl) ListChanges(ctx context.Context, since model.ResumeToken, count int64) ([]model.ChangeEvent, error) {
	if uc.events == nil {
		return nil, errors.NewPreconditionError("change history is not enabled").WithCause(errors.ErrEventStoreDisabled)
	}
	if count <= 0 {
		count = defaultEventCount
	}
	return uc.events.GetEventsSince(ctx, since, count)
}

// publish sends a change on the bus. Handler failures are logged, the write has already happened.
func (uc *collectionUsecaseImpl) publish(ctx context.Context, eventType string, change model.ChangeEvent) {
	if uc.bus == nil {
		return
	}
	if err := uc.bus.Publish(ctx, eventbus.NewEvent(eventType, change, eventSource)); err != nil {
		uc.log.WithContext(ctx).WithFields(map[string]interface{}{
			"eventType": eventType,
			"path":      change.Path,
			"error":     err,
		}).Warn("Change event handler failed")
	}
}
