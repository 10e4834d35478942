package mongodb

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"firestore-explorer/internal/explorer/domain/model"
	"firestore-explorer/internal/explorer/domain/repository"
	"firestore-explorer/internal/shared/errors"
	"firestore-explorer/internal/shared/firestore"
	"firestore-explorer/internal/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DocumentsCollection is the Mongo collection holding every explorer document.
const DocumentsCollection = "documents"

const (
	fieldPath   = "_id"
	fieldParent = "parent"
	fieldID     = "id"
)

var _ repository.DocumentStore = (*DocumentStore)(nil)

// documentRecord is the stored shape: one Mongo document per Firestore
// document, keyed by its full path.
type documentRecord struct {
	Path       string                 `bson:"_id"`
	Parent     string                 `bson:"parent"`
	ID         string                 `bson:"id"`
	Data       map[string]interface{} `bson:"data"`
	CreateTime time.Time              `bson:"create_time"`
	UpdateTime time.Time              `bson:"update_time"`
}

func (r *documentRecord) toModel() *model.Document {
	return &model.Document{
		ID:         r.ID,
		Path:       r.Path,
		Data:       normalizeData(r.Data),
		CreateTime: r.CreateTime.UTC(),
		UpdateTime: r.UpdateTime.UTC(),
	}
}

// DocumentStore implements repository.DocumentStore on MongoDB.
type DocumentStore struct {
	col  CollectionInterface
	ping func(ctx context.Context) error
	log  logger.Logger
	now  func() time.Time
}

// NewDocumentStore uses the documents collection of db.
func NewDocumentStore(db *mongo.Database, log logger.Logger) *DocumentStore {
	client := db.Client()
	return NewDocumentStoreWithCollection(
		NewMongoCollectionAdapter(db.Collection(DocumentsCollection)),
		func(ctx context.Context) error { return client.Ping(ctx, nil) },
		log,
	)
}

// NewDocumentStoreWithCollection builds a store over any CollectionInterface.
func NewDocumentStoreWithCollection(col CollectionInterface, ping func(ctx context.Context) error, log logger.Logger) *DocumentStore {
	if log == nil {
		log = logger.NewNop()
	}
	if ping == nil {
		ping = func(ctx context.Context) error { return ctx.Err() }
	}
	return &DocumentStore{
		col:  col,
		ping: ping,
		log:  log.WithComponent("mongodb_document_store"),
		// Mongo keeps millisecond precision.
		now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// EnsureIndexes creates the indexes used by ListDocuments.
func (s *DocumentStore) EnsureIndexes(ctx context.Context) error {
	if err := s.col.EnsureIndexes(ctx); err != nil {
		return infraError("failed to create indexes", err)
	}
	return nil
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

	now := s.now()
	rec := &documentRecord{
		Path:       collectionPath + "/" + documentID,
		Parent:     collectionPath,
		ID:         documentID,
		Data:       nonNil(data),
		CreateTime: now,
		UpdateTime: now,
	}

	if _, err := s.col.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, errors.NewConflictError("document already exists").
				WithCause(errors.ErrDocumentExists).
				WithDetail("path", rec.Path)
		}
		s.log.WithFields(map[string]interface{}{"path": rec.Path, "error": err}).Error("insert failed")
		return nil, infraError("failed to create document", err)
	}
	return rec.toModel(), nil
}

func (s *DocumentStore) SetDocument(ctx context.Context, documentPath string, data map[string]interface{}, merge bool) (*model.Document, error) {
	documentPath, err := firestore.ValidateDocumentPath(documentPath)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec := &documentRecord{
		Path:       documentPath,
		Parent:     firestore.ParentPath(documentPath),
		ID:         firestore.LastSegment(documentPath),
		Data:       nonNil(data),
		CreateTime: now,
		UpdateTime: now,
	}

	existing, err := s.find(ctx, documentPath)
	switch {
	case err == nil:
		rec.CreateTime = existing.CreateTime
		if merge {
			rec.Data = model.MergeData(normalizeData(existing.Data), data)
		}
	case !errors.IsNotFound(err):
		return nil, err
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := s.col.ReplaceOne(ctx, bson.M{fieldPath: documentPath}, rec, opts); err != nil {
		return nil, infraError("failed to write document", err)
	}
	return rec.toModel(), nil
}

func (s *DocumentStore) GetDocument(ctx context.Context, documentPath string) (*model.Document, error) {
	documentPath, err := firestore.ValidateDocumentPath(documentPath)
	if err != nil {
		return nil, err
	}
	rec, err := s.find(ctx, documentPath)
	if err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

func (s *DocumentStore) find(ctx context.Context, documentPath string) (*documentRecord, error) {
	var rec documentRecord
	if err := s.col.FindOne(ctx, bson.M{fieldPath: documentPath}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.NewNotFoundError("document").
				WithCause(errors.ErrDocumentNotFound).
				WithDetail("path", documentPath)
		}
		return nil, infraError("failed to read document", err)
	}
	return &rec, nil
}

func (s *DocumentStore) ListDocuments(ctx context.Context, collectionPath string) ([]*model.Document, error) {
	collectionPath, err := firestore.ValidateCollectionPath(collectionPath)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: fieldID, Value: 1}})
	cur, err := s.col.Find(ctx, bson.M{fieldParent: collectionPath}, opts)
	if err != nil {
		return nil, infraError("failed to list documents", err)
	}
	defer cur.Close(ctx)

	docs := make([]*model.Document, 0)
	for cur.Next(ctx) {
		var rec documentRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, infraError("failed to decode document", err)
		}
		docs = append(docs, rec.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, infraError("cursor error", err)
	}

	// Keep ID order independent of server collation.
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *DocumentStore) DeleteDocument(ctx context.Context, documentPath string) error {
	documentPath, err := firestore.ValidateDocumentPath(documentPath)
	if err != nil {
		return err
	}
	res, err := s.col.DeleteOne(ctx, bson.M{fieldPath: documentPath})
	if err != nil {
		return infraError("failed to delete document", err)
	}
	if res.Deleted() == 0 {
		return errors.NewNotFoundError("document").
			WithCause(errors.ErrDocumentNotFound).
			WithDetail("path", documentPath)
	}
	return nil
}

func (s *DocumentStore) DeleteTree(ctx context.Context, documentPath string) (int, error) {
	documentPath, err := firestore.ValidateDocumentPath(documentPath)
	if err != nil {
		return 0, err
	}
	filter := bson.M{"$or": bson.A{
		bson.M{fieldPath: documentPath},
		descendantsFilter(documentPath),
	}}
	return s.deleteMany(ctx, filter, documentPath)
}

func (s *DocumentStore) DeleteCollection(ctx context.Context, collectionPath string) (int, error) {
	collectionPath, err := firestore.ValidateCollectionPath(collectionPath)
	if err != nil {
		return 0, err
	}
	return s.deleteMany(ctx, descendantsFilter(collectionPath), collectionPath)
}

func (s *DocumentStore) deleteMany(ctx context.Context, filter bson.M, root string) (int, error) {
	res, err := s.col.DeleteMany(ctx, filter)
	if err != nil {
		return 0, infraError("failed to delete documents", err)
	}
	s.log.WithFields(map[string]interface{}{"root": root, "deleted": res.Deleted()}).Debug("deleted subtree")
	return int(res.Deleted()), nil
}

func (s *DocumentStore) ListCollections(ctx context.Context, parentDocumentPath string) ([]string, error) {
	prefix := ""
	filter := bson.M{}
	if strings.Trim(parentDocumentPath, "/") != "" {
		parent, err := firestore.ValidateDocumentPath(parentDocumentPath)
		if err != nil {
			return nil, err
		}
		prefix = parent + "/"
		filter = descendantsFilter(parent)
	}

	parents, err := s.col.Distinct(ctx, fieldParent, filter)
	if err != nil {
		return nil, infraError("failed to list collections", err)
	}
	return collectionIDs(parents, prefix), nil
}

func (s *DocumentStore) Ping(ctx context.Context) error {
	if err := s.ping(ctx); err != nil {
		return infraError("mongodb is unreachable", err)
	}
	return nil
}

// descendantsFilter matches every document whose path lies below root.
func descendantsFilter(root string) bson.M {
	return bson.M{fieldPath: bson.M{"$regex": "^" + regexp.QuoteMeta(root+"/")}}
}

// collectionIDs extracts the first collection ID after prefix from each parent path.
func collectionIDs(parents []interface{}, prefix string) []string {
	seen := make(map[string]struct{})
	for _, p := range parents {
		parent, ok := p.(string)
		if !ok || !strings.HasPrefix(parent, prefix) {
			continue
		}
		rest := strings.TrimPrefix(parent, prefix)
		if i := strings.Index(rest, "/"); i >= 0 {
			rest = rest[:i]
		}
		if rest != "" {
			seen[rest] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func infraError(message string, err error) error {
	return errors.NewInfrastructureError(message).WithCause(err).WithComponent("mongodb")
}

func nonNil(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return map[string]interface{}{}
	}
	return data
}
