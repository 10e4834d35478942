package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "firestore-explorer/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MockCollection is a testify mock of CollectionInterface.
type MockCollection struct {
	mock.Mock
}

func (m *MockCollection) InsertOne(ctx context.Context, doc interface{}) (interface{}, error) {
	args := m.Called(ctx, doc)
	return args.Get(0), args.Error(1)
}

func (m *MockCollection) FindOne(ctx context.Context, filter interface{}) SingleResultInterface {
	return m.Called(ctx, filter).Get(0).(SingleResultInterface)
}

func (m *MockCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (CursorInterface, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(CursorInterface), args.Error(1)
}

func (m *MockCollection) ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (UpdateResultInterface, error) {
	args := m.Called(ctx, filter, replacement)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(UpdateResultInterface), args.Error(1)
}

func (m *MockCollection) DeleteOne(ctx context.Context, filter interface{}) (DeleteResultInterface, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(DeleteResultInterface), args.Error(1)
}

func (m *MockCollection) DeleteMany(ctx context.Context, filter interface{}) (DeleteResultInterface, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(DeleteResultInterface), args.Error(1)
}

func (m *MockCollection) Distinct(ctx context.Context, fieldName string, filter interface{}) ([]interface{}, error) {
	args := m.Called(ctx, fieldName, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interface{}), args.Error(1)
}

func (m *MockCollection) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type fakeSingleResult struct {
	rec *documentRecord
	err error
}

func (r *fakeSingleResult) Decode(v interface{}) error {
	if r.err != nil {
		return r.err
	}
	*v.(*documentRecord) = *r.rec
	return nil
}

type fakeCursor struct {
	recs []documentRecord
	pos  int
}

func (c *fakeCursor) Next(ctx context.Context) bool {
	c.pos++
	return c.pos <= len(c.recs)
}

func (c *fakeCursor) Decode(val interface{}) error {
	*val.(*documentRecord) = c.recs[c.pos-1]
	return nil
}

func (c *fakeCursor) Close(ctx context.Context) error { return nil }
func (c *fakeCursor) Err() error                      { return nil }

func newMockedStore() (*DocumentStore, *MockCollection) {
	col := new(MockCollection)
	return NewDocumentStoreWithCollection(col, nil, nil), col
}

func TestCreateDocument_Insert(t *testing.T) {
	store, col := newMockedStore()
	col.On("InsertOne", mock.Anything, mock.MatchedBy(func(rec *documentRecord) bool {
		return rec.Path == "coll/@#$" && rec.Parent == "coll" && rec.ID == "@#$"
	})).Return("coll/@#$", nil)

	doc, err := store.CreateDocument(context.Background(), "coll", "@#$", map[string]interface{}{"foo": "bar"})
	require.NoError(t, err)
	assert.Equal(t, "coll/@#$", doc.Path)
	assert.Equal(t, "bar", doc.Data["foo"])
	col.AssertExpectations(t)
}

func TestCreateDocument_DuplicateKey(t *testing.T) {
	store, col := newMockedStore()
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "duplicate key"}}}
	col.On("InsertOne", mock.Anything, mock.Anything).Return(nil, dup)

	_, err := store.CreateDocument(context.Background(), "coll", "a", nil)
	assert.True(t, apperrors.IsConflict(err))
	assert.ErrorIs(t, err, apperrors.ErrDocumentExists)
}

func TestCreateDocument_InfrastructureError(t *testing.T) {
	store, col := newMockedStore()
	col.On("InsertOne", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	_, err := store.CreateDocument(context.Background(), "coll", "a", nil)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeInfrastructure, appErr.Type)
}

func TestGetDocument_NotFound(t *testing.T) {
	store, col := newMockedStore()
	col.On("FindOne", mock.Anything, bson.M{"_id": "coll/a"}).Return(&fakeSingleResult{err: mongo.ErrNoDocuments})

	_, err := store.GetDocument(context.Background(), "coll/a")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSetDocument_MergeKeepsCreateTime(t *testing.T) {
	store, col := newMockedStore()
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	col.On("FindOne", mock.Anything, bson.M{"_id": "coll/a"}).Return(&fakeSingleResult{rec: &documentRecord{
		Path: "coll/a", Parent: "coll", ID: "a",
		Data:       map[string]interface{}{"x": int32(1), "m": primitive.D{{Key: "k", Value: "v"}}},
		CreateTime: created,
	}})
	col.On("ReplaceOne", mock.Anything, bson.M{"_id": "coll/a"}, mock.Anything).Return(&mongoUpdateResult{matched: 1}, nil)

	doc, err := store.SetDocument(context.Background(), "coll/a", map[string]interface{}{"m": map[string]interface{}{"j": "w"}}, true)
	require.NoError(t, err)
	assert.Equal(t, created, doc.CreateTime)
	assert.Equal(t, map[string]interface{}{
		"x": int64(1),
		"m": map[string]interface{}{"k": "v", "j": "w"},
	}, doc.Data)
}

func TestListDocuments_SortsByID(t *testing.T) {
	store, col := newMockedStore()
	col.On("Find", mock.Anything, bson.M{"parent": "coll"}).Return(&fakeCursor{recs: []documentRecord{
		{Path: "coll/z", ID: "z", Parent: "coll"},
		{Path: "coll/a", ID: "a", Parent: "coll"},
	}}, nil)

	docs, err := store.ListDocuments(context.Background(), "coll")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "z", docs[1].ID)
}

func TestDeleteCollection_EscapesPrefix(t *testing.T) {
	store, col := newMockedStore()
	col.On("DeleteMany", mock.Anything, bson.M{"_id": bson.M{"$regex": `^users/a\.b/posts/`}}).
		Return(&mongoDeleteResult{deleted: 2}, nil)

	n, err := store.DeleteCollection(context.Background(), "users/a.b/posts")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = store.DeleteCollection(context.Background(), "users/a.b")
	assert.ErrorIs(t, err, apperrors.ErrInvalidPath)
	col.AssertNumberOfCalls(t, "DeleteMany", 1)
}

func TestDeleteCollection_Counts(t *testing.T) {
	store, col := newMockedStore()
	col.On("DeleteMany", mock.Anything, bson.M{"_id": bson.M{"$regex": `^coll/`}}).
		Return(&mongoDeleteResult{deleted: 4}, nil)

	n, err := store.DeleteCollection(context.Background(), "coll")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestDeleteDocument_Missing(t *testing.T) {
	store, col := newMockedStore()
	col.On("DeleteOne", mock.Anything, bson.M{"_id": "coll/a"}).Return(&mongoDeleteResult{deleted: 0}, nil)

	err := store.DeleteDocument(context.Background(), "coll/a")
	assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
}

func TestListCollections_FromParents(t *testing.T) {
	store, col := newMockedStore()
	col.On("Distinct", mock.Anything, "parent", bson.M{}).
		Return([]interface{}{"users", "users/a/posts", "orders"}, nil)
	col.On("Distinct", mock.Anything, "parent", bson.M{"_id": bson.M{"$regex": `^users/a/`}}).
		Return([]interface{}{"users/a/posts", "users/a/posts/p1/comments", "users/a/likes"}, nil)

	root, err := store.ListCollections(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, root)

	sub, err := store.ListCollections(context.Background(), "users/a")
	require.NoError(t, err)
	assert.Equal(t, []string{"likes", "posts"}, sub)
}

func TestNormalizeValue(t *testing.T) {
	when := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	in := map[string]interface{}{
		"d":   primitive.D{{Key: "a", Value: primitive.A{int32(1), "x"}}},
		"m":   primitive.M{"t": primitive.NewDateTimeFromTime(when)},
		"b":   primitive.Binary{Data: []byte("hi")},
		"nil": primitive.Null{},
		"f":   2.5,
	}

	assert.Equal(t, map[string]interface{}{
		"d":   map[string]interface{}{"a": []interface{}{int64(1), "x"}},
		"m":   map[string]interface{}{"t": when},
		"b":   []byte("hi"),
		"nil": nil,
		"f":   2.5,
	}, normalizeData(in))
}
