package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"firestore-explorer/internal/explorer"
	"firestore-explorer/internal/explorer/config"
	"firestore-explorer/internal/explorer/usecase"
	apperrors "firestore-explorer/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// sharedModule keeps one in-memory module across invocations, the way a
// persistent backend would.
func sharedModule(t *testing.T, cfg *config.ExplorerConfig) (*explorer.ExplorerModule, Options) {
	t.Helper()
	m, err := explorer.NewExplorerModule(cfg, nil, explorer.Dependencies{})
	require.NoError(t, err)
	return m, Options{
		Open: func(ctx context.Context) (*explorer.ExplorerModule, func() error, error) {
			return m, func() error { return nil }, nil
		},
	}
}

func run(t *testing.T, opts Options, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seedUsers(t *testing.T, m *explorer.ExplorerModule) {
	t.Helper()
	for id, age := range map[string]int64{"alice": 30, "bob": 17, "carol": 45} {
		_, err := m.Collections.CreateDocument(context.Background(), usecase.CreateDocumentRequest{
			CollectionPath: "users",
			DocumentID:     id,
			Data:           map[string]interface{}{"age": age},
		})
		require.NoError(t, err)
	}
}

func TestList_RootCollections(t *testing.T) {
	m, opts := sharedModule(t, nil)
	seedUsers(t, m)

	out, err := run(t, opts, "", "ls")
	require.NoError(t, err)
	assert.Equal(t, "users\n", out)
}

func TestList_CollectionWithView(t *testing.T) {
	m, opts := sharedModule(t, nil)
	seedUsers(t, m)

	out, err := run(t, opts, "", "ls", "users", "--field", "age", "--op", ">=", "--value", "18")
	require.NoError(t, err)
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "carol")
	assert.NotContains(t, out, "bob")
	assert.Contains(t, out, "2 of 3 documents")

	out, err = run(t, opts, "", "ls", "users", "--field", "age", "--op", "sort", "--direction", "desc", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "carol")
	assert.Contains(t, out, "1 of 3 documents")
}

func TestList_InvalidView(t *testing.T) {
	m, opts := sharedModule(t, nil)
	seedUsers(t, m)

	_, err := run(t, opts, "", "ls", "users", "--expr", "doc.(")
	assert.ErrorIs(t, err, apperrors.ErrInvalidFilter)
}

func TestList_Subcollections(t *testing.T) {
	_, opts := sharedModule(t, nil)

	_, err := run(t, opts, "", "add", "users/alice/posts", "--id", "p1", "--data", `{"title": "hi"}`)
	require.NoError(t, err)

	out, err := run(t, opts, "", "ls", "users/alice")
	require.NoError(t, err)
	assert.Equal(t, "posts\n", out)
}

func TestAdd_PrintsRedirect(t *testing.T) {
	m, opts := sharedModule(t, nil)

	out, err := run(t, opts, "", "add", "users", "--id", "@#$", "--data", `{"n": 1}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Created users/@#$")
	assert.Contains(t, out, "users/%40%23%24")

	doc, err := m.Collections.GetDocument(context.Background(), "users/@#$")
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Data["n"])

	_, err = run(t, opts, "", "add", "users", "--data", `[1]`)
	assert.Error(t, err)
}

func TestRemove_Confirmation(t *testing.T) {
	m, opts := sharedModule(t, nil)
	seedUsers(t, m)

	out, err := run(t, opts, "n\n", "rm", "users")
	assert.ErrorIs(t, err, apperrors.ErrDeleteNotConfirmed)
	assert.Contains(t, out, "[y/N]")

	docs, err := m.Store.ListDocuments(context.Background(), "users")
	require.NoError(t, err)
	assert.Len(t, docs, 3)

	out, err = run(t, opts, "y\n", "rm", "users")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 3 document(s) under users")
}

func TestRemove_DocumentWithYes(t *testing.T) {
	m, opts := sharedModule(t, nil)
	seedUsers(t, m)

	out, err := run(t, opts, "", "rm", "users/bob", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 1 document(s) under users/bob")

	_, err = m.Collections.GetDocument(context.Background(), "users/bob")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSeed(t *testing.T) {
	m, opts := sharedModule(t, nil)
	file := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`documents:
  - path: users/alice
    data:
      age: 30
  - path: users/alice/posts/p1
    data:
      title: hello
`), 0o600))

	out, err := run(t, opts, "", "seed", file)
	require.NoError(t, err)
	assert.Equal(t, "Seeded 2 documents\n", out)

	doc, err := m.Collections.GetDocument(context.Background(), "users/alice/posts/p1")
	require.NoError(t, err)
	assert.Equal(t, "hello", doc.Data["title"])
}

func TestChanges_Disabled(t *testing.T) {
	_, opts := sharedModule(t, nil)

	_, err := run(t, opts, "", "changes")
	assert.ErrorIs(t, err, apperrors.ErrEventStoreDisabled)
}

func TestToken(t *testing.T) {
	_, opts := sharedModule(t, nil)
	_, err := run(t, opts, "", "token")
	assert.Error(t, err)

	cfg := config.DefaultExplorerConfig()
	cfg.Auth.JWTSecret = "test-secret"
	m, opts := sharedModule(t, cfg)

	out, err := run(t, opts, "", "token", "--subject", "ops")
	require.NoError(t, err)
	claims, err := m.Tokens.ValidateToken(context.Background(), strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
}

func TestHashPassword(t *testing.T) {
	out, err := run(t, Options{}, "s3cret\n", "hash-password")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("s3cret")))

	out, err = run(t, Options{}, "", "hash-password", "other")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("other")))
}
