package di

import (
	"context"
	"testing"

	"firestore-explorer/internal/explorer/config"
	"firestore-explorer/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainer_MemoryLifecycle(t *testing.T) {
	c := NewContainer(nil, logger.NewNop())

	assert.Error(t, c.HealthCheck(context.Background()))

	require.NoError(t, c.Initialize(context.Background()))
	require.NotNil(t, c.GetExplorerModule())
	assert.Nil(t, c.MongoClient)
	assert.Nil(t, c.RedisClient)
	assert.NoError(t, c.Ping(context.Background()))

	require.NoError(t, c.Close())
	assert.Nil(t, c.GetExplorerModule())
}

func TestContainer_InvalidMongoURI(t *testing.T) {
	cfg := config.DefaultExplorerConfig()
	cfg.StorageBackend = config.StorageMongoDB
	cfg.MongoDBURI = "not-a-mongo-uri"

	c := NewContainer(cfg, logger.NewNop())
	err := c.Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MongoDB")
	assert.Nil(t, c.GetExplorerModule())
}

func TestContainer_InvalidBackend(t *testing.T) {
	cfg := config.DefaultExplorerConfig()
	cfg.StorageBackend = "sqlite"

	c := NewContainer(cfg, logger.NewNop())
	assert.Error(t, c.Initialize(context.Background()))
}
