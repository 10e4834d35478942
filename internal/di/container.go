package di

import (
	"context"
	"fmt"
	"sync"
	"time"

	"firestore-explorer/internal/explorer"
	"firestore-explorer/internal/explorer/config"
	"firestore-explorer/internal/shared/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 30 * time.Second
)

// Container owns the external connections and the explorer module.
type Container struct {
	mu sync.RWMutex
	// Module instances
	ExplorerModule *explorer.ExplorerModule
	// Connections, nil when the configuration does not need them
	MongoClient *mongo.Client
	RedisClient *redis.Client
	// Configuration
	Config *config.ExplorerConfig
	// Logger
	Logger logger.Logger
}

// NewContainer creates a container for cfg. Nothing is connected until Initialize.
func NewContainer(cfg *config.ExplorerConfig, log logger.Logger) *Container {
	if log == nil {
		log = logger.NewLogger()
	}
	if cfg == nil {
		cfg = config.DefaultExplorerConfig()
	}
	return &Container{Config: cfg, Logger: log}
}

// Initialize connects to MongoDB and Redis when configured and builds the explorer module.
func (c *Container) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.Config.Validate(); err != nil {
		return err
	}

	var deps explorer.Dependencies
	if c.Config.StorageBackend == config.StorageMongoDB {
		db, err := c.connectMongo(ctx)
		if err != nil {
			return err
		}
		deps.MongoDB = db
	}
	if c.Config.Redis.Enabled {
		client, err := c.connectRedis(ctx)
		if err != nil {
			return err
		}
		deps.Redis = client
	}

	module, err := explorer.NewExplorerModule(c.Config, c.Logger, deps)
	if err != nil {
		return fmt.Errorf("failed to create explorer module: %w", err)
	}
	if err := module.Start(ctx); err != nil {
		return fmt.Errorf("failed to start explorer module: %w", err)
	}

	c.ExplorerModule = module
	return nil
}

func (c *Container) connectMongo(ctx context.Context) (*mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(c.Config.MongoDBURI).
		SetServerSelectionTimeout(connectTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	c.MongoClient = client
	c.Logger.Info("MongoDB connection established successfully")
	return client.Database(c.Config.DatabaseName), nil
}

func (c *Container) connectRedis(ctx context.Context) (*redis.Client, error) {
	client := config.NewRedisClient(&c.Config.Redis)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", c.Config.Redis.GetAddr(), err)
	}

	c.RedisClient = client
	c.Logger.Info("Redis connection established successfully")
	return client, nil
}

// GetExplorerModule returns the explorer module instance
func (c *Container) GetExplorerModule() *explorer.ExplorerModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ExplorerModule
}

// HealthCheck pings the document store and Redis.
func (c *Container) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.ExplorerModule == nil {
		return fmt.Errorf("explorer module is not initialized")
	}
	if err := c.ExplorerModule.Store.Ping(ctx); err != nil {
		return fmt.Errorf("document store health check failed: %w", err)
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("Redis health check failed: %w", err)
		}
	}
	return nil
}

// Ping lets the container serve as the /health checker.
func (c *Container) Ping(ctx context.Context) error {
	return c.HealthCheck(ctx)
}

// Cleanup closes connections in reverse order of initialization.
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	c.ExplorerModule = nil

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
		c.RedisClient = nil
	}
	if c.MongoClient != nil {
		if err := c.MongoClient.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to disconnect MongoDB: %w", err))
		}
		c.MongoClient = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// Close gracefully shuts down all services in the container with timeout
func (c *Container) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := c.Cleanup(ctx); err != nil {
		c.Logger.Warnf("Cleanup errors occurred: %v", err)
		return err
	}
	c.Logger.Info("Container resources closed")
	return nil
}
