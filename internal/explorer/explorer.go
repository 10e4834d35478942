// Package explorer wires the collection explorer: storage backend, view
// service, use cases, change log and HTTP/WebSocket handlers.
package explorer

import (
	"context"
	"fmt"

	"firestore-explorer/internal/explorer/adapter/fixtures"
	httpadapter "firestore-explorer/internal/explorer/adapter/http"
	"firestore-explorer/internal/explorer/adapter/persistence"
	"firestore-explorer/internal/explorer/adapter/persistence/memory"
	"firestore-explorer/internal/explorer/adapter/persistence/mongodb"
	"firestore-explorer/internal/explorer/adapter/security"
	"firestore-explorer/internal/explorer/config"
	"firestore-explorer/internal/explorer/domain/model"
	"firestore-explorer/internal/explorer/domain/repository"
	"firestore-explorer/internal/explorer/domain/service"
	"firestore-explorer/internal/explorer/usecase"
	"firestore-explorer/internal/shared/eventbus"
	"firestore-explorer/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Dependencies are the external clients the module may use. MongoDB is
// required for the mongodb backend, Redis enables the change log.
type Dependencies struct {
	MongoDB *mongo.Database
	Redis   redis.Cmdable
}

// ExplorerModule holds the wired explorer components.
type ExplorerModule struct {
	Config      *config.ExplorerConfig
	Store       repository.DocumentStore
	EventStore  repository.EventStore
	Views       *service.ViewService
	EventBus    *eventbus.EventBus
	Collections usecase.CollectionUsecase
	Realtime    usecase.RealtimeUsecase
	Tokens      *security.TokenService
	Login       *security.AdminLogin
	Handler     *httpadapter.Handler
	WSHandler   *httpadapter.WebSocketHandler
	Logger      logger.Logger
}

// NewExplorerModule builds the module from cfg. A nil cfg uses DefaultExplorerConfig.
func NewExplorerModule(cfg *config.ExplorerConfig, log logger.Logger, deps Dependencies) (*ExplorerModule, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg == nil {
		cfg = config.DefaultExplorerConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info("Initializing explorer module...")

	store, err := newDocumentStore(cfg, deps, log)
	if err != nil {
		return nil, err
	}
	log.Infof("Document store initialized (backend=%s)", cfg.StorageBackend)

	views, err := service.NewViewService()
	if err != nil {
		return nil, fmt.Errorf("failed to create view service: %w", err)
	}

	bus := eventbus.NewEventBus(log)

	var events repository.EventStore
	if cfg.Redis.Enabled {
		if deps.Redis == nil {
			return nil, fmt.Errorf("REDIS_ENABLED is set but no Redis client was provided")
		}
		events = persistence.NewRedisEventStore(deps.Redis, cfg.Redis.StreamKey, cfg.Redis.StreamMaxLength, log)
	}

	collections := usecase.NewCollectionUsecase(store, views, bus, log, usecase.Options{
		RoutePrefix: cfg.RoutePrefix,
		EventStore:  events,
	})
	realtime := usecase.NewRealtimeUsecase(store, views, log)
	usecase.RegisterEventHandlers(bus, realtime)
	if events != nil {
		RecordChanges(bus, events, log)
		log.Info("Redis change log enabled")
	}

	var tokens *security.TokenService
	var login *security.AdminLogin
	if cfg.Auth.Enabled() {
		tokens, err = security.NewTokenService(cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("failed to create token service: %w", err)
		}
		login = security.NewAdminLogin(cfg.Auth.AdminPasswordHash, tokens)
		log.Info("Bearer token authentication enabled for mutating routes")
	}

	return &ExplorerModule{
		Config:      cfg,
		Store:       store,
		EventStore:  events,
		Views:       views,
		EventBus:    bus,
		Collections: collections,
		Realtime:    realtime,
		Tokens:      tokens,
		Login:       login,
		Handler:     httpadapter.NewHandler(collections, store, tokens, login, log),
		WSHandler:   httpadapter.NewWebSocketHandler(realtime, cfg.Realtime.ClientSendChannelBuffer, log),
		Logger:      log,
	}, nil
}

func newDocumentStore(cfg *config.ExplorerConfig, deps Dependencies, log logger.Logger) (repository.DocumentStore, error) {
	switch cfg.StorageBackend {
	case config.StorageMongoDB:
		if deps.MongoDB == nil {
			return nil, fmt.Errorf("STORAGE_BACKEND=%s needs a MongoDB database", config.StorageMongoDB)
		}
		return mongodb.NewDocumentStore(deps.MongoDB, log), nil
	default:
		return memory.NewDocumentStore(), nil
	}
}

const changeRecorderSubscriber = "change_recorder"

// RecordChanges appends every document event published on bus to events.
func RecordChanges(bus *eventbus.EventBus, events repository.EventStore, log logger.Logger) {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent(changeRecorderSubscriber)
	bus.Subscribe(changeRecorderSubscriber, func(ctx context.Context, event eventbus.Event) error {
		change, ok := event.Data().(model.ChangeEvent)
		if !ok {
			return nil
		}
		if _, err := events.StoreEvent(ctx, change); err != nil {
			log.WithFields(map[string]interface{}{"path": change.Path, "error": err}).Error("Failed to record change")
			return err
		}
		return nil
	}, eventbus.DocumentEventTypes...)
}

// Start prepares storage (indexes) and applies SEED_FILE when configured.
func (m *ExplorerModule) Start(ctx context.Context) error {
	if indexed, ok := m.Store.(interface{ EnsureIndexes(context.Context) error }); ok {
		if err := indexed.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}
	if m.Config.SeedFile != "" {
		result, err := m.SeedFromFile(ctx, m.Config.SeedFile)
		if err != nil {
			return err
		}
		m.Logger.Infof("Seeded %d documents from %s", result.Written, m.Config.SeedFile)
	}
	return nil
}

// SeedFromFile writes the documents of a YAML fixture.
func (m *ExplorerModule) SeedFromFile(ctx context.Context, path string) (*usecase.SeedResult, error) {
	fx, err := fixtures.LoadFile(path)
	if err != nil {
		return nil, err
	}
	docs := make([]usecase.SeedDocument, len(fx.Documents))
	for i, d := range fx.Documents {
		docs[i] = usecase.SeedDocument{Path: d.Path, Data: d.Data}
	}
	return m.Collections.SeedDocuments(ctx, docs)
}

// RegisterRoutes mounts the REST API and the live-view WebSocket endpoint.
func (m *ExplorerModule) RegisterRoutes(router fiber.Router) {
	m.Handler.RegisterRoutes(router)
	m.WSHandler.RegisterRoutes(router, m.Config.Realtime.WebSocketPath)
	m.Logger.Infof("Explorer routes registered (websocket=%s)", m.Config.Realtime.WebSocketPath)
}
