package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	StorageMemory  = "memory"
	StorageMongoDB = "mongodb"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `env:"SERVER_HOST" envDefault:"localhost"`
	Port         string        `env:"SERVER_PORT" envDefault:"3000"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
}

// Addr returns host:port for Listen.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// RealtimeConfig holds configuration for live collection views.
type RealtimeConfig struct {
	// WebSocketPath is the endpoint path for WebSocket connections.
	WebSocketPath string `env:"WEBSOCKET_PATH" envDefault:"/v1/listen" json:"websocket_path"`
	// ClientSendChannelBuffer is the number of snapshots queued per subscriber
	// before new ones are dropped.
	ClientSendChannelBuffer int `env:"CLIENT_SEND_CHANNEL_BUFFER" envDefault:"10" json:"client_send_channel_buffer"`
}

// RedisConfig configures the optional change-event stream.
type RedisConfig struct {
	Enabled         bool          `env:"REDIS_ENABLED" envDefault:"false"`
	Host            string        `env:"REDIS_HOST" envDefault:"localhost"`
	Port            string        `env:"REDIS_PORT" envDefault:"6379"`
	Password        string        `env:"REDIS_PASSWORD"`
	Database        int           `env:"REDIS_DB" envDefault:"0"`
	MaxRetries      int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	PoolSize        int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns    int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	EnableTLS       bool          `env:"REDIS_TLS" envDefault:"false"`
	ConnMaxIdleTime time.Duration `env:"REDIS_CONN_MAX_IDLE_TIME" envDefault:"30m"`
	ConnMaxLifetime time.Duration `env:"REDIS_CONN_MAX_LIFETIME" envDefault:"1h"`
	StreamKey       string        `env:"REDIS_STREAM_KEY" envDefault:"explorer:changes"`
	StreamMaxLength int64         `env:"REDIS_STREAM_MAX_LENGTH" envDefault:"10000"`
}

// GetAddr returns the Redis host:port.
func (r *RedisConfig) GetAddr() string {
	return net.JoinHostPort(r.Host, r.Port)
}

// AuthConfig protects mutating routes with HMAC-signed JWTs when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string        `env:"AUTH_JWT_SECRET"`
	Issuer    string        `env:"AUTH_JWT_ISSUER" envDefault:"firestore-explorer"`
	TokenTTL  time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"1h"`
	// AdminPasswordHash is a bcrypt hash; when set, POST /v1/token exchanges
	// the admin password for a token.
	AdminPasswordHash string `env:"AUTH_ADMIN_PASSWORD_HASH"`
}

// Enabled reports whether bearer tokens are required.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}

// ExplorerConfig holds all configuration for the explorer module.
type ExplorerConfig struct {
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`
	MongoDBURI     string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	DatabaseName   string `env:"MONGODB_DATABASE" envDefault:"firestore_explorer"`
	// RoutePrefix is prepended to document redirect routes returned to the UI.
	RoutePrefix string `env:"ROUTE_PREFIX" envDefault:"/firestore/data"`
	// SeedFile is an optional YAML fixture loaded at startup.
	SeedFile string `env:"SEED_FILE"`

	Realtime RealtimeConfig
	Redis    RedisConfig
	Auth     AuthConfig
}

// LoadServerConfig reads ServerConfig from the environment.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load server configuration from environment: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads ExplorerConfig from the environment and validates it.
func LoadConfig() (*ExplorerConfig, error) {
	cfg := &ExplorerConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load explorer configuration from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes defaults and rejects unknown backends.
func (c *ExplorerConfig) Validate() error {
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	switch c.StorageBackend {
	case StorageMemory:
	case StorageMongoDB:
		if c.MongoDBURI == "" {
			return fmt.Errorf("MONGODB_URI is required when STORAGE_BACKEND=%s", StorageMongoDB)
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.Realtime.WebSocketPath == "" {
		c.Realtime.WebSocketPath = "/v1/listen"
	}
	if c.Realtime.ClientSendChannelBuffer <= 0 {
		c.Realtime.ClientSendChannelBuffer = 10
	}
	if c.Redis.StreamKey == "" {
		c.Redis.StreamKey = "explorer:changes"
	}
	if c.Auth.AdminPasswordHash != "" && !c.Auth.Enabled() {
		return fmt.Errorf("AUTH_ADMIN_PASSWORD_HASH requires AUTH_JWT_SECRET")
	}
	return nil
}

// DefaultExplorerConfig returns the in-memory development configuration.
func DefaultExplorerConfig() *ExplorerConfig {
	return &ExplorerConfig{
		StorageBackend: StorageMemory,
		MongoDBURI:     "mongodb://localhost:27017",
		DatabaseName:   "firestore_explorer",
		RoutePrefix:    "/firestore/data",
		Realtime: RealtimeConfig{
			WebSocketPath:           "/v1/listen",
			ClientSendChannelBuffer: 10,
		},
		Redis: RedisConfig{
			Host:            "localhost",
			Port:            "6379",
			MaxRetries:      3,
			PoolSize:        10,
			MinIdleConns:    2,
			ConnMaxIdleTime: 30 * time.Minute,
			ConnMaxLifetime: time.Hour,
			StreamKey:       "explorer:changes",
			StreamMaxLength: 10000,
		},
		Auth: AuthConfig{
			Issuer:   "firestore-explorer",
			TokenTTL: time.Hour,
		},
	}
}
