package config

import (
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisDialTimeout = 5 * time.Second
	redisIOTimeout   = 3 * time.Second
	redisPoolTimeout = 4 * time.Second
)

// ClientOptions maps the configuration onto go-redis options.
func (r *RedisConfig) ClientOptions() *redis.Options {
	opts := &redis.Options{
		Addr:            r.GetAddr(),
		Password:        r.Password,
		DB:              r.Database,
		MaxRetries:      r.MaxRetries,
		PoolSize:        r.PoolSize,
		MinIdleConns:    r.MinIdleConns,
		DialTimeout:     redisDialTimeout,
		ReadTimeout:     redisIOTimeout,
		WriteTimeout:    redisIOTimeout,
		PoolTimeout:     redisPoolTimeout,
		ConnMaxIdleTime: r.ConnMaxIdleTime,
		ConnMaxLifetime: r.ConnMaxLifetime,
	}
	if r.EnableTLS {
		opts.TLSConfig = &tls.Config{ServerName: r.Host, MinVersion: tls.VersionTLS12}
	}
	return opts
}

// NewRedisClient opens a client for the change-event stream. The connection
// is lazy; callers Ping to verify it.
func NewRedisClient(cfg *RedisConfig) *redis.Client {
	return redis.NewClient(cfg.ClientOptions())
}
