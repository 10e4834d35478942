package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"firestore-explorer/internal/explorer/domain/model"
	"firestore-explorer/internal/explorer/domain/repository"
	"firestore-explorer/internal/shared/errors"
	"firestore-explorer/internal/shared/logger"

	"github.com/redis/go-redis/v9"
)

// DefaultStreamKey is the Redis stream holding explorer change events.
const DefaultStreamKey = "explorer:changes"

var _ repository.EventStore = (*RedisEventStore)(nil)

// RedisEventStore keeps change events in a single capped Redis Stream. Stream
// entry IDs double as resume tokens.
type RedisEventStore struct {
	client    redis.Cmdable
	streamKey string
	maxLen    int64
	logger    logger.Logger
}

// NewRedisEventStore creates a store writing to streamKey, trimmed to about maxLen entries.
func NewRedisEventStore(client redis.Cmdable, streamKey string, maxLen int64, log logger.Logger) *RedisEventStore {
	if streamKey == "" {
		streamKey = DefaultStreamKey
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &RedisEventStore{
		client:    client,
		streamKey: streamKey,
		maxLen:    maxLen,
		logger:    log.WithComponent("redis_event_store"),
	}
}

// StoreEvent appends event to the stream and returns its resume token.
func (r *RedisEventStore) StoreEvent(ctx context.Context, event model.ChangeEvent) (model.ResumeToken, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return "", errors.NewInternalError("failed to serialize event data").WithCause(err)
	}

	args := &redis.XAddArgs{
		Stream: r.streamKey,
		Values: map[string]interface{}{
			"type":           string(event.Type),
			"path":           event.Path,
			"collectionPath": event.CollectionPath,
			"data":           data,
			"count":          event.Count,
			"timestamp":      event.Timestamp.UnixNano(),
		},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}

	id, err := r.client.XAdd(ctx, args).Result()
	if err != nil {
		r.logger.WithFields(map[string]interface{}{
			"stream":    r.streamKey,
			"eventType": event.Type,
			"error":     err,
		}).Error("Failed to store event in Redis")
		return "", errors.NewInfrastructureError("failed to store change event").WithCause(err).WithComponent("redis")
	}

	r.logger.WithFields(map[string]interface{}{
		"stream":    r.streamKey,
		"eventType": event.Type,
		"id":        id,
	}).Debug("Event stored in Redis")

	return model.ResumeToken(id), nil
}

// GetEventsSince returns up to count events after token, oldest first.
func (r *RedisEventStore) GetEventsSince(ctx context.Context, token model.ResumeToken, count int64) ([]model.ChangeEvent, error) {
	start := "-"
	if token != "" {
		start = "(" + string(token)
	}
	if count <= 0 {
		count = 100
	}

	msgs, err := r.client.XRangeN(ctx, r.streamKey, start, "+", count).Result()
	if err != nil && err != redis.Nil {
		r.logger.WithFields(map[string]interface{}{
			"stream":      r.streamKey,
			"resumeToken": token,
			"error":       err,
		}).Error("Failed to read events from Redis")
		return nil, errors.NewInfrastructureError("failed to read change events").WithCause(err).WithComponent("redis")
	}

	events := make([]model.ChangeEvent, 0, len(msgs))
	for _, msg := range msgs {
		event, err := parseEventFromMessage(msg)
		if err != nil {
			r.logger.Warnf("Skipping malformed stream entry %s: %v", msg.ID, err)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// Len returns the number of entries in the stream.
func (r *RedisEventStore) Len(ctx context.Context) (int64, error) {
	return r.client.XLen(ctx, r.streamKey).Result()
}

// Trim caps the stream at maxLen entries.
func (r *RedisEventStore) Trim(ctx context.Context, maxLen int64) (int64, error) {
	return r.client.XTrimMaxLen(ctx, r.streamKey, maxLen).Result()
}

// Ping checks the Redis connection.
func (r *RedisEventStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func parseEventFromMessage(msg redis.XMessage) (model.ChangeEvent, error) {
	event := model.ChangeEvent{ResumeToken: model.ResumeToken(msg.ID)}

	typeStr, ok := msg.Values["type"].(string)
	if !ok || typeStr == "" {
		return event, fmt.Errorf("missing event type")
	}
	event.Type = model.ChangeType(typeStr)

	if path, ok := msg.Values["path"].(string); ok {
		event.Path = path
	}
	if collectionPath, ok := msg.Values["collectionPath"].(string); ok {
		event.CollectionPath = collectionPath
	}
	if raw, ok := msg.Values["data"].(string); ok && raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &event.Data); err != nil {
			return event, fmt.Errorf("decode data: %w", err)
		}
	}
	if countStr, ok := msg.Values["count"].(string); ok {
		if n, err := strconv.Atoi(countStr); err == nil {
			event.Count = n
		}
	}
	if tsStr, ok := msg.Values["timestamp"].(string); ok {
		if ns, err := strconv.ParseInt(tsStr, 10, 64); err == nil {
			event.Timestamp = time.Unix(0, ns).UTC()
		}
	}
	return event, nil
}
