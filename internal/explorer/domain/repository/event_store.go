package repository

import (
	"context"

	"firestore-explorer/internal/explorer/domain/model"
)

// EventStore persists change events so clients can catch up after reconnecting.
type EventStore interface {
	StoreEvent(ctx context.Context, event model.ChangeEvent) (model.ResumeToken, error)
	// GetEventsSince returns events after token, oldest first. An empty token reads from the start.
	GetEventsSince(ctx context.Context, token model.ResumeToken, count int64) ([]model.ChangeEvent, error)
}
