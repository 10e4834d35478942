// Package eventbus fans document change events out to in-process subscribers.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"firestore-explorer/internal/shared/logger"
)

// Event types published by the explorer use cases.
const (
	EventTypeDocumentCreated   = "document.created"
	EventTypeDocumentUpdated   = "document.updated"
	EventTypeDocumentDeleted   = "document.deleted"
	EventTypeCollectionDeleted = "collection.deleted"
)

// DocumentEventTypes lists every event type that changes what a collection view shows.
var DocumentEventTypes = []string{
	EventTypeDocumentCreated,
	EventTypeDocumentUpdated,
	EventTypeDocumentDeleted,
	EventTypeCollectionDeleted,
}

// Event is a message carried by the bus.
type Event interface {
	Type() string
	Data() interface{}
	Timestamp() time.Time
	Source() string
}

// Handler reacts to a published event.
type Handler func(ctx context.Context, event Event) error

// Bus is the publish side used by use cases.
type Bus interface {
	Publish(ctx context.Context, event Event) error
}

// RetryPolicy controls how often a failing handler is retried.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// DefaultRetryPolicy retries twice, 50ms apart.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 2, Delay: 50 * time.Millisecond}

type subscription struct {
	name    string
	types   map[string]struct{}
	handler Handler
}

// EventBus delivers each event synchronously to every matching subscription,
// in subscription order. A failing subscription does not stop the others.
type EventBus struct {
	mu            sync.RWMutex
	subscriptions []*subscription
	retry         RetryPolicy
	log           logger.Logger
}

// NewEventBus creates a bus with DefaultRetryPolicy.
func NewEventBus(log logger.Logger) *EventBus {
	return NewEventBusWithRetry(log, DefaultRetryPolicy)
}

func NewEventBusWithRetry(log logger.Logger, retry RetryPolicy) *EventBus {
	if log == nil {
		log = logger.NewNop()
	}
	return &EventBus{retry: retry, log: log.WithComponent("eventbus")}
}

// Subscribe registers handler under name for the given event types. A second
// subscription with the same name replaces the first.
func (eb *EventBus) Subscribe(name string, handler Handler, eventTypes ...string) {
	sub := &subscription{name: name, types: make(map[string]struct{}, len(eventTypes)), handler: handler}
	for _, t := range eventTypes {
		sub.types[t] = struct{}{}
	}

	eb.mu.Lock()
	defer eb.mu.Unlock()
	for i, existing := range eb.subscriptions {
		if existing.name == name {
			eb.subscriptions[i] = sub
			return
		}
	}
	eb.subscriptions = append(eb.subscriptions, sub)
	eb.log.Debugf("Subscribed %s to %v", name, eventTypes)
}

// Unsubscribe removes the subscription registered under name.
func (eb *EventBus) Unsubscribe(name string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for i, sub := range eb.subscriptions {
		if sub.name == name {
			eb.subscriptions = append(eb.subscriptions[:i], eb.subscriptions[i+1:]...)
			return
		}
	}
}

// Subscribers returns the names of the subscriptions receiving eventType.
func (eb *EventBus) Subscribers(eventType string) []string {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	var names []string
	for _, sub := range eb.subscriptions {
		if _, ok := sub.types[eventType]; ok {
			names = append(names, sub.name)
		}
	}
	return names
}

// Publish delivers event and returns the joined errors of the subscriptions
// that still failed after retries.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	eb.mu.RLock()
	var targets []*subscription
	for _, sub := range eb.subscriptions {
		if _, ok := sub.types[event.Type()]; ok {
			targets = append(targets, sub)
		}
	}
	eb.mu.RUnlock()

	var errs []error
	for _, sub := range targets {
		if err := eb.deliver(ctx, sub, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (eb *EventBus) deliver(ctx context.Context, sub *subscription, event Event) error {
	attempts := eb.retry.MaxRetries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: %w", sub.name, ctx.Err())
			case <-time.After(eb.retry.Delay):
			}
		}
		if err = sub.handler(ctx, event); err == nil {
			return nil
		}
		eb.log.WithFields(map[string]interface{}{
			"subscriber": sub.name,
			"eventType":  event.Type(),
			"attempt":    attempt,
			"error":      err,
		}).Warn("Event handler failed")
	}
	return fmt.Errorf("%s failed after %d attempts: %w", sub.name, attempts, err)
}

type basicEvent struct {
	eventType string
	data      interface{}
	timestamp time.Time
	source    string
}

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType string, data interface{}, source string) Event {
	return &basicEvent{
		eventType: eventType,
		data:      data,
		timestamp: time.Now().UTC(),
		source:    source,
	}
}

func (e *basicEvent) Type() string         { return e.eventType }
func (e *basicEvent) Data() interface{}    { return e.data }
func (e *basicEvent) Timestamp() time.Time { return e.timestamp }
func (e *basicEvent) Source() string       { return e.source }
