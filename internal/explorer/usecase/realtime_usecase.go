package usecase

import (
	"context"
	"sync"
	"time"

	"firestore-explorer/internal/explorer/domain/model"
	"firestore-explorer/internal/explorer/domain/repository"
	"firestore-explorer/internal/explorer/domain/service"
	"firestore-explorer/internal/shared/errors"
	"firestore-explorer/internal/shared/eventbus"
	"firestore-explorer/internal/shared/firestore"
	"firestore-explorer/internal/shared/logger"
)

// RealtimeUsecase keeps live collection views up to date.
type RealtimeUsecase interface {
	// Subscribe registers a live view and immediately sends its current snapshot.
	// subscriberID should be unique per client connection. The hub never closes
	// ch; callers must Unsubscribe before closing it.
	Subscribe(ctx context.Context, subscriberID, collectionPath string, view model.ViewOptions, ch chan<- *model.CollectionSnapshot) error
	Unsubscribe(ctx context.Context, subscriberID, collectionPath string) error
	// UnsubscribeAll drops every view of subscriberID, typically on disconnect.
	UnsubscribeAll(ctx context.Context, subscriberID string) error
	// HandleChange recomputes and pushes the views affected by change.
	HandleChange(ctx context.Context, change model.ChangeEvent) error
	SubscriberCount() int
}

type subscription struct {
	view model.ViewOptions
	ch   chan<- *model.CollectionSnapshot
}

type realtimeUsecaseImpl struct {
	// subscriptions maps a collection path to subscriber IDs and their views.
	subscriptions map[string]map[string]*subscription
	mu            sync.RWMutex

	store repository.DocumentStore
	views *service.ViewService
	now   func() time.Time
	log   logger.Logger
}

// NewRealtimeUsecase creates the live-view hub.
func NewRealtimeUsecase(store repository.DocumentStore, views *service.ViewService, log logger.Logger) RealtimeUsecase {
	if log == nil {
		log = logger.NewNop()
	}
	return &realtimeUsecaseImpl{
		subscriptions: make(map[string]map[string]*subscription),
		store:         store,
		views:         views,
		now:           func() time.Time { return time.Now().UTC() },
		log:           log.WithComponent("realtime_usecase"),
	}
}

// RealtimeSubscriber is the bus subscription name of the live-view hub.
const RealtimeSubscriber = "realtime"

// RegisterEventHandlers subscribes the hub to every document event on bus.
func RegisterEventHandlers(bus *eventbus.EventBus, realtime RealtimeUsecase) {
	bus.Subscribe(RealtimeSubscriber, func(ctx context.Context, event eventbus.Event) error {
		change, ok := event.Data().(model.ChangeEvent)
		if !ok {
			return nil
		}
		return realtime.HandleChange(ctx, change)
	}, eventbus.DocumentEventTypes...)
}

func (uc *realtimeUsecaseImpl) Subscribe(ctx context.Context, subscriberID, collectionPath string, view model.ViewOptions, ch chan<- *model.CollectionSnapshot) error {
	if subscriberID == "" {
		return errors.NewValidationError("subscriber ID is required")
	}
	ref, err := model.NewCollectionRef(collectionPath)
	if err != nil {
		return err
	}
	if err := view.Validate(); err != nil {
		return err
	}

	docs, err := uc.store.ListDocuments(ctx, ref.Path)
	if err != nil {
		return err
	}
	snapshot, err := buildSnapshot(uc.views, ref.Path, docs, view, uc.now())
	if err != nil {
		return err
	}

	uc.mu.Lock()
	if _, ok := uc.subscriptions[ref.Path]; !ok {
		uc.subscriptions[ref.Path] = make(map[string]*subscription)
	}
	if _, ok := uc.subscriptions[ref.Path][subscriberID]; ok {
		uc.log.WithFields(map[string]interface{}{"subscriberID": subscriberID, "path": ref.Path}).
			Warn("Subscriber already subscribed to path, replacing view")
	}
	sub := &subscription{view: view, ch: ch}
	uc.subscriptions[ref.Path][subscriberID] = sub
	uc.mu.Unlock()

	uc.log.WithFields(map[string]interface{}{"subscriberID": subscriberID, "path": ref.Path}).Info("Client subscribed")
	uc.send(subscriberID, sub, snapshot)
	return nil
}

func (uc *realtimeUsecaseImpl) Unsubscribe(ctx context.Context, subscriberID, collectionPath string) error {
	path, err := firestore.ValidateCollectionPath(collectionPath)
	if err != nil {
		return err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	subscribers, ok := uc.subscriptions[path]
	if !ok {
		return nil
	}
	delete(subscribers, subscriberID)
	if len(subscribers) == 0 {
		delete(uc.subscriptions, path)
	}
	uc.log.WithFields(map[string]interface{}{"subscriberID": subscriberID, "path": path}).Info("Client unsubscribed")
	return nil
}

func (uc *realtimeUsecaseImpl) UnsubscribeAll(ctx context.Context, subscriberID string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	for path, subscribers := range uc.subscriptions {
		delete(subscribers, subscriberID)
		if len(subscribers) == 0 {
			delete(uc.subscriptions, path)
		}
	}
	return nil
}

// HandleChange lists each affected collection once and pushes one snapshot
// per subscriber. A collection is affected when the change happened in it or
// above it (a cascading delete).
func (uc *realtimeUsecaseImpl) HandleChange(ctx context.Context, change model.ChangeEvent) error {
	affected := uc.affectedSubscriptions(change)
	if len(affected) == 0 {
		return nil
	}

	var firstErr error
	for path, subscribers := range affected {
		docs, err := uc.store.ListDocuments(ctx, path)
		if err != nil {
			uc.log.WithFields(map[string]interface{}{"path": path, "error": err}).Error("Failed to reload collection")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		readTime := uc.now()
		for subscriberID, sub := range subscribers {
			snapshot, err := buildSnapshot(uc.views, path, docs, sub.view, readTime)
			if err != nil {
				uc.log.WithFields(map[string]interface{}{"subscriberID": subscriberID, "error": err}).Warn("Failed to apply view")
				continue
			}
			uc.send(subscriberID, sub, snapshot)
		}
	}
	return firstErr
}

func (uc *realtimeUsecaseImpl) affectedSubscriptions(change model.ChangeEvent) map[string]map[string]*subscription {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	affected := make(map[string]map[string]*subscription)
	for path, subscribers := range uc.subscriptions {
		if path != change.CollectionPath && !firestore.IsWithin(path, change.Path) {
			continue
		}
		copied := make(map[string]*subscription, len(subscribers))
		for id, sub := range subscribers {
			copied[id] = sub
		}
		affected[path] = copied
	}
	return affected
}

// send never blocks: a full channel drops the snapshot for that subscriber.
func (uc *realtimeUsecaseImpl) send(subscriberID string, sub *subscription, snapshot *model.CollectionSnapshot) {
	select {
	case sub.ch <- snapshot:
	default:
		uc.log.WithFields(map[string]interface{}{
			"subscriberID": subscriberID,
			"path":         snapshot.CollectionPath,
		}).Warn("Subscriber channel full, dropping snapshot")
	}
}

func (uc *realtimeUsecaseImpl) SubscriberCount() int {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	n := 0
	for _, subscribers := range uc.subscriptions {
		n += len(subscribers)
	}
	return n
}
