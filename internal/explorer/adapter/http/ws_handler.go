package http

import (
	"context"
	"sync"

	"firestore-explorer/internal/explorer/domain/model"
	"firestore-explorer/internal/explorer/usecase"
	apperrors "firestore-explorer/internal/shared/errors"
	"firestore-explorer/internal/shared/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Client actions.
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// Server message types.
const (
	MessageSnapshot     = "snapshot"
	MessageUnsubscribed = "unsubscribed"
	MessageError        = "error"
)

// ClientMessage is sent by the browser to manage live views.
type ClientMessage struct {
	Action     string        `json:"action"`
	Path       string        `json:"path"`
	Filter     *model.Filter `json:"filter,omitempty"`
	Limit      int           `json:"limit,omitempty"`
	Expression string        `json:"expr,omitempty"`
}

func (m ClientMessage) view() model.ViewOptions {
	return model.ViewOptions{Filter: m.Filter, Limit: m.Limit, Expression: m.Expression}
}

// ServerMessage is pushed to the browser.
type ServerMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// WebSocketHandler streams collection snapshots to connected clients.
type WebSocketHandler struct {
	realtime   usecase.RealtimeUsecase
	bufferSize int
	log        logger.Logger
}

// NewWebSocketHandler creates a handler whose per-client channel holds bufferSize snapshots.
func NewWebSocketHandler(realtime usecase.RealtimeUsecase, bufferSize int, log logger.Logger) *WebSocketHandler {
	if log == nil {
		log = logger.NewNop()
	}
	if bufferSize <= 0 {
		bufferSize = 10
	}
	return &WebSocketHandler{
		realtime:   realtime,
		bufferSize: bufferSize,
		log:        log.WithComponent("websocket"),
	}
}

// RegisterRoutes mounts the endpoint at path, rejecting plain HTTP requests.
func (h *WebSocketHandler) RegisterRoutes(router fiber.Router, path string, middleware ...fiber.Handler) {
	handlers := append([]fiber.Handler{}, middleware...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}, websocket.New(h.handleConnection))
	router.Get(path, handlers...)
}

func (h *WebSocketHandler) handleConnection(conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	subscriberID := uuid.NewString()
	log := h.log.WithFields(map[string]interface{}{"subscriberID": subscriberID})
	log.Info("WebSocket connection established")

	snapshots := make(chan *model.CollectionSnapshot, h.bufferSize)
	var writeMu sync.Mutex
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		h.forwardSnapshots(ctx, conn, &writeMu, snapshots, log)
	}()

	h.readMessages(ctx, conn, &writeMu, subscriberID, snapshots, log)

	// The hub never closes snapshots, so stop it sending before the writer exits.
	if err := h.realtime.UnsubscribeAll(ctx, subscriberID); err != nil {
		log.WithFields(map[string]interface{}{"error": err}).Error("Error unsubscribing client")
	}
	cancel()
	wg.Wait()
	log.Info("WebSocket connection closed")
}

func (h *WebSocketHandler) readMessages(ctx context.Context, conn *websocket.Conn, writeMu *sync.Mutex, subscriberID string, snapshots chan<- *model.CollectionSnapshot, log logger.Logger) {
	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithFields(map[string]interface{}{"error": err}).Warn("WebSocket read failed")
			}
			return
		}

		switch msg.Action {
		case ActionSubscribe:
			if err := h.realtime.Subscribe(ctx, subscriberID, msg.Path, msg.view(), snapshots); err != nil {
				h.writeError(conn, writeMu, err)
			}
		case ActionUnsubscribe:
			if err := h.realtime.Unsubscribe(ctx, subscriberID, msg.Path); err != nil {
				h.writeError(conn, writeMu, err)
				continue
			}
			h.write(conn, writeMu, ServerMessage{Type: MessageUnsubscribed, Data: fiber.Map{"path": msg.Path}})
		default:
			h.writeError(conn, writeMu, apperrors.NewValidationError("unknown action").WithDetail("action", msg.Action))
		}
	}
}

func (h *WebSocketHandler) forwardSnapshots(ctx context.Context, conn *websocket.Conn, writeMu *sync.Mutex, snapshots <-chan *model.CollectionSnapshot, log logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case snapshot := <-snapshots:
			if err := h.write(conn, writeMu, ServerMessage{Type: MessageSnapshot, Data: snapshot}); err != nil {
				log.WithFields(map[string]interface{}{"error": err}).Warn("Failed to push snapshot")
			}
		}
	}
}

func (h *WebSocketHandler) writeError(conn *websocket.Conn, writeMu *sync.Mutex, err error) {
	_, body := errorResponse(err)
	_ = h.write(conn, writeMu, ServerMessage{Type: MessageError, Data: body})
}

func (h *WebSocketHandler) write(conn *websocket.Conn, writeMu *sync.Mutex, msg ServerMessage) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	return conn.WriteJSON(msg)
}
