package http

import (
	"context"
	"strings"
	"time"

	"firestore-explorer/internal/explorer/adapter/confirm"
	"firestore-explorer/internal/explorer/adapter/security"
	"firestore-explorer/internal/explorer/domain/model"
	"firestore-explorer/internal/explorer/usecase"
	apperrors "firestore-explorer/internal/shared/errors"
	"firestore-explorer/internal/shared/firestore"
	"firestore-explorer/internal/shared/logger"
	"firestore-explorer/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const documentsRoute = "/v1/documents/"

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the explorer REST API.
type Handler struct {
	Collections usecase.CollectionUsecase
	Health      Pinger
	// Tokens protects mutating routes when set.
	Tokens *security.TokenService
	// Login enables POST /v1/token when set.
	Login *security.AdminLogin
	Log   logger.Logger
}

// NewHandler creates a Handler. tokens and login may be nil.
func NewHandler(collections usecase.CollectionUsecase, health Pinger, tokens *security.TokenService, login *security.AdminLogin, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		Collections: collections,
		Health:      health,
		Tokens:      tokens,
		Login:       login,
		Log:         log.WithComponent("http_handler"),
	}
}

func (h *Handler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HealthCheck)
	router.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.Post("/token", h.IssueToken)
	v1.Get("/collections", h.ListCollections)
	v1.Get("/changes", h.ListChanges)

	protect := Protect(h.Tokens)
	v1.Get("/documents/*", h.Get)
	v1.Post("/documents/*", protect, h.CreateDocument)
	v1.Put("/documents/*", protect, h.SetDocument)
	v1.Delete("/documents/*", protect, h.Delete)
}

func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	status := fiber.Map{"status": "ok", "time": time.Now().UTC()}
	if h.Health != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := h.Health.Ping(ctx); err != nil {
			status["status"] = "unavailable"
			status["error"] = err.Error()
			return c.Status(fiber.StatusServiceUnavailable).JSON(status)
		}
	}
	return c.JSON(status)
}

// Get returns a document, or the view of a collection when the path has an
// odd number of segments.
func (h *Handler) Get(c *fiber.Ctx) error {
	info, err := pathParam(c)
	if err != nil {
		return err
	}

	if info.IsDocument {
		doc, err := h.Collections.GetDocument(c.UserContext(), info.Path)
		if err != nil {
			return err
		}
		return c.JSON(doc)
	}

	var q usecase.ViewQuery
	if err := c.QueryParser(&q); err != nil {
		return apperrors.NewValidationError("invalid view query").WithCause(apperrors.ErrInvalidFilter)
	}
	snapshot, err := h.Collections.LoadCollection(c.UserContext(), usecase.LoadCollectionRequest{
		CollectionPath: info.Path,
		View:           q.ViewOptions(),
	})
	if err != nil {
		return err
	}
	return c.JSON(snapshot)
}

// CreateDocument adds a document to a collection. Body: {"id": "...", "data": {...}}.
func (h *Handler) CreateDocument(c *fiber.Ctx) error {
	info, err := pathParam(c)
	if err != nil {
		return err
	}
	if !info.IsCollection {
		return apperrors.NewValidationError("documents are created in a collection path").WithCause(apperrors.ErrInvalidPath)
	}

	body, err := utils.DecodeJSONObject(c.Body())
	if err != nil {
		return apperrors.NewValidationError("request body must be a JSON object")
	}
	req := usecase.CreateDocumentRequest{CollectionPath: info.Path}
	if id, ok := body["id"]; ok {
		s, isString := id.(string)
		if !isString {
			return apperrors.NewValidationError("id must be a string").WithCause(apperrors.ErrInvalidDocumentID)
		}
		req.DocumentID = s
	}
	if data, ok := body["data"]; ok && data != nil {
		m, isMap := data.(map[string]interface{})
		if !isMap {
			return apperrors.NewValidationError("data must be a JSON object")
		}
		req.Data = m
	}

	resp, err := h.Collections.CreateDocument(c.UserContext(), req)
	if err != nil {
		return err
	}
	c.Location(documentsRoute + firestore.EncodePath(resp.Document.Path))
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// SetDocument writes the JSON body as the document's data; ?merge=true merges.
func (h *Handler) SetDocument(c *fiber.Ctx) error {
	info, err := pathParam(c)
	if err != nil {
		return err
	}
	if !info.IsDocument {
		return apperrors.NewValidationError("path must be a document path").WithCause(apperrors.ErrInvalidPath)
	}

	data, err := utils.DecodeJSONObject(c.Body())
	if err != nil {
		return apperrors.NewValidationError("request body must be a JSON object")
	}
	doc, err := h.Collections.SetDocument(c.UserContext(), usecase.SetDocumentRequest{
		DocumentPath: info.Path,
		Data:         data,
		Merge:        c.QueryBool("merge"),
	})
	if err != nil {
		return err
	}
	return c.JSON(doc)
}

// Delete removes a collection, or a document, only with ?confirm=true.
func (h *Handler) Delete(c *fiber.Ctx) error {
	info, err := pathParam(c)
	if err != nil {
		return err
	}

	confirmer := confirm.Static(c.QueryBool("confirm"))
	var result *usecase.DeleteResult
	if info.IsCollection {
		result, err = h.Collections.DeleteCollection(c.UserContext(), info.Path, confirmer)
	} else {
		result, err = h.Collections.DeleteDocument(c.UserContext(), usecase.DeleteDocumentRequest{
			DocumentPath: info.Path,
			Recursive:    c.QueryBool("recursive"),
		}, confirmer)
	}
	if err != nil {
		return err
	}

	h.Log.WithContext(c.UserContext()).WithFields(map[string]interface{}{
		"path":    result.Path,
		"deleted": result.Deleted,
	}).Info("Delete completed")
	return c.JSON(result)
}

// ListCollections lists collection IDs under ?parent= (root when empty).
func (h *Handler) ListCollections(c *fiber.Ctx) error {
	ids, err := h.Collections.ListCollections(c.UserContext(), c.Query("parent"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"collections": ids})
}

// ListChanges returns recorded changes after ?since= and the token to resume from.
func (h *Handler) ListChanges(c *fiber.Ctx) error {
	since := model.ResumeToken(c.Query("since"))
	events, err := h.Collections.ListChanges(c.UserContext(), since, int64(c.QueryInt("count")))
	if err != nil {
		return err
	}
	next := since
	if len(events) > 0 {
		next = events[len(events)-1].ResumeToken
	}
	return c.JSON(fiber.Map{"events": events, "next": next})
}

// IssueToken exchanges the admin password for a bearer token.
func (h *Handler) IssueToken(c *fiber.Ctx) error {
	if h.Login == nil {
		return fiber.NewError(fiber.StatusNotFound, "token login is not enabled")
	}
	var body struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("request body must be a JSON object")
	}
	token, err := h.Login.Login(c.UserContext(), body.Password)
	if err != nil {
		return apperrors.NewAuthenticationError("invalid credentials").WithCause(err)
	}
	return c.JSON(fiber.Map{"token": token, "tokenType": "Bearer"})
}

// pathParam decodes the percent-encoded wildcard path of /v1/documents/*.
func pathParam(c *fiber.Ctx) (*firestore.PathInfo, error) {
	decoded, err := firestore.DecodePath(strings.Clone(c.Params("*")))
	if err != nil {
		return nil, err
	}
	return firestore.ParsePath(decoded)
}
