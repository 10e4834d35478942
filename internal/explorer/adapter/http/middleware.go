package http

import (
	"strconv"
	"strings"
	"time"

	"firestore-explorer/internal/explorer/adapter/security"
	apperrors "firestore-explorer/internal/shared/errors"
	"firestore-explorer/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDLocal  = "requestid"
	subjectLocal    = "subject"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "explorer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
)

// RequestID assigns X-Request-ID and copies it into the user context so
// loggers pick it up.
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     requestIDHeader,
		Generator:  uuid.NewString,
		ContextKey: requestIDLocal,
	})
}

// RequestContext moves per-request values from Locals into c.UserContext().
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals(requestIDLocal).(string); ok && id != "" {
			c.SetUserContext(utils.WithRequestID(c.UserContext(), id))
		}
		return c.Next()
	}
}

// Metrics records request count and latency per route template.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if appErr, ok := apperrors.AsAppError(err); ok {
				status = appErr.HTTPCode
			} else if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		statusStr := strconv.Itoa(status)
		httpRequestDuration.WithLabelValues(c.Method(), route, statusStr).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(c.Method(), route, statusStr).Inc()
		return err
	}
}

// Protect requires a valid bearer token. A nil token service disables the check.
func Protect(tokens *security.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokens == nil {
			return c.Next()
		}

		token := extractToken(c)
		if token == "" {
			return apperrors.NewAuthenticationError("authentication required").WithCause(apperrors.ErrUnauthorized)
		}
		claims, err := tokens.ValidateToken(c.UserContext(), token)
		if err != nil {
			return apperrors.NewAuthenticationError("invalid token").WithCause(err)
		}

		c.Locals(subjectLocal, claims.Subject)
		c.SetUserContext(utils.WithSubject(c.UserContext(), claims.Subject))
		return c.Next()
	}
}

// extractToken reads the Authorization header, falling back to ?token= for
// WebSocket clients that cannot set headers.
func extractToken(c *fiber.Ctx) string {
	if authHeader := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return c.Query("token")
}
