package http

import (
	"strings"

	apperrors "firestore-explorer/internal/shared/errors"
	"firestore-explorer/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorHandler renders AppErrors with their status and Firestore-style code.
// Anything else becomes a 500 unless it is a *fiber.Error.
func ErrorHandler(log logger.Logger) fiber.ErrorHandler {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent("http")

	return func(c *fiber.Ctx, err error) error {
		status, body := errorResponse(err)
		if status >= fiber.StatusInternalServerError {
			log.WithContext(c.UserContext()).WithFields(map[string]interface{}{
				"method": c.Method(),
				"path":   c.Path(),
				"error":  err.Error(),
			}).Error("Request failed")
		}
		return c.Status(status).JSON(body)
	}
}

func errorResponse(err error) (int, ErrorResponse) {
	if appErr, ok := apperrors.AsAppError(err); ok {
		status := appErr.HTTPCode
		if status == 0 {
			status = fiber.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = codeForStatus(status)
		}
		return status, ErrorResponse{
			Error:   strings.ToLower(string(appErr.Type)),
			Message: appErr.Message,
			Code:    code,
			Details: appErr.Details,
		}
	}

	if fiberErr, ok := err.(*fiber.Error); ok {
		return fiberErr.Code, ErrorResponse{
			Error:   "http_error",
			Message: fiberErr.Message,
			Code:    codeForStatus(fiberErr.Code),
		}
	}

	return fiber.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
		Code:    apperrors.CodeInternal,
	}
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return apperrors.CodeInvalidArgument
	case fiber.StatusNotFound:
		return apperrors.CodeNotFound
	case fiber.StatusConflict:
		return apperrors.CodeAlreadyExists
	case fiber.StatusPreconditionFailed:
		return apperrors.CodeFailedPrecondition
	case fiber.StatusUnauthorized:
		return apperrors.CodeUnauthenticated
	case fiber.StatusServiceUnavailable:
		return apperrors.CodeUnavailable
	}
	if status >= fiber.StatusInternalServerError {
		return apperrors.CodeInternal
	}
	return apperrors.CodeInvalidArgument
}
