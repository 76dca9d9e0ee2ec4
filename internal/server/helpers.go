package server

import (
	"errors"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter as a positive uint. A malformed or
// non-positive value means the resource cannot exist, so it is reported as
// not found without touching the store. On failure it writes the response
// and returns errResponseWritten; callers should return nil.
func (s *Server) parseID(c *fiber.Ctx, param, resource string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError(resource, c.Params(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// callerID returns the authenticated user ID set by AuthRequired.
func callerID(c *fiber.Ctx) uint {
	if uid, ok := c.Locals("userID").(uint); ok {
		return uid
	}
	return 0
}

// statusForCode maps an application error code to an HTTP status.
func statusForCode(code string) int {
	switch code {
	case models.CodeValidation, models.CodeConflict, models.CodeInvalidCredentials:
		return fiber.StatusBadRequest
	case models.CodeUnauthenticated, models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// mapServiceError writes the HTTP response for a service-layer error.
// Internal errors are recorded on the active request span; expected
// application errors are not, they are normal control flow.
func mapServiceError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		if appErr.Code == models.CodeInternal {
			observability.RecordErrorInContext(c.UserContext(), err)
		}
		return models.RespondWithError(c, statusForCode(appErr.Code), appErr)
	}
	observability.RecordErrorInContext(c.UserContext(), err)
	return models.RespondWithError(c, fiber.StatusInternalServerError, err)
}
