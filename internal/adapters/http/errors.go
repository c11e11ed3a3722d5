package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/horizonmask/internal/core/domain"
	"github.com/samirrijal/horizonmask/internal/core/usecases"
)

// Error codes carried in APIError.Code.
const (
	codeBadRequest  = "bad_request"
	codeNotFound    = "not_found"
	codeInternal    = "internal_error"
	codeUnavailable = "unavailable"
	codeRateLimited = "rate_limited"
)

// APIError is the JSON body of every non-2xx response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func newError(c *fiber.Ctx, status int, code, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, codeBadRequest, msg)
}

func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, codeNotFound, msg)
}

func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, codeUnavailable, msg)
}

// fail maps a use case error onto a response. Rejected points become 400,
// a missing mount position 503; anything else is logged and returned as 500.
func fail(c *fiber.Ctx, what string, err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return errBadRequest(c, verr.Error())
	case errors.Is(err, usecases.ErrNoPosition):
		return errUnavailable(c, err.Error())
	}
	LoggerFromCtx(c.UserContext()).Error(what+" failed", "error", err)
	return newError(c, fiber.StatusInternalServerError, codeInternal, err.Error())
}
