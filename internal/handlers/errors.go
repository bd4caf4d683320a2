package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/example/bloomdesk/internal/services"
)

// ErrorHandler renders every error returned by a handler as
// {"success": false, "code": ..., "error": ...} with a matching status.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	message := err.Error()

	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		message = ferr.Message
	}

	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"code":    code,
		"error":   message,
	})
}

func classify(err error) (int, string) {
	var ferr *fiber.Error
	var verr *services.ValidationError
	switch {
	case errors.As(err, &ferr):
		return ferr.Code, "http_error"
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, "validation"
	case errors.Is(err, services.ErrInvalidAmount):
		return fiber.StatusBadRequest, "invalid_amount"
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrAlreadyUsed):
		return fiber.StatusConflict, "already_used"
	case errors.Is(err, services.ErrConflict):
		return fiber.StatusConflict, "conflict"
	case errors.Is(err, services.ErrExpired):
		return fiber.StatusUnprocessableEntity, "expired"
	case errors.Is(err, services.ErrInsufficientPoints):
		return fiber.StatusUnprocessableEntity, "insufficient_points"
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusUnauthorized, "unauthorized"
	}
	return fiber.StatusInternalServerError, "store_error"
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return id, nil
}
