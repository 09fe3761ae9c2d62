package web

import (
	"errors"

	"github.com/dmitrijs2005/formkeeper/internal/common"
	"github.com/dmitrijs2005/formkeeper/internal/logging"
	"github.com/gofiber/fiber/v2"
)

// classify maps an error returned by a handler to the HTTP status and the
// message shown to the client.
func classify(err error) (int, string) {
	var ve *common.ValidationError
	var fe *fiber.Error

	switch {
	case errors.As(err, &ve):
		return fiber.StatusBadRequest, ve.Message
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, common.ErrorNotFound):
		return fiber.StatusNotFound, "No hay datos guardados"
	case errors.Is(err, common.ErrorCorrupted):
		return fiber.StatusInternalServerError, "Los datos guardados están dañados"
	case errors.Is(err, common.ErrorUnauthorized):
		return fiber.StatusUnauthorized, "No autorizado"
	default:
		return fiber.StatusInternalServerError, "Error interno del servidor"
	}
}

// ErrorHandler renders every handler error as {"error": msg}. Internal
// details are logged, never sent.
func ErrorHandler(l logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, msg := classify(err)
		if code >= fiber.StatusInternalServerError {
			l.Error(c.UserContext(), "request failed",
				"request_id", requestID(c),
				"path", c.Path(),
				"error", err.Error(),
			)
		}
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
}
