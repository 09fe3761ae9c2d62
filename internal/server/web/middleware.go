package web

import (
	"time"

	"github.com/dmitrijs2005/formkeeper/internal/common"
	"github.com/dmitrijs2005/formkeeper/internal/logging"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const requestIDLocal = "request_id"

// RequestLogger tags every request with an id (taken from X-Request-ID or
// generated) and logs one line once the handler chain returns.
func RequestLogger(l logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		id := c.Get(common.RequestIDHeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(requestIDLocal, id)
		c.Set(common.RequestIDHeaderName, id)

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status, _ = classify(err)
		}

		l.Info(c.UserContext(), "request",
			"request_id", id,
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", time.Since(start).String(),
		)
		return err
	}
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDLocal).(string)
	return id
}
