package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"onegov.dev/electionday/internal/pkg/flog"
)

// RequestID copies the request id the logger middleware generated into the
// locals, where handlers and the sentry middleware pick it up.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := flog.IDFromFiberCtx(c); ok {
			c.Locals(LocalsRequestID, id.String())
		}
		return c.Next()
	}
}
