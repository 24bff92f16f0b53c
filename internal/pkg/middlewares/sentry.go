package middlewares

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/contrib/fibersentry"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

func EnrichSentry() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if hub := fibersentry.GetHubFromContext(c); hub != nil {
			if id, ok := c.Locals(LocalsRequestID).(string); ok {
				hub.Scope().SetTag("request_id", id)
			}
		}

		var r http.Request
		if err := fasthttpadaptor.ConvertRequest(c.Context(), &r, true); err != nil {
			return err
		}
		span := sentry.StartSpan(c.UserContext(), "http.server", sentry.ContinueFromRequest(&r))
		defer span.Finish()

		return c.Next()
	}
}
