package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"onegov.dev/electionday/internal/pkg/flog"
)

func Logger(app *fiber.App) {
	Chained(
		app,
		flog.NewHandlerMiddleware(log.With().Logger()),
		flog.RequestIDHandler("request_id", RequestIDHeader),
		flog.FieldHandler("ip", (*fiber.Ctx).IP),
		flog.FieldHandler("method", func(c *fiber.Ctx) string { return c.Method() }),
		flog.FieldHandler("url", func(c *fiber.Ctx) string { return c.Path() }),
		flog.FieldHandler("user_agent", func(c *fiber.Ctx) string { return c.Get(fiber.HeaderUserAgent) }),
		requestLogger(),
	)
}

func requestLogger() fiber.Handler {
	return flog.AccessHandler(func(ctx *fiber.Ctx, duration time.Duration) {
		flog.InfoFrom(ctx).
			Str("evt.name", "http.request").
			Int("status", ctx.Response().StatusCode()).
			Int("size", len(ctx.Response().Body())).
			Dur("duration", duration).
			Msg("received request")
	})
}
