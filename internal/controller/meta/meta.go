package meta

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"onegov.dev/electionday/internal/pkg/apperr"
	"onegov.dev/electionday/internal/pkg/bininfo"
	"onegov.dev/electionday/internal/server/svr"
	"onegov.dev/electionday/internal/service"
)

type Meta struct {
	fx.In

	HealthService *service.Health
}

func RegisterMeta(meta *svr.Meta, c Meta) {
	meta.Get("/bininfo", c.BinInfo)

	meta.Get("/health", cache.New(cache.Config{
		// cache it for a second to mitigate potential DDoS
		Expiration: time.Second,
	}), c.Health)
}

func (c *Meta) BinInfo(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"version": bininfo.Version,
		"build":   bininfo.BuildTime,
	})
}

func (c *Meta) Health(ctx *fiber.Ctx) error {
	if err := c.HealthService.Ping(ctx.UserContext()); err != nil {
		log.Error().
			Err(err).
			Str("evt.name", "health.failed").
			Msg("health check failed")
		return apperr.ErrUnavailable.Msg("%s", err.Error())
	}

	return ctx.JSON(fiber.Map{
		"status": "ok",
	})
}
