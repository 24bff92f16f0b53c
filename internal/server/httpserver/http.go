package httpserver

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/contrib/fibersentry"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/helmet/v2"
	"github.com/rs/zerolog/log"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"

	"onegov.dev/electionday/internal/app/appconfig"
	"onegov.dev/electionday/internal/pkg/bininfo"
	"onegov.dev/electionday/internal/pkg/middlewares"
	"onegov.dev/electionday/internal/pkg/observability"
)

var registerPromOnce sync.Once

func Create(conf *appconfig.Config, tp *tracesdk.TracerProvider) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "electionday",
		ServerHeader: fmt.Sprintf("electionday/%s", bininfo.Version),
		// uploads of a WabstiC export can be several megabytes
		BodyLimit:      32 * 1024 * 1024,
		ReadTimeout:    time.Second * 60,
		WriteTimeout:   time.Second * 60,
		ReadBufferSize: 8192,
		// allow possibility for graceful shutdown, otherwise app#Shutdown() will block forever
		IdleTimeout:             conf.HTTPServerShutdownTimeout,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          conf.TrustedProxies,
		ErrorHandler:            ErrorHandler,
		JSONEncoder:             json.Marshal,
		JSONDecoder:             json.Unmarshal,
		Immutable:               true,
	})

	app.Use(favicon.New())
	app.Use(fibersentry.New(fibersentry.Config{
		Repanic: true,
		Timeout: time.Second * 5,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET, POST, PATCH, DELETE, OPTIONS",
		AllowHeaders:  "Content-Type, Authorization, X-Requested-With, Idempotency-Key, sentry-trace",
		ExposeHeaders: "Content-Type, " + middlewares.RequestIDHeader + ", " + middlewares.IdempotencyHeader,
	}))
	middlewares.Logger(app)
	// the logger middleware injects RequestID into the context,
	// and we need an extra middleware to extract it and repopulate it into ctx.Locals
	app.Use(middlewares.RequestID())

	app.Use(helmet.New(helmet.Config{
		HSTSMaxAge:         31356000,
		HSTSPreloadEnabled: true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		PermissionPolicy:   "interest-cohort=()",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e any) {
			buf := make([]byte, 4096)
			buf = buf[:runtime.Stack(buf, false)]
			log.Error().Msgf("panic: %v\n%s\n", e, buf)
		},
	}))
	registerPromOnce.Do(func() {
		fiberprom := fiberprometheus.New(observability.ServiceName)
		fiberprom.RegisterAt(app, "/metrics")
		app.Use(fiberprom.Middleware)
	})

	if conf.TracingEnabled {
		app.Use(otelfiber.Middleware(
			otelfiber.WithTracerProvider(tp),
			otelfiber.WithServerName(observability.ServiceName),
			otelfiber.WithSpanNameFormatter(func(c *fiber.Ctx) string {
				return "HTTP " + c.Method() + " " + c.Route().Path
			}),
		))
	}

	if conf.DevMode {
		log.Info().Msg("Running in DEV mode")
		app.Use(pprof.New())
	}

	if !conf.DevMode {
		app.Use(middlewares.EnrichSentry())

		// imports are expensive, so a misbehaving client must not be able to flood them
		app.Use(limiter.New(limiter.Config{
			Next: func(c *fiber.Ctx) bool {
				return c.Method() != fiber.MethodPost
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"code":    "TOO_MANY_REQUESTS",
					"message": "Your client is sending requests too frequently.",
				})
			},
			Max:        120,
			Expiration: time.Minute,
		}))
	}

	return app
}
