package middlewares

import (
	"github.com/gofiber/fiber/v2"
)

const (
	RequestIDHeader   = "X-Electionday-Request-ID"
	IdempotencyHeader = "X-Electionday-Idempotency"

	IdempotencyKeyHeader = "Idempotency-Key"

	LocalsRequestID      = "requestId"
	LocalsIdempotencyKey = "idempotencyKey"
)

func Chained(app *fiber.App, middlewares ...fiber.Handler) {
	for _, middleware := range middlewares {
		app.Use(middleware)
	}
}
