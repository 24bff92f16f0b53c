// Package flog provides a set of fiber.Ctx helpers for zerolog.
package flog

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FromFiberCtx gets the logger in the request's context.
func FromFiberCtx(c *fiber.Ctx) *zerolog.Logger {
	return log.Ctx(c.UserContext())
}

// NewHandlerMiddleware injects a copy of l into the request's context.
func NewHandlerMiddleware(l zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// copied per request, UpdateContext below would race otherwise
		scoped := l.With().Logger()
		c.SetUserContext(scoped.WithContext(c.UserContext()))
		return c.Next()
	}
}

// FieldHandler adds value(c) as a field named fieldKey to the request's
// logger.
func FieldHandler(fieldKey string, value func(c *fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		FromFiberCtx(c).UpdateContext(func(zc zerolog.Context) zerolog.Context {
			return zc.Str(fieldKey, value(c))
		})
		return c.Next()
	}
}

type idKey struct{}

// IDFromFiberCtx returns the request id of c if any.
func IDFromFiberCtx(c *fiber.Ctx) (xid.ID, bool) {
	if c == nil {
		return xid.ID{}, false
	}
	return IDFromCtx(c.UserContext())
}

// IDFromCtx returns the request id stored in ctx if any.
func IDFromCtx(ctx context.Context) (xid.ID, bool) {
	id, ok := ctx.Value(idKey{}).(xid.ID)
	return id, ok
}

// CtxWithID stores the request id in ctx.
func CtxWithID(ctx context.Context, id xid.ID) context.Context {
	return context.WithValue(ctx, idKey{}, id)
}

// RequestIDHandler assigns every request an xid, logs it as fieldKey and
// returns it in headerName. Either may be empty.
func RequestIDHandler(fieldKey, headerName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := IDFromFiberCtx(c)
		if !ok {
			id = xid.New()
			c.SetUserContext(CtxWithID(c.UserContext(), id))
		}
		if fieldKey != "" {
			FromFiberCtx(c).UpdateContext(func(zc zerolog.Context) zerolog.Context {
				return zc.Str(fieldKey, id.String())
			})
		}
		if headerName != "" {
			c.Set(headerName, id.String())
		}
		return c.Next()
	}
}

// AccessHandler calls f after each request.
func AccessHandler(f func(c *fiber.Ctx, duration time.Duration)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		f(c, time.Since(start))
		return err
	}
}

func DebugFrom(c *fiber.Ctx) *zerolog.Event {
	return FromFiberCtx(c).Debug()
}

func InfoFrom(c *fiber.Ctx) *zerolog.Event {
	return FromFiberCtx(c).Info()
}

func WarnFrom(c *fiber.Ctx) *zerolog.Event {
	return FromFiberCtx(c).Warn()
}

func ErrorFrom(c *fiber.Ctx) *zerolog.Event {
	return FromFiberCtx(c).Error()
}
